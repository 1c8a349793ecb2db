package resource

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"tempfiles-api/internal/domain/resource"
	"tempfiles-api/internal/infrastructure/db/postgres"
)

type Repository struct {
	db postgres.DB
}

func NewRepository(db postgres.DB) resource.Repository {
	return &Repository{db: db}
}

func scanResource(row pgx.Row) (*resource.Resource, error) {
	m := new(Resource)
	if err := row.Scan(
		&m.ID,
		&m.UserID,
		&m.FileName,

		&m.CreatedAt,
		&m.ExpiresAt,
	); err != nil {
		return nil, err
	}
	return fromDBModel(m)
}

func (r *Repository) FetchResource(ctx context.Context, id resource.ID) (*resource.Resource, error) {
	res, err := scanResource(r.db.QueryRow(ctx, SelectResource, id.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return res, nil
}

func (r *Repository) FetchResources(ctx context.Context) (resource.Resources, error) {
	rows, err := r.db.Query(ctx, SelectResources)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rs resource.Resources
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		rs = append(rs, res)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return rs, nil
}

func (r *Repository) Exists(ctx context.Context, id resource.ID) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, SelectResourceExists, id.String()).Scan(&exists); err != nil {
		return false, fmt.Errorf("resource %s exists: %w", id, err)
	}
	return exists, nil
}

func (r *Repository) CreateResource(ctx context.Context, req resource.Resource) (*resource.Resource, error) {
	var owner *uint64
	if req.UserID != nil {
		v := uint64(*req.UserID)
		owner = &v
	}

	res, err := scanResource(r.db.QueryRow(
		ctx,
		InsertResource,
		req.ID.String(), owner, req.FileName, req.CreatedAt, req.ExpiresAt,
	))
	if err != nil {
		if postgres.IsPgUniqueViolation(err) {
			return nil, resource.ErrAlreadyExists
		}
		return nil, fmt.Errorf("insert resource %s: %w", req.ID, err)
	}

	return res, nil
}

func (r *Repository) DeleteResource(ctx context.Context, id resource.ID) error {
	if _, err := r.db.Exec(ctx, DeleteResourceByID, id.String()); err != nil {
		return fmt.Errorf("delete resource %s: %w", id, err)
	}
	return nil
}
