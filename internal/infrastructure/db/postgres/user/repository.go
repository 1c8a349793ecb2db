package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"tempfiles-api/internal/domain/user"
	"tempfiles-api/internal/infrastructure/db/postgres"
)

const nameConstraint = "users_name_key"

type Repository struct {
	db postgres.DB
}

func NewRepository(db postgres.DB) user.Repository {
	return &Repository{db: db}
}

func scanUser(row pgx.Row) (*user.User, error) {
	u := new(User)
	err := row.Scan(
		&u.ID,
		&u.UUID,
		&u.Email,
		&u.Name,
		&u.PasswordHash,
		&u.Kind,

		&u.CreatedAt,
		&u.LastActionAt,
	)
	if err != nil {
		return nil, err
	}

	return fromDBModel(u), nil
}

// fetchOne returns (nil, nil) when no row matches.
func (r *Repository) fetchOne(ctx context.Context, query string, arg any) (*user.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return u, nil
}

func (r *Repository) FetchUserByID(ctx context.Context, uuid user.UUID) (*user.User, error) {
	return r.fetchOne(ctx, SelectUserByID, uuid.String())
}

func (r *Repository) FetchUserByInternalID(ctx context.Context, id user.ID) (*user.User, error) {
	return r.fetchOne(ctx, SelectUserByInternalID, uint64(id))
}

func (r *Repository) FetchUserByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.fetchOne(ctx, SelectUserByEmail, email)
}

func (r *Repository) CreateUser(ctx context.Context, req user.User) (*user.User, error) {
	u, err := scanUser(r.db.QueryRow(
		ctx,
		InsertUser,
		req.Email, req.Name, req.PasswordHash, string(req.Kind),
	))
	if err != nil {
		if postgres.IsPgUniqueViolation(err) {
			if postgres.ViolatedConstraint(err) == nameConstraint {
				return nil, user.ErrNameAlreadyExists
			}
			return nil, user.ErrEmailAlreadyExists
		}
		return nil, err
	}

	return u, nil
}

func (r *Repository) TouchLastAction(ctx context.Context, id user.ID, at time.Time) error {
	if _, err := r.db.Exec(ctx, UpdateLastAction, uint64(id), at); err != nil {
		return fmt.Errorf("touch last action of user %d: %w", id, err)
	}
	return nil
}
