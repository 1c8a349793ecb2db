package token

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"tempfiles-api/internal/domain/token"
	"tempfiles-api/internal/domain/user"
	"tempfiles-api/internal/infrastructure/db/postgres"
)

type Repository struct {
	db postgres.DB
}

func NewRepository(db postgres.DB) token.Repository {
	return &Repository{db: db}
}

func scanToken(row pgx.Row) (*Token, error) {
	t := new(Token)
	if err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Name,
		&t.TokenHash,

		&t.CreatedAt,
		&t.ExpiresAt,
	); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *Repository) fetchMany(ctx context.Context, query string, args ...any) (token.Tokens, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ts Tokens
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		ts = append(ts, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return fromDBModels(ts), nil
}

func (r *Repository) FetchAllTokens(ctx context.Context) (token.Tokens, error) {
	return r.fetchMany(ctx, SelectAllTokens)
}

func (r *Repository) FetchUserTokens(ctx context.Context, userID user.ID) (token.Tokens, error) {
	return r.fetchMany(ctx, SelectUserTokens, uint64(userID))
}

func (r *Repository) CreateToken(ctx context.Context, req token.Token) (*token.Token, error) {
	t, err := scanToken(r.db.QueryRow(
		ctx,
		InsertToken,
		uint64(req.UserID), req.Name, req.Hash, req.CreatedAt, req.ExpiresAt,
	))
	if err != nil {
		if postgres.IsPgUniqueViolation(err) {
			return nil, token.ErrNameAlreadyExists
		}
		return nil, fmt.Errorf("insert token %q: %w", req.Name, err)
	}

	return fromDBModel(t), nil
}

func (r *Repository) DeleteUserToken(ctx context.Context, userID user.ID, name string) (bool, error) {
	tag, err := r.db.Exec(ctx, DeleteUserTokenByName, uint64(userID), name)
	if err != nil {
		return false, fmt.Errorf("delete token %q: %w", name, err)
	}
	return tag.RowsAffected() > 0, nil
}
