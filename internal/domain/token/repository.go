package token

import (
	"context"
	"errors"

	"tempfiles-api/internal/domain/user"
)

var ErrNameAlreadyExists = errors.New("token name already exists")

type Repository interface {
	FetchAllTokens(ctx context.Context) (Tokens, error)
	FetchUserTokens(ctx context.Context, userID user.ID) (Tokens, error)
	CreateToken(ctx context.Context, req Token) (*Token, error)
	// DeleteUserToken removes the named token of userID and reports whether a row existed.
	DeleteUserToken(ctx context.Context, userID user.ID, name string) (bool, error)
}
