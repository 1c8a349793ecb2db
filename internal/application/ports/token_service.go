package ports

import (
	"context"

	"tempfiles-api/internal/domain/token"
	"tempfiles-api/internal/domain/user"
)

type TokenService interface {
	// Issue returns the plaintext secret once; only its hash is kept.
	Issue(ctx context.Context, owner *user.User, name, tier string) (string, *token.Token, error)
	Revoke(ctx context.Context, owner *user.User, name string) error
	List(ctx context.Context, owner *user.User) (token.Tokens, error)
	Tiers() []string
}
