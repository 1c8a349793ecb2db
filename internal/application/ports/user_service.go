package ports

import (
	"context"

	"tempfiles-api/internal/domain/user"
)

type UserService interface {
	Register(ctx context.Context, email, name, password string) (*user.User, error)
	FindUserByID(ctx context.Context, uuid user.UUID) (*user.User, error)
}
