package resource

import (
	"context"
	"errors"
)

var ErrAlreadyExists = errors.New("resource already exists")

type Repository interface {
	FetchResource(ctx context.Context, id ID) (*Resource, error)
	FetchResources(ctx context.Context) (Resources, error)
	Exists(ctx context.Context, id ID) (bool, error)
	CreateResource(ctx context.Context, req Resource) (*Resource, error)
	DeleteResource(ctx context.Context, id ID) error
}
