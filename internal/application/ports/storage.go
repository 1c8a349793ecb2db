package ports

import (
	"context"
	"io"

	"tempfiles-api/internal/domain/resource"
)

// Storage keeps the contents of uploaded resources.
type Storage interface {
	Exists(ctx context.Context, id resource.ID) (bool, error)
	Put(ctx context.Context, id resource.ID, name string, r io.Reader, size int64) error
	Open(ctx context.Context, id resource.ID, name string) (io.ReadCloser, int64, error)
	Names(ctx context.Context, id resource.ID) ([]string, error)
	RemoveAll(ctx context.Context, id resource.ID) error
	Probe(ctx context.Context) error
}
