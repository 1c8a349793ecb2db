package ports

import (
	"context"
	"io"

	"tempfiles-api/internal/domain/resource"
	"tempfiles-api/internal/domain/user"
)

type Allocator interface {
	Allocate(ctx context.Context) resource.ID
}

// ReclaimReport sums up one reclamation cycle.
type ReclaimReport struct {
	Scanned   int
	Expired   int
	Reclaimed int
	Failed    int
	Recovered bool
}

type Reclaimer interface {
	RunCycle(ctx context.Context) ReclaimReport
	Run(ctx context.Context)
}

type (
	Upload struct {
		FileName string
		Size     int64
		Body     io.Reader
	}
	FileInfo struct {
		Resource *resource.Resource
		Name     string
		Size     int64
	}
)

type ResourceService interface {
	Create(ctx context.Context, owner *user.User, in Upload) (*resource.Resource, error)
	FileName(ctx context.Context, id resource.ID) (string, error)
	Open(ctx context.Context, id resource.ID, name string) (io.ReadCloser, *FileInfo, error)
	Info(ctx context.Context, id resource.ID, name string) (*FileInfo, error)
}
