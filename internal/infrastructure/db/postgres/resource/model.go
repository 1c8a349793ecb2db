package resource

import "time"

type (
	Resource struct {
		ID       string
		UserID   *uint64
		FileName string

		CreatedAt time.Time
		ExpiresAt time.Time
	}
	Resources []*Resource
)
