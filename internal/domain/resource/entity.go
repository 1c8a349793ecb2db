package resource

import (
	"fmt"
	"strconv"
	"time"

	"tempfiles-api/internal/domain/user"
)

// IDWidth is the length of an identifier rendered as decimal.
const IDWidth = 20

// ID names one uploaded resource. It doubles as an unguessable capability,
// so it is always drawn at random and never reused.
type ID uint64

// String renders the identifier as a fixed-width, zero-padded decimal.
func (id ID) String() string {
	return fmt.Sprintf("%0*d", IDWidth, uint64(id))
}

// ParseID accepts the fixed-width form as well as unpadded decimals.
func ParseID(s string) (ID, error) {
	if s == "" || len(s) > IDWidth {
		return 0, fmt.Errorf("invalid resource id %q", s)
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid resource id %q: %w", s, err)
	}
	return ID(n), nil
}

type (
	Resource struct {
		ID       ID
		UserID   *user.ID
		FileName string

		CreatedAt time.Time
		ExpiresAt time.Time
	}
	Resources []*Resource
)

// Expired reports whether the resource is due for reclamation at now.
func (r *Resource) Expired(now time.Time) bool {
	return r.ExpiresAt.Before(now)
}
