package token

import (
	"time"

	"tempfiles-api/internal/domain/user"
)

type (
	ID    uint64
	Token struct {
		ID     ID
		UserID user.ID
		Name   string
		// Hash is the salted hash of the secret; the secret itself is never stored.
		Hash string

		CreatedAt time.Time
		ExpiresAt time.Time
	}
	Tokens []*Token
)

// Expired reports whether the token is no longer valid at now.
func (t *Token) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
