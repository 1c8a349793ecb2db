package token

import "time"

type (
	Token struct {
		ID        uint64
		UserID    uint64
		Name      string
		TokenHash string

		CreatedAt time.Time
		ExpiresAt time.Time
	}
	Tokens []*Token
)
