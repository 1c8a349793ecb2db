package auth

import (
	"time"

	"github.com/google/uuid"
)

type (
	User struct {
		UUID      uuid.UUID `json:"uuid"`
		Email     string    `json:"email"`
		Name      string    `json:"name"`
		Kind      string    `json:"kind"`
		CreatedAt time.Time `json:"created_at"`
	}
	LoginResponse struct {
		AccessToken string    `json:"access_token"`
		TokenType   string    `json:"token_type"`
		ExpiresAt   time.Time `json:"expires_at"`
		User        User      `json:"user"`
	}
)
