package token

import "time"

type (
	// IssueResponse is the only place the plaintext secret ever appears.
	IssueResponse struct {
		Token     string    `json:"token"`
		Name      string    `json:"name"`
		CreatedAt time.Time `json:"created_at"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	Token struct {
		Name      string    `json:"name"`
		CreatedAt time.Time `json:"created_at"`
		ExpiresAt time.Time `json:"expires_at"`
		Expired   bool      `json:"expired"`
	}
	Tokens       []Token
	ResponseData struct {
		Data      Tokens   `json:"data"`
		Durations []string `json:"durations"`
	}
)
