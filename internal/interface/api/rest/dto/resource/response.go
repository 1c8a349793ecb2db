package resource

import "time"

type (
	Response struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		URL       string    `json:"url"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	Info struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Size      int64     `json:"size"`
		CreatedAt time.Time `json:"created_at"`
		ExpiresAt time.Time `json:"expires_at"`
		// Anonymous is set when nobody owns the upload.
		Anonymous bool `json:"anonymous"`
	}
)
