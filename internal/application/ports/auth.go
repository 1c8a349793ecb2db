package ports

import (
	"context"
	"time"

	"tempfiles-api/internal/domain/user"
)

// Credential is either a password credential or a token credential.
type Credential interface {
	isCredential()
}

type (
	PasswordCredential struct {
		Email    string
		Password string
	}
	TokenCredential struct {
		Secret string
	}
)

func (PasswordCredential) isCredential() {}
func (TokenCredential) isCredential() {}

type Authenticator interface {
	VerifyLogin(ctx context.Context, cred Credential) (*user.User, error)
}

// Sessions signs browser sessions for verified users.
type Sessions interface {
	Issue(u *user.User) (string, time.Time, error)
}
