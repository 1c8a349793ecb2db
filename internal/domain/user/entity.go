package user

import (
	"time"

	"github.com/google/uuid"
)

// Kind is the role of an account. KindAnonymous is never persisted.
type Kind string

const (
	KindAnonymous Kind = "anonymous"
	KindStandard  Kind = "standard"
	KindAdmin     Kind = "admin"
)

func (k Kind) Valid() bool {
	switch k {
	case KindAnonymous, KindStandard, KindAdmin:
		return true
	}
	return false
}

type (
	ID   uint64
	UUID = uuid.UUID
	User struct {
		ID           ID
		UUID         UUID
		Email        string
		Name         string
		PasswordHash string
		Kind         Kind

		CreatedAt    time.Time
		LastActionAt *time.Time
	}
	Users []*User
)

// Anonymous returns the virtual identity of a caller without credentials.
func Anonymous() *User {
	return &User{Kind: KindAnonymous}
}

func (u *User) IsAnonymous() bool {
	return u == nil || u.Kind == KindAnonymous
}
