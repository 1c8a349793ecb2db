package auth

import "tempfiles-api/internal/domain/user"

func ToResponseUser(uDomain user.User) User {
	return User{
		UUID:      uDomain.UUID,
		Email:     uDomain.Email,
		Name:      uDomain.Name,
		Kind:      string(uDomain.Kind),
		CreatedAt: uDomain.CreatedAt,
	}
}
