package user

import (
	domain "tempfiles-api/internal/domain/user"
)

func fromDBModel(model *User) *domain.User {
	var u = &domain.User{
		ID:           domain.ID(model.ID),
		UUID:         model.UUID,
		Email:        model.Email,
		Name:         model.Name,
		PasswordHash: model.PasswordHash,
		Kind:         domain.Kind(model.Kind),

		CreatedAt:    model.CreatedAt,
		LastActionAt: model.LastActionAt,
	}

	return u
}
