package token

import (
	domain "tempfiles-api/internal/domain/token"
	"tempfiles-api/internal/domain/user"
)

func fromDBModel(model *Token) *domain.Token {
	return &domain.Token{
		ID:     domain.ID(model.ID),
		UserID: user.ID(model.UserID),
		Name:   model.Name,
		Hash:   model.TokenHash,

		CreatedAt: model.CreatedAt,
		ExpiresAt: model.ExpiresAt,
	}
}

func fromDBModels(models Tokens) domain.Tokens {
	ts := make(domain.Tokens, len(models))
	for idx, t := range models {
		ts[idx] = fromDBModel(t)
	}

	return ts
}
