package resource

import (
	"strings"

	domain "tempfiles-api/internal/domain/resource"
	"tempfiles-api/internal/domain/user"
)

func fromDBModel(model *Resource) (*domain.Resource, error) {
	id, err := domain.ParseID(strings.TrimSpace(model.ID))
	if err != nil {
		return nil, err
	}

	r := &domain.Resource{
		ID:       id,
		FileName: model.FileName,

		CreatedAt: model.CreatedAt,
		ExpiresAt: model.ExpiresAt,
	}
	if model.UserID != nil {
		uid := user.ID(*model.UserID)
		r.UserID = &uid
	}

	return r, nil
}
