package resource

import (
	"tempfiles-api/internal/application/ports"
	"tempfiles-api/internal/domain/resource"
)

func ToResponse(r resource.Resource, url string) Response {
	return Response{
		ID:        r.ID.String(),
		Name:      r.FileName,
		URL:       url,
		ExpiresAt: r.ExpiresAt,
	}
}

func ToInfo(fi ports.FileInfo) Info {
	return Info{
		ID:        fi.Resource.ID.String(),
		Name:      fi.Name,
		Size:      fi.Size,
		CreatedAt: fi.Resource.CreatedAt,
		ExpiresAt: fi.Resource.ExpiresAt,
		Anonymous: fi.Resource.UserID == nil,
	}
}
