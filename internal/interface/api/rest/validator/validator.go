package validator

import (
	"errors"
	"slices"
	"strings"

	"tempfiles-api/internal/application/services"
	"tempfiles-api/internal/domain/resource"
	tokenDomain "tempfiles-api/internal/domain/token"
	"tempfiles-api/internal/domain/user"
	"tempfiles-api/internal/interface/api/rest/dto/auth"
	"tempfiles-api/internal/interface/api/rest/dto/token"
)

var ErrInvalidFID = errors.New("invalid file id")

func ParseFID(s string) (resource.ID, error) {
	id, err := resource.ParseID(s)
	if err != nil {
		return 0, ErrInvalidFID
	}
	return id, nil
}

// ValidateLogin checks the request shape. Credentials themselves are judged by the auth service.
func ValidateLogin(r auth.LoginRequest) map[string]string {
	errs := make(map[string]string)

	if r.Token != "" {
		if r.Email != "" || r.Password != "" {
			errs["token"] = "use either a token or email and password"
		} else if msg := services.CheckTokenSecret(r.Token); msg != "" {
			errs["token"] = msg
		}
		return result(errs)
	}

	if msg := user.CheckEmail(user.NormalizeEmail(r.Email)); msg != "" {
		errs["email"] = msg
	}
	if msg := user.CheckPassword(r.Password); msg != "" {
		errs["password"] = msg
	}

	return result(errs)
}

func ValidateRegister(r auth.RegisterRequest) map[string]string {
	errs := make(map[string]string)

	if msg := user.CheckEmail(user.NormalizeEmail(r.Email)); msg != "" {
		errs["email"] = msg
	}
	if msg := user.CheckName(strings.TrimSpace(r.Name)); msg != "" {
		errs["name"] = msg
	}
	if msg := user.CheckPassword(r.Password); msg != "" {
		errs["password"] = msg
	}

	return result(errs)
}

func ValidateIssueToken(r token.IssueRequest, tiers []string) map[string]string {
	errs := make(map[string]string)

	if msg := tokenDomain.CheckName(strings.TrimSpace(r.Name)); msg != "" {
		errs["name"] = msg
	}
	if r.Duration == "" {
		errs["duration"] = "duration is required"
	} else if !slices.Contains(tiers, r.Duration) {
		errs["duration"] = "duration must be one of: " + strings.Join(tiers, ", ")
	}

	return result(errs)
}

func result(errs map[string]string) map[string]string {
	if len(errs) == 0 {
		return nil
	}
	return errs
}
