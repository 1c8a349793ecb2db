package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tempfiles-api/internal/application/ports"
	"tempfiles-api/internal/domain/resource"
	"tempfiles-api/internal/domain/token"
	"tempfiles-api/internal/domain/user"
	"tempfiles-api/internal/infrastructure/jwt"
	"tempfiles-api/internal/interface/api/rest/middleware"
)

const testSecret = "test-secret"

type FakeUserService struct {
	RegisterFunc     func(ctx context.Context, email, name, password string) (*user.User, error)
	FindUserByIDFunc func(ctx context.Context, id user.UUID) (*user.User, error)
}

func (f *FakeUserService) Register(ctx context.Context, email, name, password string) (*user.User, error) {
	return f.RegisterFunc(ctx, email, name, password)
}

func (f *FakeUserService) FindUserByID(ctx context.Context, id user.UUID) (*user.User, error) {
	return f.FindUserByIDFunc(ctx, id)
}

type fakeAuthService struct {
	VerifyLoginFunc func(ctx context.Context, cred ports.Credential) (*user.User, error)
}

func (f *fakeAuthService) VerifyLogin(ctx context.Context, cred ports.Credential) (*user.User, error) {
	return f.VerifyLoginFunc(ctx, cred)
}

type FakeTokenService struct {
	IssueFunc  func(ctx context.Context, owner *user.User, name, tier string) (string, *token.Token, error)
	RevokeFunc func(ctx context.Context, owner *user.User, name string) error
	ListFunc   func(ctx context.Context, owner *user.User) (token.Tokens, error)
}

func (f *FakeTokenService) Issue(ctx context.Context, owner *user.User, name, tier string) (string, *token.Token, error) {
	return f.IssueFunc(ctx, owner, name, tier)
}

func (f *FakeTokenService) Revoke(ctx context.Context, owner *user.User, name string) error {
	return f.RevokeFunc(ctx, owner, name)
}

func (f *FakeTokenService) List(ctx context.Context, owner *user.User) (token.Tokens, error) {
	return f.ListFunc(ctx, owner)
}

func (f *FakeTokenService) Tiers() []string { return []string{"30d", "90d", "365d"} }

type FakeResourceService struct {
	CreateFunc   func(ctx context.Context, owner *user.User, in ports.Upload) (*resource.Resource, error)
	FileNameFunc func(ctx context.Context, id resource.ID) (string, error)
	OpenFunc     func(ctx context.Context, id resource.ID, name string) (io.ReadCloser, *ports.FileInfo, error)
	InfoFunc     func(ctx context.Context, id resource.ID, name string) (*ports.FileInfo, error)
}

func (f *FakeResourceService) Create(ctx context.Context, owner *user.User, in ports.Upload) (*resource.Resource, error) {
	return f.CreateFunc(ctx, owner, in)
}

func (f *FakeResourceService) FileName(ctx context.Context, id resource.ID) (string, error) {
	return f.FileNameFunc(ctx, id)
}

func (f *FakeResourceService) Open(ctx context.Context, id resource.ID, name string) (io.ReadCloser, *ports.FileInfo, error) {
	return f.OpenFunc(ctx, id, name)
}

func (f *FakeResourceService) Info(ctx context.Context, id resource.ID, name string) (*ports.FileInfo, error) {
	return f.InfoFunc(ctx, id, name)
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func someDomainUser() *user.User {
	return &user.User{
		ID:        7,
		UUID:      uuid.New(),
		Email:     "john.doe@example.com",
		Name:      "John",
		Kind:      user.KindStandard,
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

// newTestAuth builds the real middleware; users resolve only to u.
func newTestAuth(u *user.User) (*middleware.Auth, *jwt.Service) {
	sessions := jwt.New(testSecret, time.Hour)
	users := &FakeUserService{
		FindUserByIDFunc: func(ctx context.Context, id user.UUID) (*user.User, error) {
			if u != nil && id == u.UUID {
				return u, nil
			}
			return nil, nil
		},
	}
	authn := &fakeAuthService{
		VerifyLoginFunc: func(ctx context.Context, cred ports.Credential) (*user.User, error) {
			return nil, context.Canceled
		},
	}
	return middleware.NewAuth(zap.NewNop(), authn, sessions, users), sessions
}

func bearer(t *testing.T, sessions *jwt.Service, u *user.User) map[string]string {
	t.Helper()
	s, _, err := sessions.Issue(u)
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + s}
}

func doReq(t *testing.T, r *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf *bytes.Reader
	switch v := body.(type) {
	case nil:
		buf = bytes.NewReader(nil)
	case string:
		buf = bytes.NewReader([]byte(v))
	default:
		b, err := json.Marshal(v)
		require.NoError(t, err)
		buf = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}
