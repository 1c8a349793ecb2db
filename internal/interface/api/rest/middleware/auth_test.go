package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tempfiles-api/internal/application/ports"
	"tempfiles-api/internal/application/services"
	"tempfiles-api/internal/domain/user"
	"tempfiles-api/internal/infrastructure/jwt"
)

var apiToken = "tfs_" + strings.Repeat("Ab3x", 10)

type fakeAuthenticator struct {
	VerifyLoginFunc func(ctx context.Context, cred ports.Credential) (*user.User, error)
}

func (f *fakeAuthenticator) VerifyLogin(ctx context.Context, cred ports.Credential) (*user.User, error) {
	return f.VerifyLoginFunc(ctx, cred)
}

type fakeUsers struct {
	FindUserByIDFunc func(ctx context.Context, id user.UUID) (*user.User, error)
}

func (f *fakeUsers) Register(context.Context, string, string, string) (*user.User, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeUsers) FindUserByID(ctx context.Context, id user.UUID) (*user.User, error) {
	return f.FindUserByIDFunc(ctx, id)
}

func alice() *user.User {
	return &user.User{ID: 1, UUID: uuid.New(), Email: "alice@example.com", Name: "Alice", Kind: user.KindStandard}
}

func setupRouter(t *testing.T, authn ports.Authenticator, users ports.UserService) (*gin.Engine, *jwt.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sessions := jwt.New("test-secret", time.Hour)
	mw := NewAuth(zap.NewNop(), authn, sessions, users)

	whoami := func(c *gin.Context) {
		u := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"kind": string(u.Kind), "email": u.Email})
	}

	r := gin.New()
	r.GET("/maybe", mw.MaybeAuth(), whoami)
	r.GET("/required", mw.RequireAuth(), whoami)
	return r, sessions
}

func doGet(r *gin.Engine, path string, header string, cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: cookie})
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestAuth_Resolve(t *testing.T) {
	u := alice()

	authn := &fakeAuthenticator{
		VerifyLoginFunc: func(ctx context.Context, cred ports.Credential) (*user.User, error) {
			tc, ok := cred.(ports.TokenCredential)
			if ok && tc.Secret == apiToken {
				return u, nil
			}
			return nil, services.ErrWrongCredential
		},
	}
	users := &fakeUsers{
		FindUserByIDFunc: func(ctx context.Context, id user.UUID) (*user.User, error) {
			if id == u.UUID {
				return u, nil
			}
			return nil, nil
		},
	}
	r, sessions := setupRouter(t, authn, users)

	session, _, err := sessions.Issue(u)
	require.NoError(t, err)
	ghost, _, err := sessions.Issue(alice())
	require.NoError(t, err)

	tests := []struct {
		name       string
		path       string
		header     string
		cookie     string
		wantStatus int
		wantKind   string
	}{
		{name: "anonymous allowed", path: "/maybe", wantStatus: http.StatusOK, wantKind: "anonymous"},
		{name: "anonymous rejected", path: "/required", wantStatus: http.StatusUnauthorized},
		{name: "api token", path: "/required", header: "Bearer " + apiToken, wantStatus: http.StatusOK, wantKind: "standard"},
		{name: "wrong api token", path: "/maybe", header: "Bearer tfs_" + strings.Repeat("z", 40), wantStatus: http.StatusUnauthorized},
		{name: "session header", path: "/required", header: "Bearer " + session, wantStatus: http.StatusOK, wantKind: "standard"},
		{name: "session cookie", path: "/required", cookie: session, wantStatus: http.StatusOK, wantKind: "standard"},
		{name: "garbage header", path: "/maybe", header: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "not bearer", path: "/maybe", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "stale cookie is anonymous", path: "/maybe", cookie: "expired", wantStatus: http.StatusOK, wantKind: "anonymous"},
		{name: "stale cookie on required", path: "/required", cookie: "expired", wantStatus: http.StatusUnauthorized},
		{name: "deleted user", path: "/maybe", header: "Bearer " + ghost, wantStatus: http.StatusUnauthorized},
		{name: "header wins over cookie", path: "/maybe", header: "Bearer nope", cookie: session, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			rr := doGet(r, tt.path, tt.header, tt.cookie)
			require.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
			if tt.wantKind != "" {
				assert.Contains(t, rr.Body.String(), `"kind":"`+tt.wantKind+`"`)
			}
		})
	}
}

func TestAuth_StoreFailureIs500(t *testing.T) {
	authn := &fakeAuthenticator{
		VerifyLoginFunc: func(ctx context.Context, cred ports.Credential) (*user.User, error) {
			return nil, errors.New("db down")
		},
	}
	r, _ := setupRouter(t, authn, &fakeUsers{})

	rr := doGet(r, "/maybe", "Bearer "+apiToken, "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestCurrentUser_DefaultsToAnonymous(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.True(t, CurrentUser(c).IsAnonymous())
}
