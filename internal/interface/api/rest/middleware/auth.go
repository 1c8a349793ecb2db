package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tempfiles-api/internal/application/ports"
	"tempfiles-api/internal/application/services"
	"tempfiles-api/internal/domain/user"
	"tempfiles-api/internal/infrastructure/jwt"
)

const (
	CtxUser       = "user"
	SessionCookie = "tempfiles_session"
)

var (
	errNoCredential  = errors.New("no credential")
	errBadCredential = errors.New("bad credential")
)

// Auth resolves the caller of a request. An API token in the Authorization
// header wins over a session, and a session header wins over the cookie.
type Auth struct {
	logger   *zap.Logger
	authn    ports.Authenticator
	sessions *jwt.Service
	users    ports.UserService
}

func NewAuth(
	logger *zap.Logger,
	authn ports.Authenticator,
	sessions *jwt.Service,
	users ports.UserService,
) *Auth {
	return &Auth{
		logger:   logger,
		authn:    authn,
		sessions: sessions,
		users:    users,
	}
}

// MaybeAuth lets anonymous callers through. A presented but wrong credential is still rejected.
func (a *Auth) MaybeAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := a.resolve(c)
		switch {
		case errors.Is(err, errNoCredential):
			u = user.Anonymous()
		case err != nil:
			a.abort(c, err)
			return
		}

		c.Set(CtxUser, u)
		c.Next()
	}
}

// RequireAuth rejects anonymous callers.
func (a *Auth) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := a.resolve(c)
		if errors.Is(err, errNoCredential) {
			c.AbortWithStatusJSON(
				http.StatusUnauthorized,
				gin.H{"error": "authentication required"},
			)
			return
		}
		if err != nil {
			a.abort(c, err)
			return
		}

		c.Set(CtxUser, u)
		c.Next()
	}
}

// CurrentUser returns the caller stored by the auth middleware, anonymous if none.
func CurrentUser(c *gin.Context) *user.User {
	if v, ok := c.Get(CtxUser); ok {
		if u, ok := v.(*user.User); ok {
			return u
		}
	}
	return user.Anonymous()
}

func (a *Auth) abort(c *gin.Context, err error) {
	if errors.Is(err, errBadCredential) || errors.Is(err, services.ErrWrongCredential) ||
		errors.Is(err, services.ErrValidation) {
		c.AbortWithStatusJSON(
			http.StatusUnauthorized,
			gin.H{"error": "invalid credentials"},
		)
		return
	}

	a.logger.Error("resolve caller", zap.Error(err))
	c.AbortWithStatusJSON(
		http.StatusInternalServerError,
		gin.H{"error": "failed to authenticate"},
	)
}

func (a *Auth) resolve(c *gin.Context) (*user.User, error) {
	if header := c.GetHeader("Authorization"); header != "" {
		bearer, ok := strings.CutPrefix(header, "Bearer ")
		bearer = strings.TrimSpace(bearer)
		if !ok || bearer == "" {
			return nil, errBadCredential
		}
		if services.LooksLikeToken(bearer) {
			return a.authn.VerifyLogin(c.Request.Context(), ports.TokenCredential{Secret: bearer})
		}
		return a.fromSession(c, bearer)
	}

	cookie, err := c.Cookie(SessionCookie)
	if err != nil || cookie == "" {
		return nil, errNoCredential
	}
	u, err := a.fromSession(c, cookie)
	if errors.Is(err, errBadCredential) {
		// A stale cookie is not a login attempt.
		return nil, errNoCredential
	}
	return u, err
}

func (a *Auth) fromSession(c *gin.Context, raw string) (*user.User, error) {
	claims, err := a.sessions.Validate(raw)
	if err != nil {
		return nil, errBadCredential
	}
	id, err := claims.UserUUID()
	if err != nil {
		return nil, errBadCredential
	}

	u, err := a.users.FindUserByID(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errBadCredential
	}
	return u, nil
}
