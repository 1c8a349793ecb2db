package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tempfiles-api/internal/application/ports"
	"tempfiles-api/internal/interface/api/rest/dto/auth"
	"tempfiles-api/internal/interface/api/rest/middleware"
	"tempfiles-api/internal/interface/api/rest/validator"
)

type AuthController struct {
	logger       *zap.Logger
	userService  ports.UserService
	authService  ports.Authenticator
	sessions     ports.Sessions
	secureCookie bool
}

func NewAuthController(
	r *gin.Engine,
	logger *zap.Logger,
	userService ports.UserService,
	authService ports.Authenticator,
	sessions ports.Sessions,
	secureCookie bool,
) *AuthController {
	ac := &AuthController{
		logger:       logger,
		userService:  userService,
		authService:  authService,
		sessions:     sessions,
		secureCookie: secureCookie,
	}

	r.POST(RouteLogin, ac.LoginHandler)
	r.POST(RouteRegister, ac.RegisterHandler)
	r.POST(RouteLogout, ac.LogoutHandler)

	return ac
}

func (ac *AuthController) LoginHandler(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": "invalid json"},
		)
		return
	}

	if errs := validator.ValidateLogin(req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": errs,
		})
		return
	}

	var cred ports.Credential = ports.PasswordCredential{Email: req.Email, Password: req.Password}
	if req.Token != "" {
		cred = ports.TokenCredential{Secret: req.Token}
	}

	u, err := ac.authService.VerifyLogin(c.Request.Context(), cred)
	if err != nil {
		respondError(c, ac.logger, "VerifyLogin()", err)
		return
	}

	session, exp, err := ac.sessions.Issue(u)
	if err != nil {
		ac.logger.Error("Issue() session error", zap.Error(err), zap.Stringer("user_uuid", u.UUID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start a session"})
		return
	}
	ac.setSessionCookie(c, session, time.Until(exp))

	c.JSON(http.StatusOK, auth.LoginResponse{
		AccessToken: session,
		TokenType:   "Bearer",
		ExpiresAt:   exp,
		User:        auth.ToResponseUser(*u),
	})
}

func (ac *AuthController) RegisterHandler(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": "invalid json"},
		)
		return
	}

	if errs := validator.ValidateRegister(req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": errs,
		})
		return
	}

	u, err := ac.userService.Register(c.Request.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		respondError(c, ac.logger, "Register()", err)
		return
	}

	c.JSON(http.StatusCreated, auth.ToResponseUser(*u))
}

func (ac *AuthController) LogoutHandler(c *gin.Context) {
	ac.setSessionCookie(c, "", -1)
	c.Status(http.StatusNoContent)
}

func (ac *AuthController) setSessionCookie(c *gin.Context, value string, ttl time.Duration) {
	maxAge := -1
	if ttl > 0 {
		maxAge = int(ttl.Seconds())
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, value, maxAge, "/", "", ac.secureCookie, true)
}
