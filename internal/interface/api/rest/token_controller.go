package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tempfiles-api/internal/application/ports"
	"tempfiles-api/internal/interface/api/rest/dto/auth"
	"tempfiles-api/internal/interface/api/rest/dto/token"
	"tempfiles-api/internal/interface/api/rest/middleware"
	"tempfiles-api/internal/interface/api/rest/validator"
)

type TokenController struct {
	logger       *zap.Logger
	tokenService ports.TokenService
	now          func() time.Time
}

func NewTokenController(
	r *gin.Engine,
	logger *zap.Logger,
	tokenService ports.TokenService,
	clock ports.Clock,
	mw *middleware.Auth,
) *TokenController {
	tc := &TokenController{
		logger:       logger,
		tokenService: tokenService,
		now:          clock.Now,
	}

	r.POST(RouteToken, mw.RequireAuth(), tc.IssueTokenHandler)
	r.GET(RouteToken, mw.RequireAuth(), tc.WhoAmIHandler)
	r.GET(RouteTokens, mw.RequireAuth(), tc.ListTokensHandler)
	r.DELETE(RouteTokenOne, mw.RequireAuth(), tc.RevokeTokenHandler)

	return tc
}

func (tc *TokenController) IssueTokenHandler(c *gin.Context) {
	var req token.IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": "invalid json"},
		)
		return
	}

	if errs := validator.ValidateIssueToken(req, tc.tokenService.Tiers()); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": errs,
		})
		return
	}

	secret, t, err := tc.tokenService.Issue(c.Request.Context(), middleware.CurrentUser(c), req.Name, req.Duration)
	if err != nil {
		respondError(c, tc.logger, "Issue()", err)
		return
	}

	c.JSON(http.StatusCreated, token.ToIssueResponse(secret, *t))
}

// WhoAmIHandler echoes the identity the request authenticated as.
func (tc *TokenController) WhoAmIHandler(c *gin.Context) {
	c.JSON(http.StatusOK, auth.ToResponseUser(*middleware.CurrentUser(c)))
}

func (tc *TokenController) ListTokensHandler(c *gin.Context) {
	ts, err := tc.tokenService.List(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		respondError(c, tc.logger, "List()", err)
		return
	}

	c.JSON(http.StatusOK, token.ResponseData{
		Data:      token.ToResponseTokens(ts, tc.now()),
		Durations: tc.tokenService.Tiers(),
	})
}

func (tc *TokenController) RevokeTokenHandler(c *gin.Context) {
	if err := tc.tokenService.Revoke(c.Request.Context(), middleware.CurrentUser(c), c.Param("name")); err != nil {
		respondError(c, tc.logger, "Revoke()", err)
		return
	}

	c.Status(http.StatusNoContent)
}
