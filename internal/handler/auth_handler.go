package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Squeakyrexx/SYNCBEATS-sub000/internal/audit"
	"github.com/Squeakyrexx/SYNCBEATS-sub000/internal/auth"
	"github.com/Squeakyrexx/SYNCBEATS-sub000/internal/domain"
	"github.com/Squeakyrexx/SYNCBEATS-sub000/pkg/jwt"
	"github.com/Squeakyrexx/SYNCBEATS-sub000/pkg/log"
	"github.com/Squeakyrexx/SYNCBEATS-sub000/pkg/response"
)

// AuthHandler handles login and token refresh.
type AuthHandler struct {
	users  *auth.UserStore
	tokens *jwt.Manager
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(users *auth.UserStore, tokens *jwt.Manager) *AuthHandler {
	return &AuthHandler{
		users:  users,
		tokens: tokens,
	}
}

// RegisterRoutes registers the auth routes.
func (h *AuthHandler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1/auth")
	{
		api.POST("/login", h.Login)
		api.POST("/refresh", h.Refresh)
	}
}

// Login authenticates a username and password and issues a token pair.
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.users.Authenticate(req.Username, req.Password)
	if err != nil {
		audit.LogActor(ctx, audit.ActionLoginFailed, "", req.Username, "login failed")
		response.Unauthorized(c, "invalid credentials")
		return
	}

	accessToken, refreshToken, expiresAt, err := h.tokens.GenerateTokenPair(user.ID, user.Username)
	if err != nil {
		l.Error().Err(err).Str(log.FieldUserID, user.ID).Msg("failed to generate tokens")
		response.InternalError(c, "failed to generate tokens")
		return
	}

	audit.LogActor(ctx, audit.ActionLogin, user.ID, user.Username, "user logged in")

	response.Success(c, domain.AuthResponse{
		User:         user.ToResponse(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	})
}

// Refresh rotates a valid refresh token into a new token pair.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req domain.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	claims, err := h.tokens.ValidateToken(req.RefreshToken)
	if err != nil || claims.Type != "refresh" {
		response.Unauthorized(c, "invalid refresh token")
		return
	}

	user, err := h.users.Get(claims.Username)
	if err != nil {
		response.Unauthorized(c, "unknown user")
		return
	}

	accessToken, refreshToken, expiresAt, err := h.tokens.RefreshTokens(req.RefreshToken)
	if err != nil {
		response.Unauthorized(c, "invalid refresh token")
		return
	}

	response.Success(c, domain.AuthResponse{
		User:         user.ToResponse(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	})
}
