package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stocksense/backend/internal/infrastructure/auth"
	"github.com/stocksense/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// LoginRequest represents the operator login request
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest represents the token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenResponse represents a successful login or refresh
type TokenResponse struct {
	Username string          `json:"username"`
	Tokens   *auth.TokenPair `json:"tokens"`
}

// AuthHandler handles operator authentication
type AuthHandler struct {
	BaseHandler
	authenticator *auth.OperatorAuthenticator
	jwtService    *auth.JWTService
	logger        *zap.Logger
	throttle      gin.HandlerFunc
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authenticator *auth.OperatorAuthenticator, jwtService *auth.JWTService, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		authenticator: authenticator,
		jwtService:    jwtService,
		logger:        logger,
	}
}

// Login godoc
// @Summary      Operator login
// @Description  Authenticate the configured operator and issue a token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Credentials"
// @Success      200 {object} dto.Response{data=TokenResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	if err := h.authenticator.Authenticate(req.Username, req.Password); err != nil {
		h.logger.Warn("Login failed",
			zap.String("username", req.Username),
			zap.String("client_ip", c.ClientIP()),
		)
		h.Unauthorized(c, "Invalid username or password")
		return
	}

	pair, err := h.jwtService.GenerateTokenPair(h.authenticator.Username())
	if err != nil {
		h.logger.Error("Failed to generate token pair", zap.Error(err))
		h.InternalError(c, "Failed to generate tokens")
		return
	}

	h.logger.Info("Operator logged in", zap.String("username", h.authenticator.Username()))

	h.Success(c, TokenResponse{
		Username: h.authenticator.Username(),
		Tokens:   pair,
	})
}

// Refresh godoc
// @Summary      Refresh tokens
// @Description  Exchange a valid refresh token for a new token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RefreshRequest true "Refresh token"
// @Success      200 {object} dto.Response{data=TokenResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	pair, err := h.jwtService.RefreshTokenPair(req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrExpiredToken):
			h.Error(c, http.StatusUnauthorized, "TOKEN_EXPIRED", "Refresh token has expired")
		case errors.Is(err, auth.ErrInvalidTokenType):
			h.Unauthorized(c, "Token is not a refresh token")
		default:
			h.Unauthorized(c, "Invalid refresh token")
		}
		return
	}

	h.Success(c, TokenResponse{
		Username: h.authenticator.Username(),
		Tokens:   pair,
	})
}

// Me godoc
// @Summary      Authenticated operator identity
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response{data=map[string]string}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	username := middleware.GetJWTUsername(c)
	if username == "" {
		h.Unauthorized(c, "Authentication required")
		return
	}
	h.Success(c, gin.H{"username": username})
}

// SetThrottle applies a rate limiting middleware to the credential endpoints.
// Must be called before RegisterRoutes.
func (h *AuthHandler) SetThrottle(mw gin.HandlerFunc) {
	h.throttle = mw
}

// RegisterRoutes registers auth routes
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	authGroup := rg.Group("/auth")
	{
		if h.throttle != nil {
			authGroup.POST("/login", h.throttle, h.Login)
			authGroup.POST("/refresh", h.throttle, h.Refresh)
		} else {
			authGroup.POST("/login", h.Login)
			authGroup.POST("/refresh", h.Refresh)
		}
		authGroup.GET("/me", h.Me)
	}
}
