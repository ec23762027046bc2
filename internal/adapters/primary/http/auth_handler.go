package http

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	mw "github.com/lorrc/chamados/internal/adapters/primary/http/middleware"
	"github.com/lorrc/chamados/internal/adapters/primary/validation"
	"github.com/lorrc/chamados/internal/auth"
	apperrors "github.com/lorrc/chamados/internal/core/errors"
	"github.com/lorrc/chamados/internal/core/ports"
	"github.com/lorrc/chamados/internal/infrastructure/logging"
)

// AuthHandler handles login and logout
type AuthHandler struct {
	authService  ports.AuthService
	tokenManager *auth.TokenManager
	revoked      ports.TokenRevocationStore
	loginLimiter *mw.RateLimitByKey
	errorHandler *ErrorHandler
	logger       *zap.Logger
}

// NewAuthHandler creates a new auth handler. loginLimiter throttles attempts
// per username and may be nil.
func NewAuthHandler(
	authService ports.AuthService,
	tokenManager *auth.TokenManager,
	revoked ports.TokenRevocationStore,
	loginLimiter *mw.RateLimitByKey,
	errorHandler *ErrorHandler,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		tokenManager: tokenManager,
		revoked:      revoked,
		loginLimiter: loginLimiter,
		errorHandler: errorHandler,
		logger:       logger.Named("auth_handler"),
	}
}

// LoginRequest defines the expected JSON body for logging in
type LoginRequest struct {
	Username string `json:"username" validate:"notblank,max=64"`
	Password string `json:"password" validate:"required,max=72"`
}

// LoginResponse carries the access token and the caller's role
type LoginResponse struct {
	Token       string   `json:"token"`
	ExpiresAt   string   `json:"expiresAt"`
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// HandleLogin handles POST /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	// 1. Decode and validate the request
	req, err := validation.DecodeAndValidate[LoginRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	username := strings.TrimSpace(req.Username)
	if h.loginLimiter != nil && !h.loginLimiter.Allow(strings.ToLower(username)) {
		h.errorHandler.Handle(w, r, apperrors.ErrRateLimited)
		return
	}

	// 2. Call the core service
	user, err := h.authService.Login(r.Context(), username, req.Password)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	// 3. Issue the token
	token, err := h.tokenManager.GenerateToken(user)
	if err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewInternalError(err))
		return
	}

	logging.FromContext(r.Context(), h.logger).Info("user logged in",
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)),
	)

	WriteJSON(w, http.StatusOK, LoginResponse{
		Token:       token,
		ExpiresAt:   time.Now().Add(h.tokenManager.TTL()).UTC().Format(time.RFC3339),
		Username:    user.Username,
		Role:        string(user.Role),
		Permissions: user.Role.Permissions(),
	})
}

// HandleLogout handles POST /auth/logout. The presented token stays revoked
// until it would have expired anyway.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	claims, ok := mw.ClaimsFromContext(r.Context())
	if !ok {
		h.errorHandler.Handle(w, r, apperrors.ErrUnauthorized)
		return
	}

	if err := h.revoked.Revoke(r.Context(), claims.TokenID(), claims.ExpiresAtTime()); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	logging.FromContext(r.Context(), h.logger).Info("user logged out")
	WriteNoContent(w)
}
