package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	mw "github.com/lorrc/chamados/internal/adapters/primary/http/middleware"
	wsAdapter "github.com/lorrc/chamados/internal/adapters/primary/websocket"
	"github.com/lorrc/chamados/internal/auth"
	"github.com/lorrc/chamados/internal/config"
	"github.com/lorrc/chamados/internal/core/domain"
	"github.com/lorrc/chamados/internal/core/ports"
	"github.com/lorrc/chamados/internal/infrastructure/metrics"
)

// Dependencies holds everything the router wires into handlers.
type Dependencies struct {
	Config        *config.Config
	Logger        *zap.Logger
	Clock         domain.Clock
	TokenManager  *auth.TokenManager
	Revocations   ports.TokenRevocationStore
	AuthService   ports.AuthService
	AuthzService  ports.AuthorizationService
	TicketService ports.TicketService
	ReportService ports.ReportService
	Directory     ports.DirectoryService
	Hub           *wsAdapter.Hub
	Metrics       *metrics.Recorder // optional
	HealthChecks  map[string]HealthChecker
}

// NewRouter builds the HTTP API. Background goroutines owned by the router
// (rate limiter cleanup) stop when ctx is done.
func NewRouter(ctx context.Context, deps Dependencies) http.Handler {
	cfg := deps.Config
	logger := deps.Logger

	// 1. Rate Limiters
	var generalRateLimiter, authRateLimiter *mw.RateLimiter
	var loginLimiter *mw.RateLimitByKey
	if cfg.RateLimit.Enabled {
		generalRateLimiter = mw.NewRateLimiter(ctx, mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
			TTL:               3 * time.Minute,
		})

		authConfig := mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.AuthRPS,
			BurstSize:         cfg.RateLimit.AuthBurst,
			CleanupInterval:   time.Minute,
			TTL:               5 * time.Minute,
		}
		authRateLimiter = mw.NewRateLimiter(ctx, authConfig)
		loginLimiter = mw.NewRateLimitByKey(ctx, authConfig)
	}

	// 2. Handlers
	errorHandler := NewErrorHandler(logger)
	authHandler := NewAuthHandler(deps.AuthService, deps.TokenManager, deps.Revocations, loginLimiter, errorHandler, logger)
	directoryHandler := NewDirectoryHandler(deps.Directory, deps.AuthzService, deps.Clock, errorHandler)
	ticketHandler := NewTicketHandler(deps.TicketService, deps.Clock, errorHandler, logger)
	reportHandler := NewReportHandler(deps.ReportService, errorHandler)
	adminHandler := NewAdminHandler(deps.TicketService, deps.AuthService, errorHandler, logger)
	healthHandler := NewHealthHandler(deps.HealthChecks, cfg.App.Version)
	jwt := mw.JWTMiddleware(deps.TokenManager, deps.Revocations, logger)

	// 3. Router
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(mw.RecoveryLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", mw.RequestIDHeader},
		ExposedHeaders:   []string{mw.RequestIDHeader, "Content-Disposition", "X-Total-Count"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	// Health check endpoints (outside /api/v1 for standard probe paths)
	healthHandler.RegisterRoutes(r)

	r.Route("/api/v1", func(r chi.Router) {
		// Public auth routes with stricter rate limiting
		r.Group(func(r chi.Router) {
			if authRateLimiter != nil {
				r.Use(authRateLimiter.Middleware)
			}
			r.Post("/auth/login", authHandler.HandleLogin)
		})

		// The websocket feed authenticates through the same middleware
		if deps.Hub != nil {
			wsHandler := NewWebSocketHandler(deps.Hub, cfg, errorHandler, logger)
			r.With(jwt).Get("/ws", wsHandler.ServeHTTP)
		}

		// Protected REST routes
		r.Group(func(r chi.Router) {
			r.Use(jwt)
			if generalRateLimiter != nil {
				r.Use(generalRateLimiter.Middleware)
			}

			r.Post("/auth/logout", authHandler.HandleLogout)
			r.Route("/directory", directoryHandler.RegisterRoutes)
			r.Route("/tickets", ticketHandler.RegisterRoutes)
			r.Route("/reports", reportHandler.RegisterReportRoutes)
			r.Route("/dashboard", reportHandler.RegisterDashboardRoutes)
			r.Route("/admin", adminHandler.RegisterRoutes)
		})
	})

	return r
}
