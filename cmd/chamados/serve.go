package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpAdapter "github.com/lorrc/chamados/internal/adapters/primary/http"
	"github.com/lorrc/chamados/internal/adapters/primary/websocket"
	"github.com/lorrc/chamados/internal/adapters/secondary/excel"
	"github.com/lorrc/chamados/internal/adapters/secondary/memory"
	"github.com/lorrc/chamados/internal/adapters/secondary/redis"
	"github.com/lorrc/chamados/internal/adapters/secondary/scheduler"
	"github.com/lorrc/chamados/internal/auth"
	"github.com/lorrc/chamados/internal/config"
	"github.com/lorrc/chamados/internal/core/domain"
	"github.com/lorrc/chamados/internal/core/ports"
	"github.com/lorrc/chamados/internal/core/services"
	"github.com/lorrc/chamados/internal/infrastructure/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		return serve(cmd.Context(), cfg, logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("starting service",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
		zap.String("storage", cfg.Storage.Driver),
	)

	clock := domain.WallClock(cfg.Location())

	// 1. Storage
	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.close()

	healthChecks := map[string]httpAdapter.HealthChecker{
		"storage": httpAdapter.HealthCheckFunc(store.ping),
	}

	// 2. Revoked tokens
	var revocations ports.TokenRevocationStore
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(ctx, redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		defer client.Close()

		revocations = redis.NewTokenStore(client, clock)
		healthChecks["redis"] = client
	} else {
		revocations = memory.NewTokenStore(clock)
	}

	// 3. Security, metrics & real-time components
	tokenManager := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL)
	recorder := metrics.NewRecorder()
	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	// 4. Services (Core)
	authzService := services.NewAuthorizationService()
	authService := services.NewAuthService(store.users, authzService, clock)
	ticketService := services.NewTicketService(store.tickets, authzService, excel.NewExporter(), hub, recorder, clock, logger)
	defer ticketService.Shutdown()
	reportService := services.NewReportService(store.tickets, authzService)

	// 5. Reference directory
	directory := services.NewDirectoryService(
		excel.NewFeed(cfg.Directory.FeedPath, cfg.Directory.HeaderRow, logger),
		recorder, clock, logger,
	)
	if err := directory.Reload(ctx); err != nil {
		logger.Warn("starting with an empty directory", zap.Error(err))
	}
	if cfg.Directory.ReloadSchedule != "" {
		reloader, err := scheduler.NewDirectoryReloader(directory, cfg.Directory.ReloadSchedule,
			cfg.Location(), cfg.Directory.ReloadTimeout, logger)
		if err != nil {
			return err
		}
		reloader.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Directory.ReloadTimeout)
			defer cancel()
			reloader.Stop(stopCtx)
		}()
	}

	// 6. Bootstrap accounts
	if cfg.Bootstrap.Enabled {
		if err := bootstrapUsers(ctx, authService, cfg.Bootstrap, logger); err != nil {
			return err
		}
	}

	// 7. Router
	router := httpAdapter.NewRouter(ctx, httpAdapter.Dependencies{
		Config:        cfg,
		Logger:        logger,
		Clock:         clock,
		TokenManager:  tokenManager,
		Revocations:   revocations,
		AuthService:   authService,
		AuthzService:  authzService,
		TicketService: ticketService,
		ReportService: reportService,
		Directory:     directory,
		Hub:           hub,
		Metrics:       recorder,
		HealthChecks:  healthChecks,
	})

	// 8. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return err
	}

	logger.Info("server shutdown complete")
	return nil
}

func bootstrapUsers(ctx context.Context, authService ports.AuthService, cfg config.BootstrapConfig, logger *zap.Logger) error {
	accounts := []domain.UserParams{
		{Username: cfg.AdminUsername, Password: cfg.AdminPassword, Role: domain.RoleAdmin},
		{Username: cfg.UserUsername, Password: cfg.UserPassword, Role: domain.RoleUser},
	}

	for _, params := range accounts {
		if params.Username == "" {
			continue
		}
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		_, created, err := authService.EnsureUser(ctx, params)
		cancel()
		if err != nil {
			return err
		}
		if created {
			logger.Info("bootstrap user created",
				zap.String("username", params.Username),
				zap.String("role", string(params.Role)),
			)
		}
	}
	return nil
}
