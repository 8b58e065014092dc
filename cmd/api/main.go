package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pratik-mahalle/tiergate/internal/api/handlers"
	"github.com/pratik-mahalle/tiergate/internal/api/middleware"
	"github.com/pratik-mahalle/tiergate/internal/api/router"
	"github.com/pratik-mahalle/tiergate/internal/auth"
	"github.com/pratik-mahalle/tiergate/internal/billing"
	"github.com/pratik-mahalle/tiergate/internal/config"
	"github.com/pratik-mahalle/tiergate/internal/pkg/clock"
	"github.com/pratik-mahalle/tiergate/internal/pkg/keymutex"
	"github.com/pratik-mahalle/tiergate/internal/pkg/logger"
	"github.com/pratik-mahalle/tiergate/internal/pkg/validator"
	"github.com/pratik-mahalle/tiergate/internal/providers"
	"github.com/pratik-mahalle/tiergate/internal/repository/postgres"
	"github.com/pratik-mahalle/tiergate/internal/services"
	"github.com/pratik-mahalle/tiergate/internal/worker"
	"github.com/pratik-mahalle/tiergate/migrations"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	applied, err := postgres.RunMigrations(db, cfg.Database.Driver, migrations.GetFS())
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.WithFields(map[string]interface{}{
		"driver":  cfg.Database.Driver,
		"applied": applied,
	}).Info("Database ready")

	catalog, tiers, err := config.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		return err
	}

	store := postgres.NewUserStore(db, cfg.Database.Driver)
	locks := keymutex.New()
	val := validator.New()
	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenExpiry, cfg.Auth.RefreshTokenExpiry)

	gateService := services.NewGateService(store, catalog, tiers, clock.System, locks, log)
	accountService := services.NewAccountService(store, catalog, clock.System, locks, log)
	chatService := services.NewChatService(gateService, providers.New(cfg.Provider), log)

	stripe := billing.NewStripe(cfg.Billing, catalog, gateService, postgres.NewEventStore(db, cfg.Database.Driver), log)
	if stripe == nil {
		log.Info("Stripe not configured, checkout disabled")
	}

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	go limiter.RunCleanup(ctx, 5*time.Minute)

	if cfg.Worker.Enabled {
		sweeper, err := worker.NewSubscriptionSweeper(store, gateService, cfg.Worker.SweepSchedule, log.Component("worker"))
		if err != nil {
			return err
		}
		go sweeper.Start(ctx)
	}

	handler := router.New(cfg, log, issuer, limiter, &router.Handlers{
		Health:  handlers.NewHealthHandler(store, log),
		Auth:    handlers.NewAuthHandler(accountService, issuer, cfg, log, val),
		Chat:    handlers.NewChatHandler(chatService, gateService, log, val),
		Billing: handlers.NewBillingHandler(gateService, stripe, log, val),
		Admin:   handlers.NewAdminHandler(store, accountService, gateService, log, val),
		Users:   store,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return serve(ctx, srv, cfg.Server.ShutdownTimeout, log)
}

// serve runs srv until ctx is cancelled, then drains in-flight requests
func serve(ctx context.Context, srv *http.Server, grace time.Duration, log *logger.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.With("addr", srv.Addr).Info("API server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
