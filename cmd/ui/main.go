package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pratik-mahalle/tiergate/internal/auth"
	"github.com/pratik-mahalle/tiergate/internal/config"
	"github.com/pratik-mahalle/tiergate/internal/pkg/clock"
	"github.com/pratik-mahalle/tiergate/internal/pkg/keymutex"
	"github.com/pratik-mahalle/tiergate/internal/pkg/logger"
	"github.com/pratik-mahalle/tiergate/internal/providers"
	"github.com/pratik-mahalle/tiergate/internal/repository/jsonfile"
	"github.com/pratik-mahalle/tiergate/internal/services"
	"github.com/pratik-mahalle/tiergate/internal/ui"
	"github.com/pratik-mahalle/tiergate/internal/worker"
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

	store, err := jsonfile.Open(cfg.UI.StorePath)
	if err != nil {
		return fmt.Errorf("failed to open user store: %w", err)
	}

	catalog, tiers, err := config.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		return err
	}

	locks := keymutex.New()
	gateService := services.NewGateService(store, catalog, tiers, clock.System, locks, log)
	accountService := services.NewAccountService(store, catalog, clock.System, locks, log)
	chatService := services.NewChatService(gateService, providers.New(cfg.Provider), log)
	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenExpiry, cfg.Auth.RefreshTokenExpiry)

	if cfg.Worker.Enabled {
		sweeper, err := worker.NewSubscriptionSweeper(store, gateService, cfg.Worker.SweepSchedule, log.Component("worker"))
		if err != nil {
			return err
		}
		go sweeper.Start(ctx)
	}

	server := ui.New(accountService, gateService, chatService, issuer, ui.Options{
		AllowPlanSwitch: cfg.UI.AllowPlanSwitch,
		SecureCookies:   cfg.IsProduction(),
	}, log.Component("ui"))

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.UI.Port),
		Handler:      server.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(map[string]interface{}{
			"addr":  srv.Addr,
			"store": cfg.UI.StorePath,
		}).Info("UI listening")
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
