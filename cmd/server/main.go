// Command wedding-server starts the wedding site HTTP API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mvogel/vogelwedding/internal/config"
	"github.com/mvogel/vogelwedding/internal/migrate"
	"github.com/mvogel/vogelwedding/internal/photos"
	"github.com/mvogel/vogelwedding/internal/platform/auth"
	"github.com/mvogel/vogelwedding/internal/platform/storage"
	"github.com/mvogel/vogelwedding/internal/repository/postgres"
	httpserver "github.com/mvogel/vogelwedding/internal/server/http"
	"github.com/mvogel/vogelwedding/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, runs migrations, and starts the HTTP server.
func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DatabaseDSN); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	// DB pool
	db, err := postgres.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres.New", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	rsvpRepo := postgres.NewRsvpRepo(db)
	settingsRepo := postgres.NewSettingsRepo(db)
	wishlistRepo := postgres.NewWishlistRepo(db)
	contentRepo := postgres.NewContentRepo(db)

	// Platform clients
	authClient := auth.NewClient(cfg.PlatformURL, cfg.PlatformAnonKey)
	store := storage.NewClient(cfg.PlatformURL, cfg.PlatformAnonKey, cfg.StorageBucket, []byte(cfg.StorageSignSecret))

	// Services
	settingsSvc := service.NewSettingsService(settingsRepo, logger)
	settingsSvc.Load(ctx)
	rsvpSvc := service.NewRsvpService(rsvpRepo)
	wishlistSvc := service.NewWishlistService(wishlistRepo, logger)
	contentSvc := service.NewContentService(contentRepo)
	photoSvc := photos.NewService(store, logger)

	accounts := service.ServiceAccounts{
		GuestAll:    cfg.GuestAllEmail,
		TestAll:     cfg.TestAllEmail,
		TestInvited: cfg.TestInvitedEmail,
		Invited:     cfg.InvitedEmail,
	}

	app := httpserver.New(
		logger,
		[]byte(cfg.SessionKey),
		authClient,
		accounts,
		settingsSvc,
		rsvpSvc,
		wishlistSvc,
		contentSvc,
		photoSvc,
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
