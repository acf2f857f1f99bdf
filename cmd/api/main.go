package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shipsync/internal/archive"
	"shipsync/internal/config"
	"shipsync/internal/database"
	"shipsync/internal/handler"
	"shipsync/internal/repository"
	"shipsync/internal/router"
	"shipsync/internal/service"
	"shipsync/internal/shipstation"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env if present; real environments set variables directly
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting shipsync API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Initialize repositories
	sourceRepo := repository.NewSourceRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)

	// Initialize ShipStation client
	client := shipstation.NewClient(cfg.ShipStation.BaseURL, cfg.ShipStation.TimeoutDuration(), logger)

	// Initialize raw payload archiver with S3 and noop fallback
	var archiver archive.Archiver
	if cfg.Archive.Enabled {
		s3Archiver, err := archive.NewS3Archiver(ctx, cfg.Archive.Bucket, cfg.Archive.Region, cfg.Archive.Prefix, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 archiver, raw payloads will not be archived")
			archiver = archive.NewNoopArchiver()
		} else {
			archiver = s3Archiver
		}
	} else {
		archiver = archive.NewNoopArchiver()
		logger.Info().Msg("raw payload archiving disabled")
	}

	// Initialize services
	syncService := service.NewSyncService(sourceRepo, orderRepo, client, archiver, logger)
	sourceService := service.NewSourceService(sourceRepo, client, logger)
	orderService := service.NewOrderService(orderRepo, logger)

	// Initialize HTTP handlers
	sourceHandler := handler.NewSourceHandler(sourceService, syncService, logger)
	orderHandler := handler.NewOrderHandler(orderService, logger)
	syncHandler := handler.NewSyncHandler(syncService, logger)
	webhookHandler := handler.NewWebhookHandler(syncService, logger)

	// Initialize router
	mux := router.New(sourceHandler, orderHandler, syncHandler, webhookHandler, cfg.Auth.APIKey, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start the background sync poller when an interval is configured
	if interval := cfg.Sync.IntervalDuration(); interval > 0 {
		go runPoller(ctx, syncService, interval, logger)
	} else {
		logger.Info().Msg("background sync poller disabled")
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Stop the poller before draining the server
		cancel()

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// runPoller syncs all active sources on a fixed interval until ctx is
// cancelled. Failures are logged and retried on the next tick.
func runPoller(ctx context.Context, syncService service.SyncService, interval time.Duration, logger zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info().Dur("interval", interval).Msg("background sync poller started")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("background sync poller stopped")
			return
		case <-ticker.C:
			result, err := syncService.SyncAll(ctx, service.SyncOptions{})
			if err != nil {
				logger.Error().Err(err).Msg("scheduled sync failed")
				continue
			}
			logger.Info().
				Int("sources", result.Sources).
				Int("created", result.Created).
				Int("updated", result.Updated).
				Int("failed", result.Failed).
				Msg("scheduled sync completed")
		}
	}
}
