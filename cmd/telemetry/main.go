package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"telemetry/internal/config"
	"telemetry/internal/gateway/rest"
	"telemetry/internal/logging"
	"telemetry/internal/server"
	"telemetry/internal/storage"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize Logging
	if err := logging.Initialize(cfg.Logging); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Shutdown()

	logger := slog.Default()
	logger.Info("Starting Telemetry Service",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"database", cfg.Storage.Database,
	)

	// 3. Storage: connection manager and store. The manager connects
	// lazily, so the service boots even without a configured URI.
	manager := storage.NewManager(cfg.Storage, storage.NewMongoDialer(logger), logger)
	store := storage.NewStore(manager, cfg.Storage, logger)

	// 4. HTTP Server
	srv := server.New(cfg.Server, logger)
	rest.NewHandler(store).RegisterRoutes(srv.Mux())

	serveCtx, serveCancel := context.WithCancel(context.Background())
	defer serveCancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start(serveCtx)
	}()

	// 5. Wait for Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("Received shutdown signal", "signal", sig.String())
	case err := <-errChan:
		if err != nil {
			logger.Error("HTTP server failed", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	manager.Disconnect(shutdownCtx)

	logger.Info("Telemetry Service stopped")
}
