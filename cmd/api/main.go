package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"relate-backend/application/services"
	domainservices "relate-backend/domain/services"
	"relate-backend/infrastructure/acl"
	"relate-backend/infrastructure/config"
	"relate-backend/interfaces/http/rest"
	"relate-backend/pkg/observability"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	// Initialize context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Metrics collector
	metrics := observability.NewCollector(cfg.MetricsNS)

	// Analysis backend client
	gateway := acl.NewAnalysisClient(acl.ClientConfig{
		BaseURL:          cfg.Analysis.BaseURL,
		Timeout:          cfg.Analysis.Timeout,
		BreakerInterval:  cfg.Analysis.BreakerInterval,
		BreakerTimeout:   cfg.Analysis.BreakerTimeout,
		FailureThreshold: cfg.Analysis.FailureThreshold,
		MinRequests:      cfg.Analysis.MinRequests,
	}, logger)

	// Editor service
	editor := services.NewEditorService(
		gateway,
		domainservices.BoxGeometry{
			Width:        cfg.Layout.BoxWidth,
			HeaderHeight: cfg.Layout.HeaderHeight,
			RowHeight:    cfg.Layout.RowHeight,
		},
		cfg.Canvas.Width,
		cfg.Canvas.Height,
		logger,
		metrics,
	)

	// Hot-reload canvas defaults when the config file changes
	watcher := config.NewWatcher(*configPath, logger, func(next *config.Config) {
		editor.UpdateCanvasDefaults(next.Canvas.Width, next.Canvas.Height)
	})
	go func() {
		if err := watcher.Run(ctx); err != nil && err != context.Canceled {
			logger.Warn("config watcher stopped", zap.Error(err))
		}
	}()

	// Setup routes
	handler := rest.NewRouter(editor, logger, metrics).Setup()

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting server",
			zap.String("address", cfg.Server.Address),
			zap.String("environment", cfg.Environment),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	if err := logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	log.Println("Server stopped")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
