// Package main is the entry point for the HTTP service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jsamuelsen/verse-service/internal/adapters/http"
	"github.com/jsamuelsen/verse-service/internal/adapters/http/handlers"
	"github.com/jsamuelsen/verse-service/internal/adapters/render"
	"github.com/jsamuelsen/verse-service/internal/bootstrap"
	"github.com/jsamuelsen/verse-service/internal/platform/config"
	"github.com/jsamuelsen/verse-service/internal/platform/logging"
	"github.com/jsamuelsen/verse-service/internal/platform/metrics"
	"github.com/jsamuelsen/verse-service/internal/platform/telemetry"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	// Version is the semantic version of the service.
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "unknown"

	// BuildTime is the timestamp when the binary was built.
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	logging.SetDefault(logger)

	logger.Info("starting service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
	)

	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if shutdownErr := telProvider.Shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	collector := metrics.NewCollector("verse")
	snapshot := render.NewSnapshot()

	components, err := bootstrap.Build(ctx, bootstrap.Options{
		Config:   cfg,
		Logger:   logger,
		Metrics:  collector,
		Renderer: snapshot,
	})
	if err != nil {
		return fmt.Errorf("assembling content stack: %w", err)
	}

	defer func() {
		if closeErr := components.Close(); closeErr != nil {
			logger.Error("closing content stack", slog.Any("error", closeErr))
		}
	}()

	// The service does not listen until the content is available.
	if err := components.Orchestrator.Start(ctx); err != nil {
		return fmt.Errorf("loading content: %w", err)
	}

	server := http.New(&cfg.Server, logger)

	http.SetupRouter(server.Engine(), http.NewDefaultRouterConfig(
		logger,
		&cfg.App,
		handlers.NewHealthHandler(components.Health, handlers.NewBuildInfo(Version, Commit, BuildTime), collector.Handler()),
		handlers.NewContentHandler(components.Orchestrator, snapshot),
	))

	if err := server.Run(ctx); err != nil {
		return err
	}

	logger.Info("shutdown complete")

	return nil
}
