package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcoot/quizroom/internal/api"
	"github.com/mcoot/quizroom/internal/factory"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

// janitorInterval is how often idle scoreboard hubs are swept
const janitorInterval = time.Minute

func main() {
	cfg, err := loadConfig(os.Getenv)
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	cfg.Factory.Logger = logger

	// Create application factory
	app, err := factory.New(cfg.Factory)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	router := api.NewRouter(api.RouterConfig{
		Logger:              logger,
		Version:             version,
		AllowedOriginPrefix: cfg.Factory.WebSocket.AllowedOriginPrefix,
		Games:               app.Registry,
		Sessions:            app.Sessions,
		HubManager:          app.HubManager,
		Clock:               app.Clock,
		WebSocket:           app.WebSocket,
	})

	server := api.NewServer(router, cfg.Server, logger)
	server.OnShutdown(app.WebSocket.Close)
	server.OnShutdown(app.HubManager.Close)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go runJanitor(ctx, app, logger)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("version", version),
		slog.Int("shards", cfg.Factory.Shards),
		slog.String("publisher", cfg.Factory.PublisherType),
	)

	// Wait for shutdown or error
	exitCode := 0
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			exitCode = 1
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			exitCode = 1
		}
	}

	if err := app.Close(); err != nil {
		logger.Error("failed to release resources", slog.String("error", err.Error()))
		exitCode = 1
	}

	logger.Info("server stopped", slog.Int("games", app.Registry.Len()))
	stop()
	os.Exit(exitCode)
}

// runJanitor periodically drops scoreboard hubs nobody is watching
func runJanitor(ctx context.Context, app *factory.App, logger *slog.Logger) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := app.HubManager.CleanupEmptyHubs()
			logger.Debug("janitor sweep",
				slog.Int("hubs_removed", removed),
				slog.Int("games", app.Registry.Len()),
				slog.Int("sessions", app.Sessions.Active()),
			)
		}
	}
}
