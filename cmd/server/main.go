// Package main is the entry point for the Almanac server. It loads
// configuration, establishes database connections, runs migrations, wires
// the plugins together, and starts the HTTP server plus the background
// clock runner.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/keyxmakerx/almanac/internal/app"
	"github.com/keyxmakerx/almanac/internal/clock"
	"github.com/keyxmakerx/almanac/internal/config"
	"github.com/keyxmakerx/almanac/internal/database"
	"github.com/keyxmakerx/almanac/internal/plugins/calendars"
	"github.com/keyxmakerx/almanac/internal/presets"
)

func main() {
	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	// Configure structured logging based on environment.
	setupLogging(cfg)

	slog.Info("starting almanac",
		slog.String("env", cfg.Env),
		slog.Int("port", cfg.Port),
	)

	// --- Connect to MariaDB ---
	db, err := database.NewMariaDB(cfg.Database)
	if err != nil {
		slog.Error("failed to connect to MariaDB", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to MariaDB")

	// Apply any pending schema migrations before serving traffic.
	if err := database.RunMigrations(db, "db/migrations"); err != nil {
		slog.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// --- Connect to Redis ---
	rdb, err := database.NewRedis(cfg.Redis)
	if err != nil {
		slog.Error("failed to connect to Redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer rdb.Close()
	slog.Info("connected to Redis")

	// --- Load Calendar Presets ---
	catalog, err := presets.NewCatalog(cfg.Presets.Dir)
	if err != nil {
		slog.Error("failed to load presets", slog.Any("error", err))
		os.Exit(1)
	}

	// --- Create Application ---
	application := app.New(cfg, db, rdb)
	application.RegisterRoutes(catalog)

	// Background workers share one cancellation context.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Hot-reload homebrew presets when the overlay directory changes.
	if cfg.Presets.Watch && cfg.Presets.Dir != "" {
		go func() {
			if err := catalog.Watch(ctx); err != nil {
				slog.Error("preset watcher stopped", slog.Any("error", err))
			}
		}()
	}

	// Real-time clock runner advancing calendars with a positive ratio.
	var ticker *clock.Ticker
	if cfg.Clock.Enabled {
		ticker = clock.NewTicker(calendars.NewCalendarRepository(db), cfg.Clock.Spec)
		if err := ticker.Start(); err != nil {
			slog.Error("failed to start clock ticker", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// --- Graceful Shutdown ---
	// Listen for interrupt/term signals to drain connections cleanly.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		slog.Info("shutting down server...")
		cancel()
		if ticker != nil {
			ticker.Stop()
		}

		// Give in-flight requests 10 seconds to complete.
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := application.Echo.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced shutdown", slog.Any("error", err))
		}
	}()

	// --- Start Server ---
	if err := application.Start(); err != nil {
		// Echo returns http.ErrServerClosed on graceful shutdown, which is expected.
		slog.Info("server stopped", slog.Any("reason", err))
	}
}

// setupLogging configures the global slog logger. Development uses text
// format for readability, production JSON for structured log aggregation;
// LOG_LEVEL picks the verbosity either way.
func setupLogging(cfg *config.Config) {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	slog.SetDefault(slog.New(handler))
}
