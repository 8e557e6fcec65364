package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/listclean/listclean/internal/classify"
	"github.com/listclean/listclean/internal/clean"
	"github.com/listclean/listclean/internal/config"
	"github.com/listclean/listclean/internal/logging"
	"github.com/listclean/listclean/internal/rules"
	"github.com/listclean/listclean/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"rules_file", cfg.Rules.File,
	)

	// Load classification tables: built-ins, optionally extended from file
	tables, err := rules.Load(cfg.Rules.File)
	if err != nil {
		slog.Error("failed to load rule tables", "error", err)
		os.Exit(1)
	}
	counts := tables.Counts()
	slog.Info("rule tables loaded",
		"typo_domains", counts.TypoDomains,
		"disposable_domains", counts.DisposableDomains,
		"role_prefixes", counts.RolePrefixes,
	)

	// Wire the cleaning pipeline and run service
	pipeline := clean.NewPipeline(classify.New(tables), slog.Default())
	service := clean.NewService(pipeline, clean.ServiceConfig{
		MaxConcurrent: cfg.Upload.MaxConcurrent,
		MaxWait:       cfg.Upload.MaxWaitTime,
		Timeout:       cfg.Upload.Timeout,
		Retention:     cfg.Upload.RunRetention,
	})

	server := web.NewServer(cfg, service, tables)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for active runs to complete (with timeout)
		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for runs to complete", "active", status.Active)
			if err := service.WaitForRuns(shutdownCtx); err != nil {
				slog.Warn("runs did not complete in time", "error", err)
			} else {
				slog.Info("all runs completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
