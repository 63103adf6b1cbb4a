// Package main provides the Matching Engine entry point. It runs a
// Watermill Router that subscribes to usage.normalized and resolves each
// event through the ISRC/ISWC/fuzzy/embedding cascade.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pannpers/go-logging/logging"

	"github.com/liverty-music/usage-matching/internal/di"
	"github.com/liverty-music/usage-matching/pkg/shutdown"
)

func main() {
	if err := run(); err != nil {
		logger, _ := logging.New()
		logger.Error(context.Background(), "matching engine failed", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootLogger, _ := logging.New()
	bootLogger.Info(ctx, "starting matching engine")

	app, err := di.InitializeMatcherApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.ShutdownTimeout)
		defer cancel()
		if err := shutdown.Shutdown(shutdownCtx); err != nil {
			app.Logger.Error(context.Background(), "error during shutdown", err)
		}
	}()

	go func() {
		if err := app.HealthServer.Start(); err != nil {
			app.Logger.Error(ctx, "health server failed", err)
		}
	}()

	app.Logger.Info(ctx, "matching engine router starting")

	errChan := make(chan error, 1)
	go func() {
		if err := app.Router.Run(ctx); err != nil {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		app.Logger.Info(ctx, "received shutdown signal, stopping matching engine gracefully",
			slog.String("cause", context.Cause(ctx).Error()),
		)
		return nil
	case err := <-errChan:
		if err != nil {
			app.Logger.Error(ctx, "matching engine router stopped with error", err)
			return err
		}
		app.Logger.Info(ctx, "matching engine router stopped gracefully")
		return nil
	}
}
