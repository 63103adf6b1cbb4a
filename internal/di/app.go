package di

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/pannpers/go-logging/logging"

	"github.com/liverty-music/usage-matching/internal/infrastructure/server"
)

// WorkerApp is the shared shape of both pipeline binaries: a Watermill
// router driving the worker's event handlers, plus a health server for
// Kubernetes probes. The health server is also registered with
// pkg/shutdown; the router is not, and stops when the context passed to its
// Run is cancelled. Shutdown here only covers what the caller must await
// synchronously before the process exits.
type WorkerApp struct {
	Router          *message.Router
	HealthServer    *server.HealthServer
	Logger          *logging.Logger
	ShutdownTimeout time.Duration
	closers         []io.Closer
}

// Shutdown closes resources that are not already registered with the global
// shutdown registry (pkg/shutdown handles the phased teardown; this just
// covers closers unique to this app instance, if any).
func (a *WorkerApp) Shutdown(ctx context.Context) error {
	a.Logger.Info(ctx, "starting worker app shutdown")

	var errs error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = errors.Join(errs, fmt.Errorf("close resource: %w", err))
		}
	}

	if errs != nil {
		return errs
	}

	a.Logger.Info(ctx, "worker app shutdown complete")
	return nil
}
