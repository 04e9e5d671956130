package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/specialistvlad/pipeliner/internal/ctxlog"
	"golang.org/x/sync/errgroup"
)

// Watch probes the pipeline every WatchInterval until ctx is done. With a
// healthcheck port configured, the health check server runs in the same
// group and stops with it. Cancellation of ctx is a clean exit.
func (a *App) Watch(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	g, gctx := errgroup.WithContext(ctx)

	if port := a.config.HealthcheckPort; port > 0 {
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err != nil {
			return fmt.Errorf("health check server: %w", err)
		}
		g.Go(func() error { return a.serveHealthCheck(gctx, ln) })
	} else {
		a.logger.Debug("Health check server not started: disabled")
	}
	g.Go(func() error { return a.watchLoop(gctx, a.config.WatchInterval) })

	err := g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// watchLoop runs a probe pass immediately and then on every tick. A failed
// pass is logged and retried on the next tick.
func (a *App) watchLoop(ctx context.Context, interval time.Duration) error {
	logger := ctxlog.FromContext(ctx)
	logger.Info("👀 Watching pipeline", "path", a.config.PipelinePath, "interval", interval.String())
	defer logger.Info("Watch stopped.")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		names, err := a.Probe(ctx)
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			logger.Error("Probe pass failed.", "error", err)
		default:
			for _, name := range names {
				a.printf("Finished: %s\n", name)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
