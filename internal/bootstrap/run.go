package bootstrap

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"
)

const defaultStopWait = 15 * time.Second

// Runner is the lifecycle both binaries share. Start may block.
type Runner interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Builder constructs the runner and the cleanup that releases its resources.
type Builder func() (Runner, func(), error)

// Run builds the app, starts it, waits for a signal or a crash and stops it
// within the runner's ShutdownWait. It returns the process exit code.
func Run(build Builder, sigCh <-chan os.Signal, lg zerolog.Logger) int {
	app, cleanup, err := build()
	if err != nil {
		lg.Error().Err(err).Msg("bootstrap failed")
		return 1
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		if err := app.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	select {
	case sig := <-sigCh:
		lg.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		lg.Error().Err(err).Msg("app crashed")
		return 1
	}

	wait := defaultStopWait
	if w, ok := app.(interface{ ShutdownWait() time.Duration }); ok && w.ShutdownWait() > 0 {
		wait = w.ShutdownWait()
	}
	stopCtx, stopCancel := context.WithTimeout(context.Background(), wait)
	defer stopCancel()

	if err := app.Stop(stopCtx); err != nil {
		lg.Error().Err(err).Msg("graceful stop failed")
		return 1
	}

	lg.Info().Msg("shutdown complete")
	return 0
}
