package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/gig-tickets/internal/bootstrap"
	"github.com/baechuer/gig-tickets/internal/config"
	"github.com/baechuer/gig-tickets/internal/logger"
)

func build() (bootstrap.Runner, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	zlog.Info().
		Str("env", cfg.Env).
		Str("broker", cfg.Broker).
		Str("gig_store", cfg.GigStore).
		Bool("worker_inproc", cfg.WorkerInProc).
		Msg("config loaded")

	app, cleanup, err := bootstrap.NewAPIApp(context.Background(), cfg, zlog.Logger)
	if err != nil {
		return nil, nil, err
	}
	return app, cleanup, nil
}

func run() int {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	return bootstrap.Run(build, sigCh, zlog.Logger.With().Str("service", "purchase-api").Logger())
}

func main() {
	logger.Init()
	zerolog.TimeFieldFormat = time.RFC3339Nano

	os.Exit(run())
}
