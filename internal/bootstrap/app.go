package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/baechuer/gig-tickets/internal/application/notify"
	"github.com/baechuer/gig-tickets/internal/application/purchase"
	"github.com/baechuer/gig-tickets/internal/config"
	"github.com/baechuer/gig-tickets/internal/metrics"
	"github.com/baechuer/gig-tickets/internal/retry"
	"github.com/baechuer/gig-tickets/internal/transport/http/handlers"
	mw "github.com/baechuer/gig-tickets/internal/transport/http/middleware"
	"github.com/baechuer/gig-tickets/internal/transport/http/router"
)

// App is one process: an HTTP server plus, optionally, a queue poller.
type App struct {
	name   string
	server *http.Server
	poller *notify.Poller
	wait   time.Duration
	lg     zerolog.Logger

	infra *infra
}

// NewAPIApp wires the purchase API. With WORKER_INPROC set it also runs the
// notification poller, which is the only useful setup for the memory broker.
func NewAPIApp(ctx context.Context, cfg *config.Config, lg zerolog.Logger) (*App, func(), error) {
	in := newInfra(cfg, lg)

	gigs, err := in.gigDirectory(ctx)
	if err != nil {
		in.cleanup()
		return nil, nil, err
	}
	pub, err := in.publisher(ctx)
	if err != nil {
		in.cleanup()
		return nil, nil, err
	}

	svc := purchase.NewService(
		purchase.NewValidator(cfg.CardExpiryYearMin, cfg.CardExpiryYearMax),
		gigs,
		pub,
		purchase.SystemClock{},
		retry.Config{
			MaxRetries:   cfg.PublishMaxRetries,
			InitialDelay: cfg.PublishRetryInitialDelay,
			MaxDelay:     2 * time.Second,
		},
		lg,
	)

	app := &App{
		name: "purchase-api",
		server: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      router.New(handlers.NewPurchaseHandler(svc), handlers.NewHealthHandler(), cfg),
			ReadTimeout:  cfg.HTTPReadTimeout,
			WriteTimeout: cfg.HTTPWriteTimeout,
			IdleTimeout:  cfg.HTTPIdleTimeout,
		},
		wait:  cfg.ShutdownWait,
		lg:    lg,
		infra: in,
	}

	if cfg.WorkerInProc {
		p, err := newPoller(ctx, in)
		if err != nil {
			in.cleanup()
			return nil, nil, err
		}
		app.poller = p
		lg.Info().Msg("notification worker running in-process")
	}

	return app, app.cleanup, nil
}

// NewWorkerApp wires the notification worker. Its HTTP server only serves
// /healthz and /metrics.
func NewWorkerApp(ctx context.Context, cfg *config.Config, lg zerolog.Logger) (*App, func(), error) {
	in := newInfra(cfg, lg)

	if cfg.Broker == config.BrokerMemory {
		lg.Warn().Msg("memory broker in a standalone worker receives nothing; use WORKER_INPROC on the API")
	}

	p, err := newPoller(ctx, in)
	if err != nil {
		in.cleanup()
		return nil, nil, err
	}

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", handlers.NewHealthHandler().Healthz)
	r.Handle("/metrics", metrics.Handler())

	app := &App{
		name: "notification-worker",
		server: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      r,
			ReadTimeout:  cfg.HTTPReadTimeout,
			WriteTimeout: cfg.HTTPWriteTimeout,
			IdleTimeout:  cfg.HTTPIdleTimeout,
		},
		poller: p,
		wait:   cfg.ShutdownWait,
		lg:     lg,
		infra:  in,
	}
	return app, app.cleanup, nil
}

func newPoller(ctx context.Context, in *infra) (*notify.Poller, error) {
	q, err := in.queue(ctx)
	if err != nil {
		return nil, err
	}
	idem, err := in.idempotencyStore(ctx)
	if err != nil {
		return nil, err
	}

	svc := notify.NewService(in.sender(), idem, notify.Options{
		SentTTL:    in.cfg.EmailIdempotencyTTL,
		ClaimLease: in.cfg.EmailClaimLease,
	}, in.lg)

	return notify.NewPoller(q, svc, notify.PollerConfig{
		MaxReceives: in.cfg.MaxReceives,
		Concurrency: in.cfg.WorkerConcurrency,
		IdleWait:    in.cfg.WorkerIdleWait,
	}, in.lg), nil
}

func (a *App) Handler() http.Handler { return a.server.Handler }

func (a *App) ShutdownWait() time.Duration { return a.wait }

// Start starts the poller, if any, and blocks serving HTTP.
func (a *App) Start(ctx context.Context) error {
	if a.poller != nil {
		if err := a.poller.Start(ctx); err != nil {
			return err
		}
	}

	a.lg.Info().Str("app", a.name).Str("addr", a.server.Addr).Msg("listening")
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop drains HTTP first so no purchase is accepted while the poller winds down.
func (a *App) Stop(ctx context.Context) error {
	a.lg.Info().Str("app", a.name).Msg("shutting down gracefully")

	var errs []error
	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.poller != nil {
		if err := a.poller.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *App) cleanup() {
	a.lg.Info().Str("app", a.name).Msg("releasing resources")
	a.infra.cleanup()
}
