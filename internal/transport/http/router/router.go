package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/baechuer/gig-tickets/internal/config"
	"github.com/baechuer/gig-tickets/internal/metrics"
	"github.com/baechuer/gig-tickets/internal/transport/http/handlers"
	mw "github.com/baechuer/gig-tickets/internal/transport/http/middleware"
)

func New(h *handlers.PurchaseHandler, z *handlers.HealthHandler, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(mw.AccessLog)
	r.Use(mw.CORS)

	r.Get("/healthz", z.Healthz)
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		if cfg.RLEnabled {
			r.Use(httprate.LimitByIP(cfg.RLIPLimit, cfg.RLWindow))
		}

		r.Post("/purchase", h.Purchase)
		r.Get("/gigs", h.ListGigs)
		r.Get("/gigs/{slug}", h.GetGig)
	})

	return r
}
