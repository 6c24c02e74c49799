package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baechuer/gig-tickets/internal/domain"
	"github.com/baechuer/gig-tickets/internal/logger"
	"github.com/baechuer/gig-tickets/internal/transport/http/response"
)

const maxPurchaseBody = 64 << 10

type PurchaseService interface {
	Purchase(ctx context.Context, raw []byte) (domain.Ticket, error)
	ListGigs(ctx context.Context) ([]domain.Gig, error)
	GetGig(ctx context.Context, slug string) (domain.Gig, error)
}

type PurchaseHandler struct {
	svc PurchaseService
}

func NewPurchaseHandler(svc PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{svc: svc}
}

type acceptedBody struct {
	Success bool `json:"success"`
}

type gigsBody struct {
	Gigs []domain.Gig `json:"gigs"`
}

// Purchase handles POST /purchase. The body is passed to the service as raw
// bytes so that parse failures and field failures are reported separately.
func (h *PurchaseHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPurchaseBody))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			response.Err(w, r, domain.MalformedPayload(err))
			return
		}
		response.Err(w, r, err)
		return
	}

	ticket, err := h.svc.Purchase(r.Context(), raw)
	if err != nil {
		response.Err(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Debug().Str("ticket_id", ticket.ID).Msg("purchase accepted")
	response.JSON(w, r, http.StatusAccepted, acceptedBody{Success: true})
}

// ListGigs handles GET /gigs.
func (h *PurchaseHandler) ListGigs(w http.ResponseWriter, r *http.Request) {
	gigs, err := h.svc.ListGigs(r.Context())
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, gigsBody{Gigs: gigs})
}

// GetGig handles GET /gigs/{slug}.
func (h *PurchaseHandler) GetGig(w http.ResponseWriter, r *http.Request) {
	gig, err := h.svc.GetGig(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, gig)
}
