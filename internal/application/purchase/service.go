package purchase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/baechuer/gig-tickets/internal/domain"
	"github.com/baechuer/gig-tickets/internal/metrics"
	"github.com/baechuer/gig-tickets/internal/retry"
)

type Service struct {
	validator *Validator
	gigs      GigDirectory
	pub       EventPublisher
	clock     Clock
	newID     func() string

	publishRetry retry.Config
	lg           zerolog.Logger
}

func NewService(v *Validator, gigs GigDirectory, pub EventPublisher, clock Clock, publishRetry retry.Config, lg zerolog.Logger) *Service {
	return &Service{
		validator:    v,
		gigs:         gigs,
		pub:          pub,
		clock:        clock,
		newID:        uuid.NewString,
		publishRetry: publishRetry,
		lg:           lg.With().Str("component", "purchase_service").Logger(),
	}
}

// Purchase validates raw, checks the gig exists, creates the ticket and
// publishes the purchase event. It returns only after the broker acknowledged
// the event; the confirmation email is sent later by the worker.
func (s *Service) Purchase(ctx context.Context, raw []byte) (domain.Ticket, error) {
	req, err := s.validator.Validate(raw)
	if err != nil {
		metrics.RecordPurchase(outcomeOf(err))
		return domain.Ticket{}, err
	}

	gig, found, err := s.gigs.FindBySlug(ctx, req.GigSlug)
	if err != nil {
		metrics.RecordPurchase("error")
		return domain.Ticket{}, fmt.Errorf("find gig %q: %w", req.GigSlug, err)
	}
	if !found {
		metrics.RecordPurchase("gig_not_found")
		return domain.Ticket{}, domain.GigNotFound(req.GigSlug)
	}

	ticket := domain.NewTicket(s.newID(), s.clock.Now().UTC(), req)
	ev := domain.PurchaseEvent{Ticket: ticket, Gig: gig}

	// Retries reuse ev, so the broker sees one ticket id however many attempts it takes.
	start := time.Now()
	err = retry.Do(ctx, s.publishRetry, func(ctx context.Context) error {
		return s.pub.Publish(ctx, ev)
	})
	metrics.RecordPublish(time.Since(start), err)
	if err != nil {
		metrics.RecordPurchase("publish_failed")
		s.lg.Error().
			Err(err).
			Str("ticket_id", ticket.ID).
			Str("gig", gig.Slug).
			Str("email", ticket.Email).
			Msg("purchase event undeliverable")
		return ticket, domain.PublishFailed(ticket.ID, err)
	}

	metrics.RecordPurchase("accepted")
	s.lg.Info().
		Str("ticket_id", ticket.ID).
		Str("gig", gig.Slug).
		Msg("ticket accepted")
	return ticket, nil
}

func (s *Service) ListGigs(ctx context.Context) ([]domain.Gig, error) {
	gigs, err := s.gigs.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list gigs: %w", err)
	}
	if gigs == nil {
		gigs = []domain.Gig{}
	}
	return gigs, nil
}

func (s *Service) GetGig(ctx context.Context, slug string) (domain.Gig, error) {
	gig, found, err := s.gigs.FindBySlug(ctx, slug)
	if err != nil {
		return domain.Gig{}, fmt.Errorf("find gig %q: %w", slug, err)
	}
	if !found {
		return domain.Gig{}, domain.GigNotFound(slug)
	}
	return gig, nil
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrMalformedPayload):
		return "malformed"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}
