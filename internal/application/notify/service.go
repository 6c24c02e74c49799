package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/baechuer/gig-tickets/internal/domain"
	"github.com/baechuer/gig-tickets/internal/metrics"
)

type Options struct {
	// SentTTL is how long a delivered confirmation is remembered.
	SentTTL time.Duration
	// ClaimLease bounds how long one worker owns an in-flight send.
	ClaimLease time.Duration
}

type Service struct {
	sender Sender
	idem   IdempotencyStore // nil => disabled
	opts   Options
	lg     zerolog.Logger
}

func NewService(sender Sender, idem IdempotencyStore, opts Options, lg zerolog.Logger) *Service {
	if opts.SentTTL <= 0 {
		opts.SentTTL = 7 * 24 * time.Hour
	}
	if opts.ClaimLease <= 0 {
		opts.ClaimLease = 30 * time.Second
	}
	return &Service{
		sender: sender,
		idem:   idem,
		opts:   opts,
		lg:     lg.With().Str("component", "notify_service").Logger(),
	}
}

func IdempotencyKey(ticketID string) string {
	return "email:sent:ticket:" + ticketID
}

// HandlePurchase sends the confirmation for ev at most once per ticket id.
// A nil return means the message may be deleted.
func (s *Service) HandlePurchase(ctx context.Context, ev domain.PurchaseEvent) error {
	ticketID := ev.Ticket.ID
	key := IdempotencyKey(ticketID)

	if s.idem != nil {
		seen, err := s.idem.Seen(ctx, key)
		if err != nil {
			return fmt.Errorf("idempotency check: %w", err)
		}
		if seen {
			metrics.RecordIdempotencyHit()
			s.lg.Info().Str("ticket_id", ticketID).Msg("idempotent skip (already sent)")
			return nil
		}

		ok, err := s.idem.Claim(ctx, key, s.opts.ClaimLease)
		if err != nil {
			return fmt.Errorf("idempotency claim: %w", err)
		}
		if !ok {
			return domain.SendFailed(ticketID, errClaimHeld)
		}
	}

	msg := RenderConfirmation(ev)
	if err := s.sender.Send(ctx, msg); err != nil {
		if s.idem != nil {
			if rerr := s.idem.Release(context.WithoutCancel(ctx), key); rerr != nil {
				s.lg.Warn().Err(rerr).Str("key", key).Msg("idempotency release failed")
			}
		}
		errType := "temporary"
		if isPermanent(err) {
			errType = "permanent"
		}
		metrics.RecordNotificationFailed(errType)
		return domain.SendFailed(ticketID, err)
	}
	metrics.RecordNotificationSent()

	if s.idem != nil {
		if err := s.idem.MarkSent(context.WithoutCancel(ctx), key, s.opts.SentTTL); err != nil {
			s.lg.Warn().Err(err).Str("key", key).Msg("idempotency mark failed (send already succeeded)")
			return nil
		}
	}

	s.lg.Info().
		Str("ticket_id", ticketID).
		Str("gig", ev.Gig.Slug).
		Str("email", msg.To).
		Msg("ticket confirmation sent")
	return nil
}
