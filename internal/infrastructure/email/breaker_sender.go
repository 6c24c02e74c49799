package email

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/baechuer/gig-tickets/internal/circuitbreaker"
	"github.com/baechuer/gig-tickets/internal/domain"
)

type sender interface {
	Send(ctx context.Context, msg domain.EmailMessage) error
}

// BreakerSender fails fast with a TemporaryError while the mail transport
// keeps failing. Permanent errors do not count against the breaker.
type BreakerSender struct {
	next sender
	cb   *circuitbreaker.CircuitBreaker
	lg   zerolog.Logger
}

func NewBreakerSender(next sender, cb *circuitbreaker.CircuitBreaker, lg zerolog.Logger) *BreakerSender {
	return &BreakerSender{
		next: next,
		cb:   cb,
		lg:   lg.With().Str("component", "breaker_sender").Logger(),
	}
}

func (b *BreakerSender) Send(ctx context.Context, msg domain.EmailMessage) error {
	var permanent error
	err := b.cb.Call(ctx, func(ctx context.Context) error {
		err := b.next.Send(ctx, msg)
		if IsPermanent(err) {
			permanent = err
			return nil
		}
		return err
	})
	if permanent != nil {
		return permanent
	}
	if errors.Is(err, circuitbreaker.ErrOpen) || errors.Is(err, circuitbreaker.ErrHalfOpenLimit) {
		b.lg.Warn().Str("state", b.cb.State().String()).Msg("mail transport breaker open; deferring send")
		return TemporaryError{msg: "mail transport unavailable: " + err.Error()}
	}
	return err
}
