package email

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/baechuer/gig-tickets/internal/circuitbreaker"
	"github.com/baechuer/gig-tickets/internal/domain"
)

type scriptedSender struct {
	err   error
	calls int
}

func (s *scriptedSender) Send(ctx context.Context, msg domain.EmailMessage) error {
	s.calls++
	return s.err
}

func TestBreakerSender_OpensAfterFailures(t *testing.T) {
	next := &scriptedSender{err: TemporaryError{msg: "421"}}
	b := NewBreakerSender(next, circuitbreaker.New(2, time.Minute, 1), zerolog.Nop())

	_ = b.Send(context.Background(), domain.EmailMessage{})
	_ = b.Send(context.Background(), domain.EmailMessage{})
	err := b.Send(context.Background(), domain.EmailMessage{})

	assert.Equal(t, 2, next.calls, "third call fails fast")
	var te TemporaryError
	assert.True(t, errors.As(err, &te))
}

func TestBreakerSender_PermanentErrorsDoNotTrip(t *testing.T) {
	next := &scriptedSender{err: PermanentError{msg: "550"}}
	cb := circuitbreaker.New(1, time.Minute, 1)
	b := NewBreakerSender(next, cb, zerolog.Nop())

	for i := 0; i < 3; i++ {
		assert.True(t, IsPermanent(b.Send(context.Background(), domain.EmailMessage{})))
	}
	assert.Equal(t, 3, next.calls)
	assert.Equal(t, circuitbreaker.StateClosed, cb.State())
}

func TestBreakerSender_PassesSuccess(t *testing.T) {
	next := &scriptedSender{}
	b := NewBreakerSender(next, circuitbreaker.New(1, time.Minute, 1), zerolog.Nop())

	assert.NoError(t, b.Send(context.Background(), domain.EmailMessage{}))
}
