package email

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/baechuer/gig-tickets/internal/domain"
)

// FakeSender logs instead of sending and keeps what it was given.
//
// FAKE_FAIL_MODE:
// - "none" (default): always succeed
// - "transient": return a Temporary() error
// - "permanent": return a Permanent() error
type FakeSender struct {
	lg zerolog.Logger

	mu   sync.Mutex
	sent []domain.EmailMessage
}

func NewFakeSender(lg zerolog.Logger) *FakeSender {
	return &FakeSender{
		lg: lg.With().Str("component", "fake_sender").Logger(),
	}
}

func (s *FakeSender) Send(ctx context.Context, msg domain.EmailMessage) error {
	if err := maybeFail(msg.To); err != nil {
		return err
	}

	s.mu.Lock()
	s.sent = append(s.sent, msg)
	s.mu.Unlock()

	s.lg.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Msg("FAKE send ticket confirmation")
	return nil
}

func (s *FakeSender) Sent() []domain.EmailMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.EmailMessage(nil), s.sent...)
}

func maybeFail(to string) error {
	switch strings.TrimSpace(strings.ToLower(os.Getenv("FAKE_FAIL_MODE"))) {
	case "transient":
		return TemporaryError{msg: fmt.Sprintf("fake transient failure (%s)", to)}
	case "permanent":
		return PermanentError{msg: fmt.Sprintf("fake permanent failure (%s)", to)}
	default:
		return nil
	}
}
