package purchase

import (
	"context"
	"time"

	"github.com/baechuer/gig-tickets/internal/domain"
)

// GigDirectory is the read side of the gig store. FindBySlug reports an
// unknown slug as found=false, never as an error.
type GigDirectory interface {
	FindAll(ctx context.Context) ([]domain.Gig, error)
	FindBySlug(ctx context.Context, slug string) (domain.Gig, bool, error)
}

// EventPublisher returns nil only once the broker acknowledged the event.
type EventPublisher interface {
	Publish(ctx context.Context, ev domain.PurchaseEvent) error
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
