package notify

import (
	"context"
	"time"

	"github.com/baechuer/gig-tickets/internal/domain"
)

// Sender delivers one rendered email. Errors carrying Permanent() == true
// will not succeed on redelivery.
type Sender interface {
	Send(ctx context.Context, msg domain.EmailMessage) error
}

type IdempotencyStore interface {
	// Seen returns true if key already marked as sent.
	Seen(ctx context.Context, key string) (bool, error)

	// Claim takes a short lease on key. It returns false when another worker
	// holds the lease or the key is already marked as sent.
	Claim(ctx context.Context, key string, lease time.Duration) (bool, error)

	// MarkSent marks key as sent with TTL (idempotent).
	MarkSent(ctx context.Context, key string, ttl time.Duration) error

	// Release drops a lease taken by Claim. A key already marked as sent is kept.
	Release(ctx context.Context, key string) error
}

// Queue is the consumer side of the broker. Receive returns (nil, nil) when
// no message is available.
type Queue interface {
	Receive(ctx context.Context) (*domain.QueueMessage, error)
	Delete(ctx context.Context, receiptHandle string) error

	// Release hands the message back for later redelivery.
	Release(ctx context.Context, msg domain.QueueMessage) error

	// DeadLetter moves the message out of the main queue for good.
	DeadLetter(ctx context.Context, msg domain.QueueMessage, reason string) error
}

// Handler is what the poller calls for every decoded purchase event.
type Handler interface {
	HandlePurchase(ctx context.Context, ev domain.PurchaseEvent) error
}
