package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/baechuer/gig-tickets/internal/contracts"
	"github.com/baechuer/gig-tickets/internal/domain"
)

type DeadLetter struct {
	Message domain.QueueMessage
	Reason  string
}

type entry struct {
	id             string
	body           []byte
	receiveCount   int
	handle         string
	invisibleUntil time.Time
}

// Broker is a single-process topic with one subscribed queue. It keeps the
// delivery semantics of the hosted queue: a received message stays invisible
// for the visibility timeout and comes back unless it is deleted.
type Broker struct {
	topic      string
	visibility time.Duration
	now        func() time.Time

	mu      sync.Mutex
	seq     int
	entries []*entry
	dead    []DeadLetter
}

func NewBroker(topic string, visibility time.Duration) *Broker {
	if visibility <= 0 {
		visibility = 30 * time.Second
	}
	return &Broker{topic: topic, visibility: visibility, now: time.Now}
}

// Publish implements purchase.EventPublisher.
func (b *Broker) Publish(ctx context.Context, ev domain.PurchaseEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := contracts.EncodePurchaseEvent(ev)
	if err != nil {
		return err
	}
	env, err := contracts.WrapNotification(b.topic, ev.Ticket.ID, body, b.now())
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, &entry{id: ev.Ticket.ID, body: env})
	return nil
}

func (b *Broker) Receive(ctx context.Context) (*domain.QueueMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	for _, e := range b.entries {
		if now.Before(e.invisibleUntil) {
			continue
		}
		b.seq++
		e.receiveCount++
		e.handle = fmt.Sprintf("%s#%d", e.id, b.seq)
		e.invisibleUntil = now.Add(b.visibility)
		return &domain.QueueMessage{
			ID:            e.id,
			Body:          append([]byte(nil), e.body...),
			ReceiptHandle: e.handle,
			ReceiveCount:  e.receiveCount,
		}, nil
	}
	return nil, nil
}

func (b *Broker) indexOf(handle string) int {
	for i, e := range b.entries {
		if e.handle == handle {
			return i
		}
	}
	return -1
}

// Delete fails for a handle superseded by a later receive.
func (b *Broker) Delete(ctx context.Context, receiptHandle string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexOf(receiptHandle)
	if i < 0 {
		return fmt.Errorf("receipt handle %q is not current", receiptHandle)
	}
	b.entries = append(b.entries[:i], b.entries[i+1:]...)
	return nil
}

// Release hands the message back for redelivery once a full visibility
// timeout has passed.
func (b *Broker) Release(ctx context.Context, msg domain.QueueMessage) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if i := b.indexOf(msg.ReceiptHandle); i >= 0 {
		b.entries[i].invisibleUntil = b.now().Add(b.visibility)
	}
	return nil
}

func (b *Broker) DeadLetter(ctx context.Context, msg domain.QueueMessage, reason string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexOf(msg.ReceiptHandle)
	if i < 0 {
		return fmt.Errorf("receipt handle %q is not current", msg.ReceiptHandle)
	}
	b.entries = append(b.entries[:i], b.entries[i+1:]...)
	b.dead = append(b.dead, DeadLetter{Message: msg, Reason: reason})
	return nil
}

// Len counts messages not yet deleted, in flight or not.
func (b *Broker) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

func (b *Broker) DeadLetters() []DeadLetter {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]DeadLetter(nil), b.dead...)
}
