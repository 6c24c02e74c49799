package purchase

import (
	"context"
	"sync"
	"time"

	"github.com/baechuer/gig-tickets/internal/domain"
)

type fakeDirectory struct {
	gigs map[string]domain.Gig
	err  error

	mu      sync.Mutex
	lookups []string
}

func newFakeDirectory(gigs ...domain.Gig) *fakeDirectory {
	d := &fakeDirectory{gigs: map[string]domain.Gig{}}
	for _, g := range gigs {
		d.gigs[g.Slug] = g
	}
	return d
}

func (d *fakeDirectory) FindAll(ctx context.Context) ([]domain.Gig, error) {
	if d.err != nil {
		return nil, d.err
	}
	out := make([]domain.Gig, 0, len(d.gigs))
	for _, g := range d.gigs {
		out = append(out, g)
	}
	return out, nil
}

func (d *fakeDirectory) FindBySlug(ctx context.Context, slug string) (domain.Gig, bool, error) {
	d.mu.Lock()
	d.lookups = append(d.lookups, slug)
	d.mu.Unlock()

	if d.err != nil {
		return domain.Gig{}, false, d.err
	}
	g, ok := d.gigs[slug]
	return g, ok, nil
}

func (d *fakeDirectory) Lookups() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.lookups)
}

type fakePublisher struct {
	mu        sync.Mutex
	published []domain.PurchaseEvent
	attempts  int

	// errs are returned in order, one per attempt; nil afterwards.
	errs []error
}

func (p *fakePublisher) Publish(ctx context.Context, ev domain.PurchaseEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.attempts++
	if len(p.errs) > 0 {
		err := p.errs[0]
		p.errs = p.errs[1:]
		if err != nil {
			return err
		}
	}
	p.published = append(p.published, ev)
	return nil
}

func (p *fakePublisher) Published() []domain.PurchaseEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.PurchaseEvent(nil), p.published...)
}

func (p *fakePublisher) Attempts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempts
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }
