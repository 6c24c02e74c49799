package memory

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/baechuer/gig-tickets/internal/domain"
)

// Directory serves gigs from memory. Safe for concurrent use.
type Directory struct {
	mu   sync.RWMutex
	gigs map[string]domain.Gig
}

func New(gigs []domain.Gig) *Directory {
	d := &Directory{gigs: make(map[string]domain.Gig, len(gigs))}
	for _, g := range gigs {
		d.gigs[g.Slug] = g
	}
	return d
}

// FindAll returns gigs ordered by date, then slug.
func (d *Directory) FindAll(ctx context.Context) ([]domain.Gig, error) {
	d.mu.RLock()
	out := make([]domain.Gig, 0, len(d.gigs))
	for _, g := range d.gigs {
		out = append(out, g)
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Slug < out[j].Slug
	})
	return out, nil
}

func (d *Directory) FindBySlug(ctx context.Context, slug string) (domain.Gig, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	g, ok := d.gigs[slug]
	return g, ok, nil
}

type seedFile struct {
	Gigs []domain.Gig `yaml:"gigs"`
}

// LoadFile reads a YAML seed of the form `gigs: [...]`.
func LoadFile(path string) ([]domain.Gig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gigs seed: %w", err)
	}
	return Parse(b)
}

func Parse(b []byte) ([]domain.Gig, error) {
	var f seedFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse gigs seed: %w", err)
	}
	seen := make(map[string]bool, len(f.Gigs))
	for i, g := range f.Gigs {
		if g.Slug == "" {
			return nil, fmt.Errorf("parse gigs seed: gig #%d has no slug", i)
		}
		if seen[g.Slug] {
			return nil, fmt.Errorf("parse gigs seed: duplicate slug %q", g.Slug)
		}
		seen[g.Slug] = true
	}
	return f.Gigs, nil
}
