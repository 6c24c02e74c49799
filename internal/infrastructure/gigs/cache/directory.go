package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/baechuer/gig-tickets/internal/domain"
)

// Store is the JSON cache the decorator reads through.
type Store interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, val any, ttl time.Duration) error
}

type directory interface {
	FindAll(ctx context.Context) ([]domain.Gig, error)
	FindBySlug(ctx context.Context, slug string) (domain.Gig, bool, error)
}

const (
	keyAll    = "gigs:all"
	keyPrefix = "gigs:slug:"
)

// Directory caches lookups against the backing store. Cache errors are
// logged and fall through to the store. Unknown slugs are not cached, so a
// gig added to the table becomes visible without waiting for the TTL.
type Directory struct {
	next  directory
	cache Store
	ttl   time.Duration
	lg    zerolog.Logger
}

func New(next directory, cache Store, ttl time.Duration, lg zerolog.Logger) *Directory {
	return &Directory{
		next:  next,
		cache: cache,
		ttl:   ttl,
		lg:    lg.With().Str("component", "gig_cache").Logger(),
	}
}

func (d *Directory) FindBySlug(ctx context.Context, slug string) (domain.Gig, bool, error) {
	key := keyPrefix + slug

	var g domain.Gig
	hit, err := d.cache.Get(ctx, key, &g)
	if err != nil {
		d.lg.Warn().Err(err).Str("key", key).Msg("cache get failed")
	}
	if hit {
		return g, true, nil
	}

	g, found, err := d.next.FindBySlug(ctx, slug)
	if err != nil || !found {
		return g, found, err
	}
	if err := d.cache.Set(ctx, key, g, d.ttl); err != nil {
		d.lg.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
	return g, true, nil
}

func (d *Directory) FindAll(ctx context.Context) ([]domain.Gig, error) {
	var gigs []domain.Gig
	hit, err := d.cache.Get(ctx, keyAll, &gigs)
	if err != nil {
		d.lg.Warn().Err(err).Str("key", keyAll).Msg("cache get failed")
	}
	if hit && gigs != nil {
		return gigs, nil
	}

	gigs, err = d.next.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if err := d.cache.Set(ctx, keyAll, gigs, d.ttl); err != nil {
		d.lg.Warn().Err(err).Str("key", keyAll).Msg("cache set failed")
	}
	return gigs, nil
}
