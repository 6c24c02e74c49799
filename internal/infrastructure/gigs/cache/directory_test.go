package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/gig-tickets/internal/domain"
	rediscache "github.com/baechuer/gig-tickets/internal/infrastructure/caching/redis"
	"github.com/baechuer/gig-tickets/internal/infrastructure/gigs/memory"
)

type countingDirectory struct {
	*memory.Directory
	bySlug, all int
}

func (c *countingDirectory) FindBySlug(ctx context.Context, slug string) (domain.Gig, bool, error) {
	c.bySlug++
	return c.Directory.FindBySlug(ctx, slug)
}

func (c *countingDirectory) FindAll(ctx context.Context) ([]domain.Gig, error) {
	c.all++
	return c.Directory.FindAll(ctx)
}

var gig1 = domain.Gig{Slug: "band1-location1", BandName: "Mighty Mammoth", City: "Memphis", Price: 14.5}

func setup(t *testing.T) (*Directory, *countingDirectory, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := rediscache.New(context.Background(), rediscache.Options{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	backing := &countingDirectory{Directory: memory.New([]domain.Gig{gig1})}
	return New(backing, c, time.Minute, zerolog.Nop()), backing, mr
}

func TestCache_FindBySlugReadsThrough(t *testing.T) {
	d, backing, mr := setup(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		g, ok, err := d.FindBySlug(ctx, gig1.Slug)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, gig1, g)
	}
	assert.Equal(t, 1, backing.bySlug)
	assert.Equal(t, time.Minute, mr.TTL("gigs:slug:"+gig1.Slug))
}

func TestCache_MissingSlugNotCached(t *testing.T) {
	d, backing, mr := setup(t)

	for i := 0; i < 2; i++ {
		_, ok, err := d.FindBySlug(context.Background(), "does-not-exist")
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.Equal(t, 2, backing.bySlug)
	assert.False(t, mr.Exists("gigs:slug:does-not-exist"))
}

func TestCache_FindAll(t *testing.T) {
	d, backing, _ := setup(t)

	for i := 0; i < 2; i++ {
		gigs, err := d.FindAll(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []domain.Gig{gig1}, gigs)
	}
	assert.Equal(t, 1, backing.all)
}

func TestCache_RedisDownFallsThrough(t *testing.T) {
	d, backing, mr := setup(t)
	mr.Close()

	g, ok, err := d.FindBySlug(context.Background(), gig1.Slug)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, gig1, g)
	assert.Equal(t, 1, backing.bySlug)
}
