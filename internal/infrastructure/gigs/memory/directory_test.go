package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/gig-tickets/internal/domain"
)

func TestDirectory_FindBySlugAndAll(t *testing.T) {
	d := New([]domain.Gig{
		{Slug: "b", Date: "2000-01-02"},
		{Slug: "a", Date: "2000-01-02"},
		{Slug: "c", Date: "1999-12-31"},
	})

	g, ok, err := d.FindBySlug(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a", g.Slug)

	_, ok, err = d.FindBySlug(context.Background(), "does-not-exist")
	require.NoError(t, err)
	assert.False(t, ok)

	all, err := d.FindAll(context.Background())
	require.NoError(t, err)
	var slugs []string
	for _, g := range all {
		slugs = append(slugs, g.Slug)
	}
	assert.Equal(t, []string{"c", "a", "b"}, slugs)
}

func TestDefaults_ContainsSampleGig(t *testing.T) {
	gigs := Defaults()
	require.NotEmpty(t, gigs)

	_, ok, _ := New(gigs).FindBySlug(context.Background(), "band1-location1")
	assert.True(t, ok)
	for _, g := range gigs {
		assert.NotEmpty(t, g.BandName)
		assert.NotEmpty(t, g.CollectionPoint)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gigs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
gigs:
  - slug: x
    bandName: X
    city: Y
    capacity: 10
    price: 12.5
`), 0o600))

	gigs, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, gigs, 1)
	assert.Equal(t, domain.Gig{Slug: "x", BandName: "X", City: "Y", Capacity: 10, Price: 12.5}, gigs[0])

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParse_Rejects(t *testing.T) {
	for name, doc := range map[string]string{
		"no_slug":   "gigs:\n  - bandName: X\n",
		"duplicate": "gigs:\n  - slug: a\n  - slug: a\n",
		"not_yaml":  "gigs: [",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}
