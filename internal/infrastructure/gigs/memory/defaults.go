package memory

import (
	_ "embed"

	"github.com/baechuer/gig-tickets/internal/domain"
)

//go:embed gigs.yaml
var defaultSeed []byte

// Defaults is the built-in catalogue used when no seed file is configured.
func Defaults() []domain.Gig {
	gigs, err := Parse(defaultSeed)
	if err != nil {
		panic(err)
	}
	return gigs
}
