// Package scope resolves free-text place queries into a disambiguated
// ScopePreview: which countries and cities the user may mean, whether that is
// still ambiguous, and which concrete targets to pin on the map.
package scope

import (
	"context"

	"github.com/sells-group/geoscope/internal/model"
)

// Tuned constants. Preserve as-is until validated against a real place-name
// corpus.
const (
	// CountryThreshold is the minimum score for a non-exact country candidate.
	CountryThreshold = 0.6
	// CityThreshold is the minimum score for a city candidate to count.
	CityThreshold = 0.6
	// SearchLimit caps each backend search.
	SearchLimit = 10
	// MaxCompositeTargets caps the number of map pins for multi-target scopes.
	MaxCompositeTargets = 12

	// MaxSearchLimit bounds the limit any backend will honour.
	MaxSearchLimit = 100

	// exactFloor treats scores within float jitter of 1.0 as exact matches.
	exactFloor = 0.999
)

// ClampLimit bounds a requested search limit to [1, MaxSearchLimit].
func ClampLimit(limit int) int {
	return min(max(limit, 1), MaxSearchLimit)
}

// CandidateSearcher is a ranked fuzzy lookup over one kind of place (countries
// or cities). Scores must be comparable, stable for identical input, and lie
// in [0,1].
type CandidateSearcher interface {
	// Search returns up to limit candidates for a normalized term, best first.
	Search(ctx context.Context, term string, limit int) ([]model.GeoCandidate, error)

	// GetByID returns one candidate, or nil when no such id exists.
	GetByID(ctx context.Context, id string) (*model.GeoCandidate, error)
}
