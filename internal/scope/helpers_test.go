package scope

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/geoscope/internal/model"
)

// tableSearcher answers searches from a term → candidates table and records
// every term it was asked for.
type tableSearcher struct {
	mu      sync.Mutex
	results map[string][]model.GeoCandidate
	calls   []string
}

func newTableSearcher(results map[string][]model.GeoCandidate) *tableSearcher {
	return &tableSearcher{results: results}
}

func (s *tableSearcher) Search(ctx context.Context, term string, limit int) ([]model.GeoCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.calls = append(s.calls, term)
	s.mu.Unlock()

	got := s.results[term]
	if len(got) > limit {
		got = got[:limit]
	}
	out := make([]model.GeoCandidate, len(got))
	copy(out, got)
	return out, nil
}

func (s *tableSearcher) GetByID(_ context.Context, id string) (*model.GeoCandidate, error) {
	for _, cands := range s.results {
		for _, c := range cands {
			if c.ID == id {
				return &c, nil
			}
		}
	}
	return nil, nil
}

func (s *tableSearcher) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// mockSearcher is a testify mock of CandidateSearcher.
type mockSearcher struct {
	mock.Mock
}

func (m *mockSearcher) Search(ctx context.Context, term string, limit int) ([]model.GeoCandidate, error) {
	args := m.Called(ctx, term, limit)
	if v := args.Get(0); v != nil {
		return v.([]model.GeoCandidate), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSearcher) GetByID(ctx context.Context, id string) (*model.GeoCandidate, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*model.GeoCandidate), args.Error(1)
	}
	return nil, args.Error(1)
}

var (
	_ CandidateSearcher = (*tableSearcher)(nil)
	_ CandidateSearcher = (*mockSearcher)(nil)
)

func country(iso2, iso3, name string, score float64) model.GeoCandidate {
	return model.GeoCandidate{
		ID:          iso2,
		Name:        name,
		CountryName: name,
		CountryIso2: iso2,
		CountryIso3: iso3,
		Lat:         model.Coord(1),
		Lng:         model.Coord(2),
		Score:       score,
	}
}

func city(id, name, iso2 string, score float64) model.GeoCandidate {
	return model.GeoCandidate{
		ID:          id,
		Name:        name,
		CountryIso2: iso2,
		Lat:         model.Coord(10),
		Lng:         model.Coord(20),
		Score:       score,
	}
}

// worldFixture returns searchers covering the canonical queries.
func worldFixture() (*tableSearcher, *tableSearcher) {
	countries := newTableSearcher(map[string][]model.GeoCandidate{
		"france":     {country("FR", "FRA", "France", 1.0)},
		"costa rica": {country("CR", "CRI", "Costa Rica", 1.0)},
		"costa":      {country("CR", "CRI", "Costa Rica", 0.45)},
		"rica":       {country("CR", "CRI", "Costa Rica", 0.35)},
		"cr":         {country("CR", "CRI", "Costa Rica", 0.2)},
		"usa":        {country("US", "USA", "United States", 0.25)},
	})
	cities := newTableSearcher(map[string][]model.GeoCandidate{
		"paris": {
			city("fr-paris", "Paris", "FR", 1.0),
			city("us-paris-tx", "Paris", "US", 1.0),
		},
		"san jose": {
			city("cr-sj-1", "San José", "CR", 1.0),
			city("cr-sj-2", "San José", "CR", 1.0),
			city("us-sj", "San Jose", "US", 1.0),
		},
		"san":  {city("us-sj", "San Jose", "US", 0.4)},
		"jose": {city("cr-sj-1", "San José", "CR", 0.5)},
		"cordoba": {
			city("es-cba", "Córdoba", "ES", 1.0),
			city("ar-cba", "Córdoba", "AR", 1.0),
		},
		"springfield": {
			city("us-spr-il", "Springfield", "US", 1.0),
			city("us-spr-mo", "Springfield", "US", 1.0),
			city("us-spr-ma", "Springfield", "US", 1.0),
		},
		"lyon": {city("fr-lyon", "Lyon", "FR", 0.95)},
	})
	return countries, cities
}

func ids(cands []model.GeoCandidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.ID
	}
	return out
}
