package fixture

import (
	"context"
	"slices"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geoscope/internal/model"
	"github.com/sells-group/geoscope/internal/scope"
	"github.com/sells-group/geoscope/internal/tokenize"
)

// Match ranks, mirroring the SQL ORDER BY CASE.
const (
	rankExact = iota
	rankPrefix
	rankContains
)

type entry struct {
	cand model.GeoCandidate
	key  string // normalized name
	iso2 string // lower-case, countries only
	iso3 string
}

type row struct {
	cand model.GeoCandidate
	rank int
}

// CountrySearcher searches the dataset's countries.
type CountrySearcher struct {
	entries []entry
	byIso2  map[string]model.GeoCandidate
}

// CitySearcher searches the dataset's cities.
type CitySearcher struct {
	entries []entry
	byID    map[string]model.GeoCandidate
}

var (
	_ scope.CandidateSearcher = (*CountrySearcher)(nil)
	_ scope.CandidateSearcher = (*CitySearcher)(nil)
)

// NewCountrySearcher indexes d's countries.
func NewCountrySearcher(d *Dataset) *CountrySearcher {
	s := &CountrySearcher{byIso2: make(map[string]model.GeoCandidate, len(d.Countries))}
	for _, c := range d.Countries {
		cand := model.GeoCandidate{
			ID:          c.Iso2,
			Name:        c.Name,
			CountryIso2: c.Iso2,
			CountryIso3: c.Iso3,
			Lat:         c.Lat,
			Lng:         c.Lng,
		}
		s.entries = append(s.entries, entry{
			cand: cand,
			key:  tokenize.Normalize(c.Name),
			iso2: strings.ToLower(c.Iso2),
			iso3: strings.ToLower(c.Iso3),
		})
		s.byIso2[c.Iso2] = cand
	}
	return s
}

// NewCitySearcher indexes d's cities, joining country name and ISO3.
func NewCitySearcher(d *Dataset) *CitySearcher {
	s := &CitySearcher{byID: make(map[string]model.GeoCandidate, len(d.Cities))}
	for _, c := range d.Cities {
		co, _ := d.Country(c.CountryIso2)
		cand := model.GeoCandidate{
			ID:          c.ID,
			Name:        c.Name,
			CountryName: co.Name,
			CountryIso2: c.CountryIso2,
			CountryIso3: co.Iso3,
			Lat:         c.Lat,
			Lng:         c.Lng,
		}
		s.entries = append(s.entries, entry{cand: cand, key: tokenize.Normalize(c.Name)})
		s.byID[c.ID] = cand
	}
	return s
}

// Search returns countries whose name contains term or whose ISO2/ISO3 code
// equals it.
func (s *CountrySearcher) Search(ctx context.Context, term string, limit int) ([]model.GeoCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "fixture: country search")
	}
	term = tokenize.Normalize(strings.TrimSpace(term))
	if term == "" {
		return []model.GeoCandidate{}, nil
	}

	var rows []row
	for _, e := range s.entries {
		isoHit := e.iso2 == term || (e.iso3 != "" && e.iso3 == term)
		if !isoHit && !strings.Contains(e.key, term) {
			continue
		}
		rows = append(rows, row{
			cand: e.cand.WithScore(Similarity(e.key, term)),
			rank: rankOf(e.key, term, isoHit),
		})
	}
	return collect(rows, limit), nil
}

// GetByID looks a country up by ISO2, case-insensitively.
func (s *CountrySearcher) GetByID(ctx context.Context, id string) (*model.GeoCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "fixture: country lookup")
	}
	c, ok := s.byIso2[strings.ToUpper(strings.TrimSpace(id))]
	if !ok {
		return nil, nil
	}
	out := c.WithScore(1.0)
	return &out, nil
}

// Search returns cities whose name contains term.
func (s *CitySearcher) Search(ctx context.Context, term string, limit int) ([]model.GeoCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "fixture: city search")
	}
	term = tokenize.Normalize(strings.TrimSpace(term))
	if term == "" {
		return []model.GeoCandidate{}, nil
	}

	var rows []row
	for _, e := range s.entries {
		if !strings.Contains(e.key, term) {
			continue
		}
		rows = append(rows, row{
			cand: e.cand.WithScore(Similarity(e.key, term)),
			rank: rankOf(e.key, term, false),
		})
	}
	return collect(rows, limit), nil
}

// GetByID looks a city up by id.
func (s *CitySearcher) GetByID(ctx context.Context, id string) (*model.GeoCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "fixture: city lookup")
	}
	c, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return nil, nil
	}
	out := c.WithScore(1.0)
	return &out, nil
}

func rankOf(key, term string, isoHit bool) int {
	switch {
	case key == term || isoHit:
		return rankExact
	case strings.HasPrefix(key, term):
		return rankPrefix
	default:
		return rankContains
	}
}

// collect orders rows by rank, score desc, then id and applies the limit.
func collect(rows []row, limit int) []model.GeoCandidate {
	slices.SortStableFunc(rows, func(a, b row) int {
		if a.rank != b.rank {
			return a.rank - b.rank
		}
		if a.cand.Score != b.cand.Score {
			if a.cand.Score > b.cand.Score {
				return -1
			}
			return 1
		}
		return strings.Compare(a.cand.ID, b.cand.ID)
	})

	rows = rows[:min(len(rows), scope.ClampLimit(limit))]
	out := make([]model.GeoCandidate, len(rows))
	for i, r := range rows {
		out[i] = r.cand
	}
	return out
}
