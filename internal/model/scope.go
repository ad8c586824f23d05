package model

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

// ScopeKind classifies a resolved search scope.
type ScopeKind int

const (
	// ScopeNone means the query had no usable tokens.
	ScopeNone ScopeKind = iota
	// ScopeCity is a single concrete city.
	ScopeCity
	// ScopeCountry is a single country.
	ScopeCountry
	// ScopeCityInCountry fixes the country but leaves several same-named cities.
	ScopeCityInCountry
	// ScopeOther has no geographic tokens at all.
	ScopeOther
	// ScopeComposite spans several countries or cannot be reduced to one scope.
	ScopeComposite
)

var scopeKindNames = map[ScopeKind]string{
	ScopeNone:          "None",
	ScopeCity:          "City",
	ScopeCountry:       "Country",
	ScopeCityInCountry: "CityInCountry",
	ScopeOther:         "Other",
	ScopeComposite:     "Composite",
}

func (k ScopeKind) String() string {
	if s, ok := scopeKindNames[k]; ok {
		return s
	}
	return "Unknown"
}

// MarshalText encodes the kind by name.
func (k ScopeKind) MarshalText() ([]byte, error) {
	if _, ok := scopeKindNames[k]; !ok {
		return nil, eris.Errorf("model: unknown scope kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *ScopeKind) UnmarshalText(b []byte) error {
	for kind, name := range scopeKindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return eris.Errorf("model: unknown scope kind %q", string(b))
}

// ScopePreview is the pre-commit preview of a user's geographic intent.
type ScopePreview struct {
	Kind                   ScopeKind                 `json:"kind"`
	IsAmbiguous            bool                      `json:"is_ambiguous"`
	OriginalQuery          string                    `json:"original_query"`
	Tokens                 []Token                   `json:"tokens"`
	CountryMatches         []GeoCandidate            `json:"country_matches"`
	CityMatches            []GeoCandidate            `json:"city_matches"`
	CitiesGroupedByCountry map[string][]GeoCandidate `json:"cities_grouped_by_country"`
	NonGeoKeywords         []string                  `json:"non_geo_keywords"`
	Targets                []GeoCandidate            `json:"targets"`
	Diagnostics            *Diagnostics              `json:"diagnostics,omitempty"`
}

// NewEmptyPreview returns the well-formed preview used for blank input.
func NewEmptyPreview(query string) *ScopePreview {
	return &ScopePreview{
		Kind:                   ScopeOther,
		OriginalQuery:          query,
		Tokens:                 []Token{},
		CountryMatches:         []GeoCandidate{},
		CityMatches:            []GeoCandidate{},
		CitiesGroupedByCountry: map[string][]GeoCandidate{},
		NonGeoKeywords:         []string{},
		Targets:                []GeoCandidate{},
	}
}

// IsBlocking reports whether the scope is structurally unable to run yet:
// CityInCountry always waits for a concrete city, Composite only while ambiguous.
func (p *ScopePreview) IsBlocking() bool {
	switch p.Kind {
	case ScopeCityInCountry:
		return true
	case ScopeComposite:
		return p.IsAmbiguous
	default:
		return false
	}
}

// CanSearch reports whether it is safe to query the news provider.
func (p *ScopePreview) CanSearch() bool {
	return !p.IsAmbiguous && !p.IsBlocking()
}

// MarshalJSON adds the derived is_blocking and can_search flags.
func (p *ScopePreview) MarshalJSON() ([]byte, error) {
	type alias ScopePreview
	return json.Marshal(struct {
		*alias
		IsBlocking bool `json:"is_blocking"`
		CanSearch  bool `json:"can_search"`
	}{
		alias:      (*alias)(p),
		IsBlocking: p.IsBlocking(),
		CanSearch:  p.CanSearch(),
	})
}

// Diagnostics records how a preview was reached. Nothing in it feeds back
// into resolution.
type Diagnostics struct {
	PolicyVersion     string           `json:"policy_version"`
	ChosenIso2        string           `json:"chosen_iso2,omitempty"`
	TargetIDs         []string         `json:"target_ids"`
	TopCountries      []CandidateBrief `json:"top_countries"`
	TopCitiesInChosen []CandidateBrief `json:"top_cities_in_chosen,omitempty"`
	Trace             []string         `json:"trace"`
}

// CandidateBrief is a compact candidate summary for diagnostics.
type CandidateBrief struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	CountryIso2 string  `json:"country_iso2,omitempty"`
	Score       float64 `json:"score"`
}

// Brief summarizes a candidate.
func Brief(c GeoCandidate) CandidateBrief {
	return CandidateBrief{ID: c.ID, Name: c.Name, CountryIso2: c.CountryIso2, Score: c.Score}
}
