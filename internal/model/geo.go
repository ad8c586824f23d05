package model

// MatchType classifies what a query token was recognized as.
type MatchType string

const (
	MatchNonGeo  MatchType = "non-geo"
	MatchCity    MatchType = "city"
	MatchCountry MatchType = "country"
)

// GeoCandidate is one ranked country or city match returned by a candidate
// search backend. It is a value type: adjusting a score yields a new value.
type GeoCandidate struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	CountryName string   `json:"country_name,omitempty"`
	CountryIso2 string   `json:"country_iso2,omitempty"`
	CountryIso3 string   `json:"country_iso3,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lng         *float64 `json:"lng,omitempty"`
	Score       float64  `json:"score"`
}

// WithScore returns a copy of c with the score replaced (clamped to [0,1]).
// Coordinates are copied so the clone shares no memory with c.
func (c GeoCandidate) WithScore(score float64) GeoCandidate {
	out := c
	out.Lat = copyFloat(c.Lat)
	out.Lng = copyFloat(c.Lng)
	out.Score = ClampScore(score)
	return out
}

// HasCoords reports whether both latitude and longitude are known.
func (c GeoCandidate) HasCoords() bool {
	return c.Lat != nil && c.Lng != nil
}

// ClampScore bounds a similarity score to [0,1].
func ClampScore(s float64) float64 {
	switch {
	case s != s: // NaN
		return 0
	case s < 0:
		return 0
	case s > 1:
		return 1
	default:
		return s
	}
}

// Coord returns a pointer to v, for building candidates with coordinates.
func Coord(v float64) *float64 {
	return &v
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Token is the parse result for one piece of the query text. Tokens are not
// mutated after creation; promotion passes replace them via WithType.
type Token struct {
	Raw         string         `json:"raw"`
	Normalized  string         `json:"normalized"`
	MatchedType MatchType      `json:"matched_type"`
	Countries   []GeoCandidate `json:"countries"`
	Cities      []GeoCandidate `json:"cities"`
}

// WithType returns a copy of t carrying a different match type.
func (t Token) WithType(mt MatchType) Token {
	out := t
	out.MatchedType = mt
	return out
}
