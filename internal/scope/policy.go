package scope

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/sells-group/geoscope/internal/model"
	"github.com/sells-group/geoscope/internal/tokenize"
)

// PolicyVersion identifies the decision rules and is reported in diagnostics.
const PolicyVersion = "ScopePolicy v2 (score-aware + tokenizer)"

const (
	clearLeaderGap      = 0.10
	highConfidence      = 0.90
	inCountryEpsilon    = 0.01
	crossCountryEpsilon = 0.05
)

// Policy holds the pure decision rules: which country the user means, what
// kind of scope the query is, and whether it is still ambiguous. A Policy is
// stateless apart from its tracer and safe for concurrent use.
type Policy struct {
	tracer Tracer
}

// PolicyOption configures a Policy.
type PolicyOption func(*Policy)

// WithPolicyTracer sets the tracer receiving policy decision lines.
func WithPolicyTracer(t Tracer) PolicyOption {
	return func(p *Policy) {
		if t != nil {
			p.tracer = t
		}
	}
}

// NewPolicy creates a Policy.
func NewPolicy(opts ...PolicyOption) *Policy {
	p := &Policy{tracer: NopTracer}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ChooseCountryIso2 returns the upper-case ISO2 of the country the user most
// likely means, or "" when no country is clearly intended. nonGeo holds the
// query's non-geographic keywords; a country whose name tokens all appear
// there is chosen by phrase match when scores alone are inconclusive.
func (p *Policy) ChooseCountryIso2(countries []model.GeoCandidate, nonGeo []string) string {
	return p.chooseCountry(countries, nonGeo, p.tracer)
}

func (p *Policy) chooseCountry(countries []model.GeoCandidate, nonGeo []string, tr Tracer) string {
	if len(countries) == 0 {
		tr.Trace("chooseCountry", "none")
		return ""
	}

	ordered := slices.Clone(countries)
	slices.SortStableFunc(ordered, func(a, b model.GeoCandidate) int {
		if c := compareScoreDesc(a.Score, b.Score); c != 0 {
			return c
		}
		return strings.Compare(tokenize.Normalize(a.Name), tokenize.Normalize(b.Name))
	})

	top := ordered[0]
	topIso2 := upperIso(top.CountryIso2)
	second := 0.0
	if len(ordered) > 1 {
		second = ordered[1].Score
	}
	tr.Trace("chooseCountry.top", fmt.Sprintf("%s score=%.3f second=%.3f n=%d", topIso2, top.Score, second, len(ordered)))

	if topIso2 != "" && (len(ordered) == 1 || top.Score-second >= clearLeaderGap || top.Score >= highConfidence) {
		tr.Trace("chooseCountry.leader", topIso2)
		return topIso2
	}

	keywords := make(map[string]struct{}, len(nonGeo))
	for _, kw := range nonGeo {
		if n := tokenize.Normalize(kw); strings.TrimSpace(n) != "" {
			keywords[n] = struct{}{}
		}
	}
	if len(keywords) == 0 {
		tr.Trace("chooseCountry", "none")
		return ""
	}

	for _, c := range ordered {
		iso2 := upperIso(c.CountryIso2)
		if iso2 == "" {
			continue
		}
		if nameCoveredBy(c.Name, keywords) {
			tr.Trace("chooseCountry.phrase", iso2)
			return iso2
		}
	}

	tr.Trace("chooseCountry", "none")
	return ""
}

// nameCoveredBy reports whether every token of name appears in keywords.
func nameCoveredBy(name string, keywords map[string]struct{}) bool {
	n := 0
	for _, tok := range tokenize.NormalizeAll(tokenize.Split(name)) {
		if strings.TrimSpace(tok) == "" {
			continue
		}
		if _, ok := keywords[tok]; !ok {
			return false
		}
		n++
	}
	return n > 0
}

// DecideKind classifies the scope from the surviving country and city
// matches. Country choice here ignores non-geo keywords.
func (p *Policy) DecideKind(countries, cities []model.GeoCandidate) model.ScopeKind {
	return p.decideKind(countries, cities, p.tracer)
}

func (p *Policy) decideKind(countries, cities []model.GeoCandidate, tr Tracer) model.ScopeKind {
	if len(countries) == 0 && len(cities) == 0 {
		return model.ScopeOther
	}

	chosen := p.chooseCountry(countries, nil, NopTracer)

	if len(cities) == 0 {
		switch {
		case chosen != "":
			return model.ScopeCountry
		case len(countries) >= 2:
			return model.ScopeComposite
		default:
			return model.ScopeCountry
		}
	}

	if chosen != "" {
		n := len(distinctIDs(filterByIso(cities, chosen)))
		tr.Trace("decideKind.inChosen", fmt.Sprintf("%s n=%d", chosen, n))
		switch {
		case n == 1:
			return model.ScopeCity
		case n >= 2:
			return model.ScopeCityInCountry
		default:
			return model.ScopeComposite
		}
	}

	switch nCountries := len(distinctIsos(cities)); {
	case nCountries >= 2:
		return model.ScopeComposite
	case nCountries == 1 && len(distinctIDs(cities)) > 1:
		return model.ScopeCityInCountry
	default:
		return model.ScopeCity
	}
}

// IsAmbiguous reports whether the user must still disambiguate before a
// search can run: several near-tied cities in one country, or strong cities
// in more than one country.
func (p *Policy) IsAmbiguous(countries, cities []model.GeoCandidate, nonGeo []string) bool {
	return p.isAmbiguous(countries, cities, nonGeo, p.tracer)
}

func (p *Policy) isAmbiguous(countries, cities []model.GeoCandidate, nonGeo []string, tr Tracer) bool {
	if len(cities) == 0 {
		return false
	}

	if len(countries) == 0 && sameCountryMultiCity(cities) {
		tr.Trace("ambiguous", "same-country-multi-city")
		return true
	}

	chosen := p.chooseCountry(countries, nonGeo, tr)
	if chosen != "" {
		inCountry := filterByIso(cities, chosen)
		switch {
		case len(inCountry) == 0:
			floor := math.Max(highConfidence, maxScore(cities)-inCountryEpsilon)
			for _, c := range cities {
				if !strings.EqualFold(c.CountryIso2, chosen) && c.Score >= floor {
					tr.Trace("ambiguous", "strong-city-outside-"+chosen)
					return true
				}
			}
			tr.Trace("ambiguous.drop", chosen)
		case len(inCountry) > 1:
			floor := math.Max(highConfidence, maxScore(inCountry)-inCountryEpsilon)
			tied := distinctIDs(filterByScore(inCountry, floor))
			if len(tied) > 1 {
				tr.Trace("ambiguous", fmt.Sprintf("tied-in-%s n=%d", chosen, len(tied)))
				return true
			}
			return false
		default:
			return false
		}
	}

	if sameCountryMultiCity(cities) {
		tr.Trace("ambiguous", "same-country-multi-city")
		return true
	}

	floor := math.Max(highConfidence, maxScore(cities)-crossCountryEpsilon)
	if n := len(distinctIsos(filterByScore(cities, floor))); n >= 2 {
		tr.Trace("ambiguous", fmt.Sprintf("strong-cities-in-%d-countries", n))
		return true
	}
	return false
}

// sameCountryMultiCity reports whether some country holds two or more
// distinct city ids.
func sameCountryMultiCity(cities []model.GeoCandidate) bool {
	byIso := make(map[string]map[string]struct{})
	for _, c := range cities {
		iso, id := upperIso(c.CountryIso2), strings.TrimSpace(c.ID)
		if iso == "" || id == "" {
			continue
		}
		if byIso[iso] == nil {
			byIso[iso] = make(map[string]struct{})
		}
		byIso[iso][id] = struct{}{}
		if len(byIso[iso]) > 1 {
			return true
		}
	}
	return false
}

func upperIso(iso string) string {
	return strings.ToUpper(strings.TrimSpace(iso))
}

func compareScoreDesc(a, b float64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	default:
		return 0
	}
}

func filterByIso(cands []model.GeoCandidate, iso2 string) []model.GeoCandidate {
	var out []model.GeoCandidate
	for _, c := range cands {
		if strings.EqualFold(strings.TrimSpace(c.CountryIso2), iso2) {
			out = append(out, c)
		}
	}
	return out
}

func filterByScore(cands []model.GeoCandidate, floor float64) []model.GeoCandidate {
	var out []model.GeoCandidate
	for _, c := range cands {
		if c.Score >= floor {
			out = append(out, c)
		}
	}
	return out
}

func maxScore(cands []model.GeoCandidate) float64 {
	best := 0.0
	for _, c := range cands {
		best = math.Max(best, c.Score)
	}
	return best
}

// distinctIDs returns the non-blank ids in first-seen order.
func distinctIDs(cands []model.GeoCandidate) []string {
	seen := make(map[string]struct{}, len(cands))
	var out []string
	for _, c := range cands {
		id := strings.TrimSpace(c.ID)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// countryGroups counts the distinct upper-case country codes, with a blank
// code forming its own group.
func countryGroups(cands []model.GeoCandidate) int {
	seen := make(map[string]struct{}, len(cands))
	for _, c := range cands {
		seen[upperIso(c.CountryIso2)] = struct{}{}
	}
	return len(seen)
}

// distinctIsos returns the non-blank upper-case country codes in first-seen
// order.
func distinctIsos(cands []model.GeoCandidate) []string {
	seen := make(map[string]struct{}, len(cands))
	var out []string
	for _, c := range cands {
		iso := upperIso(c.CountryIso2)
		if iso == "" {
			continue
		}
		if _, ok := seen[iso]; !ok {
			seen[iso] = struct{}{}
			out = append(out, iso)
		}
	}
	return out
}
