package scope

import (
	"slices"
	"strings"

	"github.com/sells-group/geoscope/internal/model"
	"github.com/sells-group/geoscope/internal/tokenize"
)

// countryHit is a country candidate plus the provenance used for ranking.
type countryHit struct {
	cand       model.GeoCandidate
	start      int
	fromBigram bool
	isoExact   bool
	nameExact  bool
	namePrefix bool
}

func (h countryHit) exact() bool { return h.isoExact || h.nameExact }

// key groups hits for deduplication: ISO2, falling back to id.
func (h countryHit) key() string {
	if iso := upperIso(h.cand.CountryIso2); iso != "" {
		return iso
	}
	return strings.TrimSpace(h.cand.ID)
}

type cityHit struct {
	cand       model.GeoCandidate
	start      int
	fromBigram bool
}

// scoreCountries applies exactness boosting to one search result. Exact
// ISO2/ISO3/name matches are cloned with score 1.0; the rest are kept only at
// or above CountryThreshold. Backend order is preserved.
func scoreCountries(raw []model.GeoCandidate, term string, start int, fromBigram bool) []countryHit {
	hits := make([]countryHit, 0, len(raw))
	for _, c := range raw {
		h := countryHit{cand: c, start: start, fromBigram: fromBigram}
		h.isoExact, h.nameExact, h.namePrefix = countryExactness(c, term)
		if h.exact() {
			h.cand = c.WithScore(1.0)
		} else if c.Score < CountryThreshold {
			continue
		}
		hits = append(hits, h)
	}
	return hits
}

func countryExactness(c model.GeoCandidate, term string) (isoExact, nameExact, namePrefix bool) {
	if term == "" {
		return false, false, false
	}
	iso2 := c.CountryIso2
	if strings.TrimSpace(iso2) == "" {
		iso2 = c.ID
	}
	name := tokenize.Normalize(c.Name)
	isoExact = tokenize.Normalize(iso2) == term || tokenize.Normalize(c.CountryIso3) == term
	nameExact = name == term
	namePrefix = strings.HasPrefix(name, term)
	return isoExact, nameExact, namePrefix
}

// isoExactFor reports whether any candidate's own ISO2 or ISO3 code
// normalizes to term.
func isoExactFor(cands []model.GeoCandidate, term string) bool {
	if term == "" {
		return false
	}
	for _, c := range cands {
		if tokenize.Normalize(c.CountryIso2) == term || tokenize.Normalize(c.CountryIso3) == term {
			return true
		}
	}
	return false
}

func cityHits(raw []model.GeoCandidate, start int, fromBigram bool) []cityHit {
	var hits []cityHit
	for _, c := range raw {
		if c.Score >= CityThreshold {
			hits = append(hits, cityHit{cand: c, start: start, fromBigram: fromBigram})
		}
	}
	return hits
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return -1
	default:
		return 1
	}
}

// compareCountryHits orders ISO-exact, then name-exact, then name-prefix
// hits first, then by score and ISO2.
func compareCountryHits(a, b countryHit) int {
	if c := compareBool(a.isoExact, b.isoExact); c != 0 {
		return c
	}
	if c := compareBool(a.nameExact, b.nameExact); c != 0 {
		return c
	}
	if c := compareBool(a.namePrefix, b.namePrefix); c != 0 {
		return c
	}
	if c := compareScoreDesc(a.cand.Score, b.cand.Score); c != 0 {
		return c
	}
	return strings.Compare(a.cand.CountryIso2, b.cand.CountryIso2)
}

// rankCountries keeps the best hit per country and returns the survivors in
// ranked order.
func rankCountries(hits []countryHit) []countryHit {
	sorted := slices.Clone(hits)
	slices.SortStableFunc(sorted, compareCountryHits)

	seen := make(map[string]struct{}, len(sorted))
	out := make([]countryHit, 0, len(sorted))
	for _, h := range sorted {
		k := h.key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, h)
	}
	return out
}

// dedupeCities keeps the best hit per city id, preferring bigram hits and
// then higher scores.
func dedupeCities(hits []cityHit) []cityHit {
	sorted := slices.Clone(hits)
	slices.SortStableFunc(sorted, func(a, b cityHit) int {
		if c := compareBool(a.fromBigram, b.fromBigram); c != 0 {
			return c
		}
		return compareScoreDesc(a.cand.Score, b.cand.Score)
	})

	seen := make(map[string]struct{}, len(sorted))
	out := make([]cityHit, 0, len(sorted))
	for _, h := range sorted {
		if _, ok := seen[h.cand.ID]; ok {
			continue
		}
		seen[h.cand.ID] = struct{}{}
		out = append(out, h)
	}
	return out
}

// orderCities sorts deduplicated hits for display and target selection:
// cities in the chosen country first, then bigram hits, score, name and id.
func orderCities(hits []cityHit, chosenIso2 string) {
	inChosen := func(h cityHit) bool {
		return chosenIso2 != "" && strings.EqualFold(strings.TrimSpace(h.cand.CountryIso2), chosenIso2)
	}
	slices.SortStableFunc(hits, func(a, b cityHit) int {
		if c := compareBool(inChosen(a), inChosen(b)); c != 0 {
			return c
		}
		if c := compareBool(a.fromBigram, b.fromBigram); c != 0 {
			return c
		}
		if c := compareScoreDesc(a.cand.Score, b.cand.Score); c != 0 {
			return c
		}
		if c := strings.Compare(a.cand.Name, b.cand.Name); c != 0 {
			return c
		}
		return strings.Compare(a.cand.ID, b.cand.ID)
	})
}

// sortByScoreName orders candidates by score desc then name, in place.
func sortByScoreName(cands []model.GeoCandidate) {
	slices.SortStableFunc(cands, func(a, b model.GeoCandidate) int {
		if c := compareScoreDesc(a.Score, b.Score); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
}

// uniqueByID drops later candidates sharing an id with an earlier one.
func uniqueByID(cands []model.GeoCandidate) []model.GeoCandidate {
	seen := make(map[string]struct{}, len(cands))
	out := make([]model.GeoCandidate, 0, len(cands))
	for _, c := range cands {
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out
}

func capTargets(cands []model.GeoCandidate) []model.GeoCandidate {
	if len(cands) > MaxCompositeTargets {
		return cands[:MaxCompositeTargets]
	}
	return cands
}
