package scope

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/geoscope/internal/model"
	"github.com/sells-group/geoscope/internal/tokenize"
)

const (
	topCountriesN      = 3
	topCitiesInChosenN = 5
)

// Resolver turns query text into a ScopePreview using a country and a city
// CandidateSearcher. It holds no per-query state and is safe for concurrent
// use.
type Resolver struct {
	countries CandidateSearcher
	cities    CandidateSearcher
	policy    *Policy
	tracer    Tracer
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithPolicy replaces the default Policy.
func WithPolicy(p *Policy) Option {
	return func(r *Resolver) {
		if p != nil {
			r.policy = p
		}
	}
}

// WithTracer forwards every diagnostics trace line to t as it is recorded.
func WithTracer(t Tracer) Option {
	return func(r *Resolver) {
		if t != nil {
			r.tracer = t
		}
	}
}

// NewResolver creates a Resolver over the given searchers.
func NewResolver(countries, cities CandidateSearcher, opts ...Option) *Resolver {
	r := &Resolver{
		countries: countries,
		cities:    cities,
		policy:    NewPolicy(),
		tracer:    NopTracer,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Countries returns the country searcher.
func (r *Resolver) Countries() CandidateSearcher { return r.countries }

// Cities returns the city searcher.
func (r *Resolver) Cities() CandidateSearcher { return r.cities }

// searchResults holds raw backend output, indexed by token (or bigram start).
type searchResults struct {
	countries       [][]model.GeoCandidate
	cities          [][]model.GeoCandidate
	bigrams         []string
	bigramCountries [][]model.GeoCandidate
	bigramCities    [][]model.GeoCandidate
}

// scatter runs every token and bigram search concurrently and waits for all
// of them. The first failure cancels the rest and is returned.
func (r *Resolver) scatter(ctx context.Context, terms []string) (*searchResults, error) {
	nb := max(len(terms)-1, 0)
	res := &searchResults{
		countries:       make([][]model.GeoCandidate, len(terms)),
		cities:          make([][]model.GeoCandidate, len(terms)),
		bigrams:         make([]string, nb),
		bigramCountries: make([][]model.GeoCandidate, nb),
		bigramCities:    make([][]model.GeoCandidate, nb),
	}

	g, gctx := errgroup.WithContext(ctx)
	search := func(s CandidateSearcher, kind, term string, dst *[]model.GeoCandidate) {
		g.Go(func() error {
			got, err := s.Search(gctx, term, SearchLimit)
			if err != nil {
				return eris.Wrapf(err, "scope: %s search %q", kind, term)
			}
			*dst = got
			return nil
		})
	}

	for i, term := range terms {
		search(r.countries, "country", term, &res.countries[i])
		search(r.cities, "city", term, &res.cities[i])
	}
	for i := range nb {
		res.bigrams[i] = tokenize.Bigram(terms[i], terms[i+1])
		search(r.countries, "country", res.bigrams[i], &res.bigramCountries[i])
		search(r.cities, "city", res.bigrams[i], &res.bigramCities[i])
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "scope: preview canceled")
	}
	return res, nil
}

// Preview resolves query into a ScopePreview. Blank input yields an empty
// Other preview. Any search failure or cancellation fails the whole preview.
func (r *Resolver) Preview(ctx context.Context, query string) (*model.ScopePreview, error) {
	start := time.Now()

	raw := tokenize.Split(query)
	if len(raw) == 0 {
		return model.NewEmptyPreview(query), nil
	}
	terms := tokenize.NormalizeAll(raw)

	res, err := r.scatter(ctx, terms)
	if err != nil {
		return nil, err
	}

	tr := newLineTracer(r.tracer)

	// Single tokens.
	tokens := make([]model.Token, len(terms))
	var cHits []countryHit
	var ctHits []cityHit
	for i, term := range terms {
		hits := scoreCountries(res.countries[i], term, i, false)
		tokens[i] = classifyToken(raw[i], term, hits, res.cities[i])
		cHits = append(cHits, hits...)
		ctHits = append(ctHits, cityHits(res.cities[i], i, false)...)
	}
	promoteSanJose(tokens, tr)
	promoteIsoExact(tokens, tr)

	// Bigrams.
	for i, term := range res.bigrams {
		cHits = append(cHits, scoreCountries(res.bigramCountries[i], term, i, true)...)
		ctHits = append(ctHits, cityHits(res.bigramCities[i], i, true)...)
	}

	nonGeo := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t.MatchedType == model.MatchNonGeo {
			nonGeo = append(nonGeo, t.Normalized)
		}
	}

	ranked := rankCountries(cHits)
	countryMatches := make([]model.GeoCandidate, len(ranked))
	for i, h := range ranked {
		countryMatches[i] = h.cand
	}

	// isAmbiguous records the country decision in the trace.
	policyChoice := r.policy.chooseCountry(countryMatches, nonGeo, NopTracer)
	chosen := policyChoice
	if chosen == "" && len(ranked) > 0 {
		chosen = upperIso(ranked[0].cand.CountryIso2)
	}
	if chosen == "" {
		chosen = inferCountry(ctHits, tr)
	}

	cities := dedupeCities(ctHits)
	orderCities(cities, chosen)
	cityMatches := make([]model.GeoCandidate, len(cities))
	for i, h := range cities {
		cityMatches[i] = h.cand
	}

	if chosen != "" && len(filterByIso(cityMatches, chosen)) == 0 {
		tr.Trace("chosen.drop", chosen)
		chosen = ""
	}

	grouped := make(map[string][]model.GeoCandidate)
	for _, c := range cityMatches {
		iso := upperIso(c.CountryIso2)
		if iso == "" {
			continue
		}
		grouped[iso] = append(grouped[iso], c)
	}

	kind := r.policy.decideKind(countryMatches, cityMatches, tr)
	ambiguous := r.policy.isAmbiguous(countryMatches, cityMatches, nonGeo, tr)

	if !ambiguous && kind == model.ScopeCity &&
		countryGroups(cityMatches) == 1 && len(distinctIDs(cityMatches)) > 1 {
		tr.Trace("edge.cityInCountry", upperIso(cityMatches[0].CountryIso2))
		kind = model.ScopeCityInCountry
		ambiguous = true
	}

	targets := selectTargets(kind, ambiguous, chosen, cityMatches, countryMatches, tr)

	preview := &model.ScopePreview{
		Kind:                   kind,
		IsAmbiguous:            ambiguous,
		OriginalQuery:          query,
		Tokens:                 tokens,
		CountryMatches:         countryMatches,
		CityMatches:            cityMatches,
		CitiesGroupedByCountry: grouped,
		NonGeoKeywords:         nonGeo,
		Targets:                targets,
	}
	preview.Diagnostics = buildDiagnostics(policyChoice, countryMatches, cityMatches, targets, tr.lines)

	zap.L().Debug("scope: preview resolved",
		zap.String("query", query),
		zap.Stringer("kind", kind),
		zap.Bool("ambiguous", ambiguous),
		zap.String("chosen_iso2", chosen),
		zap.Int("countries", len(countryMatches)),
		zap.Int("cities", len(cityMatches)),
		zap.Int("targets", len(targets)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return preview, nil
}

// classifyToken decides a token's type from its boosted country hits and raw
// city candidates.
func classifyToken(raw, term string, countries []countryHit, cities []model.GeoCandidate) model.Token {
	mt := model.MatchNonGeo
	switch {
	case len(countries) > 0 && (countries[0].exact() || countries[0].cand.Score >= CountryThreshold):
		mt = model.MatchCountry
	case len(cities) > 0 && cities[0].Score >= CityThreshold:
		mt = model.MatchCity
	}

	boosted := make([]model.GeoCandidate, len(countries))
	for i, h := range countries {
		boosted[i] = h.cand
	}
	if cities == nil {
		cities = []model.GeoCandidate{}
	}

	return model.Token{
		Raw:         raw,
		Normalized:  term,
		MatchedType: mt,
		Countries:   boosted,
		Cities:      cities,
	}
}

// promoteSanJose forces "san" followed by "jose..." to city tokens whenever
// each has any city candidate, however weak.
func promoteSanJose(tokens []model.Token, tr Tracer) {
	for i := 0; i+1 < len(tokens); i++ {
		if tokens[i].Normalized != "san" || !strings.HasPrefix(tokens[i+1].Normalized, "jose") {
			continue
		}
		for _, j := range []int{i, i + 1} {
			if len(tokens[j].Cities) > 0 {
				tokens[j] = tokens[j].WithType(model.MatchCity)
				tr.Trace("promote.sanJose", tokens[j].Normalized)
			}
		}
	}
}

// promoteIsoExact forces tokens that are literally an ISO code of one of their
// country candidates to country tokens.
func promoteIsoExact(tokens []model.Token, tr Tracer) {
	for i, t := range tokens {
		if t.MatchedType != model.MatchCountry && isoExactFor(t.Countries, t.Normalized) {
			tokens[i] = t.WithType(model.MatchCountry)
			tr.Trace("promote.iso", t.Normalized)
		}
	}
}

// inferCountry returns the only country among raw city hits, if there is
// exactly one.
func inferCountry(hits []cityHit, tr Tracer) string {
	cands := make([]model.GeoCandidate, len(hits))
	for i, h := range hits {
		cands[i] = h.cand
	}
	if isos := distinctIsos(cands); len(isos) == 1 {
		tr.Trace("chosen.infer", isos[0])
		return isos[0]
	}
	return ""
}

func buildDiagnostics(chosen string, countries, cities, targets []model.GeoCandidate, trace []string) *model.Diagnostics {
	d := &model.Diagnostics{
		PolicyVersion: PolicyVersion,
		ChosenIso2:    chosen,
		TargetIDs:     make([]string, len(targets)),
		TopCountries:  []model.CandidateBrief{},
		Trace:         trace,
	}
	for i, t := range targets {
		d.TargetIDs[i] = t.ID
	}
	for _, c := range countries[:min(topCountriesN, len(countries))] {
		d.TopCountries = append(d.TopCountries, model.Brief(c))
	}
	if chosen != "" {
		inChosen := slices.Clone(filterByIso(cities, chosen))
		slices.SortStableFunc(inChosen, func(a, b model.GeoCandidate) int {
			return compareScoreDesc(a.Score, b.Score)
		})
		for _, c := range inChosen[:min(topCitiesInChosenN, len(inChosen))] {
			d.TopCitiesInChosen = append(d.TopCitiesInChosen, model.Brief(c))
		}
	}
	return d
}
