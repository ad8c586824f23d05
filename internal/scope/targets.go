package scope

import (
	"strconv"
	"strings"

	"github.com/sells-group/geoscope/internal/model"
)

// selectTargets picks the concrete places to pin for a resolved scope.
// cities must already be in final display order.
func selectTargets(kind model.ScopeKind, ambiguous bool, chosenIso2 string, cities, countries []model.GeoCandidate, tr Tracer) []model.GeoCandidate {
	switch {
	case ambiguous && kind == model.ScopeComposite:
		if exact := uniqueByID(filterByScore(cities, exactFloor)); len(exact) > 0 {
			sortByScoreName(exact)
			tr.Trace("targets.composite", "exact n="+strconv.Itoa(len(exact)))
			return capTargets(exact)
		}
		if strong := uniqueByID(filterByScore(cities, CityThreshold)); len(strong) > 0 {
			sortByScoreName(strong)
			tr.Trace("targets.composite", "strong n="+strconv.Itoa(len(strong)))
			return capTargets(strong)
		}
		if len(countries) >= 2 {
			pins := make([]model.GeoCandidate, 0, len(countries))
			for _, c := range countries {
				if c.Score >= CountryThreshold && c.HasCoords() {
					pins = append(pins, c)
				}
			}
			tr.Trace("targets.composite", "countries n="+strconv.Itoa(len(pins)))
			return capTargets(pins)
		}

	case ambiguous && kind == model.ScopeCityInCountry && chosenIso2 != "":
		inCountry := uniqueByID(filterByIso(cities, chosenIso2))
		if exact := filterByScore(inCountry, exactFloor); len(exact) > 0 {
			sortByScoreName(exact)
			tr.Trace("targets.inCountry", chosenIso2+" exact n="+strconv.Itoa(len(exact)))
			return capTargets(exact)
		}
		sortByScoreName(inCountry)
		tr.Trace("targets.inCountry", chosenIso2+" n="+strconv.Itoa(len(inCountry)))
		return capTargets(inCountry)

	case !ambiguous:
		for _, c := range cities {
			if chosenIso2 != "" && strings.EqualFold(strings.TrimSpace(c.CountryIso2), chosenIso2) {
				tr.Trace("targets.single", c.ID)
				return []model.GeoCandidate{c}
			}
		}
		if len(cities) > 0 {
			tr.Trace("targets.single", cities[0].ID)
			return []model.GeoCandidate{cities[0]}
		}

	default:
		tr.Trace("targets.suppressed", kind.String())
	}

	return []model.GeoCandidate{}
}
