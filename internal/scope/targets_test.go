package scope

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/geoscope/internal/model"
)

func TestSelectTargets_CompositeExact(t *testing.T) {
	cities := []model.GeoCandidate{
		city("es-cba", "Córdoba", "ES", 1.0),
		city("ar-cba", "Córdoba", "AR", 0.9995),
		city("es-cba", "Córdoba", "ES", 1.0),
		city("mx-cba", "Cordobita", "MX", 0.8),
	}
	got := selectTargets(model.ScopeComposite, true, "", cities, nil, NopTracer)
	assert.Equal(t, []string{"es-cba", "ar-cba"}, ids(got))
}

func TestSelectTargets_CompositeStrong(t *testing.T) {
	cities := []model.GeoCandidate{
		city("b", "Bravo", "ES", 0.7),
		city("a", "Alpha", "AR", 0.9),
		city("c", "Charlie", "MX", 0.7),
	}
	got := selectTargets(model.ScopeComposite, true, "", cities, nil, NopTracer)
	assert.Equal(t, []string{"a", "b", "c"}, ids(got))
}

func TestSelectTargets_CompositeCountryCentroids(t *testing.T) {
	noCoords := model.GeoCandidate{ID: "XX", Name: "Nowhere", CountryIso2: "XX", Score: 0.9}
	countries := []model.GeoCandidate{
		country("CG", "COG", "Republic of the Congo", 0.8),
		noCoords,
		country("CD", "COD", "Democratic Republic of the Congo", 0.75),
		country("CF", "CAF", "Central African Republic", 0.4),
	}
	got := selectTargets(model.ScopeComposite, true, "", nil, countries, NopTracer)
	assert.Equal(t, []string{"CG", "CD"}, ids(got))

	got = selectTargets(model.ScopeComposite, true, "", nil, countries[:1], NopTracer)
	assert.Empty(t, got)
}

func TestSelectTargets_CompositeCapped(t *testing.T) {
	var cities []model.GeoCandidate
	for i := range 20 {
		cities = append(cities, city(fmt.Sprintf("c%02d", i), fmt.Sprintf("City %02d", i), fmt.Sprintf("C%d", i), 1.0))
	}
	got := selectTargets(model.ScopeComposite, true, "", cities, nil, NopTracer)
	assert.Len(t, got, MaxCompositeTargets)
	assert.Equal(t, "c00", got[0].ID)
}

func TestSelectTargets_CityInCountry(t *testing.T) {
	cities := []model.GeoCandidate{
		city("us-1", "Springfield", "US", 1.0),
		city("ca-1", "Springfield", "CA", 1.0),
		city("us-2", "Springfield", "us", 1.0),
		city("us-3", "Springfeld", "US", 0.8),
	}
	got := selectTargets(model.ScopeCityInCountry, true, "US", cities, nil, NopTracer)
	assert.Equal(t, []string{"us-1", "us-2"}, ids(got))

	weak := []model.GeoCandidate{
		city("us-2", "Springfeld", "US", 0.7),
		city("us-1", "Springfield", "US", 0.8),
	}
	got = selectTargets(model.ScopeCityInCountry, true, "US", weak, nil, NopTracer)
	assert.Equal(t, []string{"us-1", "us-2"}, ids(got))

	got = selectTargets(model.ScopeCityInCountry, true, "", cities, nil, NopTracer)
	assert.Empty(t, got)
}

func TestSelectTargets_Unambiguous(t *testing.T) {
	cities := []model.GeoCandidate{
		city("us-paris", "Paris", "US", 1.0),
		city("fr-paris", "Paris", "FR", 0.9),
	}

	got := selectTargets(model.ScopeCity, false, "FR", cities, nil, NopTracer)
	assert.Equal(t, []string{"fr-paris"}, ids(got))

	got = selectTargets(model.ScopeCity, false, "", cities, nil, NopTracer)
	assert.Equal(t, []string{"us-paris"}, ids(got))

	got = selectTargets(model.ScopeCountry, false, "FR", nil, nil, NopTracer)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSelectTargets_SuppressedWhenAmbiguous(t *testing.T) {
	var lines []string
	tr := TraceFunc(func(key, value string) { lines = append(lines, key+":"+value) })

	cities := []model.GeoCandidate{city("fr-paris", "Paris", "FR", 1.0)}
	got := selectTargets(model.ScopeCity, true, "FR", cities, nil, tr)

	assert.Empty(t, got)
	assert.Equal(t, []string{"targets.suppressed:City"}, lines)
}
