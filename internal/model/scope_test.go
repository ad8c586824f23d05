package model

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeKindString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind ScopeKind
		want string
	}{
		{ScopeNone, "None"},
		{ScopeCity, "City"},
		{ScopeCountry, "Country"},
		{ScopeCityInCountry, "CityInCountry"},
		{ScopeOther, "Other"},
		{ScopeComposite, "Composite"},
		{ScopeKind(42), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.kind.String())
		})
	}
}

func TestScopeKindTextRoundTrip(t *testing.T) {
	b, err := ScopeCityInCountry.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "CityInCountry", string(b))

	var k ScopeKind
	require.NoError(t, k.UnmarshalText([]byte("Composite")))
	assert.Equal(t, ScopeComposite, k)

	assert.Error(t, k.UnmarshalText([]byte("Planet")))

	_, err = ScopeKind(99).MarshalText()
	assert.Error(t, err)
}

func TestIsBlocking(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		kind      ScopeKind
		ambiguous bool
		blocking  bool
		canSearch bool
	}{
		{"city clear", ScopeCity, false, false, true},
		{"city ambiguous", ScopeCity, true, false, false},
		{"country clear", ScopeCountry, false, false, true},
		{"city in country always blocks", ScopeCityInCountry, false, true, false},
		{"city in country ambiguous", ScopeCityInCountry, true, true, false},
		{"composite clear", ScopeComposite, false, false, true},
		{"composite ambiguous", ScopeComposite, true, true, false},
		{"other", ScopeOther, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := &ScopePreview{Kind: tt.kind, IsAmbiguous: tt.ambiguous}
			assert.Equal(t, tt.blocking, p.IsBlocking())
			assert.Equal(t, tt.canSearch, p.CanSearch())
		})
	}
}

func TestEmptyPreviewJSON(t *testing.T) {
	p := NewEmptyPreview("   ")

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, "Other", got["kind"])
	assert.Equal(t, false, got["is_ambiguous"])
	assert.Equal(t, false, got["is_blocking"])
	assert.Equal(t, true, got["can_search"])
	assert.Equal(t, []any{}, got["tokens"])
	assert.Equal(t, []any{}, got["targets"])
	assert.Equal(t, map[string]any{}, got["cities_grouped_by_country"])
	assert.NotContains(t, got, "diagnostics")
}

func TestWithScoreClones(t *testing.T) {
	orig := GeoCandidate{ID: "CR", Name: "Costa Rica", CountryIso2: "CR", Lat: Coord(9.7), Lng: Coord(-83.7), Score: 0.55}

	boosted := orig.WithScore(1.0)

	assert.Equal(t, 1.0, boosted.Score)
	assert.Equal(t, 0.55, orig.Score)

	*boosted.Lat = 0
	assert.Equal(t, 9.7, *orig.Lat)
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 0.0, ClampScore(-0.2))
	assert.Equal(t, 1.0, ClampScore(1.3))
	assert.Equal(t, 0.42, ClampScore(0.42))
	assert.Equal(t, 0.0, ClampScore(math.NaN()))
}

func TestTokenWithType(t *testing.T) {
	tok := Token{Raw: "San", Normalized: "san", MatchedType: MatchNonGeo}
	promoted := tok.WithType(MatchCity)

	assert.Equal(t, MatchCity, promoted.MatchedType)
	assert.Equal(t, MatchNonGeo, tok.MatchedType)
	assert.Equal(t, "San", promoted.Raw)
}

func TestHasCoords(t *testing.T) {
	assert.True(t, GeoCandidate{Lat: Coord(1), Lng: Coord(2)}.HasCoords())
	assert.False(t, GeoCandidate{Lat: Coord(1)}.HasCoords())
	assert.False(t, GeoCandidate{}.HasCoords())
}
