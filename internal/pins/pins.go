// Package pins renders scope preview targets as GeoJSON map pins.
package pins

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/geoscope/internal/model"
)

// FromTargets builds a FeatureCollection with one Point per target that has
// coordinates. Targets without coordinates are skipped. The collection bbox
// covers all emitted points and is omitted when there are none.
func FromTargets(targets []model.GeoCandidate) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(targets))}
	bounds := geom.NewBounds(geom.XY)

	for _, t := range targets {
		if !t.HasCoords() {
			zap.L().Debug("pins: skipping target without coordinates",
				zap.String("id", t.ID), zap.String("name", t.Name))
			continue
		}

		pt := geom.NewPointFlat(geom.XY, []float64{*t.Lng, *t.Lat})
		bounds.Extend(pt)

		props := map[string]any{
			"name":  t.Name,
			"score": t.Score,
		}
		if t.CountryIso2 != "" {
			props["iso2"] = t.CountryIso2
		}
		if t.CountryName != "" {
			props["country_name"] = t.CountryName
		}

		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         t.ID,
			Geometry:   pt,
			Properties: props,
		})
	}

	if len(fc.Features) > 0 {
		fc.BBox = bounds
	}
	return fc
}

// FromPreview renders the preview's targets, tagging each feature with the
// scope kind.
func FromPreview(p *model.ScopePreview) *geojson.FeatureCollection {
	if p == nil {
		return FromTargets(nil)
	}
	fc := FromTargets(p.Targets)
	for _, f := range fc.Features {
		f.Properties["kind"] = p.Kind.String()
	}
	return fc
}

// Marshal encodes the preview's pins as GeoJSON.
func Marshal(p *model.ScopePreview) ([]byte, error) {
	data, err := json.Marshal(FromPreview(p))
	if err != nil {
		return nil, eris.Wrap(err, "pins: marshal feature collection")
	}
	return data, nil
}
