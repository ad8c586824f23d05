package geodb

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/geoscope/internal/model"
	"github.com/sells-group/geoscope/internal/scope"
)

// CountryClient searches geo_countries.
type CountryClient struct {
	pool Pool
}

const countrySearchSQL = `
WITH q(term, pattern) AS (VALUES ($1::text, $2::text))
SELECT co.iso2,
       COALESCE(co.iso3, ''),
       co.name,
       (co.latitude IS NOT NULL AND co.longitude IS NOT NULL) AS has_coords,
       COALESCE(co.latitude, 0)::float8,
       COALESCE(co.longitude, 0)::float8,
       similarity(lower(immutable_unaccent(co.name)), q.term)::float8 AS score
FROM geo_countries co, q
WHERE lower(immutable_unaccent(co.name)) LIKE '%' || q.pattern || '%'
   OR lower(co.iso2) = q.term
   OR lower(co.iso3) = q.term
ORDER BY CASE
           WHEN lower(immutable_unaccent(co.name)) = q.term
             OR lower(co.iso2) = q.term
             OR lower(co.iso3) = q.term THEN 0
           WHEN lower(immutable_unaccent(co.name)) LIKE q.pattern || '%' THEN 1
           ELSE 2
         END,
         score DESC,
         co.iso2
LIMIT $3`

const countryByIDSQL = `
SELECT co.iso2,
       COALESCE(co.iso3, ''),
       co.name,
       (co.latitude IS NOT NULL AND co.longitude IS NOT NULL) AS has_coords,
       COALESCE(co.latitude, 0)::float8,
       COALESCE(co.longitude, 0)::float8,
       1.0::float8 AS score
FROM geo_countries co
WHERE co.iso2 = $1`

// Search returns countries whose unaccented name contains term or whose ISO2
// or ISO3 code equals it: exact matches first, then prefixes, then by score.
func (c *CountryClient) Search(ctx context.Context, term string, limit int) ([]model.GeoCandidate, error) {
	term = searchTerm(term)
	if term == "" {
		return []model.GeoCandidate{}, nil
	}

	rows, err := c.pool.Query(ctx, countrySearchSQL, term, likePattern(term), scope.ClampLimit(limit))
	if err != nil {
		return nil, eris.Wrapf(err, "geodb: country search %q", term)
	}
	return scanAll(rows, "country", scanCountry)
}

// GetByID returns the country with the given ISO2 code, or nil.
func (c *CountryClient) GetByID(ctx context.Context, id string) (*model.GeoCandidate, error) {
	iso2 := strings.ToUpper(strings.TrimSpace(id))
	if len(iso2) != 2 {
		return nil, nil
	}

	cand, err := scanCountry(c.pool.QueryRow(ctx, countryByIDSQL, iso2))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "geodb: get country %s", iso2)
	}
	return &cand, nil
}

func scanCountry(row rowScanner) (model.GeoCandidate, error) {
	var (
		iso2, iso3, name string
		has              bool
		lat, lng, score  float64
	)
	if err := row.Scan(&iso2, &iso3, &name, &has, &lat, &lng, &score); err != nil {
		return model.GeoCandidate{}, err
	}

	iso2 = strings.ToUpper(strings.TrimSpace(iso2))
	out := model.GeoCandidate{
		ID:          iso2,
		Name:        name,
		CountryIso2: iso2,
		CountryIso3: strings.ToUpper(strings.TrimSpace(iso3)),
		Score:       model.ClampScore(score),
	}
	out.Lat, out.Lng = coords(has, lat, lng)
	return out, nil
}
