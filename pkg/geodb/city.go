package geodb

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/geoscope/internal/model"
	"github.com/sells-group/geoscope/internal/scope"
)

// CityClient searches geo_cities joined to their country.
type CityClient struct {
	pool Pool
}

const citySearchSQL = `
WITH q(term, pattern) AS (VALUES ($1::text, $2::text))
SELECT c.id::text,
       c.name,
       co.name,
       c.country_iso2,
       COALESCE(co.iso3, ''),
       (c.latitude IS NOT NULL AND c.longitude IS NOT NULL) AS has_coords,
       COALESCE(c.latitude, 0)::float8,
       COALESCE(c.longitude, 0)::float8,
       similarity(lower(immutable_unaccent(c.name)), q.term)::float8 AS score
FROM geo_cities c
JOIN geo_countries co ON co.iso2 = c.country_iso2, q
WHERE lower(immutable_unaccent(c.name)) LIKE '%' || q.pattern || '%'
ORDER BY CASE
           WHEN lower(immutable_unaccent(c.name)) = q.term THEN 0
           WHEN lower(immutable_unaccent(c.name)) LIKE q.pattern || '%' THEN 1
           ELSE 2
         END,
         score DESC,
         c.id
LIMIT $3`

const cityByIDSQL = `
SELECT c.id::text,
       c.name,
       co.name,
       c.country_iso2,
       COALESCE(co.iso3, ''),
       (c.latitude IS NOT NULL AND c.longitude IS NOT NULL) AS has_coords,
       COALESCE(c.latitude, 0)::float8,
       COALESCE(c.longitude, 0)::float8,
       1.0::float8 AS score
FROM geo_cities c
JOIN geo_countries co ON co.iso2 = c.country_iso2
WHERE c.id = $1`

// Search returns cities whose unaccented name contains term: exact matches
// first, then prefixes, then by trigram similarity.
func (c *CityClient) Search(ctx context.Context, term string, limit int) ([]model.GeoCandidate, error) {
	term = searchTerm(term)
	if term == "" {
		return []model.GeoCandidate{}, nil
	}

	rows, err := c.pool.Query(ctx, citySearchSQL, term, likePattern(term), scope.ClampLimit(limit))
	if err != nil {
		return nil, eris.Wrapf(err, "geodb: city search %q", term)
	}
	return scanAll(rows, "city", scanCity)
}

// GetByID returns the city with the given UUID, or nil. Malformed ids are
// treated as not found.
func (c *CityClient) GetByID(ctx context.Context, id string) (*model.GeoCandidate, error) {
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, nil
	}

	cand, err := scanCity(c.pool.QueryRow(ctx, cityByIDSQL, uid.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "geodb: get city %s", uid)
	}
	return &cand, nil
}

func scanCity(row rowScanner) (model.GeoCandidate, error) {
	var (
		out             model.GeoCandidate
		iso2, iso3      string
		has             bool
		lat, lng, score float64
	)
	if err := row.Scan(&out.ID, &out.Name, &out.CountryName, &iso2, &iso3, &has, &lat, &lng, &score); err != nil {
		return model.GeoCandidate{}, err
	}

	out.CountryIso2 = strings.ToUpper(strings.TrimSpace(iso2))
	out.CountryIso3 = strings.ToUpper(strings.TrimSpace(iso3))
	out.Lat, out.Lng = coords(has, lat, lng)
	out.Score = model.ClampScore(score)
	return out, nil
}
