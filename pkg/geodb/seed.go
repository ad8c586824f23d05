package geodb

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geoscope/internal/fixture"
)

// upsertSpec describes one bulk upsert target.
type upsertSpec struct {
	Table        string
	Columns      []string
	ConflictKeys []string
}

var (
	countryUpsert = upsertSpec{
		Table:        "geo_countries",
		Columns:      []string{"iso2", "iso3", "name", "latitude", "longitude"},
		ConflictKeys: []string{"iso2"},
	}
	cityUpsert = upsertSpec{
		Table:        "geo_cities",
		Columns:      []string{"id", "name", "country_iso2", "latitude", "longitude"},
		ConflictKeys: []string{"id"},
	}
)

// SeedResult counts rows written by Seed.
type SeedResult struct {
	Countries int64
	Cities    int64
}

// Seed upserts a place dataset into geo_countries and geo_cities in one
// transaction. City ids must be UUIDs.
func Seed(ctx context.Context, pool Pool, d *fixture.Dataset) (*SeedResult, error) {
	countryRows := make([][]any, 0, len(d.Countries))
	for _, c := range d.Countries {
		var iso3 *string
		if c.Iso3 != "" {
			iso3 = &c.Iso3
		}
		countryRows = append(countryRows, []any{c.Iso2, iso3, c.Name, c.Lat, c.Lng})
	}

	cityRows := make([][]any, 0, len(d.Cities))
	for _, c := range d.Cities {
		id, err := uuid.Parse(c.ID)
		if err != nil {
			return nil, eris.Wrapf(err, "geodb: seed city %s (%s): id is not a uuid", c.ID, c.Name)
		}
		cityRows = append(cityRows, []any{id.String(), c.Name, c.CountryIso2, c.Lat, c.Lng})
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "geodb: seed: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	res := &SeedResult{}
	if res.Countries, err = bulkUpsert(ctx, tx, countryUpsert, countryRows); err != nil {
		return nil, err
	}
	if res.Cities, err = bulkUpsert(ctx, tx, cityUpsert, cityRows); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "geodb: seed: commit tx")
	}

	zap.L().Info("geodb: seeded places",
		zap.Int64("countries", res.Countries),
		zap.Int64("cities", res.Cities),
	)
	return res, nil
}

// bulkUpsert copies rows into a temp table shaped like the target and merges
// them with INSERT ... ON CONFLICT DO UPDATE.
func bulkUpsert(ctx context.Context, tx pgx.Tx, spec upsertSpec, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	conflict := make(map[string]bool, len(spec.ConflictKeys))
	for _, k := range spec.ConflictKeys {
		conflict[k] = true
	}
	var setClauses []string
	for _, col := range spec.Columns {
		if !conflict[col] {
			id := pgx.Identifier{col}.Sanitize()
			setClauses = append(setClauses, fmt.Sprintf("%s = EXCLUDED.%s", id, id))
		}
	}

	tempTable := "_tmp_upsert_" + spec.Table
	createSQL := fmt.Sprintf(
		"CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP",
		pgx.Identifier{tempTable}.Sanitize(),
		pgx.Identifier{spec.Table}.Sanitize(),
	)
	if _, err := tx.Exec(ctx, createSQL); err != nil {
		return 0, eris.Wrapf(err, "geodb: upsert: create temp table for %s", spec.Table)
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{tempTable}, spec.Columns, pgx.CopyFromRows(rows)); err != nil {
		return 0, eris.Wrapf(err, "geodb: upsert: COPY into temp table for %s", spec.Table)
	}

	cols := quoteAndJoin(spec.Columns)
	upsertSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT (%s) DO UPDATE SET %s",
		pgx.Identifier{spec.Table}.Sanitize(),
		cols,
		cols,
		pgx.Identifier{tempTable}.Sanitize(),
		quoteAndJoin(spec.ConflictKeys),
		strings.Join(setClauses, ", "),
	)
	tag, err := tx.Exec(ctx, upsertSQL)
	if err != nil {
		return 0, eris.Wrapf(err, "geodb: upsert: INSERT ON CONFLICT for %s", spec.Table)
	}
	return tag.RowsAffected(), nil
}

func quoteAndJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
