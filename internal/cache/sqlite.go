// Package cache memoizes candidate search results in SQLite.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/geoscope/internal/model"
)

// Store is a SQLite-backed search result cache.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the cache database at path, configures WAL
// mode and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "cache: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "cache: exec %s", pragma)
		}
	}

	s := &Store{db: db, now: time.Now}
	if err := s.Migrate(ctx); err != nil {
		db.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS search_cache (
	kind       TEXT    NOT NULL,
	term       TEXT    NOT NULL,
	lim        INTEGER NOT NULL,
	results    TEXT    NOT NULL,
	cached_at  INTEGER NOT NULL,
	expires_at INTEGER NOT NULL,
	PRIMARY KEY (kind, term, lim)
);

CREATE INDEX IF NOT EXISTS idx_search_cache_expires_at ON search_cache(expires_at);
`

// Migrate creates the cache table if needed.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return eris.Wrap(err, "cache: migrate")
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns cached results for (kind, term, limit). ok is false on a miss or
// when the entry has expired.
func (s *Store) Get(ctx context.Context, kind, term string, limit int) (cands []model.GeoCandidate, ok bool, err error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT results FROM search_cache
		 WHERE kind = ? AND term = ? AND lim = ? AND expires_at > ?`,
		kind, term, limit, s.now().Unix(),
	)

	var data string
	if err := row.Scan(&data); errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, eris.Wrapf(err, "cache: get %s %q", kind, term)
	}

	if err := json.Unmarshal([]byte(data), &cands); err != nil {
		return nil, false, eris.Wrapf(err, "cache: unmarshal %s %q", kind, term)
	}
	if cands == nil {
		cands = []model.GeoCandidate{}
	}
	return cands, true, nil
}

// Put stores results for (kind, term, limit), replacing any previous entry.
func (s *Store) Put(ctx context.Context, kind, term string, limit int, cands []model.GeoCandidate, ttl time.Duration) error {
	data, err := json.Marshal(cands)
	if err != nil {
		return eris.Wrap(err, "cache: marshal results")
	}

	now := s.now()
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO search_cache (kind, term, lim, results, cached_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		kind, term, limit, string(data), now.Unix(), now.Add(ttl).Unix(),
	)
	if err != nil {
		return eris.Wrapf(err, "cache: put %s %q", kind, term)
	}
	return nil
}

// DeleteExpired removes expired entries and returns how many were deleted.
func (s *Store) DeleteExpired(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM search_cache WHERE expires_at <= ?`, s.now().Unix(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "cache: delete expired")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "cache: rows affected")
	}
	return int(n), nil
}
