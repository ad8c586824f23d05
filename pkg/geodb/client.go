// Package geodb implements country and city candidate search over Postgres
// using pg_trgm similarity on unaccented, lower-cased names.
package geodb

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/geoscope/internal/model"
	"github.com/sells-group/geoscope/internal/scope"
	"github.com/sells-group/geoscope/internal/tokenize"
)

// Config configures the Postgres connection.
type Config struct {
	URL      string `mapstructure:"database_url"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// Pool is the subset of pgxpool.Pool used by this package.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// Client owns (or borrows) a pool and hands out the two searchers.
type Client struct {
	pool      Pool
	countries *CountryClient
	cities    *CityClient
}

// New connects to Postgres and verifies the connection.
func New(ctx context.Context, cfg Config) (*Client, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, eris.Wrap(err, "geodb: parse database url")
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pcfg.MinConns = cfg.MinConns
	}

	p, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, eris.Wrap(err, "geodb: connect")
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, eris.Wrap(err, "geodb: ping")
	}
	return newClient(p), nil
}

// NewFromPool wraps an existing pool. The client does not own it; Close is a
// no-op.
func NewFromPool(p Pool) *Client {
	return newClient(&sharedPool{Pool: p})
}

func newClient(p Pool) *Client {
	return &Client{
		pool:      p,
		countries: &CountryClient{pool: p},
		cities:    &CityClient{pool: p},
	}
}

// sharedPool wraps a pool with a no-op Close.
type sharedPool struct {
	Pool
}

func (s *sharedPool) Close() {}

// Countries returns the country searcher.
func (c *Client) Countries() *CountryClient { return c.countries }

// Cities returns the city searcher.
func (c *Client) Cities() *CityClient { return c.cities }

// Pool exposes the underlying pool for migrations and seeding.
func (c *Client) Pool() Pool { return c.pool }

// Ping checks connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.pool.Ping(ctx); err != nil {
		return eris.Wrap(err, "geodb: ping")
	}
	return nil
}

// Close releases the pool if the client owns it.
func (c *Client) Close() { c.pool.Close() }

var (
	_ scope.CandidateSearcher = (*CountryClient)(nil)
	_ scope.CandidateSearcher = (*CityClient)(nil)
)

// searchTerm normalizes a term the same way the resolver does. It returns ""
// for blank input.
func searchTerm(term string) string {
	return tokenize.Normalize(strings.TrimSpace(term))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern escapes LIKE wildcards in a term.
func likePattern(term string) string {
	return likeEscaper.Replace(term)
}

// rowScanner is satisfied by pgx.Rows and pgx.Row.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanAll drains rows through scan, wrapping failures with what.
func scanAll(rows pgx.Rows, what string, scan func(rowScanner) (model.GeoCandidate, error)) ([]model.GeoCandidate, error) {
	defer rows.Close()

	out := []model.GeoCandidate{}
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, eris.Wrapf(err, "geodb: scan %s row", what)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "geodb: %s rows iteration", what)
	}
	return out, nil
}

func coords(has bool, lat, lng float64) (*float64, *float64) {
	if !has {
		return nil, nil
	}
	return model.Coord(lat), model.Coord(lng)
}
