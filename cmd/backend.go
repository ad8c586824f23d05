package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geoscope/internal/cache"
	"github.com/sells-group/geoscope/internal/config"
	"github.com/sells-group/geoscope/internal/fixture"
	"github.com/sells-group/geoscope/internal/scope"
	"github.com/sells-group/geoscope/pkg/geodb"
)

// backend bundles the resolver with the resources it holds open.
type backend struct {
	resolver *scope.Resolver
	db       *geodb.Client
	cache    *cache.Store
}

// Close releases the database pool and cache.
func (b *backend) Close() {
	if b.cache != nil {
		if err := b.cache.Close(); err != nil {
			zap.L().Warn("close search cache", zap.Error(err))
		}
	}
	if b.db != nil {
		b.db.Close()
	}
}

// initBackend builds the searchers selected by cfg, wraps them in the search
// cache when enabled and returns a resolver over them.
func initBackend(ctx context.Context, c *config.Config) (*backend, error) {
	b := &backend{}

	var countries, cities scope.CandidateSearcher
	switch c.Store.Driver {
	case config.DriverPostgres:
		db, err := geodb.New(ctx, geodb.Config{
			URL:      c.Store.DatabaseURL,
			MaxConns: c.Store.MaxConns,
			MinConns: c.Store.MinConns,
		})
		if err != nil {
			return nil, err
		}
		b.db = db
		countries, cities = db.Countries(), db.Cities()

	case config.DriverFixture:
		d, err := loadDataset(c.Store.FixturePath)
		if err != nil {
			return nil, err
		}
		countries, cities = fixture.NewCountrySearcher(d), fixture.NewCitySearcher(d)
		zap.L().Debug("using fixture backend",
			zap.Int("countries", len(d.Countries)),
			zap.Int("cities", len(d.Cities)),
		)

	default:
		return nil, eris.Errorf("unsupported store driver: %s", c.Store.Driver)
	}

	if c.Cache.Enabled {
		st, err := cache.Open(ctx, c.Cache.Path)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.cache = st
		countries = cache.NewSearcher(countries, st, cache.KindCountry, c.Cache.TTL())
		cities = cache.NewSearcher(cities, st, cache.KindCity, c.Cache.TTL())
	}

	b.resolver = scope.NewResolver(countries, cities, scope.WithTracer(scope.NewZapTracer(zap.L())))
	return b, nil
}

// loadDataset reads the YAML dataset at path, or the embedded sample when
// path is empty.
func loadDataset(path string) (*fixture.Dataset, error) {
	if path == "" {
		return fixture.Default()
	}
	return fixture.Load(path)
}

// withResolverTimeout applies the configured per-preview deadline.
func withResolverTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if cfg.Resolver.TimeoutSecs > 0 {
		return context.WithTimeout(ctx, cfg.Resolver.Timeout())
	}
	return context.WithCancel(ctx)
}
