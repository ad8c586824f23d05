package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Empty(t, cfg.Store.DatabaseURL)
	assert.Equal(t, int32(10), cfg.Store.MaxConns)
	assert.Equal(t, int32(1), cfg.Store.MinConns)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, "geoscope-cache.db", cfg.Cache.Path)
	assert.Equal(t, time.Hour, cfg.Cache.TTL())
	assert.Equal(t, 10*time.Second, cfg.Resolver.Timeout())
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.InDelta(t, 20.0, cfg.Server.RateLimit, 0.001)
	assert.Equal(t, 40, cfg.Server.RateBurst)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: fixture
  fixture_path: places.yaml
cache:
  enabled: true
  ttl_minutes: 5
log:
  level: debug
  format: console
server:
  port: 9090
  cors_origins:
    - https://news.example.com
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "fixture", cfg.Store.Driver)
	assert.Equal(t, "places.yaml", cfg.Store.FixturePath)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://news.example.com"}, cfg.Server.CORSOrigins)
	// Defaults still apply for unset values
	assert.Equal(t, 10, cfg.Resolver.TimeoutSecs)
	assert.Equal(t, "geoscope-cache.db", cfg.Cache.Path)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: fixture
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("GEOSCOPE_STORE_DRIVER", "postgres")
	t.Setenv("GEOSCOPE_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("GEOSCOPE_SERVER_PORT", "3000")
	t.Setenv("GEOSCOPE_STORE_DATABASE_URL", "postgres://localhost/geo")
	t.Setenv("GEOSCOPE_RESOLVER_TIMEOUT_SECS", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "postgres://localhost/geo", cfg.Store.DatabaseURL)
	assert.Equal(t, 3*time.Second, cfg.Resolver.Timeout())
}

func TestLoadMalformedFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [unclosed"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = DriverPostgres
	cfg.Store.DatabaseURL = "postgres://localhost/geo"
	cfg.Cache.Path = "geoscope-cache.db"
	cfg.Cache.TTLMinutes = 60
	cfg.Resolver.TimeoutSecs = 10
	cfg.Server.Port = 8080
	cfg.Server.RateLimit = 20
	cfg.Server.RateBurst = 40
	return cfg
}

func TestValidateResolve(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "postgres ok", mutate: func(*Config) {}},
		{name: "fixture needs no url", mutate: func(c *Config) {
			c.Store.Driver = DriverFixture
			c.Store.DatabaseURL = ""
		}},
		{name: "postgres without url", mutate: func(c *Config) { c.Store.DatabaseURL = "" }, wantErr: "store.database_url is required"},
		{name: "unknown driver", mutate: func(c *Config) { c.Store.Driver = "sqlite" }, wantErr: "store.driver must be"},
		{name: "zero timeout", mutate: func(c *Config) { c.Resolver.TimeoutSecs = 0 }, wantErr: "resolver.timeout_secs must be >= 1"},
		{name: "cache without path", mutate: func(c *Config) {
			c.Cache.Enabled = true
			c.Cache.Path = ""
		}, wantErr: "cache.path is required"},
		{name: "cache disabled ignores ttl", mutate: func(c *Config) { c.Cache.TTLMinutes = 0 }},
		{name: "cache enabled bad ttl", mutate: func(c *Config) {
			c.Cache.Enabled = true
			c.Cache.TTLMinutes = 0
		}, wantErr: "cache.ttl_minutes must be >= 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDefaults()
			tt.mutate(cfg)
			err := cfg.Validate("resolve")
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateServe_RateLimit(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.RateLimit = 0
	cfg.Server.RateBurst = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.rate_limit must be > 0")
	assert.Contains(t, err.Error(), "server.rate_burst must be >= 1")
}

func TestValidateMigrate(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("migrate"))

	cfg.Store.DatabaseURL = ""
	err := cfg.Validate("seed")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
