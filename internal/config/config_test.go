package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "https://data.go.th", cfg.Catalog.BaseURL)
	assert.Equal(t, 100, cfg.Catalog.SyncRows)
	assert.Equal(t, 400, cfg.Catalog.SyncMax)
	assert.Equal(t, "detailed", cfg.Scan.Profile)
	assert.Equal(t, 5*time.Second, cfg.Scan.ClassifierTimeout)
	assert.Equal(t, 50, cfg.Scan.HighRiskThreshold)
	assert.Equal(t, "pdpa.scan.completed", cfg.Kafka.ScanTopic)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/opendgai")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("CKAN_RATE_LIMIT", "0.5")
	t.Setenv("SCAN_CLASSIFIER_TIMEOUT", "750ms")
	t.Setenv("SCAN_HIGH_RISK_THRESHOLD", "70")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.HTTP.AllowedOrigins())
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 0.5, cfg.Catalog.RateLimit)
	assert.Equal(t, 750*time.Millisecond, cfg.Scan.ClassifierTimeout)
	assert.Equal(t, 70, cfg.Scan.HighRiskThreshold)
	assert.NoError(t, cfg.Validate())
}

func TestLoadInvalidValues(t *testing.T) {
	t.Setenv("SERVER_READ_TIMEOUT", "soon")
	t.Setenv("SCAN_MAX_RECORDS", "many")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SERVER_READ_TIMEOUT")
	assert.Contains(t, err.Error(), "SCAN_MAX_RECORDS")
}

func TestLoadInvalidPort(t *testing.T) {
	t.Setenv("SERVER_PORT", "70000")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base, err := Load()
	require.NoError(t, err)

	cases := map[string]func(*Config){
		"unknown driver":     func(c *Config) { c.Store.Driver = "mongo" },
		"postgres url":       func(c *Config) { c.Store.Driver = DriverPostgres },
		"neo4j uri":          func(c *Config) { c.Store.Driver = DriverNeo4j },
		"threshold":          func(c *Config) { c.Scan.HighRiskThreshold = 101 },
		"max records":        func(c *Config) { c.Scan.MaxRecords = 0 },
		"negative sync":      func(c *Config) { c.Catalog.SyncMax = -1 },
		"negative ratelimit": func(c *Config) { c.Catalog.RateLimit = -1 },
	}
	for name, mutate := range cases {
		cfg := base
		mutate(&cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}
