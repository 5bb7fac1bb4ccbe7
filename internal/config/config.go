package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP    HTTPConfig
	Store   StoreConfig
	Graph   GraphConfig
	Catalog CatalogConfig
	Redis   RedisConfig
	Kafka   KafkaConfig
	Scan    ScanConfig
	Logging LoggingConfig
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host              string
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MetricsEnabled    bool
	AllowedOriginsCSV string
}

// AllowedOrigins splits AllowedOriginsCSV, dropping blanks.
func (c HTTPConfig) AllowedOrigins() []string {
	return splitCSV(c.AllowedOriginsCSV)
}

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverNeo4j    = "neo4j"
)

// StoreConfig selects and configures the dataset store.
type StoreConfig struct {
	Driver       string
	DatabaseURL  string
	MaxOpenConns int
}

// GraphConfig describes connectivity to the Neo4j graph database.
type GraphConfig struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
}

// CatalogConfig configures the CKAN client and the one-shot sync.
type CatalogConfig struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // requests per second; 0 disables pacing
	RateBurst int
	CacheTTL  time.Duration
	SyncRows  int
	SyncMax   int
}

// RedisConfig enables the catalogue response cache when URL is set.
type RedisConfig struct {
	URL string
}

// KafkaConfig enables scan event publishing when Brokers is non-empty.
type KafkaConfig struct {
	Brokers   []string
	ScanTopic string
}

// ScanConfig controls the PDPA scan pipeline.
type ScanConfig struct {
	Profile           string
	ProfilesFile      string
	ClassifierTimeout time.Duration
	HighRiskThreshold int
	MaxRecords        int
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string
	Format        string // text|json
	IncludeCaller bool
}

const (
	defaultHost              = "0.0.0.0"
	defaultPort              = 8080
	defaultReadTimeout       = 10 * time.Second
	defaultWriteTimeout      = 15 * time.Second
	defaultIdleTimeout       = 60 * time.Second
	defaultShutdownTimeout   = 10 * time.Second
	defaultLoggingLevel      = "info"
	defaultLoggingFormat     = "text"
	defaultGraphMaxSessions  = 10
	defaultMaxOpenConns      = 10
	defaultCatalogURL        = "https://data.go.th"
	defaultCatalogTimeout    = 15 * time.Second
	defaultCatalogRateLimit  = 2.0
	defaultCatalogRateBurst  = 4
	defaultCatalogCacheTTL   = 5 * time.Minute
	defaultSyncRows          = 100
	defaultSyncMax           = 400
	defaultScanTopic         = "pdpa.scan.completed"
	defaultScanProfile       = "detailed"
	defaultClassifierTimeout = 5 * time.Second
	defaultHighRiskThreshold = 50
	defaultMaxRecords        = 10000
)

// Load reads configuration from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		HTTP: HTTPConfig{
			Host:              valueOrDefault("SERVER_HOST", defaultHost),
			MetricsEnabled:    parseBoolWithDefault("SERVER_METRICS_ENABLED", false),
			AllowedOriginsCSV: os.Getenv("SERVER_ALLOWED_ORIGINS"),
		},
		Store: StoreConfig{
			Driver:      strings.ToLower(valueOrDefault("STORE_DRIVER", DriverMemory)),
			DatabaseURL: os.Getenv("DATABASE_URL"),
		},
		Graph: GraphConfig{
			URI:      os.Getenv("GRAPH_URI"),
			Database: valueOrDefault("GRAPH_DATABASE", ""),
			Username: os.Getenv("GRAPH_USERNAME"),
			Password: os.Getenv("GRAPH_PASSWORD"),
		},
		Catalog: CatalogConfig{
			BaseURL: valueOrDefault("CKAN_BASE_URL", defaultCatalogURL),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Kafka: KafkaConfig{
			Brokers:   splitCSV(os.Getenv("KAFKA_BROKERS")),
			ScanTopic: valueOrDefault("KAFKA_SCAN_TOPIC", defaultScanTopic),
		},
		Scan: ScanConfig{
			Profile:      valueOrDefault("SCAN_PROFILE", defaultScanProfile),
			ProfilesFile: os.Getenv("SCAN_PROFILES_FILE"),
		},
		Logging: LoggingConfig{
			Level:         valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format:        valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
			IncludeCaller: parseBoolWithDefault("LOG_INCLUDE_CALLER", false),
		},
	}

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	port, err := parsePort("SERVER_PORT", defaultPort)
	collect(err)
	cfg.HTTP.Port = port

	cfg.HTTP.ReadTimeout, err = parseDuration("SERVER_READ_TIMEOUT", defaultReadTimeout)
	collect(err)
	cfg.HTTP.WriteTimeout, err = parseDuration("SERVER_WRITE_TIMEOUT", defaultWriteTimeout)
	collect(err)
	cfg.HTTP.IdleTimeout, err = parseDuration("SERVER_IDLE_TIMEOUT", defaultIdleTimeout)
	collect(err)
	cfg.HTTP.ShutdownTimeout, err = parseDuration("SERVER_SHUTDOWN_TIMEOUT", defaultShutdownTimeout)
	collect(err)

	cfg.Store.MaxOpenConns, err = parseInt("DATABASE_MAX_OPEN_CONNS", defaultMaxOpenConns)
	collect(err)
	cfg.Graph.MaxConnections, err = parseInt("GRAPH_MAX_CONNECTIONS", defaultGraphMaxSessions)
	collect(err)

	cfg.Catalog.Timeout, err = parseDuration("CKAN_TIMEOUT", defaultCatalogTimeout)
	collect(err)
	cfg.Catalog.RateLimit, err = parseFloat("CKAN_RATE_LIMIT", defaultCatalogRateLimit)
	collect(err)
	cfg.Catalog.RateBurst, err = parseInt("CKAN_RATE_BURST", defaultCatalogRateBurst)
	collect(err)
	cfg.Catalog.CacheTTL, err = parseDuration("CKAN_CACHE_TTL", defaultCatalogCacheTTL)
	collect(err)
	cfg.Catalog.SyncRows, err = parseInt("CKAN_SYNC_ROWS", defaultSyncRows)
	collect(err)
	cfg.Catalog.SyncMax, err = parseInt("CKAN_SYNC_MAX", defaultSyncMax)
	collect(err)

	cfg.Scan.ClassifierTimeout, err = parseDuration("SCAN_CLASSIFIER_TIMEOUT", defaultClassifierTimeout)
	collect(err)
	cfg.Scan.HighRiskThreshold, err = parseInt("SCAN_HIGH_RISK_THRESHOLD", defaultHighRiskThreshold)
	collect(err)
	cfg.Scan.MaxRecords, err = parseInt("SCAN_MAX_RECORDS", defaultMaxRecords)
	collect(err)

	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

// Validate checks cross-field constraints Load cannot express per variable.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	case DriverNeo4j:
		if c.Graph.URI == "" {
			return errors.New("GRAPH_URI is required for the neo4j store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}
	if c.Scan.HighRiskThreshold < 0 || c.Scan.HighRiskThreshold > 100 {
		return fmt.Errorf("SCAN_HIGH_RISK_THRESHOLD %d must be within 0..100", c.Scan.HighRiskThreshold)
	}
	if c.Scan.MaxRecords <= 0 {
		return errors.New("SCAN_MAX_RECORDS must be positive")
	}
	if c.Catalog.SyncMax < 0 || c.Catalog.SyncRows < 0 {
		return errors.New("CKAN_SYNC_ROWS and CKAN_SYNC_MAX must not be negative")
	}
	if c.Catalog.RateLimit < 0 {
		return errors.New("CKAN_RATE_LIMIT must not be negative")
	}
	return nil
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parseInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	val, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fallback, fmt.Errorf("invalid %s value %q: %w", key, v, err)
	}
	return val, nil
}

func parseFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	val, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return fallback, fmt.Errorf("invalid %s value %q: %w", key, v, err)
	}
	return val, nil
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return fallback, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}
		return port, nil
	}
	return fallback, nil
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
