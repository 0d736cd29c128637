package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// ErrMissingDatabaseURL is returned when no database DSN can be found.
var ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")

// Run modes. Minimal caps per-source record counts for fast non-production
// runs; skip performs no online fetch at all.
const (
	ModeFull    = "full"
	ModeMinimal = "minimal"
	ModeSkip    = "skip"
)

// Config holds application configuration: the persistence DSN, optional
// Redis, transport identity, and the aggregation run toggles.
type Config struct {
	DatabaseURL  string
	RedisURL     string
	UserAgent    string
	Timeout      time.Duration // bulk download timeout
	ProbeTimeout time.Duration

	Mode           string // full | minimal | skip
	SkipValidation bool
	SkipEnrichment bool
	ReportUsage    bool // best-effort click reporting back to directories
	MinimalLimit   int  // per-source record cap in minimal mode
	BatchSize      int  // persistence batch size
	Concurrency    int  // probe/enrich fan-out
}

// Load builds config from environment variables. If DATABASE_URL is not set,
// Load tries .env.local and .env from the current directory first.
func Load() (*Config, error) {
	if os.Getenv("DATABASE_URL") == "" {
		loadEnvFiles()
	}
	c := defaults()
	c.DatabaseURL = os.Getenv("DATABASE_URL")
	c.RedisURL = os.Getenv("REDIS_URL")
	if v := os.Getenv("FETCHER_USER_AGENT"); v != "" {
		c.UserAgent = v
	}
	if s := os.Getenv("FETCHER_TIMEOUT"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			c.Timeout = d
		}
	}
	if s := os.Getenv("PROBE_TIMEOUT"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			c.ProbeTimeout = d
		}
	}
	if v := os.Getenv("RUN_MODE"); v != "" {
		c.Mode = v
	}
	c.SkipValidation = boolEnv("SKIP_VALIDATION", c.SkipValidation)
	c.SkipEnrichment = boolEnv("SKIP_ENRICHMENT", c.SkipEnrichment)
	c.ReportUsage = boolEnv("REPORT_USAGE", c.ReportUsage)
	c.MinimalLimit = intEnv("MINIMAL_LIMIT", c.MinimalLimit)
	c.BatchSize = intEnv("PERSIST_BATCH_SIZE", c.BatchSize)
	c.Concurrency = intEnv("CONCURRENCY", c.Concurrency)

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func defaults() *Config {
	return &Config{
		UserAgent:    "Tunedex/1.0 (+https://github.com/tunedex/tunedex)",
		Timeout:      30 * time.Second,
		ProbeTimeout: 8 * time.Second,
		Mode:         ModeFull,
		MinimalLimit: 50,
		BatchSize:    200,
		Concurrency:  10,
	}
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	switch c.Mode {
	case ModeFull, ModeMinimal, ModeSkip:
	default:
		return errors.New("run mode must be full, minimal, or skip")
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 200
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 10
	}
	if c.MinimalLimit <= 0 {
		c.MinimalLimit = 50
	}
	return nil
}

func boolEnv(key string, fallback bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return fallback
	}
	return v
}

func intEnv(key string, fallback int) int {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}
