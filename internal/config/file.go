package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	DatabaseURL    string `yaml:"database_url"`
	RedisURL       string `yaml:"redis_url"`
	UserAgent      string `yaml:"user_agent"`
	Timeout        string `yaml:"timeout"`
	ProbeTimeout   string `yaml:"probe_timeout"`
	Mode           string `yaml:"mode"`
	SkipValidation bool   `yaml:"skip_validation"`
	SkipEnrichment bool   `yaml:"skip_enrichment"`
	ReportUsage    bool   `yaml:"report_usage"`
	MinimalLimit   int    `yaml:"minimal_limit"`
	BatchSize      int    `yaml:"batch_size"`
	Concurrency    int    `yaml:"concurrency"`
}

// LoadFromFile loads config from a YAML file. database_url is required.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	c := defaults()
	c.DatabaseURL = f.DatabaseURL
	c.RedisURL = f.RedisURL
	if f.UserAgent != "" {
		c.UserAgent = f.UserAgent
	}
	if f.Timeout != "" {
		if d, err := time.ParseDuration(f.Timeout); err == nil {
			c.Timeout = d
		}
	}
	if f.ProbeTimeout != "" {
		if d, err := time.ParseDuration(f.ProbeTimeout); err == nil {
			c.ProbeTimeout = d
		}
	}
	if f.Mode != "" {
		c.Mode = f.Mode
	}
	c.SkipValidation = f.SkipValidation
	c.SkipEnrichment = f.SkipEnrichment
	c.ReportUsage = f.ReportUsage
	if f.MinimalLimit > 0 {
		c.MinimalLimit = f.MinimalLimit
	}
	if f.BatchSize > 0 {
		c.BatchSize = f.BatchSize
	}
	if f.Concurrency > 0 {
		c.Concurrency = f.Concurrency
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}
