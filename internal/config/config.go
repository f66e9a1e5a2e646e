// Package config holds the scraper settings and loads them from YAML.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrMissingBaseURL     = errors.New("source.base_url must be an absolute http(s) url")
	ErrMissingListingPath = errors.New("source.listing_path must start with /")
	ErrInvalidTimeout     = errors.New("fetch.timeout_sec must be at least 1")
	ErrInvalidConcurrency = errors.New("fetch.concurrency must be at least 1")
	ErrInvalidBodyCap     = errors.New("fetch.max_body_bytes must be positive")
	ErrMissingOutputDir   = errors.New("output.dir is required")
	ErrInvalidOutputFmt   = errors.New("output.format must be 'csv' or 'ndjson'")
	ErrInvalidLogLevel    = errors.New("logging.level must be one of: debug, info, warn, error")
)

const (
	DefaultBaseURL     = "https://www.gov.ie"
	DefaultListingPath = "/en/news/7e0924-latest-updates-on-covid-19-coronavirus/"
)

type Config struct {
	Source  SourceConfig  `yaml:"source"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// SourceConfig locates the listing page. Input, when set, names a CSV or
// NDJSON file of bulletin URLs used instead of the listing page.
type SourceConfig struct {
	BaseURL     string `yaml:"base_url"`
	ListingPath string `yaml:"listing_path"`
	Input       string `yaml:"input"`
}

type FetchConfig struct {
	TimeoutSec     int    `yaml:"timeout_sec"`
	DialTimeoutSec int    `yaml:"dial_timeout_sec"`
	MaxBodyBytes   int64  `yaml:"max_body_bytes"`
	UserAgent      string `yaml:"user_agent"`
	Concurrency    int    `yaml:"concurrency"`
}

type OutputConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the settings used when no config file is given.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			BaseURL:     DefaultBaseURL,
			ListingPath: DefaultListingPath,
		},
		Fetch: FetchConfig{
			TimeoutSec:     30,
			DialTimeoutSec: 10,
			MaxBodyBytes:   10 << 20,
			UserAgent:      "govie-covid-scraper/1.0",
			Concurrency:    1,
		},
		Output: OutputConfig{
			Dir:    "data",
			Format: "csv",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.Source.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrMissingBaseURL
	}
	if c.Source.Input == "" && !strings.HasPrefix(c.Source.ListingPath, "/") {
		return ErrMissingListingPath
	}
	if c.Fetch.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}
	if c.Fetch.Concurrency < 1 {
		return ErrInvalidConcurrency
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		return ErrInvalidBodyCap
	}
	if c.Output.Dir == "" {
		return ErrMissingOutputDir
	}
	if c.Output.Format != "csv" && c.Output.Format != "ndjson" {
		return ErrInvalidOutputFmt
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}
	return nil
}

// ListingURL is the base origin joined with the listing path.
func (c *Config) ListingURL() string {
	return strings.TrimRight(c.Source.BaseURL, "/") + c.Source.ListingPath
}

func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSec) * time.Second
}

func (f FetchConfig) DialTimeout() time.Duration {
	return time.Duration(f.DialTimeoutSec) * time.Second
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Listing: %s, Concurrency: %d, Output: %s/*.%s}",
		c.ListingURL(),
		c.Fetch.Concurrency,
		c.Output.Dir,
		c.Output.Format,
	)
}
