// Package config loads and validates the scan configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/charles-forsyth/Skywalker/types"
)

// StandardRegions covers the regions the fleet is expected to live in.
// Overridable per run via config or flags.
var StandardRegions = []string{
	"us-central1",
	"us-west1",
	"us-east1",
	"us-east4",
	"us-west2",
	"us-west4",
}

// Config is the top-level scan configuration.
type Config struct {
	Version     string            `yaml:"version"`
	Projects    []string          `yaml:"projects,omitempty"`
	Regions     []string          `yaml:"regions,omitempty"`
	Services    []string          `yaml:"services,omitempty"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Retry       RetryConfig       `yaml:"retry"`
	Zombies     ZombieConfig      `yaml:"zombies"`
	OTEL        OTELConfig        `yaml:"otel"`
}

// ConcurrencyConfig bounds the two fan-out levels of the scheduler.
type ConcurrencyConfig struct {
	Projects int `yaml:"projects"`
	Regions  int `yaml:"regions"`
}

// RetryConfig controls the per-unit retry policy.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
}

// ZombieConfig controls the waste detection rules.
type ZombieConfig struct {
	InactivityWindowDays int     `yaml:"inactivity_window_days"`
	MinBucketSizeGB      float64 `yaml:"min_bucket_size_gb"`
	PriceTable           string  `yaml:"price_table,omitempty"`
}

// OTELConfig controls the telemetry provider.
type OTELConfig struct {
	ServiceName string        `yaml:"service_name"`
	Endpoint    string        `yaml:"endpoint,omitempty"`
	Insecure    bool          `yaml:"insecure"`
	Traces      TracesConfig  `yaml:"traces"`
	Metrics     MetricsConfig `yaml:"metrics"`
}

// TracesConfig controls trace export.
type TracesConfig struct {
	Enabled    bool    `yaml:"enabled"`
	SampleRate float64 `yaml:"sample_rate"`
}

// MetricsConfig controls metric export.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{Version: "1"}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from a YAML file, applies defaults and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is intentional user input
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if len(c.Regions) == 0 {
		c.Regions = append([]string(nil), StandardRegions...)
	}
	if len(c.Services) == 0 {
		for _, s := range types.AllServices() {
			c.Services = append(c.Services, string(s))
		}
	}
	if c.Concurrency.Projects == 0 {
		c.Concurrency.Projects = 5
	}
	if c.Concurrency.Regions == 0 {
		c.Concurrency.Regions = 4
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.BaseDelay == 0 {
		c.Retry.BaseDelay = 4 * time.Second
	}
	if c.Retry.MaxDelay == 0 {
		c.Retry.MaxDelay = 10 * time.Second
	}
	if c.Zombies.InactivityWindowDays == 0 {
		c.Zombies.InactivityWindowDays = 30
	}
	if c.Zombies.MinBucketSizeGB == 0 {
		c.Zombies.MinBucketSizeGB = 1
	}
	if c.OTEL.ServiceName == "" {
		c.OTEL.ServiceName = "skywalker"
	}
	if c.OTEL.Traces.SampleRate == 0 {
		c.OTEL.Traces.SampleRate = 1.0
	}
}

// Validate rejects malformed configuration before any scanning begins.
func (c *Config) Validate() error {
	if c.Concurrency.Projects < 1 {
		return fmt.Errorf("concurrency.projects must be at least 1, got %d", c.Concurrency.Projects)
	}
	if c.Concurrency.Regions < 1 {
		return fmt.Errorf("concurrency.regions must be at least 1, got %d", c.Concurrency.Regions)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.BaseDelay <= 0 {
		return fmt.Errorf("retry.base_delay must be positive")
	}
	if c.Retry.MaxDelay < c.Retry.BaseDelay {
		return fmt.Errorf("retry.max_delay must be at least base_delay")
	}
	for _, s := range c.Services {
		if !types.Service(s).Valid() {
			return fmt.Errorf("unknown service %q", s)
		}
	}
	if c.Zombies.InactivityWindowDays < 1 {
		return fmt.Errorf("zombies.inactivity_window_days must be at least 1")
	}
	return nil
}

// ServiceTags returns the configured services as typed tags.
func (c *Config) ServiceTags() []types.Service {
	tags := make([]types.Service, 0, len(c.Services))
	for _, s := range c.Services {
		tags = append(tags, types.Service(s))
	}
	return tags
}

// InactivityWindow returns the zombie inactivity window as a duration.
func (c *Config) InactivityWindow() time.Duration {
	return time.Duration(c.Zombies.InactivityWindowDays) * 24 * time.Hour
}
