package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/pithecene-io/lookahead/log"
)

// Adapter type names accepted in the adapter section.
const (
	AdapterWebhook = "webhook"
	AdapterRedis   = "redis"
)

// ErrInvalid is wrapped by every Validate error.
var ErrInvalid = errors.New("invalid config")

// Config represents a lookahead.yaml configuration file.
// All values are optional and act as defaults for command flags.
// CLI flags always override config values.
type Config struct {
	Fetcher  FetcherConfig  `yaml:"fetcher"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Adapter  AdapterConfig  `yaml:"adapter"`
	Log      LogConfig      `yaml:"log"`
}

// FetcherConfig holds movie search client defaults.
type FetcherConfig struct {
	BaseURL        string   `yaml:"base_url"`
	Token          string   `yaml:"token"`
	Language       string   `yaml:"language"`
	IncludeAdult   bool     `yaml:"include_adult"`
	Timeout        Duration `yaml:"timeout"`
	MaxQueryLength int      `yaml:"max_query_length"`
}

// PipelineConfig holds debounce and dispatch defaults.
type PipelineConfig struct {
	QuietPeriod  Duration `yaml:"quiet_period"`
	FetchTimeout Duration `yaml:"fetch_timeout"`
}

// AdapterConfig holds result relay defaults.
type AdapterConfig struct {
	Type    string `yaml:"type"`
	URL     string `yaml:"url"`
	Channel string `yaml:"channel,omitempty"`
	// PerSession publishes redis events on "<channel>:<session_id>".
	PerSession bool              `yaml:"per_session,omitempty"`
	Headers    map[string]string `yaml:"headers,omitempty"`
	Timeout    Duration          `yaml:"timeout,omitempty"`
	Retries    *int              `yaml:"retries,omitempty"`
}

// LogConfig holds logging defaults.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "500ms", "10s").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "500ms" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML renders the duration in time.Duration string form.
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// Validate checks values that cannot be caught by YAML decoding alone.
// Missing values are fine; they fall back to command defaults.
func (c *Config) Validate() error {
	if c.Fetcher.BaseURL != "" {
		u, err := url.Parse(c.Fetcher.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: fetcher.base_url %q must be an http(s) URL", ErrInvalid, c.Fetcher.BaseURL)
		}
	}
	if c.Fetcher.MaxQueryLength < 0 {
		return fmt.Errorf("%w: fetcher.max_query_length must be >= 0", ErrInvalid)
	}

	durations := []struct {
		field string
		value time.Duration
	}{
		{"fetcher.timeout", c.Fetcher.Timeout.Duration},
		{"pipeline.quiet_period", c.Pipeline.QuietPeriod.Duration},
		{"pipeline.fetch_timeout", c.Pipeline.FetchTimeout.Duration},
		{"adapter.timeout", c.Adapter.Timeout.Duration},
	}
	for _, d := range durations {
		if d.value < 0 {
			return fmt.Errorf("%w: %s must be >= 0, got %v", ErrInvalid, d.field, d.value)
		}
	}

	switch c.Adapter.Type {
	case "":
	case AdapterWebhook, AdapterRedis:
		if c.Adapter.URL == "" {
			return fmt.Errorf("%w: adapter.url is required for adapter type %q", ErrInvalid, c.Adapter.Type)
		}
	default:
		return fmt.Errorf("%w: unknown adapter type %q (want %s or %s)", ErrInvalid, c.Adapter.Type, AdapterWebhook, AdapterRedis)
	}
	if c.Adapter.Retries != nil && *c.Adapter.Retries < 0 {
		return fmt.Errorf("%w: adapter.retries must be >= 0", ErrInvalid)
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %w", ErrInvalid, err)
	}

	return nil
}
