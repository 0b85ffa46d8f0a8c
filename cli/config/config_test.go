package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_FullConfig(t *testing.T) {
	yaml := `fetcher:
  base_url: https://api.themoviedb.org/3
  token: abc123
  language: fr-FR
  include_adult: true
  timeout: 4s
  max_query_length: 120

pipeline:
  quiet_period: 300ms
  fetch_timeout: 2s

adapter:
  type: webhook
  url: https://hooks.example.com/lookahead
  headers:
    Authorization: Bearer token123
  timeout: 10s
  retries: 3

log:
  level: debug
  file: /tmp/lookahead.log
`
	path := writeTemp(t, yaml)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	// Fetcher
	assertEqual(t, "fetcher.base_url", cfg.Fetcher.BaseURL, "https://api.themoviedb.org/3")
	assertEqual(t, "fetcher.token", cfg.Fetcher.Token, "abc123")
	assertEqual(t, "fetcher.language", cfg.Fetcher.Language, "fr-FR")
	if !cfg.Fetcher.IncludeAdult {
		t.Error("expected fetcher.include_adult=true")
	}
	if cfg.Fetcher.Timeout.Duration != 4*time.Second {
		t.Errorf("expected fetcher.timeout=4s, got %v", cfg.Fetcher.Timeout.Duration)
	}
	if cfg.Fetcher.MaxQueryLength != 120 {
		t.Errorf("expected fetcher.max_query_length=120, got %d", cfg.Fetcher.MaxQueryLength)
	}

	// Pipeline
	if cfg.Pipeline.QuietPeriod.Duration != 300*time.Millisecond {
		t.Errorf("expected pipeline.quiet_period=300ms, got %v", cfg.Pipeline.QuietPeriod.Duration)
	}
	if cfg.Pipeline.FetchTimeout.Duration != 2*time.Second {
		t.Errorf("expected pipeline.fetch_timeout=2s, got %v", cfg.Pipeline.FetchTimeout.Duration)
	}

	// Adapter
	assertEqual(t, "adapter.type", cfg.Adapter.Type, "webhook")
	assertEqual(t, "adapter.url", cfg.Adapter.URL, "https://hooks.example.com/lookahead")
	if cfg.Adapter.Timeout.Duration != 10*time.Second {
		t.Errorf("expected adapter.timeout=10s, got %v", cfg.Adapter.Timeout.Duration)
	}
	if cfg.Adapter.Retries == nil || *cfg.Adapter.Retries != 3 {
		t.Errorf("expected adapter.retries=3")
	}
	if cfg.Adapter.Headers["Authorization"] != "Bearer token123" {
		t.Errorf("expected Authorization header")
	}

	// Log
	assertEqual(t, "log.level", cfg.Log.Level, "debug")
	assertEqual(t, "log.file", cfg.Log.File, "/tmp/lookahead.log")
}

func TestLoad_EmptyConfig(t *testing.T) {
	for name, content := range map[string]string{
		"empty":      "",
		"whitespace": "   \n  \n  \n",
		"comments":   "# This is a comment\n# Another comment\n",
	} {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(writeTemp(t, content))
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if cfg.Fetcher.Token != "" || cfg.Pipeline.QuietPeriod.Duration != 0 {
				t.Errorf("expected zero config, got %+v", cfg)
			}
			if err := cfg.Validate(); err != nil {
				t.Errorf("zero config should validate, got %v", err)
			}
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	if _, err := Load("/nonexistent/lookahead.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	if _, err := Load(writeTemp(t, "{{invalid yaml")); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("LOOKAHEAD_TEST_TOKEN", "from-env")

	yaml := `fetcher:
  token: ${LOOKAHEAD_TEST_TOKEN}
  language: ${LOOKAHEAD_TEST_LANG:-de-DE}
`
	cfg, err := Load(writeTemp(t, yaml))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assertEqual(t, "fetcher.token", cfg.Fetcher.Token, "from-env")
	assertEqual(t, "fetcher.language", cfg.Fetcher.Language, "de-DE")
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	yaml := `fetcher:
  token: abc
bogus_key: should_fail
`
	_, err := Load(writeTemp(t, yaml))
	if err == nil {
		t.Fatal("expected error for unknown key, got nil")
	}
	if !strings.Contains(err.Error(), "bogus_key") {
		t.Errorf("error should mention the unknown key, got: %v", err)
	}
}

func TestLoad_UnknownNestedKeyRejected(t *testing.T) {
	yaml := `pipeline:
  quiet_period: 500ms
  unknown_field: bad
`
	_, err := Load(writeTemp(t, yaml))
	if err == nil {
		t.Fatal("expected error for unknown nested key, got nil")
	}
	if !strings.Contains(err.Error(), "unknown_field") {
		t.Errorf("error should mention the unknown key, got: %v", err)
	}
}

func TestLoad_RetriesZeroDistinctFromNil(t *testing.T) {
	yaml := `adapter:
  type: webhook
  url: https://example.com
  retries: 0
`
	cfg, err := Load(writeTemp(t, yaml))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Adapter.Retries == nil {
		t.Fatal("expected retries to be non-nil (*int(0)), got nil")
	}
	if *cfg.Adapter.Retries != 0 {
		t.Errorf("expected retries=0, got %d", *cfg.Adapter.Retries)
	}
}

func TestLoad_RetriesOmittedIsNil(t *testing.T) {
	yaml := `adapter:
  type: webhook
  url: https://example.com
`
	cfg, err := Load(writeTemp(t, yaml))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Adapter.Retries != nil {
		t.Errorf("expected retries to be nil, got %d", *cfg.Adapter.Retries)
	}
}

func TestDuration_InvalidFormat(t *testing.T) {
	yaml := `pipeline:
  quiet_period: not-a-duration
`
	_, err := Load(writeTemp(t, yaml))
	if err == nil {
		t.Fatal("expected error for invalid duration")
	}
	if !strings.Contains(err.Error(), "not-a-duration") {
		t.Errorf("error should mention the bad value, got: %v", err)
	}
}

func TestValidate(t *testing.T) {
	negative := -1

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"zero value", Config{}, ""},
		{"redis adapter", Config{Adapter: AdapterConfig{Type: AdapterRedis, URL: "redis://localhost:6379"}}, ""},
		{"bad base url scheme", Config{Fetcher: FetcherConfig{BaseURL: "ftp://example.com"}}, "fetcher.base_url"},
		{"base url without host", Config{Fetcher: FetcherConfig{BaseURL: "https://"}}, "fetcher.base_url"},
		{"negative max query length", Config{Fetcher: FetcherConfig{MaxQueryLength: -1}}, "max_query_length"},
		{"negative quiet period", Config{Pipeline: PipelineConfig{QuietPeriod: Duration{-time.Second}}}, "pipeline.quiet_period"},
		{"negative fetch timeout", Config{Pipeline: PipelineConfig{FetchTimeout: Duration{-time.Second}}}, "pipeline.fetch_timeout"},
		{"unknown adapter", Config{Adapter: AdapterConfig{Type: "kafka", URL: "x"}}, "unknown adapter type"},
		{"adapter without url", Config{Adapter: AdapterConfig{Type: AdapterWebhook}}, "adapter.url"},
		{"negative retries", Config{Adapter: AdapterConfig{Type: AdapterWebhook, URL: "x", Retries: &negative}}, "adapter.retries"},
		{"bad log level", Config{Log: LogConfig{Level: "loud"}}, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}

// writeTemp writes content to a temp file and returns the path.
func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "lookahead.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func assertEqual(t *testing.T, field, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: got %q, want %q", field, got, want)
	}
}
