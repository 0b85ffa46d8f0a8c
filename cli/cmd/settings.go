package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/lookahead/cli/config"
	"github.com/pithecene-io/lookahead/fetcher"
	"github.com/pithecene-io/lookahead/log"
)

// Exit codes.
const (
	exitSuccess     = 0
	exitFailure     = 1
	exitConfigError = 2
)

var errMissingToken = errors.New("no API token: pass --token or set " + TokenEnvVar)

// settings is the merged view of the config file and command flags.
type settings struct {
	fetcher      fetcher.Config
	quietPeriod  time.Duration
	fetchTimeout time.Duration
	adapter      config.AdapterConfig
	logLevel     string
	logFile      string
}

// loadSettings reads --config when given and applies every flag that was
// explicitly set on top of it.
func loadSettings(c *cli.Context) (*settings, error) {
	cfg := &config.Config{}
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if c.IsSet("token") && c.String("token") != "" {
		cfg.Fetcher.Token = c.String("token")
	}
	if c.IsSet("base-url") {
		cfg.Fetcher.BaseURL = c.String("base-url")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-file") {
		cfg.Log.File = c.String("log-file")
	}
	if c.IsSet("fetch-timeout") {
		cfg.Pipeline.FetchTimeout = config.Duration{Duration: c.Duration("fetch-timeout")}
	}
	if c.IsSet("quiet-period") || cfg.Pipeline.QuietPeriod.Duration == 0 {
		cfg.Pipeline.QuietPeriod = config.Duration{Duration: c.Duration("quiet-period")}
	}
	if err := applyAdapterFlags(c, &cfg.Adapter); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Fetcher.Token == "" {
		return nil, errMissingToken
	}

	return &settings{
		fetcher: fetcher.Config{
			BaseURL:        cfg.Fetcher.BaseURL,
			Token:          cfg.Fetcher.Token,
			Language:       cfg.Fetcher.Language,
			IncludeAdult:   cfg.Fetcher.IncludeAdult,
			Timeout:        cfg.Fetcher.Timeout.Duration,
			MaxQueryLength: cfg.Fetcher.MaxQueryLength,
		},
		quietPeriod:  cfg.Pipeline.QuietPeriod.Duration,
		fetchTimeout: cfg.Pipeline.FetchTimeout.Duration,
		adapter:      cfg.Adapter,
		logLevel:     cfg.Log.Level,
		logFile:      cfg.Log.File,
	}, nil
}

func applyAdapterFlags(c *cli.Context, a *config.AdapterConfig) error {
	if c.IsSet("adapter") {
		a.Type = c.String("adapter")
	}
	if c.IsSet("adapter-url") {
		a.URL = c.String("adapter-url")
	}
	if c.IsSet("adapter-channel") {
		a.Channel = c.String("adapter-channel")
	}
	if c.IsSet("adapter-per-session") {
		a.PerSession = c.Bool("adapter-per-session")
	}
	if c.IsSet("adapter-timeout") {
		a.Timeout = config.Duration{Duration: c.Duration("adapter-timeout")}
	}
	if c.IsSet("adapter-retries") {
		n := c.Int("adapter-retries")
		a.Retries = &n
	}
	if c.IsSet("adapter-header") {
		headers, err := parseHeaders(c.StringSlice("adapter-header"))
		if err != nil {
			return err
		}
		if a.Headers == nil {
			a.Headers = make(map[string]string, len(headers))
		}
		for k, v := range headers {
			a.Headers[k] = v
		}
	}
	return nil
}

// parseHeaders parses key=value pairs.
func parseHeaders(pairs []string) (map[string]string, error) {
	headers := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: adapter header %q must be key=value", config.ErrInvalid, p)
		}
		headers[k] = strings.TrimSpace(v)
	}
	return headers, nil
}

// newSessionID returns a fresh id for one CLI invocation.
func newSessionID() string {
	return uuid.NewString()
}

// openLogger builds a logger for component. Output goes to the configured
// log file, else to fallback. The returned close func releases the file.
func openLogger(s *settings, sessionID, component string, fallback io.Writer) (*log.Logger, func(), error) {
	level, err := log.ParseLevel(s.logLevel)
	if err != nil {
		return nil, nil, err
	}

	w := fallback
	closeFn := func() {}
	if s.logFile != "" {
		f, err := os.OpenFile(s.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closeFn = func() { _ = f.Close() }
	}

	logger := log.NewLoggerWithWriter(log.Session{SessionID: sessionID, Component: component}, w, level)
	return logger, func() {
		_ = logger.Sync()
		closeFn()
	}, nil
}

// configExit wraps a settings error as a configuration exit.
func configExit(err error) error {
	return cli.Exit(fmt.Sprintf("config error: %v", err), exitConfigError)
}
