package cmd

import (
	"context"
	"fmt"

	"github.com/pithecene-io/lookahead/adapter"
	redisadapter "github.com/pithecene-io/lookahead/adapter/redis"
	"github.com/pithecene-io/lookahead/adapter/webhook"
	"github.com/pithecene-io/lookahead/cli/config"
	"github.com/pithecene-io/lookahead/fetcher"
	"github.com/pithecene-io/lookahead/log"
	"github.com/pithecene-io/lookahead/metrics"
	"github.com/pithecene-io/lookahead/pipeline"
	"github.com/pithecene-io/lookahead/types"
)

// buildAdapter creates the configured adapter, or nil when none is configured.
func buildAdapter(cfg config.AdapterConfig) (adapter.Adapter, error) {
	switch cfg.Type {
	case "":
		return nil, nil
	case config.AdapterWebhook:
		retries := webhook.DefaultRetries
		if cfg.Retries != nil {
			retries = *cfg.Retries
		}
		return webhook.New(webhook.Config{
			URL:     cfg.URL,
			Headers: cfg.Headers,
			Timeout: cfg.Timeout.Duration,
			Retries: retries,
		})
	case config.AdapterRedis:
		retries := redisadapter.DefaultRetries
		if cfg.Retries != nil {
			retries = *cfg.Retries
		}
		return redisadapter.New(redisadapter.Config{
			URL:        cfg.URL,
			Channel:    cfg.Channel,
			PerSession: cfg.PerSession,
			Timeout:    cfg.Timeout.Duration,
			Retries:    retries,
		})
	default:
		return nil, fmt.Errorf("%w: unknown adapter type %q", config.ErrInvalid, cfg.Type)
	}
}

// newPipeline creates the session pipeline over f, taking the timing from s,
// and then the configured adapter. If the adapter cannot be built the
// pipeline is disposed, so on error nothing is left to release.
func newPipeline(
	s *settings,
	f fetcher.Fetcher[types.Movie],
	cfg pipeline.Config,
) (*pipeline.Pipeline[types.Movie], adapter.Adapter, error) {
	cfg.QuietPeriod = s.quietPeriod
	cfg.FetchTimeout = s.fetchTimeout

	p, err := pipeline.New(f, cfg)
	if err != nil {
		return nil, nil, err
	}

	a, err := buildAdapter(s.adapter)
	if err != nil {
		p.Dispose()
		return nil, nil, err
	}
	return p, a, nil
}

// startRelay relays ready states of p through a until ctx is done or p is
// disposed. The returned func waits for the relay to stop and closes a.
// With a nil adapter it does nothing.
func startRelay(
	ctx context.Context,
	a adapter.Adapter,
	p *pipeline.Pipeline[types.Movie],
	sessionID string,
	logger *log.Logger,
	collector *metrics.Collector,
) (wait func()) {
	if a == nil {
		return func() {}
	}

	relay := adapter.NewRelay(a, sessionID, logger.Named("relay"), collector)
	done := make(chan struct{})
	go func() {
		defer close(done)
		relay.Run(ctx, p.Observe(ctx))
	}()

	return func() {
		<-done
		if err := a.Close(); err != nil {
			logger.Warn("adapter close failed", map[string]any{"error": err.Error()})
		}
	}
}
