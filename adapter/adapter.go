// Package adapter defines the event-bus boundary for settled search results.
//
// Adapters publish a notification each time the pipeline accepts a result set
// for the latest query. The CLI owns adapter lifecycle; users provide
// configuration only.
package adapter

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// EventTypeResultsReady is the only event type published today.
const EventTypeResultsReady = "results_ready"

// MaxTitles caps how many result titles an event carries.
const MaxTitles = 10

// DefaultRetryInterval is the first backoff interval between publish attempts.
const DefaultRetryInterval = 500 * time.Millisecond

// ResultsReadyEvent is the payload published when results become ready.
type ResultsReadyEvent struct {
	Version     string   `json:"version"`
	EventType   string   `json:"event_type"` // always "results_ready"
	SessionID   string   `json:"session_id"`
	Query       string   `json:"query"`
	Sequence    uint64   `json:"sequence"`
	ResultCount int      `json:"result_count"`
	Titles      []string `json:"titles"`
	Timestamp   string   `json:"timestamp"` // RFC 3339
}

// Adapter publishes results-ready events to a downstream system.
type Adapter interface {
	// Publish sends an event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *ResultsReadyEvent) error

	// Close releases adapter resources.
	Close() error
}

// Retry runs op up to 1+retries times with exponential backoff starting at
// interval. Errors wrapped with backoff.Permanent stop immediately and are
// returned unwrapped.
func Retry(ctx context.Context, retries int, interval time.Duration, op func() error) error {
	if interval <= 0 {
		interval = DefaultRetryInterval
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = interval
	policy.RandomizationFactor = 0
	policy.Multiplier = 2
	policy.MaxElapsedTime = 0

	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(retries)), ctx))
}
