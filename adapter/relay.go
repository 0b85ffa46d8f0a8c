package adapter

import (
	"context"
	"iter"
	"time"

	"github.com/pithecene-io/lookahead/log"
	"github.com/pithecene-io/lookahead/metrics"
	"github.com/pithecene-io/lookahead/pipeline"
	"github.com/pithecene-io/lookahead/types"
)

// Relay forwards ready pipeline states to an Adapter.
//
// Each ready sequence is published at most once. States that arrive while a
// publish is in progress conflate in the pipeline subscription, so a slow
// downstream sees the latest results rather than a backlog.
type Relay struct {
	adapter   Adapter
	sessionID string
	logger    *log.Logger
	metrics   *metrics.Collector
	now       func() time.Time
}

// NewRelay creates a relay publishing through a.
// logger and collector may be nil.
func NewRelay(a Adapter, sessionID string, logger *log.Logger, collector *metrics.Collector) *Relay {
	return &Relay{
		adapter:   a,
		sessionID: sessionID,
		logger:    logger,
		metrics:   collector,
		now:       time.Now,
	}
}

// Run publishes every new ready state from states until the sequence ends
// or ctx is done. Publish failures are logged and counted, never returned:
// the relay is best effort and must not take the session down.
func (r *Relay) Run(ctx context.Context, states iter.Seq[pipeline.State[types.Movie]]) {
	var last uint64
	for s := range states {
		if ctx.Err() != nil {
			return
		}
		if !s.Ready || s.Sequence <= last {
			continue
		}
		last = s.Sequence
		r.publish(ctx, s)
	}
}

func (r *Relay) publish(ctx context.Context, s pipeline.State[types.Movie]) {
	event := NewResultsReadyEvent(r.sessionID, s, r.now())

	if err := r.adapter.Publish(ctx, event); err != nil {
		r.metrics.IncRelayFailed()
		if r.logger != nil {
			r.logger.Warn("relay publish failed", map[string]any{
				"sequence": s.Sequence,
				"query":    s.Query,
				"error":    err.Error(),
			})
		}
		return
	}

	r.metrics.IncRelayPublished()
	if r.logger != nil {
		r.logger.Debug("relay published", map[string]any{
			"sequence":     s.Sequence,
			"result_count": event.ResultCount,
		})
	}
}

// NewResultsReadyEvent builds the event for a ready state.
func NewResultsReadyEvent(sessionID string, s pipeline.State[types.Movie], at time.Time) *ResultsReadyEvent {
	titles := make([]string, 0, min(len(s.Results), MaxTitles))
	for _, m := range s.Results {
		if len(titles) == MaxTitles {
			break
		}
		titles = append(titles, m.Title)
	}

	return &ResultsReadyEvent{
		Version:     types.Version,
		EventType:   EventTypeResultsReady,
		SessionID:   sessionID,
		Query:       s.Query,
		Sequence:    s.Sequence,
		ResultCount: len(s.Results),
		Titles:      titles,
		Timestamp:   at.UTC().Format(time.RFC3339),
	}
}
