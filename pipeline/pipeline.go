// Package pipeline turns a high-frequency stream of raw query text into a
// low-frequency stream of fetches, and publishes the latest coherent result.
//
// Guarantees:
//   - Debounce: a fetch is dispatched only after QuietPeriod passes with no
//     new Submit; bursts collapse into one fetch for the last text.
//   - Staleness guard: every Submit takes a new sequence number, and a fetch
//     outcome may touch State only if its sequence is still the latest.
//     Completion order never matters.
//   - Failures keep the last good Results and leave Ready false. They are
//     reported to Config.OnError and the logger, never through State.
//   - After Dispose returns, State never changes again.
//
// Thread safety:
//   - mu guards state, pending text, subscribers and the disposed flag; it is
//     the single serialization point for every State mutation and fan-out
//   - loop owns the quiet timer's channel and the in-flight cancel func
//   - fetches run on their own goroutines and hand outcomes back to loop
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/pithecene-io/lookahead/fetcher"
	"github.com/pithecene-io/lookahead/log"
	"github.com/pithecene-io/lookahead/metrics"
)

// DefaultQuietPeriod is the debounce window used when Config.QuietPeriod is zero.
const DefaultQuietPeriod = 500 * time.Millisecond

// ErrInvalidConfig is returned when Config is invalid.
var ErrInvalidConfig = errors.New("invalid pipeline config")

// Config configures a Pipeline.
type Config struct {
	// QuietPeriod is how long input must stay unchanged before a fetch
	// is dispatched. Zero means DefaultQuietPeriod.
	QuietPeriod time.Duration

	// FetchTimeout bounds each dispatched fetch. Zero means no deadline
	// beyond whatever the Fetcher applies itself.
	FetchTimeout time.Duration

	// OnError receives failures of the current query. It runs on the
	// pipeline's loop goroutine and must not block.
	OnError func(Failure)

	// Logger is an optional logger for pipeline observability.
	Logger *log.Logger

	// Metrics is an optional counter sink.
	Metrics *metrics.Collector
}

// State is a point-in-time snapshot of the pipeline.
// Results is a private copy; observers may keep it.
type State[T any] struct {
	// Results is the last accepted result set.
	Results []T
	// Ready is true only when Results answer the most recent submission.
	Ready bool
	// Sequence identifies the most recent submission. It never decreases.
	Sequence uint64
	// Query is the raw text of the most recent submission.
	Query string
}

// Failure describes a fetch failure for the current query.
type Failure struct {
	Sequence uint64
	Query    string
	Err      error
}

// Kind returns the fetcher classification label of the failure.
func (f Failure) Kind() string {
	return fetcher.KindName(f.Err)
}

// outcome is a settled fetch on its way back to the loop.
type outcome[T any] struct {
	seq     uint64
	query   string
	items   []T
	err     error
	started time.Time
}

// Pipeline is the debounced, staleness-guarded query pipeline.
type Pipeline[T any] struct {
	fetcher fetcher.Fetcher[T]
	config  Config
	logger  *log.Logger
	metrics *metrics.Collector

	mu       sync.Mutex
	state    State[T]
	pending  string
	deadline time.Time // quiet period ends; guarded by mu
	disposed bool
	subs     map[uint64]chan State[T]
	nextSub  uint64

	// timer is reset by Submit under mu and drained only by loop.
	timer *time.Timer

	outcomes chan outcome[T]
	stopCh   chan struct{}
	loopDone chan struct{}

	// ctx parents every fetch context and is cancelled by Dispose.
	ctx    context.Context
	cancel context.CancelFunc

	// inflight cancels the most recent dispatch. Owned by loop.
	inflight context.CancelFunc

	disposeOnce sync.Once
}

// New creates a pipeline over f and starts its loop goroutine.
// Call Dispose to stop it.
func New[T any](f fetcher.Fetcher[T], cfg Config) (*Pipeline[T], error) {
	if f == nil {
		return nil, fmt.Errorf("%w: fetcher is required", ErrInvalidConfig)
	}
	if cfg.QuietPeriod < 0 {
		return nil, fmt.Errorf("%w: quiet period must be >= 0, got %v", ErrInvalidConfig, cfg.QuietPeriod)
	}
	if cfg.FetchTimeout < 0 {
		return nil, fmt.Errorf("%w: fetch timeout must be >= 0, got %v", ErrInvalidConfig, cfg.FetchTimeout)
	}
	if cfg.QuietPeriod == 0 {
		cfg.QuietPeriod = DefaultQuietPeriod
	}

	timer := time.NewTimer(time.Hour)
	timer.Stop()

	ctx, cancel := context.WithCancel(context.Background())

	p := &Pipeline[T]{
		fetcher:  f,
		config:   cfg,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		state:    State[T]{Results: []T{}},
		subs:     make(map[uint64]chan State[T]),
		timer:    timer,
		outcomes: make(chan outcome[T]),
		stopCh:   make(chan struct{}),
		loopDone: make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}

	go p.loop()

	return p, nil
}

// Submit records new raw input. It never blocks on I/O and never fails.
//
// The text gets a new sequence number, Ready drops to false immediately,
// and the quiet period restarts. Identical text is not de-duplicated.
func (p *Pipeline[T]) Submit(text string) {
	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return
	}
	p.state.Sequence++
	p.state.Query = text
	p.state.Ready = false
	p.pending = text
	p.deadline = time.Now().Add(p.config.QuietPeriod)
	p.timer.Reset(p.config.QuietPeriod)
	p.publishLocked()
	p.mu.Unlock()

	p.metrics.IncSubmission()
}

// State returns the current snapshot.
func (p *Pipeline[T]) State() State[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// Dispose stops the pipeline. It is idempotent and safe to call concurrently;
// every call returns only once the loop has exited. Pending timers are dropped,
// in-flight fetches are cancelled and their outcomes ignored, and every
// subscription channel is closed.
func (p *Pipeline[T]) Dispose() {
	p.disposeOnce.Do(func() {
		p.mu.Lock()
		p.disposed = true
		p.timer.Stop()
		for id, ch := range p.subs {
			delete(p.subs, id)
			close(ch)
		}
		seq := p.state.Sequence
		p.mu.Unlock()

		close(p.stopCh)
		p.cancel()
		<-p.loopDone

		p.logDebug("pipeline disposed", map[string]any{"sequence": seq})
	})
}

// loop is the owner goroutine: it turns quiet-timer expiries into dispatches
// and applies settled outcomes.
func (p *Pipeline[T]) loop() {
	defer close(p.loopDone)

	for {
		select {
		case <-p.stopCh:
			return
		case <-p.timer.C:
			p.dispatch()
		case o := <-p.outcomes:
			p.settle(o)
		}
	}
}

// dispatch starts a fetch for the pending text if the quiet period has
// really elapsed. A Submit that lands between the timer firing and this
// check pushes the deadline out and the timer fires again later.
func (p *Pipeline[T]) dispatch() {
	p.mu.Lock()
	if p.disposed || time.Now().Before(p.deadline) {
		p.mu.Unlock()
		return
	}
	seq := p.state.Sequence
	query := p.pending

	if strings.TrimSpace(query) == "" {
		p.state.Results = []T{}
		p.state.Ready = true
		p.publishLocked()
		p.mu.Unlock()

		p.cancelInflight()
		p.metrics.IncEmptyShortcut()
		p.logDebug("empty query answered locally", map[string]any{"sequence": seq})
		return
	}
	p.mu.Unlock()

	// Superseded fetches are cancelled; the sequence check alone keeps
	// their outcomes out of State.
	p.cancelInflight()

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if p.config.FetchTimeout > 0 {
		ctx, cancel = context.WithTimeout(p.ctx, p.config.FetchTimeout)
	} else {
		ctx, cancel = context.WithCancel(p.ctx)
	}
	p.inflight = cancel

	p.metrics.IncDispatch()
	p.logDebug("dispatching fetch", map[string]any{"sequence": seq, "query": query})

	go p.fetch(ctx, cancel, seq, query)
}

// fetch runs one Fetcher call and hands the outcome back to loop.
func (p *Pipeline[T]) fetch(ctx context.Context, cancel context.CancelFunc, seq uint64, query string) {
	defer cancel()

	started := time.Now()
	items, err := p.fetcher.Fetch(ctx, query)

	select {
	case p.outcomes <- outcome[T]{seq: seq, query: query, items: items, err: err, started: started}:
	case <-p.stopCh:
	}
}

// settle applies a fetch outcome if it still answers the latest submission.
func (p *Pipeline[T]) settle(o outcome[T]) {
	elapsed := time.Since(o.started)

	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return
	}

	latest := p.state.Sequence
	if o.seq != latest {
		p.mu.Unlock()
		if fetcher.IsCanceled(o.err) {
			p.metrics.IncFetchCanceled()
		} else {
			p.metrics.IncStaleDiscarded()
		}
		p.logDebug("discarding stale outcome", map[string]any{
			"sequence": o.seq,
			"latest":   latest,
			"query":    o.query,
		})
		return
	}

	if o.err != nil {
		p.mu.Unlock()
		if fetcher.IsCanceled(o.err) {
			p.metrics.IncFetchCanceled()
			return
		}
		p.fail(Failure{Sequence: o.seq, Query: o.query, Err: o.err}, elapsed)
		return
	}

	results := slices.Clone(o.items)
	if results == nil {
		results = []T{}
	}
	p.state.Results = results
	p.state.Ready = true
	p.publishLocked()
	p.mu.Unlock()

	p.metrics.IncFetchSuccess()
	p.logDebug("results accepted", map[string]any{
		"sequence":    o.seq,
		"query":       o.query,
		"results":     len(results),
		"duration_ms": elapsed.Milliseconds(),
	})
}

// fail routes a current-query failure to metrics, the logger and OnError.
// State is left as is: last good Results, Ready false.
func (p *Pipeline[T]) fail(f Failure, elapsed time.Duration) {
	kind := f.Kind()
	p.metrics.IncFetchFailure(kind)

	if p.logger != nil {
		p.logger.Warn("fetch failed", map[string]any{
			"sequence":    f.Sequence,
			"query":       f.Query,
			"kind":        kind,
			"error":       f.Err.Error(),
			"duration_ms": elapsed.Milliseconds(),
		})
	}

	if p.config.OnError != nil {
		p.config.OnError(f)
	}
}

func (p *Pipeline[T]) cancelInflight() {
	if p.inflight != nil {
		p.inflight()
		p.inflight = nil
	}
}

// snapshotLocked copies the state. Caller must hold mu.
func (p *Pipeline[T]) snapshotLocked() State[T] {
	s := p.state
	s.Results = slices.Clone(p.state.Results)
	if s.Results == nil {
		s.Results = []T{}
	}
	return s
}

func (p *Pipeline[T]) logDebug(message string, fields map[string]any) {
	if p.logger == nil {
		return
	}
	p.logger.Debug(message, fields)
}
