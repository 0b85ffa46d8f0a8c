// Package metrics provides per-session counters for the query pipeline.
//
// The Collector is a leaf package with no internal dependencies. Failure kinds
// are recorded as plain strings (see fetcher.KindName) to keep it that way.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all counters.
// Safe to read concurrently after creation.
type Snapshot struct {
	// Input side
	Submissions    int64
	Dispatches     int64
	EmptyShortcuts int64

	// Outcomes
	FetchSuccesses  int64
	FetchFailures   int64
	FailuresByKind  map[string]int64
	FetchCanceled   int64
	StaleDiscarded  int64
	StatesPublished int64

	// Ports
	FrameDecodeErrors int64
	RelayPublished    int64
	RelayFailed       int64

	// Dimensions (informational, set at construction)
	SessionID string
	Endpoint  string
}

// Coalesced returns how many submissions never produced their own dispatch.
// Empty-query shortcuts count as dispatches of their own.
func (s Snapshot) Coalesced() int64 {
	n := s.Submissions - s.Dispatches - s.EmptyShortcuts
	if n < 0 {
		return 0
	}
	return n
}

// Collector accumulates counters for one pipeline session.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	submissions    int64
	dispatches     int64
	emptyShortcuts int64

	fetchSuccesses  int64
	fetchFailures   int64
	failuresByKind  map[string]int64
	fetchCanceled   int64
	staleDiscarded  int64
	statesPublished int64

	frameDecodeErrors int64
	relayPublished    int64
	relayFailed       int64

	sessionID string
	endpoint  string
}

// NewCollector creates a Collector with dimension labels. Both are optional.
func NewCollector(sessionID, endpoint string) *Collector {
	return &Collector{
		failuresByKind: make(map[string]int64),
		sessionID:      sessionID,
		endpoint:       endpoint,
	}
}

// add increments a counter under the lock.
func (c *Collector) add(counter *int64) {
	c.mu.Lock()
	*counter++
	c.mu.Unlock()
}

// --- Input side ---

// IncSubmission records one raw text event.
func (c *Collector) IncSubmission() {
	if c == nil {
		return
	}
	c.add(&c.submissions)
}

// IncDispatch records one Fetcher invocation.
func (c *Collector) IncDispatch() {
	if c == nil {
		return
	}
	c.add(&c.dispatches)
}

// IncEmptyShortcut records a blank query answered without the Fetcher.
func (c *Collector) IncEmptyShortcut() {
	if c == nil {
		return
	}
	c.add(&c.emptyShortcuts)
}

// --- Outcomes ---

// IncFetchSuccess records an accepted successful fetch.
func (c *Collector) IncFetchSuccess() {
	if c == nil {
		return
	}
	c.add(&c.fetchSuccesses)
}

// IncFetchFailure records an accepted failed fetch, bucketed by kind.
func (c *Collector) IncFetchFailure(kind string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.fetchFailures++
	c.failuresByKind[kind]++
	c.mu.Unlock()
}

// IncFetchCanceled records a fetch whose context was cancelled before it settled.
func (c *Collector) IncFetchCanceled() {
	if c == nil {
		return
	}
	c.add(&c.fetchCanceled)
}

// IncStaleDiscarded records an outcome dropped because a newer query was submitted.
func (c *Collector) IncStaleDiscarded() {
	if c == nil {
		return
	}
	c.add(&c.staleDiscarded)
}

// IncStatePublished records one state fan-out to observers.
func (c *Collector) IncStatePublished() {
	if c == nil {
		return
	}
	c.add(&c.statesPublished)
}

// --- Ports ---

// IncFrameDecodeError records an inbound stdio frame that could not be decoded.
func (c *Collector) IncFrameDecodeError() {
	if c == nil {
		return
	}
	c.add(&c.frameDecodeErrors)
}

// IncRelayPublished records a results event delivered downstream.
func (c *Collector) IncRelayPublished() {
	if c == nil {
		return
	}
	c.add(&c.relayPublished)
}

// IncRelayFailed records a results event that could not be delivered.
func (c *Collector) IncRelayFailed() {
	if c == nil {
		return
	}
	c.add(&c.relayFailed)
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all counters.
// The Collector can continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	byKind := make(map[string]int64, len(c.failuresByKind))
	for k, v := range c.failuresByKind {
		byKind[k] = v
	}

	return Snapshot{
		Submissions:    c.submissions,
		Dispatches:     c.dispatches,
		EmptyShortcuts: c.emptyShortcuts,

		FetchSuccesses:  c.fetchSuccesses,
		FetchFailures:   c.fetchFailures,
		FailuresByKind:  byKind,
		FetchCanceled:   c.fetchCanceled,
		StaleDiscarded:  c.staleDiscarded,
		StatesPublished: c.statesPublished,

		FrameDecodeErrors: c.frameDecodeErrors,
		RelayPublished:    c.relayPublished,
		RelayFailed:       c.relayFailed,

		SessionID: c.sessionID,
		Endpoint:  c.endpoint,
	}
}
