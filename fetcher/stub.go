package fetcher

import (
	"context"
	"slices"
	"sync"
)

// StubResponse scripts the outcome of one stubbed fetch.
type StubResponse[T any] struct {
	// Items is returned on success.
	Items []T
	// Err is returned instead of Items when set.
	Err error
	// Gate, when non-nil, holds the fetch until it is closed or receives.
	Gate <-chan struct{}
	// IgnoreCancel keeps a gated fetch waiting even after ctx is cancelled,
	// so a superseded fetch can still settle late with a success.
	IgnoreCancel bool
}

// StubFetcher is a scripted Fetcher for tests.
// Responses are looked up by exact query text, falling back to a default.
type StubFetcher[T any] struct {
	mu        sync.Mutex
	responses map[string]StubResponse[T]
	fallback  StubResponse[T]
	calls     []string
	called    chan string
}

// NewStubFetcher creates a stub that returns no items for any query.
func NewStubFetcher[T any]() *StubFetcher[T] {
	return &StubFetcher[T]{
		responses: make(map[string]StubResponse[T]),
		called:    make(chan string, 256),
	}
}

// On scripts the response for an exact query.
func (s *StubFetcher[T]) On(query string, resp StubResponse[T]) *StubFetcher[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[query] = resp
	return s
}

// Default scripts the response for queries without their own entry.
func (s *StubFetcher[T]) Default(resp StubResponse[T]) *StubFetcher[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback = resp
	return s
}

// Fetch records the call and plays back the scripted response.
func (s *StubFetcher[T]) Fetch(ctx context.Context, query string) ([]T, error) {
	s.mu.Lock()
	s.calls = append(s.calls, query)
	resp, ok := s.responses[query]
	if !ok {
		resp = s.fallback
	}
	s.mu.Unlock()

	select {
	case s.called <- query:
	default:
	}

	if resp.Gate != nil {
		if resp.IgnoreCancel {
			<-resp.Gate
		} else {
			select {
			case <-resp.Gate:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	if resp.Err != nil {
		return nil, resp.Err
	}
	return slices.Clone(resp.Items), nil
}

// Calls returns every query passed to Fetch, in call order.
func (s *StubFetcher[T]) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

// Called delivers each query as Fetch is entered. Buffered; sends never block.
func (s *StubFetcher[T]) Called() <-chan string {
	return s.called
}

// Verify StubFetcher implements the Fetcher interface.
var _ Fetcher[int] = (*StubFetcher[int])(nil)
