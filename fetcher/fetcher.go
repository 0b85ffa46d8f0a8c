// Package fetcher defines the query → results capability used by the pipeline
// and provides an HTTP implementation against a movie search endpoint.
//
// A Fetcher makes exactly one outbound call per invocation, never retries and
// never caches. Cancellation is reported as the context error and never as a
// success.
package fetcher

import "context"

// Fetcher turns a query string into a result set.
type Fetcher[T any] interface {
	// Fetch returns the items matching query.
	// Errors are *Error values classified by ErrInvalidQuery, ErrTransport or
	// ErrDecode, or the context error if ctx was cancelled first.
	Fetch(ctx context.Context, query string) ([]T, error)
}

// Func adapts a plain function to the Fetcher interface.
type Func[T any] func(ctx context.Context, query string) ([]T, error)

// Fetch calls f.
func (f Func[T]) Fetch(ctx context.Context, query string) ([]T, error) {
	return f(ctx, query)
}
