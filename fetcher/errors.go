package fetcher

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for fetch failure classification.
// Use errors.Is(err, ErrXxx) for typed assertions.
var (
	// ErrInvalidQuery indicates the query could not be turned into a request.
	// No network activity happened.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrTransport indicates a network failure or a non-200 status.
	ErrTransport = errors.New("transport failure")

	// ErrDecode indicates the response body did not match the expected shape.
	ErrDecode = errors.New("decode failure")
)

// Kind labels returned by KindName.
const (
	KindInvalidQuery = "invalid_query"
	KindTransport    = "transport"
	KindDecode       = "decode"
	KindCanceled     = "canceled"
	KindUnknown      = "unknown"
)

// Error wraps an underlying error with fetch classification.
// It preserves the original error in the chain for inspection via errors.As.
type Error struct {
	// Kind is the sentinel error for classification (e.g., ErrTransport).
	Kind error
	// Query is the raw query text that failed.
	Query string
	// Err is the underlying error.
	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch %q: %v", e.Query, e.Kind)
	}
	return fmt.Sprintf("fetch %q: %v: %v", e.Query, e.Kind, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As chain traversal.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the target sentinel.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Kind, target)
}

func newError(kind error, query string, err error) *Error {
	return &Error{Kind: kind, Query: query, Err: err}
}

// StatusError is the transport cause for any response status other than 200.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// IsCanceled reports whether err is a caller cancellation.
// Deadlines are not cancellations: a fetch that runs out of time is a
// transport failure.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// KindName returns a stable label for err, suitable for logs and metrics.
func KindName(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidQuery):
		return KindInvalidQuery
	case errors.Is(err, ErrTransport):
		return KindTransport
	case errors.Is(err, ErrDecode):
		return KindDecode
	case IsCanceled(err):
		return KindCanceled
	default:
		return KindUnknown
	}
}
