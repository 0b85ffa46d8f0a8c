// Package iox provides I/O helpers for resource cleanup.
package iox

import "io"

// drainLimit caps how much of an unread response body DrainClose will consume.
// Bodies larger than this are closed without draining and the connection is
// not reused.
const drainLimit = 64 * 1024

// DiscardClose closes c and discards the error.
// Use in defer statements where close errors are unactionable:
//
//	defer iox.DiscardClose(f)
func DiscardClose(c io.Closer) { _ = c.Close() }

// CloseFunc returns a cleanup function that closes c.
// Designed for t.Cleanup registration:
//
//	t.Cleanup(iox.CloseFunc(client))
func CloseFunc(c io.Closer) func() {
	return func() { _ = c.Close() }
}

// DrainClose reads what is left of rc (up to a small cap) and closes it.
// HTTP clients use it on response bodies so keep-alive connections can be reused:
//
//	defer iox.DrainClose(resp.Body)
func DrainClose(rc io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, drainLimit))
	_ = rc.Close()
}
