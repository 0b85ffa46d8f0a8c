package iox

import (
	"errors"
	"strings"
	"testing"
)

type spyCloser struct{ closed bool }

func (s *spyCloser) Close() error { s.closed = true; return errors.New("ignored") }

type spyReadCloser struct {
	*strings.Reader
	closed bool
}

func (s *spyReadCloser) Close() error { s.closed = true; return nil }

func TestDiscardClose(t *testing.T) {
	s := &spyCloser{}
	DiscardClose(s)
	if !s.closed {
		t.Fatal("Close was not called")
	}
}

func TestCloseFunc(t *testing.T) {
	s := &spyCloser{}
	fn := CloseFunc(s)
	if s.closed {
		t.Fatal("Close called before invoking returned func")
	}
	fn()
	if !s.closed {
		t.Fatal("Close was not called")
	}
}

func TestDrainClose_ConsumesRemainder(t *testing.T) {
	rc := &spyReadCloser{Reader: strings.NewReader("leftover body")}
	DrainClose(rc)
	if !rc.closed {
		t.Fatal("Close was not called")
	}
	if rc.Len() != 0 {
		t.Errorf("expected body drained, %d bytes left", rc.Len())
	}
}

func TestDrainClose_StopsAtLimit(t *testing.T) {
	rc := &spyReadCloser{Reader: strings.NewReader(strings.Repeat("x", drainLimit+10))}
	DrainClose(rc)
	if !rc.closed {
		t.Fatal("Close was not called")
	}
	if rc.Len() != 10 {
		t.Errorf("expected 10 bytes left past the drain limit, got %d", rc.Len())
	}
}
