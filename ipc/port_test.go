package ipc

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/pithecene-io/lookahead/fetcher"
	"github.com/pithecene-io/lookahead/metrics"
	"github.com/pithecene-io/lookahead/pipeline"
	"github.com/pithecene-io/lookahead/types"
)

// portHarness wires a Port to in-memory pipes.
type portHarness struct {
	port     *Port
	pipeline *pipeline.Pipeline[types.Movie]
	metrics  *metrics.Collector
	in       *io.PipeWriter
	out      chan any
	served   chan error
}

func newPortHarness(t *testing.T, f fetcher.Fetcher[types.Movie]) *portHarness {
	t.Helper()

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	m := metrics.NewCollector("sess", "")

	port := NewPort(inR, outW, nil, m)
	p, err := pipeline.New(f, pipeline.Config{
		QuietPeriod: 20 * time.Millisecond,
		Metrics:     m,
		OnError:     port.ReportFailure,
	})
	if err != nil {
		t.Fatalf("pipeline.New failed: %v", err)
	}

	h := &portHarness{
		port:     port,
		pipeline: p,
		metrics:  m,
		in:       inW,
		out:      make(chan any, 64),
		served:   make(chan error, 1),
	}

	go func() {
		decoder := NewFrameDecoder(outR)
		for {
			payload, err := decoder.ReadFrame()
			if err != nil {
				close(h.out)
				return
			}
			frame, err := DecodeFrame(payload)
			if err != nil {
				continue
			}
			h.out <- frame
		}
	}()

	go func() { h.served <- port.Serve(t.Context(), p) }()

	t.Cleanup(func() {
		_ = inW.Close()
		p.Dispose()
		_ = outW.Close()
	})
	return h
}

func (h *portHarness) send(t *testing.T, msg any) {
	t.Helper()
	payload, err := EncodeMessage(msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := h.in.Write(encodeFrame(payload)); err != nil {
		t.Fatalf("write input: %v", err)
	}
}

func (h *portHarness) sendRaw(t *testing.T, b []byte) {
	t.Helper()
	if _, err := h.in.Write(b); err != nil {
		t.Fatalf("write input: %v", err)
	}
}

// await reads outbound frames until pred matches.
func (h *portHarness) await(t *testing.T, pred func(any) bool) any {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case frame, ok := <-h.out:
			if !ok {
				t.Fatal("output closed before expected frame")
			}
			if pred(frame) {
				return frame
			}
		case <-timeout:
			t.Fatal("timed out waiting for frame")
		}
	}
}

func (h *portHarness) awaitServe(t *testing.T) error {
	t.Helper()
	select {
	case err := <-h.served:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
		return nil
	}
}

func readyState(query string) func(any) bool {
	return func(frame any) bool {
		sf, ok := frame.(*StateFrame)
		return ok && sf.Ready && sf.Query == query
	}
}

func TestPort_TextChangedProducesReadyState(t *testing.T) {
	stub := fetcher.NewStubFetcher[types.Movie]().
		On("batman", fetcher.StubResponse[types.Movie]{Items: []types.Movie{{ID: 272, Title: "Batman Begins"}}})
	h := newPortHarness(t, stub)

	// Initial snapshot arrives before any input.
	h.await(t, func(frame any) bool {
		sf, ok := frame.(*StateFrame)
		return ok && sf.Sequence == 0
	})

	for _, text := range []string{"b", "bat", "batman"} {
		h.send(t, &TextChangedFrame{Type: TextChangedType, Text: text})
	}

	sf := h.await(t, readyState("batman")).(*StateFrame)
	if sf.Sequence != 3 || len(sf.Results) != 1 || sf.Results[0].Title != "Batman Begins" {
		t.Errorf("unexpected state frame: %+v", sf)
	}

	h.send(t, &CloseFrame{Type: CloseType})
	if err := h.awaitServe(t); err != nil {
		t.Errorf("Serve returned %v, want nil", err)
	}
}

func TestPort_FailureFrame(t *testing.T) {
	stub := fetcher.NewStubFetcher[types.Movie]().
		Default(fetcher.StubResponse[types.Movie]{Err: &fetcher.Error{Kind: fetcher.ErrDecode, Query: "x"}})
	h := newPortHarness(t, stub)

	h.send(t, &TextChangedFrame{Type: TextChangedType, Text: "x"})

	ff := h.await(t, func(frame any) bool {
		_, ok := frame.(*FailureFrame)
		return ok
	}).(*FailureFrame)
	if ff.Kind != fetcher.KindDecode || ff.Sequence != 1 || ff.Query != "x" {
		t.Errorf("unexpected failure frame: %+v", ff)
	}
}

func TestPort_SkipsUndecodableFrames(t *testing.T) {
	stub := fetcher.NewStubFetcher[types.Movie]().Default(fetcher.StubResponse[types.Movie]{Items: []types.Movie{}})
	h := newPortHarness(t, stub)

	h.sendRaw(t, encodeFrame([]byte{0xFF, 0xFF}))
	h.send(t, map[string]any{"type": "resize"})
	h.send(t, &StateFrame{Type: StateType})
	h.send(t, &TextChangedFrame{Type: TextChangedType, Text: "ok"})

	h.await(t, readyState("ok"))
	if got := h.metrics.Snapshot().FrameDecodeErrors; got != 3 {
		t.Errorf("FrameDecodeErrors = %d, want 3", got)
	}
}

func TestPort_EOFEndsCleanly(t *testing.T) {
	h := newPortHarness(t, fetcher.NewStubFetcher[types.Movie]())

	_ = h.in.Close()
	if err := h.awaitServe(t); err != nil {
		t.Errorf("Serve returned %v, want nil", err)
	}
}

func TestPort_EOFWaitsForLastSubmissionToSettle(t *testing.T) {
	stub := fetcher.NewStubFetcher[types.Movie]().
		On("batman", fetcher.StubResponse[types.Movie]{Items: []types.Movie{{ID: 272, Title: "Batman Begins"}}})
	h := newPortHarness(t, stub)

	h.send(t, &TextChangedFrame{Type: TextChangedType, Text: "bat"})
	h.send(t, &TextChangedFrame{Type: TextChangedType, Text: "batman"})
	_ = h.in.Close()

	sf := h.await(t, readyState("batman")).(*StateFrame)
	if len(sf.Results) != 1 || sf.Results[0].Title != "Batman Begins" {
		t.Errorf("unexpected state frame: %+v", sf)
	}
	if err := h.awaitServe(t); err != nil {
		t.Errorf("Serve returned %v, want nil", err)
	}
}

func TestPort_EOFWaitsForFailureFrame(t *testing.T) {
	stub := fetcher.NewStubFetcher[types.Movie]().
		Default(fetcher.StubResponse[types.Movie]{Err: &fetcher.Error{Kind: fetcher.ErrTransport, Query: "x"}})
	h := newPortHarness(t, stub)

	h.send(t, &TextChangedFrame{Type: TextChangedType, Text: "x"})
	_ = h.in.Close()

	ff := h.await(t, func(frame any) bool {
		_, ok := frame.(*FailureFrame)
		return ok
	}).(*FailureFrame)
	if ff.Sequence != 1 || ff.Kind != fetcher.KindTransport {
		t.Errorf("unexpected failure frame: %+v", ff)
	}
	if err := h.awaitServe(t); err != nil {
		t.Errorf("Serve returned %v, want nil", err)
	}
}

func TestPort_PartialFrameIsFatal(t *testing.T) {
	h := newPortHarness(t, fetcher.NewStubFetcher[types.Movie]())

	h.sendRaw(t, []byte{0x00, 0x00, 0x00, 0x10, 0x01})
	_ = h.in.Close()

	err := h.awaitServe(t)
	if !IsFatalFrameError(err) {
		t.Errorf("expected fatal frame error, got %v", err)
	}
}

func TestPort_ContextCancelStopsServe(t *testing.T) {
	stub := fetcher.NewStubFetcher[types.Movie]()
	inR, inW := io.Pipe()
	defer func() { _ = inW.Close() }()

	p, err := pipeline.New[types.Movie](stub, pipeline.Config{})
	if err != nil {
		t.Fatalf("pipeline.New failed: %v", err)
	}
	defer p.Dispose()

	port := NewPort(inR, io.Discard, nil, nil)
	ctx, cancel := context.WithCancel(t.Context())
	served := make(chan error, 1)
	go func() { served <- port.Serve(ctx, p) }()

	// The reader is blocked on input that never arrives; Serve must close
	// it rather than wait.
	cancel()

	select {
	case err := <-served:
		if err != nil {
			t.Errorf("Serve returned %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
