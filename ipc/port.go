package ipc

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/pithecene-io/lookahead/log"
	"github.com/pithecene-io/lookahead/metrics"
	"github.com/pithecene-io/lookahead/pipeline"
	"github.com/pithecene-io/lookahead/types"
)

// failureBuffer bounds queued failure frames; older reports are dropped
// when the writer falls behind.
const failureBuffer = 16

// Port drives a pipeline from inbound frames and streams its states back.
type Port struct {
	input    io.Reader
	decoder  *FrameDecoder
	encoder  *FrameEncoder
	logger   *log.Logger
	metrics  *metrics.Collector
	failures chan pipeline.Failure
}

// NewPort creates a port reading frames from r and writing frames to w.
// logger and collector may be nil.
func NewPort(r io.Reader, w io.Writer, logger *log.Logger, collector *metrics.Collector) *Port {
	return &Port{
		input:    r,
		decoder:  NewFrameDecoder(r),
		encoder:  NewFrameEncoder(w),
		logger:   logger,
		metrics:  collector,
		failures: make(chan pipeline.Failure, failureBuffer),
	}
}

// ReportFailure queues a failure frame. It never blocks, so it can be used
// directly as pipeline.Config.OnError.
func (pt *Port) ReportFailure(f pipeline.Failure) {
	select {
	case pt.failures <- f:
	default:
		if pt.logger != nil {
			pt.logger.Warn("failure frame dropped", map[string]any{"sequence": f.Sequence})
		}
	}
}

// Serve runs until a close frame arrives, ctx is done, or a fatal frame or
// write error occurs. When the input ends cleanly Serve keeps writing until
// the latest submission has settled, either as a ready state or as a failure
// frame, so a host may send its last edit and close its end. A close frame or
// ctx ending stops at once and returns nil. Serve does not dispose p.
//
// Settling after end of input is only observed through ReportFailure, so it
// must be the pipeline's OnError sink.
//
// A blocked read can only be interrupted by closing the input, so when the
// input is an io.Closer Serve closes it on the way out.
func (pt *Port) Serve(ctx context.Context, p *pipeline.Pipeline[types.Movie]) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	inputDone := make(chan struct{})

	g.Go(func() error {
		eof, err := pt.readLoop(ctx, p)
		if eof {
			close(inputDone)
		} else {
			cancel()
		}
		return err
	})

	g.Go(func() error {
		defer cancel()
		return pt.writeLoop(ctx, p, inputDone)
	})

	if c, ok := pt.input.(io.Closer); ok {
		g.Go(func() error {
			<-ctx.Done()
			_ = c.Close()
			return nil
		})
	}

	return g.Wait()
}

// readLoop submits inbound edits. The bool reports a clean end of input, as
// opposed to a close frame or an error.
func (pt *Port) readLoop(ctx context.Context, p *pipeline.Pipeline[types.Movie]) (bool, error) {
	for {
		payload, err := pt.decoder.ReadFrame()
		if errors.Is(err, io.EOF) {
			return true, nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return false, nil
			}
			return false, fmt.Errorf("read frame: %w", err)
		}

		frame, err := DecodeFrame(payload)
		if err != nil {
			pt.metrics.IncFrameDecodeError()
			if pt.logger != nil {
				pt.logger.Warn("skipping undecodable frame", map[string]any{"error": err.Error()})
			}
			continue
		}

		switch f := frame.(type) {
		case *TextChangedFrame:
			p.Submit(f.Text)
		case *CloseFrame:
			return false, nil
		default:
			pt.metrics.IncFrameDecodeError()
			if pt.logger != nil {
				pt.logger.Warn("ignoring outbound frame type on input", map[string]any{"frame": fmt.Sprintf("%T", f)})
			}
		}
	}
}

// writeLoop streams states and failures until ctx is done, the pipeline is
// disposed, or the input has ended and the latest submission has settled.
func (pt *Port) writeLoop(ctx context.Context, p *pipeline.Pipeline[types.Movie], inputDone <-chan struct{}) error {
	states, unsubscribe := p.Subscribe()
	defer unsubscribe()

	var (
		written  pipeline.State[types.Movie]
		failed   uint64
		inputEnd = inputDone
		drained  bool
	)

	// settled compares against the live state: a Submit made just before the
	// input ended may not have reached states yet.
	settled := func() bool {
		cur := p.State()
		if cur.Sequence != written.Sequence {
			return false
		}
		return cur.Sequence == 0 || written.Ready || failed == cur.Sequence
	}

	for {
		if drained && settled() {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-inputEnd:
			drained = true
			inputEnd = nil
		case s, ok := <-states:
			if !ok {
				return nil
			}
			if err := pt.encoder.WriteMessage(NewStateFrame(s)); err != nil {
				return err
			}
			written = s
		case f := <-pt.failures:
			if err := pt.encoder.WriteMessage(NewFailureFrame(f)); err != nil {
				return err
			}
			failed = f.Sequence
		}
	}
}
