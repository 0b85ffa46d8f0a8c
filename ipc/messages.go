package ipc

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/pithecene-io/lookahead/fetcher"
	"github.com/pithecene-io/lookahead/pipeline"
	"github.com/pithecene-io/lookahead/types"
)

// Frame type discriminants.
const (
	// TextChangedType carries new raw input from the client.
	TextChangedType = "text_changed"
	// CloseType asks the port to dispose the pipeline and exit.
	CloseType = "close"
	// StateType carries a pipeline snapshot to the client.
	StateType = "state"
	// FailureType reports a failed fetch for the current query.
	FailureType = "failure"
)

// TextChangedFrame is an inbound edit.
type TextChangedFrame struct {
	Type string `msgpack:"type"`
	Text string `msgpack:"text"`
}

// CloseFrame is an inbound shutdown request.
type CloseFrame struct {
	Type string `msgpack:"type"`
}

// StateFrame is an outbound pipeline snapshot.
type StateFrame struct {
	Type     string        `msgpack:"type"`
	Version  string        `msgpack:"version"`
	Sequence uint64        `msgpack:"sequence"`
	Ready    bool          `msgpack:"ready"`
	Query    string        `msgpack:"query"`
	Results  []types.Movie `msgpack:"results"`
}

// FailureFrame is an outbound failure report.
type FailureFrame struct {
	Type     string `msgpack:"type"`
	Sequence uint64 `msgpack:"sequence"`
	Query    string `msgpack:"query"`
	Kind     string `msgpack:"kind"`
	Message  string `msgpack:"message"`
}

// NewStateFrame converts a pipeline state to its wire form.
func NewStateFrame(s pipeline.State[types.Movie]) *StateFrame {
	results := s.Results
	if results == nil {
		results = []types.Movie{}
	}
	return &StateFrame{
		Type:     StateType,
		Version:  types.FrameVersion,
		Sequence: s.Sequence,
		Ready:    s.Ready,
		Query:    s.Query,
		Results:  results,
	}
}

// NewFailureFrame converts a pipeline failure to its wire form.
func NewFailureFrame(f pipeline.Failure) *FailureFrame {
	msg := ""
	if f.Err != nil {
		msg = f.Err.Error()
	}
	kind := f.Kind()
	if kind == "" {
		kind = fetcher.KindUnknown
	}
	return &FailureFrame{
		Type:     FailureType,
		Sequence: f.Sequence,
		Query:    f.Query,
		Kind:     kind,
		Message:  msg,
	}
}

// EncodeMessage marshals a frame value to msgpack.
func EncodeMessage(msg any) ([]byte, error) {
	payload, err := msgpack.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", msg, err)
	}
	return payload, nil
}

// frameTypeProbe is used to peek at the type field without full decode.
type frameTypeProbe struct {
	Type string `msgpack:"type"`
}

// DecodeFrame decodes a payload into one of the frame types, discriminated
// on the type field. Unknown types are decode errors, which are not fatal.
func DecodeFrame(payload []byte) (any, error) {
	var probe frameTypeProbe
	if err := msgpack.Unmarshal(payload, &probe); err != nil {
		return nil, &FrameError{
			Kind: FrameErrorDecode,
			Msg:  "failed to decode frame type",
			Err:  err,
		}
	}

	switch probe.Type {
	case TextChangedType:
		return decodeAs[TextChangedFrame](payload, "text_changed")
	case CloseType:
		return decodeAs[CloseFrame](payload, "close")
	case StateType:
		return decodeAs[StateFrame](payload, "state")
	case FailureType:
		return decodeAs[FailureFrame](payload, "failure")
	default:
		return nil, &FrameError{
			Kind: FrameErrorDecode,
			Msg:  fmt.Sprintf("unknown frame type %q", probe.Type),
		}
	}
}

func decodeAs[F any](payload []byte, name string) (*F, error) {
	var frame F
	if err := msgpack.Unmarshal(payload, &frame); err != nil {
		return nil, &FrameError{
			Kind: FrameErrorDecode,
			Msg:  "failed to decode " + name + " frame",
			Err:  err,
		}
	}
	return &frame, nil
}
