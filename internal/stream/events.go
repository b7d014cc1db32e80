// README: Lifecycle event stream; ordered, append-only sink closed exactly once after a terminal event.
package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"wondura/internal/metrics"
	"wondura/internal/types"
)

// Kind tags a lifecycle event.
type Kind string

const (
	KindStatus  Kind = "status"
	KindCard    Kind = "card"
	KindOptions Kind = "options"
	KindError   Kind = "error"
	KindDone    Kind = "done"
)

// Terminal reports whether an event of this kind ends the stream.
func (k Kind) Terminal() bool {
	return k == KindError || k == KindDone
}

// ErrClosed is returned by Emit once the stream has been closed or has carried its terminal event.
var ErrClosed = errors.New("stream: closed")

// StatusPayload reports progress. Tool and Routing are only set for the phases that have them.
type StatusPayload struct {
	Phase   string        `json:"phase"`
	Tool    string        `json:"tool,omitempty"`
	Routing types.Routing `json:"routing,omitempty"`
}

// ErrorPayload is the body of the terminal error event.
type ErrorPayload struct {
	Error string `json:"error"`
}

// OptionsPayload carries a ranked list on the combined pipeline stream.
type OptionsPayload struct {
	Routing      types.Routing                     `json:"routing"`
	Options      []types.OptionItem                `json:"options,omitempty"`
	Destinations []types.DestinationWithActivities `json:"destinations,omitempty"`
}

// Event is one serialized lifecycle event.
type Event struct {
	Kind Kind
	Data json.RawMessage
}

// Emitter is the append-only sink the planner writes to.
// After a terminal event (error or done) the stream is closed and further Emit calls return ErrClosed.
type Emitter interface {
	Emit(kind Kind, payload any) error
	// Close ends the stream without a terminal event. Calling it more than once is harmless.
	Close() error
}

// Stream enforces the ordering rules on top of a write function. It is safe for concurrent use.
type Stream struct {
	mu      sync.Mutex
	write   func(Event) error
	onClose func()
	closed  bool
}

// New wraps write. onClose, when non-nil, runs exactly once when the stream closes.
func New(write func(Event) error, onClose func()) *Stream {
	metrics.StreamsActive.Inc()
	return &Stream{write: write, onClose: onClose}
}

func (s *Stream) Emit(kind Kind, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	data, err := encode(payload)
	if err != nil {
		return err
	}
	werr := s.write(Event{Kind: kind, Data: data})
	if werr == nil {
		metrics.StreamEventsTotal.WithLabelValues(string(kind)).Inc()
	}
	if kind.Terminal() {
		s.closeLocked()
	}
	return werr
}

func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
	return nil
}

// Closed reports whether the stream has closed.
func (s *Stream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Stream) closeLocked() {
	if s.closed {
		return
	}
	s.closed = true
	metrics.StreamsActive.Dec()
	if s.onClose != nil {
		s.onClose()
	}
}

func encode(payload any) (json.RawMessage, error) {
	if payload == nil {
		return json.RawMessage(`{}`), nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("stream: encode payload: %w", err)
	}
	return data, nil
}
