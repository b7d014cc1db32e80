package stream

import (
	"encoding/json"
	"sync"
)

// Recorder is an in-memory Emitter used by the CLI and by tests.
type Recorder struct {
	*Stream

	mu     sync.Mutex
	events []Event
	closes int
}

// NewRecorder returns an empty, open recorder.
func NewRecorder() *Recorder {
	r := &Recorder{}
	r.Stream = New(func(ev Event) error {
		r.mu.Lock()
		r.events = append(r.events, ev)
		r.mu.Unlock()
		return nil
	}, func() {
		r.mu.Lock()
		r.closes++
		r.mu.Unlock()
	})
	return r
}

// Events returns a copy of everything emitted so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Kinds returns the kinds of the recorded events in order.
func (r *Recorder) Kinds() []Kind {
	evs := r.Events()
	out := make([]Kind, len(evs))
	for i, ev := range evs {
		out[i] = ev.Kind
	}
	return out
}

// CloseCount reports how many times the stream transitioned to closed.
func (r *Recorder) CloseCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closes
}

// Decode unmarshals the payload of the i-th event into v.
func (r *Recorder) Decode(i int, v any) error {
	return json.Unmarshal(r.Events()[i].Data, v)
}
