package stream

import (
	"fmt"
	"io"
	"net/http"
)

// SetSSEHeaders prepares w for an event stream. It must run before the first write.
func SetSSEHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}

// NewSSE returns a Stream that frames each event as "event: <kind>\ndata: <json>\n\n" on w,
// flushing after every event when w supports it.
func NewSSE(w io.Writer) *Stream {
	flusher, _ := w.(http.Flusher)
	return New(func(ev Event) error {
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, ev.Data); err != nil {
			return fmt.Errorf("stream: write %s event: %w", ev.Kind, err)
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	}, nil)
}
