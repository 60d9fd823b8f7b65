// Package sse frames server-sent events. The wire format is the standard
// "event:/data:" framing; each event carries a JSON payload. Streams send a
// comment line every 25 seconds so idle connections survive proxies.
package sse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"trueconnect/internal/realtime"
)

const keepaliveInterval = 25 * time.Second

// Stream is one open event-stream response.
type Stream struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// Open prepares w for event streaming. It fails when the underlying writer
// cannot flush, which would buffer events indefinitely.
func Open(w http.ResponseWriter) (*Stream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("response writer does not support flushing")
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &Stream{w: w, flusher: flusher}, nil
}

// Send writes one named event with a pre-encoded payload.
func (s *Stream) Send(name string, data []byte) error {
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// SendSnapshot marshals v and sends it as a named event. Streams open with a
// snapshot so a reconnecting client starts from current state.
func (s *Stream) SendSnapshot(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Send(name, data)
}

func (s *Stream) keepalive() error {
	if _, err := fmt.Fprint(s.w, ": keepalive\n\n"); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Forward pumps events onto the stream until ctx ends, the source closes, or
// a write fails (client gone).
func Forward(ctx context.Context, stream *Stream, events <-chan realtime.Event) {
	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			if err := stream.Send(event.Kind, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := stream.keepalive(); err != nil {
				return
			}
		}
	}
}
