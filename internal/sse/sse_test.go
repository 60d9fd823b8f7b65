package sse

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"trueconnect/internal/realtime"
)

func TestOpenSetsStreamHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	_, err := Open(w)
	require.NoError(t, err)

	require.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	require.Equal(t, "no-cache", w.Header().Get("Cache-Control"))
	require.Equal(t, 200, w.Code)
}

func TestSendFramesEvent(t *testing.T) {
	w := httptest.NewRecorder()
	stream, err := Open(w)
	require.NoError(t, err)

	require.NoError(t, stream.Send("profile_updated", []byte(`{"status":"pending"}`)))

	body := w.Body.String()
	require.Contains(t, body, "event: profile_updated\n")
	require.Contains(t, body, `data: {"status":"pending"}`+"\n\n")
}

func TestSendSnapshotMarshalsPayload(t *testing.T) {
	w := httptest.NewRecorder()
	stream, err := Open(w)
	require.NoError(t, err)

	require.NoError(t, stream.SendSnapshot("queue_updated", map[string]int{"pending": 3}))
	require.Contains(t, w.Body.String(), `data: {"pending":3}`)
}

func TestForwardDeliversUntilSourceCloses(t *testing.T) {
	w := httptest.NewRecorder()
	stream, err := Open(w)
	require.NoError(t, err)

	events := make(chan realtime.Event, 2)
	payload, _ := json.Marshal(map[string]string{"status": "verified"})
	events <- realtime.Event{Kind: realtime.KindProfileUpdated, Payload: payload, At: time.Now()}
	events <- realtime.Event{Kind: realtime.KindQueueUpdated, At: time.Now()}
	close(events)

	Forward(context.Background(), stream, events)

	body := w.Body.String()
	require.Equal(t, 2, strings.Count(body, "event: "))
	require.Contains(t, body, "event: profile_updated\n")
	require.Contains(t, body, "event: queue_updated\n")
}

func TestForwardStopsOnContextCancel(t *testing.T) {
	w := httptest.NewRecorder()
	stream, err := Open(w)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		Forward(ctx, stream, make(chan realtime.Event))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("forward did not stop on cancelled context")
	}
}
