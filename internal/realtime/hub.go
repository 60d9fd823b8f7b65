// Package realtime fans profile and queue changes out to connected clients.
// Every write publishes an event on a Redis channel; event-stream handlers
// subscribe and forward. Each document publishes on its own channel, which
// preserves per-document ordering; no ordering is promised across documents.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	id "trueconnect/pkg/domain"
)

// Event kinds.
const (
	KindProfileUpdated = "profile_updated"
	KindQueueUpdated   = "queue_updated"
)

// Event is one change notification. Payload carries the current state of the
// changed document, so a subscriber never has to read back on notify.
type Event struct {
	Kind      string          `json:"kind"`
	SubjectID string          `json:"subject_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	At        time.Time       `json:"at"`
}

// ProfileChannel names the per-user profile event channel.
func ProfileChannel(userID id.UserID) string {
	return "events:profile:" + userID.String()
}

// QueueChannel is the shared admin review-queue event channel.
const QueueChannel = "events:queue"

// Hub publishes and subscribes change events over Redis pub/sub.
type Hub struct {
	client *redis.Client
	logger *slog.Logger
}

func NewHub(client *redis.Client, logger *slog.Logger) *Hub {
	return &Hub{client: client, logger: logger}
}

// Publish sends an event on a channel. Publishing is fire-and-forget from
// the writer's perspective: a failure is logged and returned, but callers
// treat the underlying write as already settled.
func (h *Hub) Publish(ctx context.Context, channel string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := h.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Subscribe returns a channel of events and a cancel function. The channel
// closes when ctx ends or cancel is called; a slow consumer drops messages
// at the go-redis buffer rather than blocking publishers.
func (h *Hub) Subscribe(ctx context.Context, channel string) (<-chan Event, func()) {
	pubsub := h.client.Subscribe(ctx, channel)
	out := make(chan Event, 16)

	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				h.logger.WarnContext(ctx, "dropping malformed realtime event",
					"channel", channel, "error", err)
				continue
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() { _ = pubsub.Close() }
	return out, cancel
}
