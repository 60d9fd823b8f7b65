package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"trueconnect/internal/profile"
)

// Broadcaster adapts the hub to the notifier seams the feature services
// expect. Publish failures are logged and swallowed: the database write has
// already settled, and a reconnecting subscriber receives a fresh snapshot
// anyway.
type Broadcaster struct {
	hub    *Hub
	logger *slog.Logger
}

func NewBroadcaster(hub *Hub, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{hub: hub, logger: logger}
}

// ProfileChanged publishes the changed profile's current state on its channel.
func (b *Broadcaster) ProfileChanged(ctx context.Context, p *profile.Profile) {
	payload, err := json.Marshal(p.ToView())
	if err != nil {
		b.logger.ErrorContext(ctx, "marshal profile event", "error", err)
		return
	}
	event := Event{
		Kind:      KindProfileUpdated,
		SubjectID: p.UserID.String(),
		Payload:   payload,
		At:        time.Now().UTC(),
	}
	if err := b.hub.Publish(ctx, ProfileChannel(p.UserID), event); err != nil {
		b.logger.WarnContext(ctx, "profile event publish failed",
			"user_id", p.UserID.String(), "error", err)
	}
}

// QueueChanged nudges admin queue subscribers to refetch.
func (b *Broadcaster) QueueChanged(ctx context.Context) {
	event := Event{Kind: KindQueueUpdated, At: time.Now().UTC()}
	if err := b.hub.Publish(ctx, QueueChannel, event); err != nil {
		b.logger.WarnContext(ctx, "queue event publish failed", "error", err)
	}
}
