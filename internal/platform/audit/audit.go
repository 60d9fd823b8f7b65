// Package audit records who did what to whom. Events are appended to an
// outbox in the same transaction as the change they describe and drained to
// the broker by a background worker, so a crash never loses an event that
// committed nor publishes one that rolled back.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Actions recorded by this service.
const (
	ActionSignUp    = "auth.signup"
	ActionSignIn    = "auth.signin"
	ActionSignOut   = "auth.signout"
	ActionSubmitted = "verification.submitted"
	ActionApproved  = "verification.approved"
	ActionRejected  = "verification.rejected"
)

// Event is a single audit record.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Action    string    `json:"action"`
	ActorID   string    `json:"actor_id"`
	SubjectID string    `json:"subject_id,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Recorder is what feature services depend on.
type Recorder interface {
	Record(ctx context.Context, event Event) error
}

// OutboxEntry is an event waiting to be published.
type OutboxEntry struct {
	Seq     int64
	Payload []byte
}

// Store persists events to the outbox and hands them to the worker.
type Store interface {
	Recorder
	// NextBatch returns up to limit unpublished entries in append order.
	NextBatch(ctx context.Context, limit int) ([]OutboxEntry, error)
	// MarkPublished removes published entries from the pending set.
	MarkPublished(ctx context.Context, seqs []int64) error
}

// Publisher delivers event payloads to the audit stream.
type Publisher interface {
	Publish(ctx context.Context, payloads [][]byte) error
}

// NewEvent fills in the generated fields of an event.
func NewEvent(action, actorID string) Event {
	return Event{
		ID:        uuid.New(),
		Action:    action,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
	}
}
