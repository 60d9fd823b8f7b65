package audit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	batches [][][]byte
	err     error
}

func (p *capturePublisher) Publish(ctx context.Context, payloads [][]byte) error {
	if p.err != nil {
		return p.err
	}
	p.batches = append(p.batches, payloads)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDrainPublishesAndMarks(t *testing.T) {
	store := NewInMemory()
	pub := &capturePublisher{}
	w := NewWorker(store, pub, time.Second, discardLogger(), nil)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, NewEvent(ActionSubmitted, "user-1")))
	require.NoError(t, store.Record(ctx, NewEvent(ActionApproved, "admin-1")))

	require.NoError(t, w.DrainOnce(ctx))
	require.Len(t, pub.batches, 1)
	assert.Len(t, pub.batches[0], 2)

	var first Event
	require.NoError(t, json.Unmarshal(pub.batches[0][0], &first))
	assert.Equal(t, ActionSubmitted, first.Action)
	assert.Equal(t, "user-1", first.ActorID)

	// A second drain finds nothing pending.
	require.NoError(t, w.DrainOnce(ctx))
	require.Len(t, pub.batches, 1)
	assert.Len(t, store.Published(), 2)
}

func TestDrainRetriesOnPublishFailure(t *testing.T) {
	store := NewInMemory()
	pub := &capturePublisher{err: errors.New("broker unavailable")}
	w := NewWorker(store, pub, time.Second, discardLogger(), nil)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, NewEvent(ActionSignIn, "user-1")))
	require.Error(t, w.DrainOnce(ctx))

	// Failure leaves the entry pending for the next tick.
	pub.err = nil
	require.NoError(t, w.DrainOnce(ctx))
	require.Len(t, pub.batches, 1)
	assert.Len(t, pub.batches[0], 1)
}

func TestDrainEmptyOutboxIsNoop(t *testing.T) {
	store := NewInMemory()
	pub := &capturePublisher{}
	w := NewWorker(store, pub, time.Second, discardLogger(), nil)

	require.NoError(t, w.DrainOnce(context.Background()))
	assert.Empty(t, pub.batches)
}
