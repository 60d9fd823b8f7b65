package audit

import (
	"context"
	"log/slog"
	"time"

	"trueconnect/internal/platform/metrics"
)

const drainBatchSize = 100

// Worker drains the outbox to the publisher on an interval. Publish failures
// leave entries pending; the next tick retries them, so delivery is
// at-least-once and consumers must dedupe on event ID.
type Worker struct {
	store     Store
	publisher Publisher
	interval  time.Duration
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewWorker(store Store, publisher Publisher, interval time.Duration, logger *slog.Logger, m *metrics.Metrics) *Worker {
	return &Worker{
		store:     store,
		publisher: publisher,
		interval:  interval,
		logger:    logger,
		metrics:   m,
	}
}

// Run drains until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.DrainOnce(ctx); err != nil {
				w.logger.ErrorContext(ctx, "audit drain failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// DrainOnce publishes one batch of pending entries.
func (w *Worker) DrainOnce(ctx context.Context) error {
	entries, err := w.store.NextBatch(ctx, drainBatchSize)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	payloads := make([][]byte, len(entries))
	seqs := make([]int64, len(entries))
	for i, e := range entries {
		payloads[i] = e.Payload
		seqs[i] = e.Seq
	}

	if err := w.publisher.Publish(ctx, payloads); err != nil {
		return err
	}
	if err := w.store.MarkPublished(ctx, seqs); err != nil {
		return err
	}
	if w.metrics != nil {
		w.metrics.AuditEventsPublished.Add(float64(len(entries)))
	}
	return nil
}
