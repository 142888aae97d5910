// Package worker runs the asynchronous side of cache coherence: it consumes
// mutation messages from the broker and replays them into a coherence
// coordinator. Deployments with a shared Redis cache run the worker next to
// the API so invalidations reach every replica.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"treasury/internal/amqp"
	"treasury/internal/core"
)

// Invalidator is the coordinator contract the worker drives.
type Invalidator interface {
	LedgerMutated(ctx context.Context, m core.Mutation) error
}

// InvalidationWorker applies queued mutation messages to the view cache.
type InvalidationWorker struct {
	coordinator Invalidator
	staleness   time.Duration
}

// NewInvalidationWorker wires a worker to a coordinator. Messages older
// than maxStaleness are applied but logged, since the views they cover may
// have been stale for that long.
func NewInvalidationWorker(coordinator Invalidator, maxStaleness time.Duration) *InvalidationWorker {
	return &InvalidationWorker{coordinator: coordinator, staleness: maxStaleness}
}

// HandleMutationMessage processes one queued mutation. Unknown mutation
// kinds are dropped rather than requeued; retrying cannot fix them.
func (w *InvalidationWorker) HandleMutationMessage(ctx context.Context, msg *amqp.MutationMessage) error {
	if !msg.Mutation.Valid() {
		slog.WarnContext(ctx, "Dropping message with unknown mutation", "mutation", msg.Mutation)
		return nil
	}
	if w.staleness > 0 && time.Since(msg.Timestamp) > w.staleness {
		slog.WarnContext(ctx, "Applying late mutation message",
			"mutation", msg.Mutation,
			"age", time.Since(msg.Timestamp))
	}

	if err := w.coordinator.LedgerMutated(ctx, msg.Mutation); err != nil {
		return fmt.Errorf("invalidate views for %q: %w", msg.Mutation, err)
	}

	slog.DebugContext(ctx, "Applied mutation message", "mutation", msg.Mutation)
	return nil
}

// Run consumes the mutation queue until the context ends.
func (w *InvalidationWorker) Run(ctx context.Context, client *amqp.Client) error {
	return client.ConsumeMutations(ctx, func(msg *amqp.MutationMessage) error {
		return w.HandleMutationMessage(ctx, msg)
	})
}
