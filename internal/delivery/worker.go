// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package delivery

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Worker consumes the delivery queue with a fixed number of consumers.
type Worker struct {
	queue      Queue
	deliverer  *Deliverer
	consumers  int
	staleAfter time.Duration
	backoff    time.Duration

	// sweepEvery is how often stale sent records are failed while running.
	sweepEvery time.Duration
}

// NewWorker creates a worker. Records stuck in sent for longer than
// staleAfter are failed on start and then periodically, so they can be
// retried.
func NewWorker(queue Queue, deliverer *Deliverer, consumers int, staleAfter time.Duration) *Worker {
	if consumers < 1 {
		consumers = 1
	}
	return &Worker{
		queue:      queue,
		deliverer:  deliverer,
		consumers:  consumers,
		staleAfter: staleAfter,
		backoff:    time.Second,
		sweepEvery: time.Minute,
	}
}

// SetSweepInterval changes how often stale records are swept while running.
func (w *Worker) SetSweepInterval(d time.Duration) {
	if d > 0 {
		w.sweepEvery = d
	}
}

// Run sweeps leftover records, then consumes until ctx is cancelled.
// Cancellation is a clean stop and returns nil.
func (w *Worker) Run(ctx context.Context) error {
	w.sweep(ctx)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < w.consumers; i++ {
		i := i
		g.Go(func() error {
			return w.consume(gctx, i)
		})
	}
	if w.staleAfter > 0 {
		g.Go(func() error {
			return w.sweepStale(gctx)
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		slog.Info("delivery worker stopped")
		return nil
	}
	return err
}

// sweep re-enqueues pending records (an enqueue may have failed, or the
// queue was flushed) and fails stale sent ones.
func (w *Worker) sweep(ctx context.Context) {
	if w.staleAfter > 0 {
		n, err := w.deliverer.RecoverStale(ctx, w.staleAfter)
		if err != nil {
			slog.Warn("stale delivery sweep failed", "error", err)
		} else if n > 0 {
			slog.Info("stale deliveries failed", "count", n)
		}
	}

	ids, err := w.deliverer.PendingIDs(ctx)
	if err != nil {
		slog.Warn("pending delivery sweep failed", "error", err)
		return
	}
	for _, id := range ids {
		if err := w.queue.Enqueue(ctx, id); err != nil {
			slog.Warn("re-enqueue failed", "execution_id", id, "error", err)
		}
	}
	if len(ids) > 0 {
		slog.Info("pending deliveries re-enqueued", "count", len(ids))
	}
}

// sweepStale fails records left in sent, for example after an outcome
// write that kept failing, until ctx is done.
func (w *Worker) sweepStale(ctx context.Context) error {
	ticker := time.NewTicker(w.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		n, err := w.deliverer.RecoverStale(ctx, w.staleAfter)
		if err != nil {
			slog.Warn("stale delivery sweep failed", "error", err)
			continue
		}
		if n > 0 {
			slog.Info("stale deliveries failed", "count", n)
		}
	}
}

func (w *Worker) consume(ctx context.Context, n int) error {
	log := slog.With("consumer", n)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		id, err := w.queue.Pop(ctx)
		if errors.Is(err, ErrQueueEmpty) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn("queue pop error, retrying", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.backoff):
			}
			continue
		}

		start := time.Now()
		if err := w.deliverer.Deliver(ctx, id); err != nil {
			log.Error("delivery failed", "execution_id", id, "error", err,
				"duration_ms", time.Since(start).Milliseconds())
			continue
		}
		log.Debug("delivery processed", "execution_id", id,
			"duration_ms", time.Since(start).Milliseconds())
	}
}
