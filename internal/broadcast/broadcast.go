// Package broadcast fans an admin-authored message out to the full user set
// through a bounded worker pool. Per-recipient failures are counted, never
// propagated: one dead chat must not stop delivery to the rest.
package broadcast

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/telegrab/telegrab/internal/metrics"
)

// TextSender delivers one text message to one identity.
type TextSender interface {
	SendText(ctx context.Context, id int64, text string) error
}

// Result reports the fan-out outcome.
type Result struct {
	Delivered int
	Total     int
}

// Dispatcher runs broadcasts over a fixed-size worker pool.
type Dispatcher struct {
	sender  TextSender
	workers int
	metrics *metrics.Metrics
	log     *zap.Logger
}

// NewDispatcher creates a dispatcher with the given pool size. metrics may
// be nil.
func NewDispatcher(sender TextSender, workers int, m *metrics.Metrics, log *zap.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{sender: sender, workers: workers, metrics: m, log: log}
}

// Broadcast delivers text to every recipient, at most `workers` sends in
// flight at once. It always returns a complete Result; there is no error
// path for the caller.
func (d *Dispatcher) Broadcast(ctx context.Context, recipients []int64, text string) Result {
	var delivered atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(d.workers)

	for _, id := range recipients {
		g.Go(func() error {
			if err := d.sender.SendText(ctx, id, text); err != nil {
				d.log.Warn("broadcast delivery failed",
					zap.Int64("recipient", id),
					zap.Error(err))
				if d.metrics != nil {
					d.metrics.BroadcastFailures.Inc()
				}
				return nil
			}
			delivered.Add(1)
			if d.metrics != nil {
				d.metrics.BroadcastsSent.Inc()
			}
			return nil
		})
	}
	_ = g.Wait()

	return Result{Delivered: int(delivered.Load()), Total: len(recipients)}
}
