// Package watcher periodically compares the pending verification count to
// the last observed value and fires an alert callback only when the count
// rises. Drops and steady states are suppressed so a long queue does not
// re-alert on every tick.
package watcher

import (
	"context"
	"log/slog"
	"time"
)

// Counter reports the current number of pending verification requests.
type Counter interface {
	PendingCount(ctx context.Context) (int, error)
}

// AlertFunc receives the new pending count when it rises above the last
// observed value.
type AlertFunc func(ctx context.Context, count int)

type Watcher struct {
	counter  Counter
	interval time.Duration
	onRise   AlertFunc
	last     int
}

func New(counter Counter, interval time.Duration, onRise AlertFunc) *Watcher {
	return &Watcher{counter: counter, interval: interval, onRise: onRise}
}

// Run polls until the context is cancelled. The first observation seeds the
// baseline without alerting, so restarting the admin process with a backlog
// already present stays quiet. Poll errors are logged and the last observed
// value is kept.
func (w *Watcher) Run(ctx context.Context) {
	if count, err := w.counter.PendingCount(ctx); err == nil {
		w.last = count
	} else {
		slog.Error("pending count poll failed", "err", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Watcher) tick(ctx context.Context) {
	count, err := w.counter.PendingCount(ctx)
	if err != nil {
		slog.Error("pending count poll failed", "err", err)
		return
	}
	if count > w.last {
		slog.Warn("pending verifications increased", "from", w.last, "to", count)
		if w.onRise != nil {
			w.onRise(ctx, count)
		}
	}
	w.last = count
}
