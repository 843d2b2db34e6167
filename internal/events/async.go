package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"localsphere/internal/observability/metrics"
	"localsphere/internal/observability/middleware"
)

var ErrQueueFull = errors.New("event queue full")

type queued struct {
	ev        Event
	requestID string
	traceID   string
}

// Async decouples callers that must not block on sinks. Publish only
// enqueues; Run drains the queue into next. A full queue drops the event.
type Async struct {
	next Publisher
	ch   chan queued
	once sync.Once
	done chan struct{}
}

func NewAsync(next Publisher, size int) *Async {
	if size <= 0 {
		size = 256
	}
	return &Async{next: next, ch: make(chan queued, size), done: make(chan struct{})}
}

func (a *Async) Publish(ctx context.Context, ev Event) error {
	item := queued{
		ev:        ev,
		requestID: middleware.RequestIDFromContext(ctx),
		traceID:   middleware.TraceIDFromContext(ctx),
	}
	select {
	case <-a.done:
		return ErrQueueFull
	default:
	}
	select {
	case a.ch <- item:
		return nil
	default:
		metrics.EventsPublishedTotal.WithLabelValues("queue", ev.Name, "dropped").Inc()
		slog.Warn("event dropped", "event", ev.Name, "request_id", item.requestID, "trace_id", item.traceID)
		return ErrQueueFull
	}
}

// Run forwards queued events until ctx is done, then flushes what is left
// with a detached context.
func (a *Async) Run(ctx context.Context) error {
	for {
		select {
		case item := <-a.ch:
			a.forward(ctx, item)
		case <-ctx.Done():
			a.once.Do(func() { close(a.done) })
			flush := context.WithoutCancel(ctx)
			for {
				select {
				case item := <-a.ch:
					a.forward(flush, item)
				default:
					return nil
				}
			}
		}
	}
}

func (a *Async) forward(ctx context.Context, item queued) {
	ctx = middleware.ContextWithIDs(ctx, item.requestID, item.traceID)
	if err := a.next.Publish(ctx, item.ev); err != nil {
		slog.Debug("async publish failed", "event", item.ev.Name, "error", err)
	}
}
