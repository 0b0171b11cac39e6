// Package audit forwards booking mutation events to an external activity log
// without ever blocking or failing the mutation that produced them.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"gymsched/internal/store"
)

const defaultBuffer = 256

// Sink is the external log collaborator. Deliveries that fail are logged and
// dropped; they never reach the mutation caller.
type Sink interface {
	Deliver(ctx context.Context, ev store.AuditEvent) error
}

// Recorder decouples mutation commits from event delivery through a buffered
// channel. When the buffer is full the event is dropped with a warning
// rather than stalling the store.
type Recorder struct {
	ch   chan store.AuditEvent
	sink Sink
	log  *slog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

func NewRecorder(sink Sink, buffer int, log *slog.Logger) *Recorder {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	if log == nil {
		log = slog.Default()
	}
	r := &Recorder{
		ch:   make(chan store.AuditEvent, buffer),
		sink: sink,
		log:  log.With(slog.String("component", "audit")),
		done: make(chan struct{}),
	}
	go r.run()
	return r
}

// Record implements store.AuditSink. It never blocks.
func (r *Recorder) Record(ctx context.Context, ev store.AuditEvent) {
	select {
	case r.ch <- ev:
	default:
		r.log.Warn("audit buffer full, event dropped",
			slog.String("action", ev.Action),
			slog.String("entity_id", ev.EntityID.String()),
		)
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for ev := range r.ch {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := r.sink.Deliver(ctx, ev); err != nil {
			r.log.Warn("audit delivery failed",
				slog.Any("err", err),
				slog.String("action", ev.Action),
				slog.String("entity_id", ev.EntityID.String()),
			)
		}
		cancel()
	}
}

// Close stops accepting events and drains the buffer, bounded by ctx.
func (r *Recorder) Close(ctx context.Context) error {
	r.closeOnce.Do(func() { close(r.ch) })
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogSink writes audit events to the structured log. It stands in for the
// dashboard's activity feed when no external sink is wired.
type LogSink struct {
	Log *slog.Logger
}

func (s LogSink) Deliver(ctx context.Context, ev store.AuditEvent) error {
	log := s.Log
	if log == nil {
		log = slog.Default()
	}
	log.Info("activity",
		slog.String("actor_id", ev.ActorID),
		slog.String("action", ev.Action),
		slog.String("entity_type", ev.EntityType),
		slog.String("entity_id", ev.EntityID.String()),
		slog.String("summary", ev.Summary),
		slog.Time("timestamp", ev.Timestamp),
	)
	return nil
}
