package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AsyncPublisher hands events to a channel so slow sinks (Kafka) never sit on
// the request path. Pair it with a Worker draining into the real store.
type AsyncPublisher struct {
	inbox chan<- Event
}

// NewAsync builds a channel-backed publisher and its worker. Run the worker
// in a goroutine for the life of the process.
func NewAsync(store Store, buffer int) (*AsyncPublisher, *Worker) {
	inbox := make(chan Event, buffer)
	return &AsyncPublisher{inbox: inbox}, &Worker{store: store, inbox: inbox}
}

// Emit enqueues the event. A full buffer drops the event rather than stalling
// the caller; audit is best-effort on this path.
func (p *AsyncPublisher) Emit(ctx context.Context, base Event) error {
	if base.ID == "" {
		base.ID = uuid.NewString()
	}
	if base.Timestamp.IsZero() {
		base.Timestamp = time.Now()
	}
	select {
	case p.inbox <- base:
	default:
	}
	return nil
}

// Worker consumes audit events from a channel and persists them. It keeps
// background processing testable without wiring queue implementations into
// the services.
type Worker struct {
	store Store
	inbox <-chan Event
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				return err
			}
		}
	}
}
