package runtime

import (
	"log/slog"

	"chat-core/domain/event"
	"chat-core/observability"
)

// Bus decouples mutations from live delivery. Publish never blocks: when
// the buffer is full the event is dropped and counted, never the caller
// stalled. Clients that miss an event reconcile by polling reads.
type Bus struct {
	ch      chan event.DomainEvent
	metrics *observability.Metrics
	log     *slog.Logger
}

func NewBus(bufferSize int, metrics *observability.Metrics, log *slog.Logger) *Bus {
	return &Bus{
		ch:      make(chan event.DomainEvent, bufferSize),
		metrics: metrics,
		log:     log,
	}
}

func (b *Bus) Publish(e event.DomainEvent) {
	select {
	case b.ch <- e:
		b.metrics.EventsPublished.WithLabelValues(string(e.EventKind())).Inc()
	default:
		b.metrics.EventsDropped.Inc()
		b.log.Warn("event bus full, dropping event", "kind", e.EventKind())
	}
}

// Events is consumed by the fanout worker.
func (b *Bus) Events() <-chan event.DomainEvent {
	return b.ch
}
