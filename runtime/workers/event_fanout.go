package workers

import (
	"context"
	"log/slog"
	"time"

	"chat-core/contract"
	"chat-core/domain/event"
	"chat-core/observability"
)

// EventFanout consumes the bus and delivers each event to the sinks the
// registry resolves for it.
//
// It provides best-effort fan-out with no guarantees regarding delivery,
// durability or retries: at most once per connection per event. Within one
// conversation, events reach each connection in publish order because a
// single fanout goroutine delivers sequentially. A slow or unresponsive
// sink times out and the event is dropped for that sink only.
type EventFanout struct {
	log             *slog.Logger
	events          <-chan event.DomainEvent
	registry        contract.IRegistry
	metrics         *observability.Metrics
	deliveryTimeout time.Duration
}

func NewEventFanout(
	log *slog.Logger,
	events <-chan event.DomainEvent,
	registry contract.IRegistry,
	metrics *observability.Metrics,
	deliveryTimeout time.Duration,
) *EventFanout {
	return &EventFanout{
		log:             log,
		events:          events,
		registry:        registry,
		metrics:         metrics,
		deliveryTimeout: deliveryTimeout,
	}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping fanout")
			return nil
		case evt, ok := <-w.events:
			if !ok {
				return nil
			}
			w.fanout(ctx, evt)
		}
	}
}

func (w *EventFanout) fanout(ctx context.Context, evt event.DomainEvent) {
	var sinks []contract.EventSink
	switch e := evt.(type) {
	case event.PresenceChanged:
		sinks = w.registry.SinksForPeersOf(e.UserID)
	case event.ConversationScoped:
		sinks = w.registry.SinksForConversation(e.ConversationID())
	default:
		w.log.Debug("event without a routing scope", "kind", evt.EventKind())
		return
	}

	for _, sink := range sinks {
		deliverCtx, cancel := context.WithTimeout(ctx, w.deliveryTimeout)
		err := sink.Consume(deliverCtx, evt)
		cancel()
		if err != nil {
			w.metrics.EventsDropped.Inc()
			w.log.Debug("event dropped for slow connection", "kind", evt.EventKind(), "error", err)
		}
	}
}
