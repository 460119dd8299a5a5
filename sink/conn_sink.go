package sink

import (
	"context"
	"fmt"

	"chat-core/domain/event"
)

// ErrBufferFull reports a connection whose write pump cannot keep up.
var ErrBufferFull = fmt.Errorf("connection sink buffer full")

// ConnSink buffers events for one live connection. Consume is called by
// the fanout worker; the connection's write pump drains Events. A full
// buffer means a lagging client: the event is dropped for this connection
// and the client reconciles by polling reads on reconnect.
type ConnSink struct {
	Events chan event.DomainEvent
}

func NewConnSink(bufferSize int) *ConnSink {
	return &ConnSink{Events: make(chan event.DomainEvent, bufferSize)}
}

func (s *ConnSink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrBufferFull
	}
}
