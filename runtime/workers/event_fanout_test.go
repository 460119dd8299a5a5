package workers

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"chat-core/domain"
	"chat-core/domain/event"
	"chat-core/observability"
	"chat-core/runtime"
	"chat-core/sink"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type failingSink struct{}

func (failingSink) Consume(context.Context, event.DomainEvent) error {
	return fmt.Errorf("connection gone")
}

func newFanout(t *testing.T, events <-chan event.DomainEvent, registry *runtime.Registry) *EventFanout {
	t.Helper()
	return NewEventFanout(slog.Default(), events, registry, observability.NewMetrics(), time.Second)
}

func messageEvent(conversationID uuid.UUID, content string) event.MessageCreated {
	return event.MessageCreated{Message: domain.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       "alice",
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}}
}

func Test_Fanout_Routes_Conversation_Events_To_Members_Only(t *testing.T) {
	req := require.New(t)
	registry := runtime.NewRegistry()
	conv := uuid.New()

	member := sink.NewConnSink(8)
	outsider := sink.NewConnSink(8)
	registry.Subscribe("conn-bob", "bob", []uuid.UUID{conv}, member)
	registry.Subscribe("conn-dave", "dave", []uuid.UUID{uuid.New()}, outsider)

	events := make(chan event.DomainEvent, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = newFanout(t, events, registry).Run(ctx)
	}()

	events <- messageEvent(conv, "hi")
	select {
	case e := <-member.Events:
		req.Equal("hi", e.(event.MessageCreated).Message.Content)
	case <-time.After(time.Second):
		t.Fatal("member never received the event")
	}
	req.Empty(outsider.Events)

	cancel()
	<-done
}

func Test_Fanout_Preserves_Publish_Order_Per_Connection(t *testing.T) {
	req := require.New(t)
	registry := runtime.NewRegistry()
	conv := uuid.New()

	connSink := sink.NewConnSink(16)
	registry.Subscribe("conn-bob", "bob", []uuid.UUID{conv}, connSink)

	events := make(chan event.DomainEvent, 16)
	for i := 0; i < 10; i++ {
		events <- messageEvent(conv, fmt.Sprintf("m%d", i))
	}
	close(events)
	req.NoError(newFanout(t, events, registry).Run(context.Background()))

	for i := 0; i < 10; i++ {
		e := <-connSink.Events
		req.Equal(fmt.Sprintf("m%d", i), e.(event.MessageCreated).Message.Content)
	}
}

func Test_Fanout_Routes_Presence_To_Peers(t *testing.T) {
	req := require.New(t)
	registry := runtime.NewRegistry()
	conv := uuid.New()

	peer := sink.NewConnSink(8)
	stranger := sink.NewConnSink(8)
	registry.Subscribe("conn-alice", "alice", []uuid.UUID{conv}, sink.NewConnSink(8))
	registry.Subscribe("conn-bob", "bob", []uuid.UUID{conv}, peer)
	registry.Subscribe("conn-dave", "dave", []uuid.UUID{uuid.New()}, stranger)

	events := make(chan event.DomainEvent, 1)
	events <- event.PresenceChanged{UserID: "alice", Online: true}
	close(events)
	req.NoError(newFanout(t, events, registry).Run(context.Background()))

	req.Len(peer.Events, 1)
	req.Empty(stranger.Events)
}

func Test_Fanout_Drops_For_Failing_Sink_Only(t *testing.T) {
	req := require.New(t)
	registry := runtime.NewRegistry()
	conv := uuid.New()

	healthy := sink.NewConnSink(8)
	registry.Subscribe("conn-bad", "bob", []uuid.UUID{conv}, failingSink{})
	registry.Subscribe("conn-good", "carol", []uuid.UUID{conv}, healthy)

	events := make(chan event.DomainEvent, 1)
	events <- messageEvent(conv, "still delivered")
	close(events)
	req.NoError(newFanout(t, events, registry).Run(context.Background()))

	req.Len(healthy.Events, 1)
}

func Test_ConnSink_Reports_Full_Buffer(t *testing.T) {
	req := require.New(t)
	s := sink.NewConnSink(1)
	ctx := context.Background()

	req.NoError(s.Consume(ctx, event.PresenceChanged{UserID: "alice", Online: true}))
	req.ErrorIs(s.Consume(ctx, event.PresenceChanged{UserID: "alice", Online: false}), sink.ErrBufferFull)
}
