package services

import (
	"log/slog"
	"testing"
	"time"

	"chat-core/domain/event"
	"chat-core/errors"
	"chat-core/repositories"

	"github.com/stretchr/testify/require"
)

func newTyping(t *testing.T, ttl time.Duration) (*TypingService, *ConversationService, *capturePublisher) {
	t.Helper()
	db := newTestDB(t)
	bus := &capturePublisher{}
	conversationRepo := repositories.NewConversationRepository(db)
	conversations := NewConversationService(conversationRepo, repositories.NewMessageRepository(db), nopRouter{}, slog.Default())
	return NewTypingService(conversationRepo, bus, ttl, slog.Default()), conversations, bus
}

func Test_SetTyping_Rejects_Non_Participant(t *testing.T) {
	req := require.New(t)
	typing, conversations, _ := newTyping(t, DefaultTypingTTL)
	conv, err := conversations.CreateDirect("alice", "bob")
	req.NoError(err)

	req.ErrorIs(typing.SetTyping("mallory", conv.ID, true), errors.ErrForbidden)
}

func Test_SetTyping_Notifies_And_Expires(t *testing.T) {
	req := require.New(t)
	typing, conversations, bus := newTyping(t, 50*time.Millisecond)
	conv, err := conversations.CreateDirect("alice", "bob")
	req.NoError(err)

	req.NoError(typing.SetTyping("alice", conv.ID, true))
	req.True(typing.IsTyping("alice", conv.ID))

	started := bus.byKind(event.KindTypingChanged)
	req.Len(started, 1)
	req.True(started[0].(event.TypingChanged).Typing)

	// Before the TTL a sweep is a no-op.
	req.Zero(typing.Sweep(time.Now().UTC()))

	expired := typing.Sweep(time.Now().UTC().Add(time.Second))
	req.Equal(1, expired)
	req.False(typing.IsTyping("alice", conv.ID))

	changes := bus.byKind(event.KindTypingChanged)
	req.Len(changes, 2)
	stopped := changes[1].(event.TypingChanged)
	req.False(stopped.Typing)
	req.Equal("alice", stopped.UserID)
	req.Equal(conv.ID, stopped.Conversation)

	// Sweeping an already cleared entry emits nothing further.
	req.Zero(typing.Sweep(time.Now().UTC().Add(time.Minute)))
	req.Len(bus.byKind(event.KindTypingChanged), 2)
}

func Test_SetTyping_Renewal_Defers_Expiry(t *testing.T) {
	req := require.New(t)
	typing, conversations, _ := newTyping(t, time.Minute)
	conv, err := conversations.CreateDirect("alice", "bob")
	req.NoError(err)

	req.NoError(typing.SetTyping("alice", conv.ID, true))
	req.NoError(typing.SetTyping("alice", conv.ID, true))

	// The renewal pushed the expiry past the first deadline.
	req.Zero(typing.Sweep(time.Now().UTC().Add(30 * time.Second)))
	req.True(typing.IsTyping("alice", conv.ID))
}

func Test_SetTyping_False_Clears_Immediately(t *testing.T) {
	req := require.New(t)
	typing, conversations, bus := newTyping(t, time.Minute)
	conv, err := conversations.CreateDirect("alice", "bob")
	req.NoError(err)

	req.NoError(typing.SetTyping("alice", conv.ID, true))
	req.NoError(typing.SetTyping("alice", conv.ID, false))
	req.False(typing.IsTyping("alice", conv.ID))

	changes := bus.byKind(event.KindTypingChanged)
	req.Len(changes, 2)
	req.False(changes[1].(event.TypingChanged).Typing)

	req.Zero(typing.Sweep(time.Now().UTC().Add(time.Hour)))
}
