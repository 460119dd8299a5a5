package services

import (
	"log/slog"
	"testing"

	"chat-core/domain/event"
	"chat-core/observability"

	"github.com/stretchr/testify/require"
)

func newPresence(t *testing.T) (*PresenceService, *capturePublisher) {
	t.Helper()
	bus := &capturePublisher{}
	return NewPresenceService(bus, observability.NewMetrics(), slog.Default()), bus
}

func Test_Presence_Counts_Sessions_Not_Events(t *testing.T) {
	req := require.New(t)
	presence, bus := newPresence(t)

	presence.Connect("alice")
	presence.Connect("alice")
	presence.Disconnect("alice")

	state := presence.GetPresence("alice")
	req.True(state.Online)
	req.Nil(state.LastSeen)
	req.Len(bus.byKind(event.KindPresenceChanged), 1)

	presence.Disconnect("alice")
	state = presence.GetPresence("alice")
	req.False(state.Online)
	req.NotNil(state.LastSeen)

	changes := bus.byKind(event.KindPresenceChanged)
	req.Len(changes, 2)
	offline := changes[1].(event.PresenceChanged)
	req.False(offline.Online)
	req.NotNil(offline.LastSeen)
	req.Equal(*state.LastSeen, *offline.LastSeen)
}

func Test_Presence_Extra_Disconnect_Is_Ignored(t *testing.T) {
	req := require.New(t)
	presence, bus := newPresence(t)

	presence.Connect("bob")
	presence.Disconnect("bob")
	presence.Disconnect("bob")

	req.False(presence.GetPresence("bob").Online)
	req.Len(bus.byKind(event.KindPresenceChanged), 2)
}

func Test_Presence_Unknown_User_Is_Offline_Without_Last_Seen(t *testing.T) {
	req := require.New(t)
	presence, _ := newPresence(t)

	state := presence.GetPresence("nobody")
	req.False(state.Online)
	req.Nil(state.LastSeen)
}
