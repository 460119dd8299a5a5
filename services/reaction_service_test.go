package services

import (
	"context"
	"testing"

	"chat-core/domain"
	"chat-core/domain/event"
	"chat-core/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func seedMessage(t *testing.T, f fixture) domain.Message {
	t.Helper()
	conv, err := f.conversations.CreateDirect("alice", "bob")
	require.NoError(t, err)
	message, err := f.messages.Append(context.Background(), conv.ID, "alice", "hi")
	require.NoError(t, err)
	return message
}

func Test_AddOrUpdate_Upserts_Per_User(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	message := seedMessage(t, f)

	_, err := f.reactions.AddOrUpdate("bob", message.ID, "like")
	req.NoError(err)
	latest, err := f.reactions.AddOrUpdate("bob", message.ID, "love")
	req.NoError(err)
	req.Equal("love", latest.Kind)

	reactions, err := f.reactions.List(message.ID)
	req.NoError(err)
	req.Len(reactions, 1)
	req.Equal("bob", reactions[0].UserID)
	req.Equal("love", reactions[0].Kind)
}

func Test_AddOrUpdate_Rejects_Missing_Or_Deleted_Message(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	message := seedMessage(t, f)

	_, err := f.reactions.AddOrUpdate("bob", uuid.New(), "like")
	req.ErrorIs(err, errors.ErrNotFound)

	req.NoError(f.messages.SoftDelete(message.ID, "alice"))
	_, err = f.reactions.AddOrUpdate("bob", message.ID, "like")
	req.ErrorIs(err, errors.ErrNotFound)
}

func Test_AddOrUpdate_Rejects_Non_Participant(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	message := seedMessage(t, f)

	_, err := f.reactions.AddOrUpdate("mallory", message.ID, "like")
	req.ErrorIs(err, errors.ErrForbidden)
}

func Test_Remove_Is_Idempotent_And_Notifies_Once(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	message := seedMessage(t, f)

	_, err := f.reactions.AddOrUpdate("bob", message.ID, "like")
	req.NoError(err)

	removed, err := f.reactions.Remove("bob", message.ID)
	req.NoError(err)
	req.True(removed)

	removed, err = f.reactions.Remove("bob", message.ID)
	req.NoError(err)
	req.False(removed)

	var removals int
	for _, e := range f.bus.byKind(event.KindReactionChanged) {
		if e.(event.ReactionChanged).Removed {
			removals++
		}
	}
	req.Equal(1, removals)
}
