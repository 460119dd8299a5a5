package services

import (
	"context"
	"testing"

	"chat-core/domain"
	"chat-core/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func Test_CreateDirect_Is_Idempotent_Per_Pair(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	first, err := f.conversations.CreateDirect("alice", "bob")
	req.NoError(err)
	req.Equal(domain.ConversationDirect, first.Type)

	// Either id order returns the same conversation.
	second, err := f.conversations.CreateDirect("bob", "alice")
	req.NoError(err)
	req.Equal(first.ID, second.ID)
}

func Test_CreateDirect_Keeps_Delimiter_Bearing_Pairs_Distinct(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	first, err := f.conversations.CreateDirect("a|b", "c")
	req.NoError(err)
	second, err := f.conversations.CreateDirect("a", "b|c")
	req.NoError(err)
	req.NotEqual(first.ID, second.ID, "distinct pairs must not share a conversation")

	// Each pair still dedups onto its own conversation.
	again, err := f.conversations.CreateDirect("c", "a|b")
	req.NoError(err)
	req.Equal(first.ID, again.ID)
}

func Test_CreateDirect_Rejects_Self_And_Empty(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	_, err := f.conversations.CreateDirect("alice", "alice")
	req.ErrorIs(err, errors.ErrInvalidArgument)

	_, err = f.conversations.CreateDirect("alice", "")
	req.ErrorIs(err, errors.ErrInvalidArgument)
}

func Test_CreateGroup_Validates_Input(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	_, err := f.conversations.CreateGroup("", []string{"alice", "bob"})
	req.ErrorIs(err, errors.ErrInvalidArgument)

	_, err = f.conversations.CreateGroup("team", []string{"alice", "alice"})
	req.ErrorIs(err, errors.ErrInvalidArgument)

	conv, err := f.conversations.CreateGroup("team", []string{"alice", "bob", "clara"})
	req.NoError(err)
	req.Equal(domain.ConversationGroup, conv.Type)
	req.Equal("team", conv.Name)
}

func Test_CreateGroup_Never_Dedupes(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	first, err := f.conversations.CreateGroup("team", []string{"alice", "bob"})
	req.NoError(err)
	second, err := f.conversations.CreateGroup("team", []string{"alice", "bob"})
	req.NoError(err)
	req.NotEqual(first.ID, second.ID)
}

func Test_GetUserConversations_Includes_Previews(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	conv, err := f.conversations.CreateDirect("alice", "bob")
	req.NoError(err)

	conversations, previews, err := f.conversations.GetUserConversations("alice")
	req.NoError(err)
	req.Len(conversations, 1)
	req.Empty(previews)

	message, err := f.messages.Append(context.Background(), conv.ID, "alice", "hi")
	req.NoError(err)

	_, previews, err = f.conversations.GetUserConversations("alice")
	req.NoError(err)
	req.Equal(message, previews[conv.ID])
}

func Test_Leave_Removes_From_Membership_But_Not_History(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	conv, err := f.conversations.CreateGroup("team", []string{"alice", "bob", "clara"})
	req.NoError(err)

	req.NoError(f.conversations.Leave(conv.ID, "clara"))

	active, err := f.conversations.IsActiveParticipant(conv.ID, "clara")
	req.NoError(err)
	req.False(active)

	// Leaving twice is rejected, the user is no longer a participant.
	req.ErrorIs(f.conversations.Leave(conv.ID, "clara"), errors.ErrForbidden)

	_, participants, err := f.conversations.GetDetail(conv.ID)
	req.NoError(err)
	req.Len(participants, 3)
}

func Test_GetDetail_Unknown_Conversation(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	_, _, err := f.conversations.GetDetail(uuid.New())
	req.ErrorIs(err, errors.ErrNotFound)
}
