package repositories

import (
	"testing"
	"time"

	"chat-core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func Test_Upsert_Replaces_Prior_Reaction(t *testing.T) {
	req := require.New(t)
	repository := NewReactionRepository(newTestDB(t))

	messageID := uuid.New()
	at := time.Now().UTC()
	req.NoError(repository.Upsert(domain.Reaction{MessageID: messageID, UserID: "bob", Kind: "like", CreatedAt: at}))
	req.NoError(repository.Upsert(domain.Reaction{MessageID: messageID, UserID: "bob", Kind: "love", CreatedAt: at.Add(time.Second)}))

	reactions, err := repository.List(messageID)
	req.NoError(err)
	req.Len(reactions, 1)
	req.Equal("love", reactions[0].Kind)
}

func Test_Delete_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	repository := NewReactionRepository(newTestDB(t))

	messageID := uuid.New()
	req.NoError(repository.Upsert(domain.Reaction{MessageID: messageID, UserID: "bob", Kind: "like", CreatedAt: time.Now().UTC()}))

	removed, err := repository.Delete(messageID, "bob")
	req.NoError(err)
	req.True(removed)

	removed, err = repository.Delete(messageID, "bob")
	req.NoError(err)
	req.False(removed)
}

func Test_List_Orders_By_Creation_Time(t *testing.T) {
	req := require.New(t)
	repository := NewReactionRepository(newTestDB(t))

	messageID := uuid.New()
	at := time.Now().UTC()
	// User ids sort against creation order on purpose.
	req.NoError(repository.Upsert(domain.Reaction{MessageID: messageID, UserID: "zoe", Kind: "like", CreatedAt: at}))
	req.NoError(repository.Upsert(domain.Reaction{MessageID: messageID, UserID: "alice", Kind: "wow", CreatedAt: at.Add(time.Second)}))
	req.NoError(repository.Upsert(domain.Reaction{MessageID: messageID, UserID: "mallory", Kind: "sad", CreatedAt: at.Add(2 * time.Second)}))

	reactions, err := repository.List(messageID)
	req.NoError(err)
	req.Equal([]string{"zoe", "alice", "mallory"}, []string{reactions[0].UserID, reactions[1].UserID, reactions[2].UserID})

	other, err := repository.List(uuid.New())
	req.NoError(err)
	req.Empty(other)
}
