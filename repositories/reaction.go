//go:generate go run go.uber.org/mock/mockgen -source=reaction.go -destination=../mocks/mock_reaction_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sort"

	"chat-core/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IReactionRepository interface {
	Upsert(reaction domain.Reaction) error
	Delete(messageID uuid.UUID, userID string) (bool, error)
	List(messageID uuid.UUID) ([]domain.Reaction, error)
}

// ReactionRepository persists reactions in BadgerDB under
// "rct:{message_id}:{user_id}". The key is the (message, user) identity, so
// writing is an upsert by construction: at most one reaction per user per
// message ever exists.
type ReactionRepository struct {
	db *badger.DB
}

func NewReactionRepository(db *badger.DB) ReactionRepository {
	return ReactionRepository{db: db}
}

func reactionKey(messageID uuid.UUID, userID string) []byte {
	return []byte(fmt.Sprintf("rct:%s:%s", messageID, userID))
}

func (r ReactionRepository) Upsert(reaction domain.Reaction) error {
	raw, err := json.Marshal(reaction)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(reactionKey(reaction.MessageID, reaction.UserID), raw)
	})
}

// Delete removes the user's reaction and reports whether one existed.
// A missing reaction is not an error.
func (r ReactionRepository) Delete(messageID uuid.UUID, userID string) (bool, error) {
	removed := false
	err := r.db.Update(func(txn *badger.Txn) error {
		key := reactionKey(messageID, userID)
		if _, err := txn.Get(key); err != nil {
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		removed = true
		return txn.Delete(key)
	})
	return removed, err
}

// List returns all reactions for a message, creation timestamp ascending.
// Keys sort by user id, not time, so ordering happens in memory.
func (r ReactionRepository) List(messageID uuid.UUID) ([]domain.Reaction, error) {
	var reactions []domain.Reaction
	prefix := []byte("rct:" + messageID.String() + ":")
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var reaction domain.Reaction
			err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &reaction)
			})
			if err != nil {
				return err
			}
			reactions = append(reactions, reaction)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(reactions, func(i, j int) bool {
		if reactions[i].CreatedAt.Equal(reactions[j].CreatedAt) {
			return reactions[i].UserID < reactions[j].UserID
		}
		return reactions[i].CreatedAt.Before(reactions[j].CreatedAt)
	})
	return reactions, nil
}
