//go:generate go run go.uber.org/mock/mockgen -source=conversation.go -destination=../mocks/mock_conversation_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"chat-core/domain"
	"chat-core/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IConversationRepository interface {
	Create(conv domain.Conversation, participants []domain.Participant) error
	Get(id uuid.UUID) (domain.Conversation, error)
	FindDirect(userA, userB string) (domain.Conversation, bool, error)
	ListForUser(userID string) ([]domain.Conversation, error)
	Participants(conversationID uuid.UUID) ([]domain.Participant, error)
	ActiveParticipantIDs(conversationID uuid.UUID) ([]string, error)
	IsActiveParticipant(conversationID uuid.UUID, userID string) (bool, error)
	Deactivate(conversationID uuid.UUID, userID string, leftAt time.Time) error
	Touch(conversationID uuid.UUID, at time.Time) error
	List() ([]domain.Conversation, error)
}

// ConversationRepository persists conversations and participants in BadgerDB.
//
// Key layout:
//
//	cnv:{conversation_id}            -> Conversation (JSON)
//	prt:{conversation_id}:{user_id}  -> Participant (JSON)
//	ucv:{user_id}:{conversation_id}  -> (empty, per-user index)
//	dct:{user_a}|{user_b}            -> conversation_id (direct dedup, a < b)
//
// User ids are delimiter-escaped before embedding in a key (escapeID).
type ConversationRepository struct {
	db *badger.DB
}

func NewConversationRepository(db *badger.DB) ConversationRepository {
	return ConversationRepository{db: db}
}

func conversationKey(id uuid.UUID) []byte {
	return []byte("cnv:" + id.String())
}

func participantKey(conversationID uuid.UUID, userID string) []byte {
	return []byte(fmt.Sprintf("prt:%s:%s", conversationID, userID))
}

// escapeID percent-encodes the key delimiters (and the escape byte itself)
// inside a user id, so distinct ids can never collide once embedded in a
// composite key: ("a|b","c") and ("a","b|c") stay distinct pairs, and a
// user id containing ':' cannot leak into another user's index prefix.
func escapeID(id string) string {
	return strings.NewReplacer("%", "%25", ":", "%3A", "|", "%7C").Replace(id)
}

func userIndexKey(userID string, conversationID uuid.UUID) []byte {
	return []byte(fmt.Sprintf("ucv:%s:%s", escapeID(userID), conversationID))
}

func userIndexPrefix(userID string) []byte {
	return []byte("ucv:" + escapeID(userID) + ":")
}

// directKey is order independent: the unordered pair (a,b) always maps to
// the same key. Ids are sorted before escaping, so both call orders agree.
func directKey(userA, userB string) []byte {
	if userA > userB {
		userA, userB = userB, userA
	}
	return []byte(fmt.Sprintf("dct:%s|%s", escapeID(userA), escapeID(userB)))
}

// Create stores the conversation and its participants in one transaction.
// For a direct conversation it also claims the pair index; if another
// transaction claimed it concurrently, ErrConflict is returned and the
// caller re-reads the winner.
func (r ConversationRepository) Create(conv domain.Conversation, participants []domain.Participant) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		if conv.Type == domain.ConversationDirect {
			key := directKey(participants[0].UserID, participants[1].UserID)
			if _, err := txn.Get(key); err == nil {
				return errors.ErrConflict
			} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			if err := txn.Set(key, []byte(conv.ID.String())); err != nil {
				return err
			}
		}
		raw, err := json.Marshal(conv)
		if err != nil {
			return err
		}
		if err := txn.Set(conversationKey(conv.ID), raw); err != nil {
			return err
		}
		for _, p := range participants {
			rawP, err := json.Marshal(p)
			if err != nil {
				return err
			}
			if err := txn.Set(participantKey(conv.ID, p.UserID), rawP); err != nil {
				return err
			}
			if err := txn.Set(userIndexKey(p.UserID, conv.ID), nil); err != nil {
				return err
			}
		}
		return nil
	})
	if stderrors.Is(err, badger.ErrConflict) {
		return errors.ErrConflict
	}
	return err
}

func (r ConversationRepository) Get(id uuid.UUID) (domain.Conversation, error) {
	var conv domain.Conversation
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(conversationKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &conv)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Conversation{}, fmt.Errorf("conversation %s: %w", id, errors.ErrNotFound)
	}
	return conv, err
}

func (r ConversationRepository) FindDirect(userA, userB string) (domain.Conversation, bool, error) {
	var id uuid.UUID
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(directKey(userA, userB))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			parsed, err := uuid.Parse(string(v))
			id = parsed
			return err
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Conversation{}, false, nil
	}
	if err != nil {
		return domain.Conversation{}, false, err
	}
	conv, err := r.Get(id)
	if err != nil {
		return domain.Conversation{}, false, err
	}
	return conv, true, nil
}

// ListForUser returns the conversations where userID is an active
// participant, most recent activity first.
func (r ConversationRepository) ListForUser(userID string) ([]domain.Conversation, error) {
	var ids []uuid.UUID
	prefix := userIndexPrefix(userID)
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			raw := strings.TrimPrefix(string(it.Item().Key()), string(prefix))
			id, err := uuid.Parse(raw)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var conversations []domain.Conversation
	for _, id := range ids {
		active, err := r.IsActiveParticipant(id, userID)
		if err != nil {
			return nil, err
		}
		if !active {
			continue
		}
		conv, err := r.Get(id)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, conv)
	}
	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].LastActivity.After(conversations[j].LastActivity)
	})
	return conversations, nil
}

func (r ConversationRepository) Participants(conversationID uuid.UUID) ([]domain.Participant, error) {
	var participants []domain.Participant
	prefix := []byte("prt:" + conversationID.String() + ":")
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var p domain.Participant
			err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &p)
			})
			if err != nil {
				return err
			}
			participants = append(participants, p)
		}
		return nil
	})
	return participants, err
}

func (r ConversationRepository) ActiveParticipantIDs(conversationID uuid.UUID) ([]string, error) {
	participants, err := r.Participants(conversationID)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, p := range participants {
		if p.Active {
			ids = append(ids, p.UserID)
		}
	}
	return ids, nil
}

func (r ConversationRepository) IsActiveParticipant(conversationID uuid.UUID, userID string) (bool, error) {
	var p domain.Participant
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(participantKey(conversationID, userID))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &p)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return p.Active, nil
}

// Deactivate flips the participant to inactive. The participant record and
// the per-user index stay in place so history remains readable.
func (r ConversationRepository) Deactivate(conversationID uuid.UUID, userID string, leftAt time.Time) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(participantKey(conversationID, userID))
		if err != nil {
			return err
		}
		var p domain.Participant
		if err := item.Value(func(v []byte) error { return json.Unmarshal(v, &p) }); err != nil {
			return err
		}
		p.Active = false
		p.LeftAt = &leftAt
		raw, err := json.Marshal(p)
		if err != nil {
			return err
		}
		return txn.Set(participantKey(conversationID, userID), raw)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("participant %s in %s: %w", userID, conversationID, errors.ErrNotFound)
	}
	return err
}

func (r ConversationRepository) Touch(conversationID uuid.UUID, at time.Time) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(conversationKey(conversationID))
		if err != nil {
			return err
		}
		var conv domain.Conversation
		if err := item.Value(func(v []byte) error { return json.Unmarshal(v, &conv) }); err != nil {
			return err
		}
		if at.After(conv.LastActivity) {
			conv.LastActivity = at
		}
		raw, err := json.Marshal(conv)
		if err != nil {
			return err
		}
		return txn.Set(conversationKey(conversationID), raw)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("conversation %s: %w", conversationID, errors.ErrNotFound)
	}
	return err
}

// List returns every conversation, oldest first. Used by the inspect tool.
func (r ConversationRepository) List() ([]domain.Conversation, error) {
	var conversations []domain.Conversation
	prefix := []byte("cnv:")
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var conv domain.Conversation
			err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &conv)
			})
			if err != nil {
				return err
			}
			conversations = append(conversations, conv)
		}
		return nil
	})
	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].CreatedAt.Before(conversations[j].CreatedAt)
	})
	return conversations, err
}
