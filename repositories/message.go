//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	stderrors "errors"
	"fmt"

	"chat-core/domain"
	"chat-core/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	Store(message domain.Message) error
	GetByID(messageID uuid.UUID) (domain.Message, error)
	ListPage(conversationID uuid.UUID, page, pageSize int) ([]domain.Message, error)
	Latest(conversationID uuid.UUID) (domain.Message, bool, error)
	MarkDeleted(messageID uuid.UUID) error
}

// MessageRepository persists messages in BadgerDB.
//
// The primary key is formatted as "msg:{conversation_id}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order equals the (CreatedAt, ID) total order).
//  2. Prevent data loss by using the UUID as a collision disconnector if
//     two messages share the same nanosecond.
//
// A secondary index "mix:{uuid}" resolves a message id back to its primary
// key for soft deletion and reaction existence checks.
type MessageRepository struct {
	db *badger.DB
}

func NewMessageRepository(db *badger.DB) MessageRepository {
	return MessageRepository{db: db}
}

func messageKey(m domain.Message) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", m.ConversationID, m.CreatedAt.UnixNano(), m.ID))
}

func messageIndexKey(id uuid.UUID) []byte {
	return []byte("mix:" + id.String())
}

func messagePrefix(conversationID uuid.UUID) []byte {
	return []byte("msg:" + conversationID.String() + ":")
}

func (r MessageRepository) Store(message domain.Message) error {
	raw, err := json.Marshal(message)
	if err != nil {
		return err
	}
	key := messageKey(message)
	return r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, raw); err != nil {
			return err
		}
		return txn.Set(messageIndexKey(message.ID), key)
	})
}

func (r MessageRepository) GetByID(messageID uuid.UUID) (domain.Message, error) {
	var message domain.Message
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(messageIndexKey(messageID))
		if err != nil {
			return err
		}
		var primary []byte
		if err := item.Value(func(v []byte) error {
			primary = append([]byte(nil), v...)
			return nil
		}); err != nil {
			return err
		}
		record, err := txn.Get(primary)
		if err != nil {
			return err
		}
		return record.Value(func(v []byte) error {
			return json.Unmarshal(v, &message)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Message{}, fmt.Errorf("message %s: %w", messageID, errors.ErrNotFound)
	}
	return message, err
}

// ListPage returns the requested page of non-deleted messages, oldest first.
// Pagination walks the immutable key order and counts visible messages, so
// a page is stable even when new messages are appended between fetches:
// appends only ever land after already-read keys.
func (r MessageRepository) ListPage(conversationID uuid.UUID, page, pageSize int) ([]domain.Message, error) {
	if page < 1 || pageSize < 1 {
		return nil, fmt.Errorf("page %d, pageSize %d: %w", page, pageSize, errors.ErrInvalidArgument)
	}
	skip := (page - 1) * pageSize
	var messages []domain.Message
	prefix := messagePrefix(conversationID)
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var m domain.Message
			err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &m)
			})
			if err != nil {
				return err
			}
			if m.Deleted {
				continue
			}
			if skip > 0 {
				skip--
				continue
			}
			messages = append(messages, m)
			if len(messages) == pageSize {
				return nil
			}
		}
		return nil
	})
	return messages, err
}

// Latest returns the most recent non-deleted message of a conversation.
func (r MessageRepository) Latest(conversationID uuid.UUID) (domain.Message, bool, error) {
	var message domain.Message
	found := false
	prefix := messagePrefix(conversationID)
	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the last possible key of the prefix, then walk backwards.
		seekKey := append(append([]byte(nil), prefix...), 0xff)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			var m domain.Message
			err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &m)
			})
			if err != nil {
				return err
			}
			if m.Deleted {
				continue
			}
			message = m
			found = true
			return nil
		}
		return nil
	})
	return message, found, err
}

// MarkDeleted flips the delete flag in place. The record stays under its
// primary key so reactions and attachments keep a valid reference.
func (r MessageRepository) MarkDeleted(messageID uuid.UUID) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(messageIndexKey(messageID))
		if err != nil {
			return err
		}
		var primary []byte
		if err := item.Value(func(v []byte) error {
			primary = append([]byte(nil), v...)
			return nil
		}); err != nil {
			return err
		}
		record, err := txn.Get(primary)
		if err != nil {
			return err
		}
		var m domain.Message
		if err := record.Value(func(v []byte) error { return json.Unmarshal(v, &m) }); err != nil {
			return err
		}
		m.Deleted = true
		raw, err := json.Marshal(m)
		if err != nil {
			return err
		}
		return txn.Set(primary, raw)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("message %s: %w", messageID, errors.ErrNotFound)
	}
	return err
}
