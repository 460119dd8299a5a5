//go:generate go run go.uber.org/mock/mockgen -source=reaction_service.go -destination=../mocks/mock_reaction_service.go -package=mocks
package services

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"chat-core/contract"
	"chat-core/domain"
	"chat-core/domain/event"
	"chat-core/errors"
	"chat-core/repositories"

	"github.com/google/uuid"
)

type IReactionService interface {
	AddOrUpdate(userID string, messageID uuid.UUID, kind string) (domain.Reaction, error)
	Remove(userID string, messageID uuid.UUID) (bool, error)
	List(messageID uuid.UUID) ([]domain.Reaction, error)
}

// ReactionService owns the per-message reaction map. Upserts are
// serialized per (message, user) key; unrelated reactions proceed
// concurrently.
type ReactionService struct {
	conversations repositories.IConversationRepository
	messages      repositories.IMessageRepository
	reactions     repositories.IReactionRepository
	bus           contract.Publisher
	log           *slog.Logger
	locks         stripedLock
}

func NewReactionService(
	conversations repositories.IConversationRepository,
	messages repositories.IMessageRepository,
	reactions repositories.IReactionRepository,
	bus contract.Publisher,
	log *slog.Logger,
) *ReactionService {
	return &ReactionService{
		conversations: conversations,
		messages:      messages,
		reactions:     reactions,
		bus:           bus,
		log:           log,
	}
}

func reactionLockKey(messageID uuid.UUID, userID string) string {
	return messageID.String() + ":" + userID
}

// AddOrUpdate upserts the user's reaction: a second reaction from the same
// user replaces the first, with a refreshed timestamp.
func (s *ReactionService) AddOrUpdate(userID string, messageID uuid.UUID, kind string) (domain.Reaction, error) {
	if kind == "" {
		return domain.Reaction{}, fmt.Errorf("empty reaction kind: %w", errors.ErrInvalidArgument)
	}
	message, err := s.messages.GetByID(messageID)
	if err != nil {
		return domain.Reaction{}, err
	}
	if message.Deleted {
		return domain.Reaction{}, fmt.Errorf("message %s is deleted: %w", messageID, errors.ErrNotFound)
	}
	active, err := s.conversations.IsActiveParticipant(message.ConversationID, userID)
	if err != nil {
		return domain.Reaction{}, err
	}
	if !active {
		return domain.Reaction{}, fmt.Errorf("user %s is not an active participant: %w", userID, errors.ErrForbidden)
	}

	reaction := domain.Reaction{
		MessageID: messageID,
		UserID:    userID,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}

	mu := s.locks.Lock(reactionLockKey(messageID, userID))
	err = s.reactions.Upsert(reaction)
	mu.Unlock()
	if err != nil {
		return domain.Reaction{}, err
	}

	s.bus.Publish(event.ReactionChanged{
		Conversation: message.ConversationID,
		MessageID:    messageID,
		UserID:       userID,
		Reaction:     &reaction,
	})
	return reaction, nil
}

// Remove is idempotent: it reports whether a reaction existed and was
// removed, and a missing reaction is not an error.
func (s *ReactionService) Remove(userID string, messageID uuid.UUID) (bool, error) {
	mu := s.locks.Lock(reactionLockKey(messageID, userID))
	removed, err := s.reactions.Delete(messageID, userID)
	mu.Unlock()
	if err != nil || !removed {
		return removed, err
	}

	message, err := s.messages.GetByID(messageID)
	if err != nil {
		// The reaction is gone either way; without the message there is
		// no conversation to notify.
		if stderrors.Is(err, errors.ErrNotFound) {
			return true, nil
		}
		return true, err
	}
	s.bus.Publish(event.ReactionChanged{
		Conversation: message.ConversationID,
		MessageID:    messageID,
		UserID:       userID,
		Removed:      true,
	})
	return true, nil
}

// List returns all reactions for the message, creation timestamp ascending.
func (s *ReactionService) List(messageID uuid.UUID) ([]domain.Reaction, error) {
	return s.reactions.List(messageID)
}
