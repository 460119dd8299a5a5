//go:generate go run go.uber.org/mock/mockgen -source=message_service.go -destination=../mocks/mock_message_service.go -package=mocks
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"chat-core/contract"
	"chat-core/domain"
	"chat-core/domain/event"
	"chat-core/errors"
	"chat-core/moderation"
	"chat-core/observability"
	"chat-core/repositories"

	"github.com/google/uuid"
)

type IMessageService interface {
	Append(ctx context.Context, conversationID uuid.UUID, senderID, content string) (domain.Message, error)
	GetPage(conversationID uuid.UUID, page, pageSize int) ([]domain.Message, error)
	SoftDelete(messageID uuid.UUID, requesterID string) error
}

// MessageService owns the append-only, per-conversation ordered message
// sequence. Append is the only mutating operation; it runs inside a
// per-conversation exclusive section so that two concurrent appends to the
// same conversation are ordered consistently with their assigned
// timestamps. Appends to different conversations proceed in parallel.
type MessageService struct {
	conversations    repositories.IConversationRepository
	messages         repositories.IMessageRepository
	moderator        *moderation.Moderator
	bus              contract.Publisher
	metrics          *observability.Metrics
	log              *slog.Logger
	maxContentLength int
	locks            stripedLock
}

func NewMessageService(
	conversations repositories.IConversationRepository,
	messages repositories.IMessageRepository,
	moderator *moderation.Moderator,
	bus contract.Publisher,
	metrics *observability.Metrics,
	log *slog.Logger,
	maxContentLength int,
) *MessageService {
	return &MessageService{
		conversations:    conversations,
		messages:         messages,
		moderator:        moderator,
		bus:              bus,
		metrics:          metrics,
		log:              log,
		maxContentLength: maxContentLength,
	}
}

// Append validates membership, persists the message and broadcasts the
// exact persisted record. Broadcast failure never fails the append:
// persistence success is the only synchronous contract.
func (s *MessageService) Append(ctx context.Context, conversationID uuid.UUID, senderID, content string) (domain.Message, error) {
	if strings.TrimSpace(content) == "" {
		return domain.Message{}, fmt.Errorf("empty content: %w", errors.ErrInvalidArgument)
	}
	if s.maxContentLength > 0 && len(content) > s.maxContentLength {
		return domain.Message{}, fmt.Errorf("content exceeds %d bytes: %w", s.maxContentLength, errors.ErrInvalidArgument)
	}
	if err := ctx.Err(); err != nil {
		return domain.Message{}, err
	}

	if _, err := s.conversations.Get(conversationID); err != nil {
		return domain.Message{}, err
	}
	active, err := s.conversations.IsActiveParticipant(conversationID, senderID)
	if err != nil {
		return domain.Message{}, err
	}
	if !active {
		return domain.Message{}, fmt.Errorf("sender %s is not an active participant of %s: %w", senderID, conversationID, errors.ErrForbidden)
	}

	sanitized, censored := s.moderator.Censor(content)
	if len(censored) > 0 {
		s.log.Info("message content censored", "conversation_id", conversationID, "sender", senderID, "hits", len(censored))
	}

	message := domain.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        sanitized,
		Language:       moderation.DetectLanguage(sanitized),
	}

	// Timestamp assignment, persist, last-activity bump and publish share
	// the exclusive section: readers never observe an order that disagrees
	// with the assigned timestamps, and live delivery sees events in that
	// same order. Publish never blocks, so holding the lock is safe.
	mu := s.locks.Lock(conversationID.String())
	message.CreatedAt = time.Now().UTC()
	err = s.messages.Store(message)
	if err == nil {
		err = s.conversations.Touch(conversationID, message.CreatedAt)
	}
	if err == nil {
		s.bus.Publish(event.MessageCreated{Message: message})
	}
	mu.Unlock()
	if err != nil {
		return domain.Message{}, err
	}

	s.metrics.MessagesAppended.Inc()
	return message, nil
}

// GetPage returns non-deleted messages oldest to newest, sliced by 1-based
// page number. Pagination walks the immutable order key, so concatenated
// pages reproduce the full sequence with no duplicates or gaps even when
// messages are appended mid-pagination.
func (s *MessageService) GetPage(conversationID uuid.UUID, page, pageSize int) ([]domain.Message, error) {
	return s.messages.ListPage(conversationID, page, pageSize)
}

// SoftDelete hides the message from normal reads. Only the original sender
// may delete; the record is retained for audit and for reaction and
// attachment referential integrity.
func (s *MessageService) SoftDelete(messageID uuid.UUID, requesterID string) error {
	message, err := s.messages.GetByID(messageID)
	if err != nil {
		return err
	}
	if message.SenderID != requesterID {
		return fmt.Errorf("only the sender may delete a message: %w", errors.ErrForbidden)
	}

	mu := s.locks.Lock(message.ConversationID.String())
	err = s.messages.MarkDeleted(messageID)
	mu.Unlock()
	return err
}
