//go:generate go run go.uber.org/mock/mockgen -source=typing_service.go -destination=../mocks/mock_typing_service.go -package=mocks
package services

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"chat-core/contract"
	"chat-core/domain/event"
	"chat-core/errors"
	"chat-core/repositories"

	"github.com/google/uuid"
)

// DefaultTypingTTL is how long a typing flag lives without renewal.
const DefaultTypingTTL = 5 * time.Second

type ITypingService interface {
	SetTyping(userID string, conversationID uuid.UUID, typing bool) error
	IsTyping(userID string, conversationID uuid.UUID) bool
	Sweep(now time.Time) int
}

type typingKey struct {
	userID         string
	conversationID uuid.UUID
}

// TypingService owns the ephemeral per-(user, conversation) typing flags.
// Entries live in memory only and expire after a fixed TTL; the sweep
// worker clears entries whose clients stopped pinging without an explicit
// "stopped" signal.
type TypingService struct {
	mu            sync.Mutex
	entries       map[typingKey]time.Time
	conversations repositories.IConversationRepository
	bus           contract.Publisher
	ttl           time.Duration
	log           *slog.Logger
}

func NewTypingService(
	conversations repositories.IConversationRepository,
	bus contract.Publisher,
	ttl time.Duration,
	log *slog.Logger,
) *TypingService {
	if ttl <= 0 {
		ttl = DefaultTypingTTL
	}
	return &TypingService{
		entries:       make(map[typingKey]time.Time),
		conversations: conversations,
		bus:           bus,
		ttl:           ttl,
		log:           log,
	}
}

// SetTyping (re)sets or clears the typing flag and notifies observers
// immediately. Re-setting an already typing flag refreshes the expiry and
// re-notifies, so observers can renew their own expectation.
func (s *TypingService) SetTyping(userID string, conversationID uuid.UUID, typing bool) error {
	active, err := s.conversations.IsActiveParticipant(conversationID, userID)
	if err != nil {
		return err
	}
	if !active {
		return fmt.Errorf("user %s is not an active participant of %s: %w", userID, conversationID, errors.ErrForbidden)
	}

	key := typingKey{userID: userID, conversationID: conversationID}
	s.mu.Lock()
	if typing {
		s.entries[key] = time.Now().UTC().Add(s.ttl)
	} else {
		delete(s.entries, key)
	}
	s.mu.Unlock()

	s.bus.Publish(event.TypingChanged{Conversation: conversationID, UserID: userID, Typing: typing})
	return nil
}

func (s *TypingService) IsTyping(userID string, conversationID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiry, ok := s.entries[typingKey{userID: userID, conversationID: conversationID}]
	return ok && expiry.After(time.Now().UTC())
}

// Sweep clears entries whose expiry has passed and emits exactly one
// typing-changed(false) per cleared entry. Expiry is compared under the
// same lock SetTyping writes under, so an in-flight renewal that advanced
// the expiry is never clobbered by a sweep that observed a stale one.
func (s *TypingService) Sweep(now time.Time) int {
	s.mu.Lock()
	var expired []typingKey
	for key, expiry := range s.entries {
		if !expiry.After(now) {
			expired = append(expired, key)
			delete(s.entries, key)
		}
	}
	s.mu.Unlock()

	for _, key := range expired {
		s.bus.Publish(event.TypingChanged{Conversation: key.conversationID, UserID: key.userID, Typing: false})
	}
	if len(expired) > 0 {
		s.log.Debug("typing entries expired", "count", len(expired))
	}
	return len(expired)
}
