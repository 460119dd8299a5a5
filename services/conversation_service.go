//go:generate go run go.uber.org/mock/mockgen -source=conversation_service.go -destination=../mocks/mock_conversation_service.go -package=mocks
package services

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"chat-core/contract"
	"chat-core/domain"
	"chat-core/errors"
	"chat-core/repositories"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IConversationService interface {
	CreateDirect(userA, userB string) (domain.Conversation, error)
	CreateGroup(name string, participantIDs []string) (domain.Conversation, error)
	GetUserConversations(userID string) ([]domain.Conversation, map[uuid.UUID]domain.Message, error)
	GetDetail(conversationID uuid.UUID) (domain.Conversation, []domain.Participant, error)
	IsActiveParticipant(conversationID uuid.UUID, userID string) (bool, error)
	Leave(conversationID uuid.UUID, userID string) error
}

// ConversationService owns conversation and participant membership.
// Membership changes are mirrored to the broadcast router so that live
// subscriptions follow the store.
type ConversationService struct {
	conversations repositories.IConversationRepository
	messages      repositories.IMessageRepository
	router        contract.MembershipNotifier
	log           *slog.Logger
}

func NewConversationService(
	conversations repositories.IConversationRepository,
	messages repositories.IMessageRepository,
	router contract.MembershipNotifier,
	log *slog.Logger,
) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		messages:      messages,
		router:        router,
		log:           log,
	}
}

// CreateDirect is idempotent per unordered pair: calling it twice, in
// either id order, returns the same conversation.
func (s *ConversationService) CreateDirect(userA, userB string) (domain.Conversation, error) {
	if userA == "" || userB == "" {
		return domain.Conversation{}, fmt.Errorf("empty user id: %w", errors.ErrInvalidArgument)
	}
	if userA == userB {
		return domain.Conversation{}, fmt.Errorf("direct conversation with self: %w", errors.ErrInvalidArgument)
	}

	if existing, found, err := s.conversations.FindDirect(userA, userB); err != nil {
		return domain.Conversation{}, err
	} else if found {
		return existing, nil
	}

	now := time.Now().UTC()
	conv := domain.Conversation{
		ID:           uuid.New(),
		Type:         domain.ConversationDirect,
		CreatedAt:    now,
		LastActivity: now,
	}
	participants := []domain.Participant{
		{ConversationID: conv.ID, UserID: userA, JoinedAt: now, Active: true},
		{ConversationID: conv.ID, UserID: userB, JoinedAt: now, Active: true},
	}

	err := s.conversations.Create(conv, participants)
	if stderrors.Is(err, errors.ErrConflict) {
		// Lost the uniqueness race: another call claimed the pair first.
		existing, found, ferr := s.conversations.FindDirect(userA, userB)
		if ferr != nil {
			return domain.Conversation{}, ferr
		}
		if !found {
			return domain.Conversation{}, err
		}
		return existing, nil
	}
	if err != nil {
		return domain.Conversation{}, err
	}

	s.router.Attach(conv.ID, userA)
	s.router.Attach(conv.ID, userB)
	s.log.Debug("direct conversation created", "conversation_id", conv.ID, "users", []string{userA, userB})
	return conv, nil
}

// CreateGroup always creates a new conversation, there is no group dedup.
func (s *ConversationService) CreateGroup(name string, participantIDs []string) (domain.Conversation, error) {
	if name == "" {
		return domain.Conversation{}, fmt.Errorf("empty group name: %w", errors.ErrInvalidArgument)
	}
	distinct := lo.Uniq(lo.Filter(participantIDs, func(id string, _ int) bool { return id != "" }))
	if len(distinct) < 2 {
		return domain.Conversation{}, fmt.Errorf("a group needs at least 2 distinct participants: %w", errors.ErrInvalidArgument)
	}

	now := time.Now().UTC()
	conv := domain.Conversation{
		ID:           uuid.New(),
		Type:         domain.ConversationGroup,
		Name:         name,
		CreatedAt:    now,
		LastActivity: now,
	}
	participants := lo.Map(distinct, func(userID string, _ int) domain.Participant {
		return domain.Participant{ConversationID: conv.ID, UserID: userID, JoinedAt: now, Active: true}
	})

	if err := s.conversations.Create(conv, participants); err != nil {
		return domain.Conversation{}, err
	}
	for _, userID := range distinct {
		s.router.Attach(conv.ID, userID)
	}
	s.log.Debug("group conversation created", "conversation_id", conv.ID, "name", name, "participants", len(distinct))
	return conv, nil
}

// GetUserConversations lists the conversations where userID is an active
// participant, most recent activity first, with a preview of the latest
// message of each.
func (s *ConversationService) GetUserConversations(userID string) ([]domain.Conversation, map[uuid.UUID]domain.Message, error) {
	conversations, err := s.conversations.ListForUser(userID)
	if err != nil {
		return nil, nil, err
	}
	previews := make(map[uuid.UUID]domain.Message, len(conversations))
	for _, conv := range conversations {
		latest, found, err := s.messages.Latest(conv.ID)
		if err != nil {
			return nil, nil, err
		}
		if found {
			previews[conv.ID] = latest
		}
	}
	return conversations, previews, nil
}

func (s *ConversationService) GetDetail(conversationID uuid.UUID) (domain.Conversation, []domain.Participant, error) {
	conv, err := s.conversations.Get(conversationID)
	if err != nil {
		return domain.Conversation{}, nil, err
	}
	participants, err := s.conversations.Participants(conversationID)
	if err != nil {
		return domain.Conversation{}, nil, err
	}
	return conv, participants, nil
}

func (s *ConversationService) IsActiveParticipant(conversationID uuid.UUID, userID string) (bool, error) {
	return s.conversations.IsActiveParticipant(conversationID, userID)
}

// Leave deactivates the participant. The user drops out of delivery and
// membership checks; their history stays readable.
func (s *ConversationService) Leave(conversationID uuid.UUID, userID string) error {
	active, err := s.conversations.IsActiveParticipant(conversationID, userID)
	if err != nil {
		return err
	}
	if !active {
		return fmt.Errorf("user %s is not an active participant of %s: %w", userID, conversationID, errors.ErrForbidden)
	}
	if err := s.conversations.Deactivate(conversationID, userID, time.Now().UTC()); err != nil {
		return err
	}
	s.router.Detach(conversationID, userID)
	return nil
}
