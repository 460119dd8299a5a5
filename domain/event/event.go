package event

import (
	"time"

	"chat-core/domain"

	"github.com/google/uuid"
)

type Kind string

const (
	KindMessageCreated  Kind = "MessageCreated"
	KindReactionChanged Kind = "ReactionChanged"
	KindTypingChanged   Kind = "TypingChanged"
	KindPresenceChanged Kind = "PresenceChanged"
)

// DomainEvent is anything the broadcast router can fan out to live
// connections. Delivery is best-effort and at-most-once per connection.
type DomainEvent interface {
	EventKind() Kind
}

// ConversationScoped events route to the subscribers of one conversation.
// PresenceChanged is the only kind that is not conversation scoped: it
// routes to every connection sharing a conversation with the user.
type ConversationScoped interface {
	DomainEvent
	ConversationID() uuid.UUID
}

// MessageCreated carries the exact persisted record returned by the
// message log, never a re-stamped copy.
type MessageCreated struct {
	Message domain.Message `json:"message"`
}

func (e MessageCreated) EventKind() Kind           { return KindMessageCreated }
func (e MessageCreated) ConversationID() uuid.UUID { return e.Message.ConversationID }

// ReactionChanged reports an upsert (Removed=false, Reaction set) or a
// removal (Removed=true) on a message.
type ReactionChanged struct {
	Conversation uuid.UUID        `json:"conversationId"`
	MessageID    uuid.UUID        `json:"messageId"`
	UserID       string           `json:"userId"`
	Reaction     *domain.Reaction `json:"reaction,omitempty"`
	Removed      bool             `json:"removed"`
}

func (e ReactionChanged) EventKind() Kind           { return KindReactionChanged }
func (e ReactionChanged) ConversationID() uuid.UUID { return e.Conversation }

type TypingChanged struct {
	Conversation uuid.UUID `json:"conversationId"`
	UserID       string    `json:"userId"`
	Typing       bool      `json:"typing"`
}

func (e TypingChanged) EventKind() Kind           { return KindTypingChanged }
func (e TypingChanged) ConversationID() uuid.UUID { return e.Conversation }

type PresenceChanged struct {
	UserID   string     `json:"userId"`
	Online   bool       `json:"online"`
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}

func (e PresenceChanged) EventKind() Kind { return KindPresenceChanged }
