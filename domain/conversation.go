// Package domain contains core concepts of the chat system.
// Entities reference each other by id only; owning collections live in the
// repositories, never as back-pointers on the entities themselves.
package domain

import (
	"time"

	"github.com/google/uuid"
)

type ConversationType string

const (
	ConversationDirect ConversationType = "direct"
	ConversationGroup  ConversationType = "group"
)

// Conversation is the container for an ordered message sequence.
// A direct conversation has exactly two participants and is deduplicated
// per unordered pair; a group conversation has a name and two or more.
type Conversation struct {
	ID           uuid.UUID        `json:"id"`
	Type         ConversationType `json:"type"`
	Name         string           `json:"name,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	LastActivity time.Time        `json:"lastActivity"`
}

// Participant ties a user to a conversation. A participant with
// Active=false is excluded from delivery and membership checks but its
// history remains visible in past message reads.
type Participant struct {
	ConversationID uuid.UUID  `json:"conversationId"`
	UserID         string     `json:"userId"`
	JoinedAt       time.Time  `json:"joinedAt"`
	LeftAt         *time.Time `json:"leftAt,omitempty"`
	Active         bool       `json:"active"`
}
