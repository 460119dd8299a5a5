package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is an immutable chat event. Only the Deleted flag may change
// after creation; deletion is a state transition, never a physical removal,
// so reactions and attachments keep a valid reference.
//
// Total order within a conversation is (CreatedAt, ID): the id breaks ties
// deterministically when two messages share a timestamp.
type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	Content        string    `json:"content"`
	Language       string    `json:"language,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	Deleted        bool      `json:"deleted"`
}

// Before reports whether m precedes other in the conversation order.
func (m Message) Before(other Message) bool {
	if m.CreatedAt.Equal(other.CreatedAt) {
		return m.ID.String() < other.ID.String()
	}
	return m.CreatedAt.Before(other.CreatedAt)
}
