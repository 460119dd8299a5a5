package domain

import (
	"time"

	"github.com/google/uuid"
)

// Reaction is keyed by (MessageID, UserID): at most one reaction per user
// per message. A new reaction from the same user replaces the prior one.
type Reaction struct {
	MessageID uuid.UUID `json:"messageId"`
	UserID    string    `json:"userId"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
}
