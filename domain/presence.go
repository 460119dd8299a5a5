package domain

import "time"

// Presence is derived from a per-user connection count: a user is online
// while at least one session is alive. LastSeen is recorded when the count
// drops back to zero and is nil for users never seen.
type Presence struct {
	UserID   string     `json:"userId"`
	Online   bool       `json:"online"`
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}
