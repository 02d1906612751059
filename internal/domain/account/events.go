package account

import "time"

type EventType string

const (
	EventUserRegistered EventType = "user.registered"
	EventUserDeleted    EventType = "user.deleted"
	EventTokenRevoked   EventType = "token.revoked"
)

// Event is the JSON payload carried by the outbox and the account topic.
type Event struct {
	Type      EventType  `json:"type"`
	UserID    string     `json:"user_id"`
	Email     string     `json:"email,omitempty"`
	TokenID   string     `json:"token_id,omitempty"`
	NotBefore *time.Time `json:"not_before,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	At        time.Time  `json:"at"`
}

// Key is the kafka partition key; events of one user stay ordered.
func (e Event) Key() []byte { return []byte(e.UserID) }
