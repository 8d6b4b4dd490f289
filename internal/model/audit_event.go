package model

import "time"

// Auth event types recorded in the audit trail.
const (
	AuthEventRegistered     = "profile.registered"
	AuthEventLoginSucceeded = "login.succeeded"
	AuthEventLoginFailed    = "login.failed"
	AuthEventSessionRevoked = "session.revoked"
)

// ValidAuthEventTypes enumerates the accepted event types.
var ValidAuthEventTypes = []string{
	AuthEventRegistered,
	AuthEventLoginSucceeded,
	AuthEventLoginFailed,
	AuthEventSessionRevoked,
}

// AuthEvent is one entry in the authentication audit trail.
// It carries hashes instead of raw identifiers: EmailHash correlates
// attempts against the same account, IPHash correlates a client,
// and neither can be reversed into PII.
type AuthEvent struct {
	ID         string    `json:"id"`
	EventID    string    `json:"event_id"` // stream message id, idempotency key
	Type       string    `json:"type"`
	ProfileID  string    `json:"profile_id,omitempty"` // empty for failed logins
	EmailHash  string    `json:"email_hash"`
	IPHash     string    `json:"ip_hash,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
