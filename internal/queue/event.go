// Package queue defines message payloads exchanged over the message broker.
package queue

// Audit actions carried by SessionAuditEvent.
const (
	ActionLogin  = "login"
	ActionLogout = "logout"
)

// SessionAuditEvent is published when a server-side session is established
// or torn down.  It carries enough information for downstream consumers to
// log or alert on session activity without querying the primary database.
// Publishing is best-effort: a broker outage never affects the login or
// logout request itself.
type SessionAuditEvent struct {
	EventID    string `json:"event_id"`
	SessionID  string `json:"session_id"`
	UserID     uint64 `json:"user_id"`
	Email      string `json:"email"`
	Action     string `json:"action"` // login | logout
	OccurredAt string `json:"occurred_at"`
}
