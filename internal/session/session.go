// Package session implements the server-side session layer: the per-browser
// session context cached in Redis, the signed cookie that names it, and the
// orchestrator that drives the login/logout state machine.
//
// A session identifier moves through four states over its lifetime:
//
//	NO_SESSION -> REGENERATING -> ESTABLISHED -> LOGGED_OUT
//
// Establishing always regenerates the identifier before writing any claim,
// so an identifier fixated by an attacker before authentication can never
// name an authenticated session.  A logged-out identifier is never reused;
// the next login mints a fresh one and the old audit row stays logged_out
// forever.
package session

import (
	"github.com/shoply/catalog-api/internal/model"
	"github.com/shoply/catalog-api/internal/utils"
)

// UserSummary is the cached slice of identity stored inside a session
// context so authorization checks on session-aware endpoints avoid a
// database round trip.
type UserSummary struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
}

// Context is the server-side session bound to one browser.  It is stored
// as JSON in Redis under the session identifier and is not a database
// entity; the durable audit trail lives in user_sessions.  Status mirrors
// the audit row's status and uses the same constants.
type Context struct {
	UserID uint64      `json:"user_id"`
	Email  string      `json:"email"`
	Status string      `json:"status"`
	User   UserSummary `json:"user"`
}

// LoggedIn reports whether the context currently authorizes
// session-scoped state.
func (c *Context) LoggedIn() bool {
	return c != nil && c.Status == model.SessionLoggedIn
}

// NewSessionID mints a fresh opaque session identifier: 32 bytes from a
// cryptographically strong source, hex encoded.  Identifiers are only ever
// produced here, so every establish gets a value no prior request has seen.
func NewSessionID() (string, error) {
	return utils.RandomToken(32)
}
