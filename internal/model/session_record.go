package model

import "time"

// Session status values recorded in user_sessions.status.  A record only
// ever alternates logged_in -> logged_out -> logged_in for the lifetime of
// one session identifier; it is never deleted.
const (
	SessionLoggedIn  = "logged_in"
	SessionLoggedOut = "logged_out"
)

// SessionRecord is one audit row in the `user_sessions` table, keyed by the
// opaque session identifier held in the client cookie.  Rows are upserted on
// login (overwriting by key, which keeps the write idempotent) and updated
// in place on logout.  LoggedOutAt is NULL whenever the status is
// logged_in.
type SessionRecord struct {
	ID          uint64     // user_sessions.id
	SessionID   string     // user_sessions.session_id (unique)
	UserID      uint64     // user_sessions.user_id
	Email       string     // user_sessions.email snapshot at login time
	Status      string     // user_sessions.status: logged_in | logged_out
	LoggedInAt  time.Time  // user_sessions.logged_in_at
	LoggedOutAt *time.Time // user_sessions.logged_out_at (nullable)
	CreatedAt   time.Time  // user_sessions.created_at
	UpdatedAt   time.Time  // user_sessions.updated_at
}
