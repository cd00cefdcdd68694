package model

import "time"

// User represents an application user record as stored in the `users`
// table.  Email is unique and always stored lower-cased; PasswordHash is a
// bcrypt digest and the plaintext password is never persisted anywhere.
// The profile columns are optional and empty strings map to NULL-ish
// defaults at the API layer.  Accounts are never physically deleted:
// account removal flips IsActive instead so session audit rows keep a
// valid owner.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Email        – unique, case-normalized email address.
//	PasswordHash – bcrypt hashed password.
//	FirstName    – optional given name.
//	LastName     – optional family name.
//	UserName     – optional display handle.
//	Gender       – optional free-form gender value.
//	DOB          – optional date of birth (YYYY-MM-DD).
//	Phone        – optional phone number.
//	IsActive     – whether the account is active.
//	LastLoginAt  – timestamp of the most recent successful login (nullable).
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64     // users.id
	Email        string     // users.email
	PasswordHash string     // users.password_hash
	FirstName    string     // users.first_name
	LastName     string     // users.last_name
	UserName     string     // users.user_name
	Gender       string     // users.gender
	DOB          string     // users.dob
	Phone        string     // users.phone
	IsActive     bool       // users.is_active
	LastLoginAt  *time.Time // users.last_login_at (nullable)
	CreatedAt    time.Time  // users.created_at
	UpdatedAt    time.Time  // users.updated_at
}

// ResetToken models an entry in the `password_reset_tokens` table.  Each
// token belongs to a user and is single-use: Issue replaces any prior
// unconsumed token for the same user, and consumption is an atomic
// compare-and-swap so at most one concurrent attempt can succeed.  The
// plain token is not stored; only its SHA-256 hash.
//
// Fields:
//
//	ID         – primary key identifier.
//	UserID     – owner of the token.
//	TokenHash  – SHA-256 hex digest of the token value.
//	ExpiresAt  – expiration timestamp of the token.
//	ConsumedAt – when the token was consumed (null while still live).
//	CreatedAt  – timestamp of creation.
type ResetToken struct {
	ID         uint64     // password_reset_tokens.id
	UserID     uint64     // password_reset_tokens.user_id
	TokenHash  string     // password_reset_tokens.token_hash
	ExpiresAt  time.Time  // password_reset_tokens.expires_at
	ConsumedAt *time.Time // password_reset_tokens.consumed_at (nullable)
	CreatedAt  time.Time  // password_reset_tokens.created_at
}
