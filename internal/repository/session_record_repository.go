package repository

import (
	"context"
	"database/sql"

	"github.com/shoply/catalog-api/internal/model"
)

// SessionRecordRepo persists the append-only session audit trail in the
// user_sessions table.  One row exists per session identifier and is never
// deleted: a login upserts the row back to logged_in, a logout flips it to
// logged_out.  Per-key atomicity comes from the database itself (unique
// session_id plus INSERT ... ON DUPLICATE KEY UPDATE), so no in-process
// locking is needed across concurrent requests.
type SessionRecordRepo struct{ DB *sql.DB }

func NewSessionRecordRepo(db *sql.DB) *SessionRecordRepo { return &SessionRecordRepo{DB: db} }

// UpsertLogin writes the logged_in state for a session identifier as one
// atomic find-and-replace-or-insert.  A pre-existing row with the same
// identifier is overwritten rather than duplicated, which keeps the write
// idempotent by key; logged_out_at is cleared whenever status returns to
// logged_in.
func (r *SessionRecordRepo) UpsertLogin(ctx context.Context, sessionID string, userID uint64, email string) (model.SessionRecord, error) {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO user_sessions (session_id, user_id, email, status, logged_in_at, logged_out_at)
		 VALUES (?,?,?,?,UTC_TIMESTAMP(),NULL)
		 ON DUPLICATE KEY UPDATE
		   user_id=VALUES(user_id), email=VALUES(email), status=VALUES(status),
		   logged_in_at=UTC_TIMESTAMP(), logged_out_at=NULL`,
		sessionID, userID, NormalizeEmail(email), model.SessionLoggedIn)
	if err != nil {
		return model.SessionRecord{}, err
	}
	return r.getBySessionID(ctx, sessionID)
}

// MarkLogout flips a session's audit row to logged_out.  A missing row is
// not an error: it means no audit trail existed for this identifier, which
// is tolerated, and nil is returned for the record.
func (r *SessionRecordRepo) MarkLogout(ctx context.Context, sessionID string) (*model.SessionRecord, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE user_sessions SET status=?, logged_out_at=UTC_TIMESTAMP() WHERE session_id=?",
		model.SessionLoggedOut, sessionID)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, nil
	}
	rec, err := r.getBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *SessionRecordRepo) getBySessionID(ctx context.Context, sessionID string) (model.SessionRecord, error) {
	var (
		rec       model.SessionRecord
		loggedOut sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, session_id, user_id, email, status, logged_in_at, logged_out_at, created_at, updated_at
		 FROM user_sessions WHERE session_id=? LIMIT 1`,
		sessionID).Scan(&rec.ID, &rec.SessionID, &rec.UserID, &rec.Email, &rec.Status,
		&rec.LoggedInAt, &loggedOut, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return model.SessionRecord{}, err
	}
	if loggedOut.Valid {
		t := loggedOut.Time
		rec.LoggedOutAt = &t
	}
	return rec, nil
}
