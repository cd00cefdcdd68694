package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shoply/catalog-api/internal/utils"
)

// ResetTokenRepo manages the password_reset_tokens table.  Tokens are
// stored as SHA-256 digests with a server-side expiry; the raw value is
// returned once to the caller and never persisted.
type ResetTokenRepo struct{ DB *sql.DB }

func NewResetTokenRepo(db *sql.DB) *ResetTokenRepo { return &ResetTokenRepo{DB: db} }

// Issue generates a fresh 32-byte token for the user, replacing any prior
// unconsumed token so at most one live token exists per identity.  It
// returns the raw token value for the caller to hand to the user.
func (r *ResetTokenRepo) Issue(ctx context.Context, userID uint64, ttl time.Duration) (string, error) {
	raw, err := utils.RandomToken(32)
	if err != nil {
		return "", err
	}
	exp := time.Now().UTC().Add(ttl)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM password_reset_tokens WHERE user_id=? AND consumed_at IS NULL",
		userID); err != nil {
		return "", err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO password_reset_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, utils.HashToken(raw), exp); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return raw, nil
}

// Consume atomically marks the token consumed and replaces the owner's
// password hash as one transaction.  The guard clause of the UPDATE is the
// concurrency control: `consumed_at IS NULL AND expires_at > now` means
// exactly one of any number of concurrent attempts with the same token can
// flip the row, and every other attempt sees zero affected rows.  Missing,
// expired and already-consumed tokens all fail with the same
// ErrResetTokenInvalid.
func (r *ResetTokenRepo) Consume(ctx context.Context, rawToken, newPassword string, cost int) error {
	hash := utils.HashToken(rawToken)
	newHash, err := utils.HashPassword(newPassword, cost)
	if err != nil {
		return err
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"UPDATE password_reset_tokens SET consumed_at=UTC_TIMESTAMP() WHERE token_hash=? AND consumed_at IS NULL AND expires_at > UTC_TIMESTAMP()",
		hash)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrResetTokenInvalid
	}

	var userID uint64
	if err := tx.QueryRowContext(ctx,
		"SELECT user_id FROM password_reset_tokens WHERE token_hash=? LIMIT 1",
		hash).Scan(&userID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE users SET password_hash=? WHERE id=?", newHash, userID); err != nil {
		return err
	}
	return tx.Commit()
}
