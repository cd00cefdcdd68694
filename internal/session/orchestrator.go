package session

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/shoply/catalog-api/internal/model"
	"github.com/shoply/catalog-api/internal/queue"
)

// ErrSessionUnavailable means the session backing store was never
// configured.  This is a deployment error surfaced as a 500, not a runtime
// condition to recover from.
var ErrSessionUnavailable = errors.New("session store is not configured")

// Recorder is the audit-trail collaborator.  Writes through it are
// best-effort: the orchestrator logs failures but never lets them change
// the outcome of a login or logout.
type Recorder interface {
	UpsertLogin(ctx context.Context, sessionID string, userID uint64, email string) (model.SessionRecord, error)
	MarkLogout(ctx context.Context, sessionID string) (*model.SessionRecord, error)
}

// Orchestrator drives the session state machine.  Establish and Teardown
// are linear pipelines of store calls executed in a fixed order; the order
// is load-bearing (see Establish) and must not be rearranged.  No lock is
// held across the steps: per-key atomicity is delegated to the stores, and
// concurrent writes to the same identifier are last-write-wins, which is
// acceptable because an identifier is bound to a single browser.
type Orchestrator struct {
	Store   *Store
	Records Recorder
	// Publish sends a best-effort audit event to the broker.  Nil disables
	// publishing; errors are logged and dropped.
	Publish func(ctx context.Context, ev queue.SessionAuditEvent) error
}

// Establish turns a verified identity into a live server-side session and
// returns the fresh session identifier together with its context.  The
// caller binds the identifier to the client (signed cookie) only after
// this returns nil.
//
// Step order matters:
//
//  1. The prior identifier is discarded BEFORE any claim is written.  This
//     invalidates anything an attacker may have fixated pre-login, and
//     guarantees claims can never land under a stale identifier.
//  2. Claims go into the freshly minted context.
//  3. The audit row is upserted keyed by the fresh identifier — best
//     effort, logged on failure, never blocks the login.
//  4. The context is persisted.  THIS failure is surfaced: a client must
//     never end up authenticated but sessionless without seeing an error.
func (o *Orchestrator) Establish(ctx context.Context, priorID string, user model.User) (string, *Context, error) {
	if o == nil || !o.Store.Ready() {
		return "", nil, ErrSessionUnavailable
	}

	// Regenerate first.
	if priorID != "" {
		if err := o.Store.Delete(ctx, priorID); err != nil {
			log.Printf("session: discard prior session %.12s failed: %v", priorID, err)
		}
	}
	id, err := NewSessionID()
	if err != nil {
		return "", nil, err
	}

	sc := &Context{
		UserID: user.ID,
		Email:  user.Email,
		Status: model.SessionLoggedIn,
		User:   UserSummary{ID: user.ID, Email: user.Email},
	}

	if o.Records != nil {
		if _, err := o.Records.UpsertLogin(ctx, id, user.ID, user.Email); err != nil {
			log.Printf("session: record login failed for %.12s: %v", id, err)
		}
	}

	if err := o.Store.Save(ctx, id, sc); err != nil {
		return "", nil, err
	}

	o.publish(ctx, queue.ActionLogin, id, user.ID, user.Email)
	return id, sc, nil
}

// Teardown reverses Establish for the given identifier.  Calling it with
// no session is a successful no-op, so logout is idempotent.  The audit
// update is best-effort, but persisting the logged_out context is not: if
// that write fails the caller must not claim the logout succeeded, so the
// error is returned.  Clearing the client cookie is the caller's job after
// this returns nil.
func (o *Orchestrator) Teardown(ctx context.Context, id string, sc *Context) error {
	if id == "" || sc == nil {
		return nil
	}
	if o == nil || !o.Store.Ready() {
		return ErrSessionUnavailable
	}

	sc.Status = model.SessionLoggedOut

	if o.Records != nil {
		if _, err := o.Records.MarkLogout(ctx, id); err != nil {
			log.Printf("session: record logout failed for %.12s: %v", id, err)
		}
	}

	if err := o.Store.Save(ctx, id, sc); err != nil {
		return err
	}

	o.publish(ctx, queue.ActionLogout, id, sc.UserID, sc.Email)
	return nil
}

func (o *Orchestrator) publish(ctx context.Context, action, sessionID string, userID uint64, email string) {
	if o.Publish == nil {
		return
	}
	ev := queue.SessionAuditEvent{
		EventID:    uuid.NewString(),
		SessionID:  sessionID,
		UserID:     userID,
		Email:      email,
		Action:     action,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := o.Publish(ctx, ev); err != nil {
		log.Printf("session: publish %s audit event failed: %v", action, err)
	}
}
