package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "sess:"

// Store persists session contexts in Redis under "sess:<id>" with a
// rolling TTL.  Redis is the system of record for the live session; the
// MySQL audit row is a best-effort shadow of it.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore wraps a Redis client.  The client may be nil when Redis is
// unreachable at startup; the orchestrator treats that as a fatal
// configuration error on first use rather than limping along without
// sessions.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{rdb: rdb, ttl: ttl}
}

// Ready reports whether the store has a usable Redis client.
func (s *Store) Ready() bool { return s != nil && s.rdb != nil }

// Get loads a session context by identifier.  A missing key returns
// (nil, nil): an expired or never-established session is not an error.
func (s *Store) Get(ctx context.Context, id string) (*Context, error) {
	raw, err := s.rdb.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var sc Context
	if err := json.Unmarshal(raw, &sc); err != nil {
		// Corrupt payloads are dropped rather than surfaced; the caller
		// sees "no session" and the client re-authenticates.
		return nil, nil
	}
	return &sc, nil
}

// Save writes a session context, resetting its TTL.
func (s *Store) Save(ctx context.Context, id string, sc *Context) error {
	raw, err := json.Marshal(sc)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, keyPrefix+id, raw, s.ttl).Err()
}

// Delete removes a session context.  Deleting a missing key is a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, keyPrefix+id).Err()
}
