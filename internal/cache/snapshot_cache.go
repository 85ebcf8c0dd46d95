// Package cache provides the Redis-backed durable snapshot cache that lets an
// in-progress paper session survive a process restart.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/paperdrill/paperdrill-backend/internal/config"
	"github.com/paperdrill/paperdrill-backend/internal/session"
	"github.com/redis/go-redis/v9"
)

// ErrSnapshotNotFound is returned by Load when no snapshot exists.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotCache stores full session snapshots as JSON blobs keyed by session
// ID, plus a per-user pointer to the active session for resume lookups.
// Last writer wins; there is no versioning or migration.
type SnapshotCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSnapshotCache creates a SnapshotCache. ttl bounds how long an abandoned
// snapshot survives; zero disables expiry.
func NewSnapshotCache(rdb *redis.Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{rdb: rdb, ttl: ttl}
}

// Save serializes the snapshot under the session's key and refreshes the
// user's active-session pointer.
func (c *SnapshotCache) Save(ctx context.Context, snap *session.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	pipe := c.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.SessionSnapshotKey(snap.ID.String()), data, c.ttl)
	pipe.Set(ctx, config.CacheKey.UserActiveSessionKey(snap.UserID), snap.ID.String(), c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load returns the cached snapshot or ErrSnapshotNotFound.
func (c *SnapshotCache) Load(ctx context.Context, id uuid.UUID) (*session.Snapshot, error) {
	data, err := c.rdb.Get(ctx, config.CacheKey.SessionSnapshotKey(id.String())).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	var snap session.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// Delete removes the snapshot and the active-session pointer. Called on
// normal completion or explicit reset; deleting a missing entry is not an
// error.
func (c *SnapshotCache) Delete(ctx context.Context, id uuid.UUID) error {
	snap, err := c.Load(ctx, id)

	pipe := c.rdb.Pipeline()
	pipe.Del(ctx, config.CacheKey.SessionSnapshotKey(id.String()))
	if err == nil {
		pipe.Del(ctx, config.CacheKey.UserActiveSessionKey(snap.UserID))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// ActiveSessionID resolves a user's in-progress session, if any.
func (c *SnapshotCache) ActiveSessionID(ctx context.Context, userID int) (uuid.UUID, error) {
	val, err := c.rdb.Get(ctx, config.CacheKey.UserActiveSessionKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, ErrSnapshotNotFound
		}
		return uuid.Nil, fmt.Errorf("get active session: %w", err)
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid active session id: %w", err)
	}
	return id, nil
}
