package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss indicates no cached snapshot exists for the identity.
var ErrCacheMiss = errors.New("rbac: cache miss")

// SnapshotCache holds per-identity role snapshots in Redis for a short,
// explicit window. A stale role set is a security hazard, so the TTL is kept
// small and every assign/revoke busts the affected identity's entry; this is
// a documented trust/performance tradeoff, not an optimization free lunch.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotCache constructs a cache with the given invalidation window.
func NewSnapshotCache(client *redis.Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{client: client, ttl: ttl}
}

type cachedSnapshot struct {
	Roles       []RoleName `json:"roles"`
	LegacyAdmin bool       `json:"legacy_admin"`
}

func snapshotKey(identityID uuid.UUID) string {
	return "shala:roles:" + identityID.String()
}

// Get returns the cached role set for an identity, or ErrCacheMiss.
func (c *SnapshotCache) Get(ctx context.Context, identityID uuid.UUID) ([]RoleName, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, ErrCacheMiss
	}
	payload, err := c.client.Get(ctx, snapshotKey(identityID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, ErrCacheMiss
		}
		return nil, false, err
	}
	var stored cachedSnapshot
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, false, err
	}
	return stored.Roles, stored.LegacyAdmin, nil
}

// Put stores a freshly resolved role set.
func (c *SnapshotCache) Put(ctx context.Context, identityID uuid.UUID, roles []RoleName, legacyAdmin bool) error {
	if c == nil || c.client == nil {
		return nil
	}
	payload, err := json.Marshal(cachedSnapshot{Roles: roles, LegacyAdmin: legacyAdmin})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, snapshotKey(identityID), payload, c.ttl).Err()
}

// Invalidate drops the cached entry for an identity after a grant or revoke.
func (c *SnapshotCache) Invalidate(ctx context.Context, identityID uuid.UUID) error {
	if c == nil || c.client == nil {
		return nil
	}
	err := c.client.Del(ctx, snapshotKey(identityID)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
