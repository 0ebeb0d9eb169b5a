package rbac_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shala-app/shala/internal/identity"
	"github.com/shala-app/shala/internal/rbac"
)

type stubAssignments struct {
	roles map[uuid.UUID][]rbac.RoleName
	err   error
	calls int
}

func (s *stubAssignments) RolesFor(ctx context.Context, identityID uuid.UUID) ([]rbac.RoleName, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.roles[identityID], nil
}

type stubLegacy struct {
	admins map[string]bool
	err    error
}

func (s *stubLegacy) IsAdminEmail(ctx context.Context, email string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.admins[email], nil
}

func newTestCache(t *testing.T, ttl time.Duration) *rbac.SnapshotCache {
	t.Helper()
	mr := miniredis.RunT(t)
	return rbac.NewSnapshotCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), ttl)
}

func TestResolveBuildsSnapshotFromStore(t *testing.T) {
	id := identity.Identity{ID: uuid.New(), Email: "a@x.com"}
	assignments := &stubAssignments{roles: map[uuid.UUID][]rbac.RoleName{id.ID: {rbac.RoleInstructor}}}
	resolver := rbac.NewResolver(assignments, &stubLegacy{}, nil, nil)

	ev, err := resolver.Resolve(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, ev.HasRole(rbac.RoleInstructor))
	assert.False(t, ev.IsAdmin())
}

func TestResolveLegacyOnlyAdmin(t *testing.T) {
	// Legacy entry exists for the email but no assignment rows: admin via
	// the shim path only.
	id := identity.Identity{ID: uuid.New(), Email: "a@x.com"}
	assignments := &stubAssignments{roles: map[uuid.UUID][]rbac.RoleName{}}
	legacy := &stubLegacy{admins: map[string]bool{"a@x.com": true}}
	resolver := rbac.NewResolver(assignments, legacy, nil, nil)

	ev, err := resolver.Resolve(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, ev.IsAdmin())
	assert.Equal(t, rbac.AdminLegacy, ev.AdminStatus())
	assert.False(t, ev.CanManageRoles())
}

func TestResolveFailsClosedOnStoreError(t *testing.T) {
	id := identity.Identity{ID: uuid.New(), Email: "a@x.com"}
	assignments := &stubAssignments{err: errors.New("store unavailable")}
	resolver := rbac.NewResolver(assignments, &stubLegacy{admins: map[string]bool{"a@x.com": true}}, nil, nil)

	ev, err := resolver.Resolve(context.Background(), id)
	require.Error(t, err)
	// Empty role set: deny, never default to permissive access.
	assert.False(t, ev.IsAdmin())
	assert.False(t, ev.HasRole(rbac.RoleYogiInTraining))
}

func TestResolveFailsClosedOnLegacyError(t *testing.T) {
	id := identity.Identity{ID: uuid.New(), Email: "a@x.com"}
	assignments := &stubAssignments{roles: map[uuid.UUID][]rbac.RoleName{id.ID: {rbac.RoleAdmin}}}
	resolver := rbac.NewResolver(assignments, &stubLegacy{err: errors.New("store unavailable")}, nil, nil)

	ev, err := resolver.Resolve(context.Background(), id)
	require.Error(t, err)
	assert.False(t, ev.IsAdmin())
}

func TestResolveAnonymousIsEmpty(t *testing.T) {
	resolver := rbac.NewResolver(&stubAssignments{}, &stubLegacy{}, nil, nil)

	ev, err := resolver.Resolve(context.Background(), identity.Identity{})
	require.NoError(t, err)
	assert.False(t, ev.IsAdmin())
	assert.Empty(t, ev.HeldRoles())
}

func TestResolveUsesCacheWithinWindow(t *testing.T) {
	id := identity.Identity{ID: uuid.New(), Email: "a@x.com"}
	assignments := &stubAssignments{roles: map[uuid.UUID][]rbac.RoleName{id.ID: {rbac.RoleAdmin}}}
	cache := newTestCache(t, time.Minute)
	resolver := rbac.NewResolver(assignments, &stubLegacy{}, cache, nil)
	ctx := context.Background()

	ev, err := resolver.Resolve(ctx, id)
	require.NoError(t, err)
	assert.True(t, ev.IsAdmin())

	ev, err = resolver.Resolve(ctx, id)
	require.NoError(t, err)
	assert.True(t, ev.IsAdmin())
	assert.Equal(t, 1, assignments.calls, "second resolve should hit the cache")
}

func TestCacheInvalidateForcesFreshRead(t *testing.T) {
	id := identity.Identity{ID: uuid.New(), Email: "a@x.com"}
	assignments := &stubAssignments{roles: map[uuid.UUID][]rbac.RoleName{id.ID: {rbac.RoleAdmin}}}
	cache := newTestCache(t, time.Minute)
	resolver := rbac.NewResolver(assignments, &stubLegacy{}, cache, nil)
	ctx := context.Background()

	_, err := resolver.Resolve(ctx, id)
	require.NoError(t, err)

	// Revoke upstream, then bust the cache the way Service does.
	assignments.roles[id.ID] = nil
	require.NoError(t, cache.Invalidate(ctx, id.ID))

	ev, err := resolver.Resolve(ctx, id)
	require.NoError(t, err)
	assert.False(t, ev.IsAdmin())
	assert.Equal(t, 2, assignments.calls)
}

func TestCacheMissAfterTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := rbac.NewSnapshotCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Second)
	ctx := context.Background()
	identityID := uuid.New()

	require.NoError(t, cache.Put(ctx, identityID, []rbac.RoleName{rbac.RoleAdmin}, false))
	mr.FastForward(2 * time.Second)

	_, _, err := cache.Get(ctx, identityID)
	assert.ErrorIs(t, err, rbac.ErrCacheMiss)
}

func TestNilCacheIsTransparent(t *testing.T) {
	var cache *rbac.SnapshotCache
	ctx := context.Background()
	identityID := uuid.New()

	_, _, err := cache.Get(ctx, identityID)
	assert.ErrorIs(t, err, rbac.ErrCacheMiss)
	assert.NoError(t, cache.Put(ctx, identityID, nil, false))
	assert.NoError(t, cache.Invalidate(ctx, identityID))
}
