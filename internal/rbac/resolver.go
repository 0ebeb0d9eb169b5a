package rbac

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/shala-app/shala/internal/identity"
)

// AssignmentSource reads effective roles for snapshot resolution.
type AssignmentSource interface {
	RolesFor(ctx context.Context, identityID uuid.UUID) ([]RoleName, error)
}

// LegacySource answers the deprecated email-keyed admin check.
type LegacySource interface {
	IsAdminEmail(ctx context.Context, email string) (bool, error)
}

// Resolver takes one consistent read of an identity's roles per request and
// hands back a pure Evaluator. Identity is always passed in explicitly; there
// is no ambient caller state.
type Resolver struct {
	assignments AssignmentSource
	legacy      LegacySource
	cache       *SnapshotCache
	logger      *slog.Logger
	group       singleflight.Group
}

// NewResolver constructs a resolver. cache may be nil to disable caching.
func NewResolver(assignments AssignmentSource, legacy LegacySource, cache *SnapshotCache, logger *slog.Logger) *Resolver {
	return &Resolver{assignments: assignments, legacy: legacy, cache: cache, logger: logger}
}

// Resolve builds the evaluator for an identity. On any failure to resolve
// roles the returned evaluator holds the empty role set: authorization fails
// closed, never open. The error is returned alongside so callers can log it.
func (r *Resolver) Resolve(ctx context.Context, id identity.Identity) (Evaluator, error) {
	if id.IsZero() {
		return NewEvaluator(Snapshot{Identity: id}), nil
	}

	if roles, legacyAdmin, err := r.cache.Get(ctx, id.ID); err == nil {
		return NewEvaluator(NewSnapshot(id, roles, legacyAdmin)), nil
	}

	// Collapse concurrent misses for the same identity into one store read.
	loaded, err, _ := r.group.Do(id.ID.String(), func() (any, error) {
		return r.load(ctx, id)
	})
	if err != nil {
		return NewEvaluator(Snapshot{Identity: id}), err
	}

	state := loaded.(snapshotState)
	return NewEvaluator(NewSnapshot(id, state.roles, state.legacyAdmin)), nil
}

type snapshotState struct {
	roles       []RoleName
	legacyAdmin bool
}

func (r *Resolver) load(ctx context.Context, id identity.Identity) (snapshotState, error) {
	roles, err := r.assignments.RolesFor(ctx, id.ID)
	if err != nil {
		return snapshotState{}, err
	}

	legacyAdmin := false
	if r.legacy != nil {
		legacyAdmin, err = r.legacy.IsAdminEmail(ctx, id.Email)
		if err != nil {
			return snapshotState{}, err
		}
	}

	if err := r.cache.Put(ctx, id.ID, roles, legacyAdmin); err != nil && r.logger != nil {
		r.logger.Warn("role snapshot cache put", slog.Any("error", err))
	}
	return snapshotState{roles: roles, legacyAdmin: legacyAdmin}, nil
}
