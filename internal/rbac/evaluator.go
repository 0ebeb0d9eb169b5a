package rbac

import (
	"github.com/shala-app/shala/internal/identity"
)

// Snapshot is one consistent read of an identity's effective roles, taken
// once per request. Evaluation over a snapshot keeps a single authorization
// decision internally consistent even while another actor mutates the store.
type Snapshot struct {
	Identity    identity.Identity
	Roles       map[RoleName]struct{}
	LegacyAdmin bool
}

// NewSnapshot builds a snapshot from a resolved role list.
func NewSnapshot(id identity.Identity, roles []RoleName, legacyAdmin bool) Snapshot {
	held := make(map[RoleName]struct{}, len(roles))
	for _, r := range roles {
		held[r] = struct{}{}
	}
	return Snapshot{Identity: id, Roles: held, LegacyAdmin: legacyAdmin}
}

// AdminStatus tags which path, if any, grants admin equivalence. Keeping the
// legacy path as an explicit variant makes the migration seam visible and
// removable in one place.
type AdminStatus int

const (
	// AdminNone means no admin equivalence.
	AdminNone AdminStatus = iota
	// AdminModern means admin equivalence via the assignment store.
	AdminModern
	// AdminLegacy means admin equivalence only via the deprecated admin list.
	AdminLegacy
)

// Evaluator answers authorization questions for one identity over one
// snapshot. It is pure: no store access, no side effects.
type Evaluator struct {
	snap Snapshot
}

// NewEvaluator wraps a snapshot. The zero Evaluator holds no roles and
// denies everything, which is the fail-closed default when role resolution
// fails.
func NewEvaluator(snap Snapshot) Evaluator {
	return Evaluator{snap: snap}
}

// Identity returns the identity the evaluator was built for.
func (e Evaluator) Identity() identity.Identity {
	return e.snap.Identity
}

// HasRole reports whether the identity holds the named role.
func (e Evaluator) HasRole(name RoleName) bool {
	_, ok := e.snap.Roles[name]
	return ok
}

// HasAnyRole reports whether the identity holds at least one of the names.
func (e Evaluator) HasAnyRole(names ...RoleName) bool {
	for _, n := range names {
		if e.HasRole(n) {
			return true
		}
	}
	return false
}

// AdminStatus resolves admin equivalence across both systems. The modern
// assignment store wins when both grant it.
func (e Evaluator) AdminStatus() AdminStatus {
	if e.HasAnyRole(RoleAdmin, RoleSuperAdmin) {
		return AdminModern
	}
	if e.snap.LegacyAdmin {
		return AdminLegacy
	}
	return AdminNone
}

// IsAdmin reports admin equivalence via either the modern or the legacy path.
func (e Evaluator) IsAdmin() bool {
	return e.AdminStatus() != AdminNone
}

// CanManageRoles reports whether the identity may mutate the role catalog and
// assignment store. Only super_admin qualifies; legacy entries never do.
func (e Evaluator) CanManageRoles() bool {
	return e.HasRole(RoleSuperAdmin)
}

// HeldRoles returns the held role names, for listings and audit metadata.
func (e Evaluator) HeldRoles() []RoleName {
	roles := make([]RoleName, 0, len(e.snap.Roles))
	for r := range e.snap.Roles {
		roles = append(roles, r)
	}
	return roles
}
