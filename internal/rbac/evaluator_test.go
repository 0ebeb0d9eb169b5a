package rbac_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/shala-app/shala/internal/identity"
	"github.com/shala-app/shala/internal/rbac"
)

func snapshotFor(roles []rbac.RoleName, legacyAdmin bool) rbac.Snapshot {
	return rbac.NewSnapshot(identity.Identity{ID: uuid.New(), Email: "a@x.com"}, roles, legacyAdmin)
}

func TestHasRole(t *testing.T) {
	ev := rbac.NewEvaluator(snapshotFor([]rbac.RoleName{rbac.RoleInstructor}, false))

	assert.True(t, ev.HasRole(rbac.RoleInstructor))
	assert.False(t, ev.HasRole(rbac.RoleAdmin))
	assert.False(t, ev.HasRole(rbac.RoleYogiInTraining))
}

func TestHasAnyRole(t *testing.T) {
	ev := rbac.NewEvaluator(snapshotFor([]rbac.RoleName{rbac.RoleFrontDesk, rbac.RoleSupportAgent}, false))

	assert.True(t, ev.HasAnyRole(rbac.RoleAdmin, rbac.RoleFrontDesk))
	assert.False(t, ev.HasAnyRole(rbac.RoleAdmin, rbac.RoleSuperAdmin))
	assert.False(t, ev.HasAnyRole())
}

func TestIsAdminModernDisjunct(t *testing.T) {
	for _, name := range []rbac.RoleName{rbac.RoleAdmin, rbac.RoleSuperAdmin} {
		ev := rbac.NewEvaluator(snapshotFor([]rbac.RoleName{name}, false))
		assert.True(t, ev.IsAdmin(), "role %s should be admin-equivalent", name)
		assert.Equal(t, rbac.AdminModern, ev.AdminStatus())
	}
}

func TestIsAdminLegacyDisjunct(t *testing.T) {
	ev := rbac.NewEvaluator(snapshotFor(nil, true))

	assert.True(t, ev.IsAdmin())
	assert.Equal(t, rbac.AdminLegacy, ev.AdminStatus())
	assert.False(t, ev.CanManageRoles(), "legacy admin never manages roles")
}

func TestIsAdminUnionOfDisjuncts(t *testing.T) {
	ev := rbac.NewEvaluator(snapshotFor([]rbac.RoleName{rbac.RoleAdmin}, true))

	// Modern takes precedence when both paths grant admin.
	assert.True(t, ev.IsAdmin())
	assert.Equal(t, rbac.AdminModern, ev.AdminStatus())
}

func TestIsAdminFalseWithoutEitherDisjunct(t *testing.T) {
	ev := rbac.NewEvaluator(snapshotFor([]rbac.RoleName{rbac.RoleInstructor, rbac.RoleMantraCurator}, false))

	assert.False(t, ev.IsAdmin())
	assert.Equal(t, rbac.AdminNone, ev.AdminStatus())
}

// nonSuperRoles are the seven predefined roles other than super_admin.
func nonSuperRoles() []rbac.RoleName {
	var roles []rbac.RoleName
	for _, name := range rbac.AllRoleNames() {
		if name != rbac.RoleSuperAdmin {
			roles = append(roles, name)
		}
	}
	return roles
}

func TestCanManageRolesFalseForAllNonSuperCombinations(t *testing.T) {
	others := nonSuperRoles()

	// Every subset of the seven non-super roles, including the empty set.
	for mask := 0; mask < 1<<len(others); mask++ {
		var held []rbac.RoleName
		for i, name := range others {
			if mask&(1<<i) != 0 {
				held = append(held, name)
			}
		}
		ev := rbac.NewEvaluator(snapshotFor(held, false))
		assert.False(t, ev.CanManageRoles(), "combination %v must not manage roles", held)
	}
}

func TestCanManageRolesTrueForSuperAdmin(t *testing.T) {
	ev := rbac.NewEvaluator(snapshotFor([]rbac.RoleName{rbac.RoleSuperAdmin}, false))
	assert.True(t, ev.CanManageRoles())
}

func TestZeroEvaluatorDeniesEverything(t *testing.T) {
	var ev rbac.Evaluator

	assert.False(t, ev.IsAdmin())
	assert.False(t, ev.CanManageRoles())
	assert.False(t, ev.HasRole(rbac.RoleYogiInTraining))
	assert.Empty(t, ev.HeldRoles())
}

func TestShimRemovalEquivalenceForMigratedIdentity(t *testing.T) {
	// An identity whose legacy entry was migrated into the assignment store
	// must evaluate identically with and without the shim flag.
	withShim := rbac.NewEvaluator(snapshotFor([]rbac.RoleName{rbac.RoleAdmin}, true))
	withoutShim := rbac.NewEvaluator(snapshotFor([]rbac.RoleName{rbac.RoleAdmin}, false))

	assert.Equal(t, withShim.IsAdmin(), withoutShim.IsAdmin())
	assert.Equal(t, withShim.CanManageRoles(), withoutShim.CanManageRoles())
	for _, name := range rbac.AllRoleNames() {
		assert.Equal(t, withShim.HasRole(name), withoutShim.HasRole(name))
	}
}

func TestRoleNameValidation(t *testing.T) {
	for _, name := range rbac.AllRoleNames() {
		assert.True(t, name.Valid())
	}
	assert.False(t, rbac.RoleName("moderator").Valid())
	assert.False(t, rbac.RoleName("").Valid())
}
