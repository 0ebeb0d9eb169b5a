// Package rbac implements the role catalog, assignment store, and the
// authorization evaluator that gates every protected resource.
package rbac

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors surfaced by management operations.
var (
	// ErrRoleNotFound indicates the named role does not exist in the catalog.
	ErrRoleNotFound = errors.New("rbac: role not found")
	// ErrUnauthorized indicates the acting identity lacks the required role.
	ErrUnauthorized = errors.New("rbac: unauthorized")
	// ErrUnknownRoleName indicates a role name outside the closed enumeration.
	ErrUnknownRoleName = errors.New("rbac: unknown role name")
)

// RoleName identifies a role in the closed catalog enumeration.
type RoleName string

// The predefined roles. The catalog is seeded with exactly this set and
// validated against it at startup so a typo fails fast instead of silently
// evaluating to "no role".
const (
	RoleSuperAdmin     RoleName = "super_admin"
	RoleAdmin          RoleName = "admin"
	RoleStudioManager  RoleName = "studio_manager"
	RoleInstructor     RoleName = "instructor"
	RoleFrontDesk      RoleName = "front_desk"
	RoleMantraCurator  RoleName = "mantra_curator"
	RoleSupportAgent   RoleName = "support_agent"
	RoleYogiInTraining RoleName = "yogi_in_training"
)

// AllRoleNames returns the closed role enumeration in catalog order.
func AllRoleNames() []RoleName {
	return []RoleName{
		RoleSuperAdmin,
		RoleAdmin,
		RoleStudioManager,
		RoleInstructor,
		RoleFrontDesk,
		RoleMantraCurator,
		RoleSupportAgent,
		RoleYogiInTraining,
	}
}

// Valid reports whether the name belongs to the closed enumeration.
func (n RoleName) Valid() bool {
	switch n {
	case RoleSuperAdmin, RoleAdmin, RoleStudioManager, RoleInstructor,
		RoleFrontDesk, RoleMantraCurator, RoleSupportAgent, RoleYogiInTraining:
		return true
	}
	return false
}

// Role represents a catalog entry.
type Role struct {
	ID          int64
	Name        RoleName
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Assignment links an identity to a role. An identity holds each role at
// most once; (IdentityID, RoleID) is the composite key.
type Assignment struct {
	IdentityID uuid.UUID
	RoleID     int64
	AssignedBy *uuid.UUID
	AssignedAt time.Time
}

// IdentityRoles groups the role names held by one identity, for the
// administrative assignment listing.
type IdentityRoles struct {
	IdentityID uuid.UUID
	Roles      []RoleName
}

// LegacyAdminEntry is a row in the deprecated email-keyed admin list. It is
// consulted read-only during admin-status resolution and goes away once
// migration into the assignment store completes.
type LegacyAdminEntry struct {
	Email string
	Role  RoleName
}
