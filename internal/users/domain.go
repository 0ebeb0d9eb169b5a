// Package users exposes the identity directory mirrored from the auth
// provider, for the admin console's user management screens.
package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/shala-app/shala/internal/rbac"
)

// User represents a mirrored identity record.
type User struct {
	ID        uuid.UUID
	Email     string
	FullName  string
	IsActive  bool
	CreatedAt time.Time
}

// UserWithRoles pairs a user with their held role names for the console's
// role assignment screen.
type UserWithRoles struct {
	User  User
	Roles []rbac.RoleName
}
