package users

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/shala-app/shala/internal/platform/httpx"
	"github.com/shala-app/shala/internal/rbac"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id uuid.UUID) (User, error)
}

// RolesPort reads role names for one identity.
type RolesPort interface {
	RolesFor(ctx context.Context, identityID uuid.UUID) ([]rbac.RoleName, error)
}

// Service handles user directory logic. The directory is admin-only: it is
// not one of the four policy resource classes, and the console's user screens
// are an admin surface.
type Service struct {
	repo  RepositoryPort
	roles RolesPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, roles RolesPort) *Service {
	return &Service{repo: repo, roles: roles}
}

// ListUsers returns all mirrored identities.
func (s *Service) ListUsers(ctx context.Context, actor rbac.Evaluator) ([]User, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: user directory requires admin", httpx.ErrForbidden)
	}
	return s.repo.ListUsers(ctx)
}

// GetWithRoles returns one user together with their held roles.
func (s *Service) GetWithRoles(ctx context.Context, actor rbac.Evaluator, id uuid.UUID) (UserWithRoles, error) {
	if !actor.IsAdmin() {
		return UserWithRoles{}, fmt.Errorf("%w: user directory requires admin", httpx.ErrForbidden)
	}
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return UserWithRoles{}, err
	}
	roles, err := s.roles.RolesFor(ctx, id)
	if err != nil {
		return UserWithRoles{}, err
	}
	return UserWithRoles{User: u, Roles: roles}, nil
}
