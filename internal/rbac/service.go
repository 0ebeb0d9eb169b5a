package rbac

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shala-app/shala/internal/audit"
)

// RepositoryPort defines data access methods for the catalog and the
// assignment store.
type RepositoryPort interface {
	ListRoles(ctx context.Context) ([]Role, error)
	GetRoleByName(ctx context.Context, name RoleName) (Role, error)
	CreateRole(ctx context.Context, name RoleName, description string) (Role, error)
	UpdateRoleDescription(ctx context.Context, name RoleName, description string) (Role, error)
	DeleteRole(ctx context.Context, name RoleName) error
	Assign(ctx context.Context, identityID uuid.UUID, roleID int64, assignedBy *uuid.UUID) error
	Revoke(ctx context.Context, identityID uuid.UUID, roleID int64) error
	RolesFor(ctx context.Context, identityID uuid.UUID) ([]RoleName, error)
	AllAssignments(ctx context.Context) ([]IdentityRoles, error)
}

// Service orchestrates catalog and assignment operations. Management
// mutations are gated here, at the data-access boundary, on the acting
// identity's evaluator; hiding buttons in the console is never the boundary.
type Service struct {
	repo   RepositoryPort
	cache  *SnapshotCache
	audit  audit.Recorder
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo RepositoryPort, cache *SnapshotCache, recorder audit.Recorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, audit: recorder, logger: logger}
}

// ListRoles returns the catalog ordered by name. Catalog reads are public.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// CreateRole inserts a catalog role. Super admin only.
func (s *Service) CreateRole(ctx context.Context, actor Evaluator, name RoleName, description string) (Role, error) {
	if !actor.CanManageRoles() {
		return Role{}, fmt.Errorf("%w: role management requires super_admin", ErrUnauthorized)
	}
	if !name.Valid() {
		return Role{}, fmt.Errorf("%w: %q", ErrUnknownRoleName, name)
	}
	role, err := s.repo.CreateRole(ctx, name, description)
	if err != nil {
		return Role{}, err
	}
	s.record(ctx, actor, "role.create", string(name), nil)
	return role, nil
}

// UpdateRoleDescription edits a role's description. Super admin only.
func (s *Service) UpdateRoleDescription(ctx context.Context, actor Evaluator, name RoleName, description string) (Role, error) {
	if !actor.CanManageRoles() {
		return Role{}, fmt.Errorf("%w: role management requires super_admin", ErrUnauthorized)
	}
	role, err := s.repo.UpdateRoleDescription(ctx, name, description)
	if err != nil {
		return Role{}, err
	}
	s.record(ctx, actor, "role.update", string(name), nil)
	return role, nil
}

// DeleteRole removes a role and, by cascade, its assignments. Super admin
// only.
func (s *Service) DeleteRole(ctx context.Context, actor Evaluator, name RoleName) error {
	if !actor.CanManageRoles() {
		return fmt.Errorf("%w: role management requires super_admin", ErrUnauthorized)
	}
	if err := s.repo.DeleteRole(ctx, name); err != nil {
		return err
	}
	s.record(ctx, actor, "role.delete", string(name), nil)
	return nil
}

// Assign grants a role to an identity. Idempotent: granting an already-held
// role is a no-op. Unknown role names fail with ErrRoleNotFound before any
// write happens.
func (s *Service) Assign(ctx context.Context, actor Evaluator, identityID uuid.UUID, name RoleName) error {
	if !actor.CanManageRoles() {
		return fmt.Errorf("%w: assignment management requires super_admin", ErrUnauthorized)
	}
	role, err := s.repo.GetRoleByName(ctx, name)
	if err != nil {
		return err
	}
	assignedBy := actor.Identity().ID
	var by *uuid.UUID
	if assignedBy != uuid.Nil {
		by = &assignedBy
	}
	if err := s.repo.Assign(ctx, identityID, role.ID, by); err != nil {
		return err
	}
	s.invalidate(ctx, identityID)
	s.record(ctx, actor, "assignment.grant", string(name), map[string]any{"identity_id": identityID.String()})
	return nil
}

// Revoke removes a role from an identity. No-op when not held.
func (s *Service) Revoke(ctx context.Context, actor Evaluator, identityID uuid.UUID, name RoleName) error {
	if !actor.CanManageRoles() {
		return fmt.Errorf("%w: assignment management requires super_admin", ErrUnauthorized)
	}
	role, err := s.repo.GetRoleByName(ctx, name)
	if err != nil {
		return err
	}
	if err := s.repo.Revoke(ctx, identityID, role.ID); err != nil {
		return err
	}
	s.invalidate(ctx, identityID)
	s.record(ctx, actor, "assignment.revoke", string(name), map[string]any{"identity_id": identityID.String()})
	return nil
}

// RolesFor returns the role names held by one identity.
func (s *Service) RolesFor(ctx context.Context, identityID uuid.UUID) ([]RoleName, error) {
	return s.repo.RolesFor(ctx, identityID)
}

// AllAssignments lists every assignment grouped per identity, for the
// console's administrative listing.
func (s *Service) AllAssignments(ctx context.Context) ([]IdentityRoles, error) {
	return s.repo.AllAssignments(ctx)
}

// ValidateCatalog checks at startup that every name in the closed enumeration
// exists in the catalog, so a missing seed fails fast instead of every check
// quietly evaluating to "no role".
func (s *Service) ValidateCatalog(ctx context.Context) error {
	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		return fmt.Errorf("rbac: validate catalog: %w", err)
	}
	seeded := make(map[RoleName]struct{}, len(roles))
	for _, r := range roles {
		seeded[r.Name] = struct{}{}
	}
	var missing []RoleName
	for _, name := range AllRoleNames() {
		if _, ok := seeded[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("rbac: catalog missing seeded roles %v", missing)
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, identityID uuid.UUID) {
	if err := s.cache.Invalidate(ctx, identityID); err != nil && s.logger != nil {
		s.logger.Warn("role snapshot invalidate", slog.Any("error", err))
	}
}

func (s *Service) record(ctx context.Context, actor Evaluator, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	entry := audit.Entry{
		ActorID:  actor.Identity().ID,
		Action:   action,
		Entity:   "rbac",
		EntityID: entityID,
		Meta:     meta,
	}
	if err := s.audit.Record(ctx, entry); err != nil && s.logger != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
