package rbac

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for the role catalog and
// the assignment store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListRoles returns all catalog roles ordered by name.
func (r *Repository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, created_at, updated_at FROM roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return roles, nil
}

// GetRoleByName fetches one catalog role. Returns ErrRoleNotFound when the
// name is not in the catalog.
func (r *Repository) GetRoleByName(ctx context.Context, name RoleName) (Role, error) {
	var role Role
	err := r.pool.QueryRow(ctx, `SELECT id, name, description, created_at, updated_at FROM roles WHERE name = $1`, name).
		Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, ErrRoleNotFound
		}
		return Role{}, err
	}
	return role, nil
}

// CreateRole inserts a new catalog role.
func (r *Repository) CreateRole(ctx context.Context, name RoleName, description string) (Role, error) {
	var role Role
	err := r.pool.QueryRow(ctx,
		`INSERT INTO roles (name, description) VALUES ($1, $2) RETURNING id, name, description, created_at, updated_at`,
		name, description).
		Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		return Role{}, err
	}
	return role, nil
}

// UpdateRoleDescription changes a role's description. Names are stable
// identifiers once referenced by assignments, so only the description moves.
func (r *Repository) UpdateRoleDescription(ctx context.Context, name RoleName, description string) (Role, error) {
	var role Role
	err := r.pool.QueryRow(ctx,
		`UPDATE roles SET description = $2, updated_at = NOW() WHERE name = $1 RETURNING id, name, description, created_at, updated_at`,
		name, description).
		Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, ErrRoleNotFound
		}
		return Role{}, err
	}
	return role, nil
}

// DeleteRole removes a role; assignments cascade. Returns ErrRoleNotFound if
// nothing was deleted.
func (r *Repository) DeleteRole(ctx context.Context, name RoleName) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE name = $1`, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRoleNotFound
	}
	return nil
}

// Assign grants a role to an identity. The unique key on (user_id, role_id)
// makes a duplicate grant a safe no-op rather than a race.
func (r *Repository) Assign(ctx context.Context, identityID uuid.UUID, roleID int64, assignedBy *uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_roles (user_id, role_id, assigned_by, assigned_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (user_id, role_id) DO NOTHING`,
		identityID, roleID, assignedBy)
	return err
}

// Revoke removes a role from an identity. No-op when not held.
func (r *Repository) Revoke(ctx context.Context, identityID uuid.UUID, roleID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`, identityID, roleID)
	return err
}

// RolesFor returns the role names held by one identity in a single query.
func (r *Repository) RolesFor(ctx context.Context, identityID uuid.UUID) ([]RoleName, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT r.name FROM user_roles ur JOIN roles r ON r.id = ur.role_id WHERE ur.user_id = $1 ORDER BY r.name`,
		identityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []RoleName
	for rows.Next() {
		var name RoleName
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

// AllAssignments lists every assignment grouped per identity.
func (r *Repository) AllAssignments(ctx context.Context) ([]IdentityRoles, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT ur.user_id, r.name
		 FROM user_roles ur JOIN roles r ON r.id = ur.role_id
		 ORDER BY ur.user_id, r.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grouped []IdentityRoles
	for rows.Next() {
		var identityID uuid.UUID
		var name RoleName
		if err := rows.Scan(&identityID, &name); err != nil {
			return nil, err
		}
		if n := len(grouped); n > 0 && grouped[n-1].IdentityID == identityID {
			grouped[n-1].Roles = append(grouped[n-1].Roles, name)
			continue
		}
		grouped = append(grouped, IdentityRoles{IdentityID: identityID, Roles: []RoleName{name}})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return grouped, nil
}
