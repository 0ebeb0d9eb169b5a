package rbac

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LegacyStore reads the deprecated email-keyed admin list. It exists only as
// the OR-fallback inside admin-status resolution and as the source for the
// migration sweep; nothing writes to it.
//
// Migration seam: once every entry has a matching assignment row, this store
// and the admin_users table can be dropped without any behavior change.
type LegacyStore struct {
	pool *pgxpool.Pool
}

// NewLegacyStore constructs the read-only legacy store.
func NewLegacyStore(pool *pgxpool.Pool) *LegacyStore {
	return &LegacyStore{pool: pool}
}

// IsAdminEmail reports whether the email appears in the legacy list with an
// admin-equivalent role.
func (s *LegacyStore) IsAdminEmail(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false, nil
	}
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM admin_users WHERE lower(email) = $1 AND role IN ('admin', 'super_admin'))`,
		email).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// ListEntries returns every legacy entry, for the migration sweep.
func (s *LegacyStore) ListEntries(ctx context.Context) ([]LegacyAdminEntry, error) {
	rows, err := s.pool.Query(ctx, `SELECT lower(email), role FROM admin_users ORDER BY email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []LegacyAdminEntry
	for rows.Next() {
		var entry LegacyAdminEntry
		if err := rows.Scan(&entry.Email, &entry.Role); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
