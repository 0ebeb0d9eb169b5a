// Package migrate applies embedded SQL migrations with simple bookkeeping.
package migrate

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultMigrationsTable = "schema_migrations"

// Manager executes SQL migrations from an fs.FS.
type Manager struct {
	pool            *pgxpool.Pool
	source          fs.FS
	migrationsTable string
}

// NewManager constructs a Manager over the given migration source.
func NewManager(pool *pgxpool.Pool, source fs.FS) *Manager {
	return &Manager{pool: pool, source: source, migrationsTable: defaultMigrationsTable}
}

// Apply runs every pending .sql file in lexical order, each inside its own
// transaction together with its bookkeeping row.
func (m *Manager) Apply(ctx context.Context) (int, error) {
	if err := m.ensureTable(ctx); err != nil {
		return 0, err
	}

	names, err := m.pendingNames(ctx)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, name := range names {
		payload, err := fs.ReadFile(m.source, name)
		if err != nil {
			return applied, fmt.Errorf("migrate: read %s: %w", name, err)
		}
		tx, err := m.pool.Begin(ctx)
		if err != nil {
			return applied, err
		}
		if _, err := tx.Exec(ctx, string(payload)); err != nil {
			_ = tx.Rollback(ctx)
			return applied, fmt.Errorf("migrate: apply %s: %w", name, err)
		}
		if _, err := tx.Exec(ctx,
			fmt.Sprintf(`INSERT INTO %s (name) VALUES ($1)`, m.migrationsTable), name); err != nil {
			_ = tx.Rollback(ctx)
			return applied, fmt.Errorf("migrate: record %s: %w", name, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}

func (m *Manager) ensureTable(ctx context.Context) error {
	_, err := m.pool.Exec(ctx, fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (name TEXT PRIMARY KEY, applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW())`,
		m.migrationsTable))
	return err
}

func (m *Manager) pendingNames(ctx context.Context) ([]string, error) {
	entries, err := fs.ReadDir(m.source, ".")
	if err != nil {
		return nil, err
	}

	done := make(map[string]struct{})
	rows, err := m.pool.Query(ctx, fmt.Sprintf(`SELECT name FROM %s`, m.migrationsTable))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		done[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var pending []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		if _, ok := done[name]; ok {
			continue
		}
		pending = append(pending, name)
	}
	sort.Strings(pending)
	return pending, nil
}
