package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/shala-app/shala/internal/audit"
	"github.com/shala-app/shala/internal/platform/httpx"
	"github.com/shala-app/shala/internal/rbac"
	"github.com/shala-app/shala/internal/users"
)

// LegacyEntrySource lists the deprecated admin entries.
type LegacyEntrySource interface {
	ListEntries(ctx context.Context) ([]rbac.LegacyAdminEntry, error)
}

// UserDirectory maps legacy emails onto identities.
type UserDirectory interface {
	FindByEmail(ctx context.Context, email string) (users.User, error)
}

// AssignmentWriter grants roles during the sweep. The sweep runs as the
// system, below the super_admin gate the HTTP surface enforces, so it writes
// through the repository rather than the service.
type AssignmentWriter interface {
	GetRoleByName(ctx context.Context, name rbac.RoleName) (rbac.Role, error)
	Assign(ctx context.Context, identityID uuid.UUID, roleID int64, assignedBy *uuid.UUID) error
	RolesFor(ctx context.Context, identityID uuid.UUID) ([]rbac.RoleName, error)
}

// CacheInvalidator busts role snapshots after a migrated grant.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, identityID uuid.UUID) error
}

// LegacySweepJob copies legacy admin entries into the assignment store. Once
// every entry has a matching assignment, the legacy shim can be removed
// without changing a single isAdmin answer. Entries whose email has no
// mirrored identity yet are left for the next run.
type LegacySweepJob struct {
	legacy      LegacyEntrySource
	directory   UserDirectory
	assignments AssignmentWriter
	cache       CacheInvalidator
	audit       audit.Recorder
	logger      *slog.Logger
}

// NewLegacySweepJob constructs the sweep job. cache and recorder may be nil.
func NewLegacySweepJob(legacy LegacyEntrySource, directory UserDirectory, assignments AssignmentWriter, cache CacheInvalidator, recorder audit.Recorder, logger *slog.Logger) *LegacySweepJob {
	return &LegacySweepJob{
		legacy:      legacy,
		directory:   directory,
		assignments: assignments,
		cache:       cache,
		audit:       recorder,
		logger:      logger,
	}
}

// SweepResult summarises one run.
type SweepResult struct {
	Migrated  int
	Unmatched int
	Skipped   int
}

// Run executes one sweep.
func (j *LegacySweepJob) Run(ctx context.Context, dryRun bool) (SweepResult, error) {
	var result SweepResult

	entries, err := j.legacy.ListEntries(ctx)
	if err != nil {
		return result, err
	}

	for _, entry := range entries {
		user, err := j.directory.FindByEmail(ctx, entry.Email)
		if err != nil {
			if errors.Is(err, httpx.ErrNotFound) {
				result.Unmatched++
				continue
			}
			return result, err
		}

		held, err := j.assignments.RolesFor(ctx, user.ID)
		if err != nil {
			return result, err
		}
		if contains(held, entry.Role) {
			result.Skipped++
			continue
		}

		if dryRun {
			result.Migrated++
			continue
		}

		role, err := j.assignments.GetRoleByName(ctx, entry.Role)
		if err != nil {
			return result, err
		}
		if err := j.assignments.Assign(ctx, user.ID, role.ID, nil); err != nil {
			return result, err
		}
		if j.cache != nil {
			if err := j.cache.Invalidate(ctx, user.ID); err != nil && j.logger != nil {
				j.logger.Warn("sweep cache invalidate", slog.Any("error", err))
			}
		}
		if j.audit != nil {
			_ = j.audit.Record(ctx, audit.Entry{
				ActorID:  uuid.Nil,
				Action:   "assignment.migrate_legacy",
				Entity:   "rbac",
				EntityID: string(entry.Role),
				Meta:     map[string]any{"identity_id": user.ID.String(), "email": entry.Email},
			})
		}
		result.Migrated++
	}

	if j.logger != nil {
		j.logger.Info("legacy sweep finished",
			slog.Int("migrated", result.Migrated),
			slog.Int("unmatched", result.Unmatched),
			slog.Int("skipped", result.Skipped),
			slog.Bool("dry_run", dryRun))
	}
	return result, nil
}

// Handler adapts the job to Asynq.
func (j *LegacySweepJob) Handler(ctx context.Context, t *asynq.Task) error {
	var payload LegacySweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	_, err := j.Run(ctx, payload.DryRun)
	return err
}

func contains(names []rbac.RoleName, want rbac.RoleName) bool {
	for _, n := range names {
		if n == want {
			return true
		}
	}
	return false
}
