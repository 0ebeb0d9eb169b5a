// Package jobs holds background tasks processed by the Asynq worker.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeLegacySweep migrates legacy admin entries into the
	// assignment store.
	TaskTypeLegacySweep = "legacy:sweep"
)

// LegacySweepPayload configures one sweep run.
type LegacySweepPayload struct {
	// DryRun reports what would be migrated without writing assignments.
	DryRun bool `json:"dry_run"`
}

// NewLegacySweepTask constructs an Asynq task.
func NewLegacySweepTask(payload LegacySweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeLegacySweep, data), nil
}
