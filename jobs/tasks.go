// Package jobs defines queue task types and the Asynq server wrapper.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskBackfillAccounts reconciles missing login accounts for one
	// domain role.
	TaskBackfillAccounts = "backfill:accounts"
)

// BackfillPayload names the role whose domain table is reconciled.
type BackfillPayload struct {
	Role string `json:"role"`
}

// NewBackfillTask constructs an Asynq task.
func NewBackfillTask(payload BackfillPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBackfillAccounts, data), nil
}
