package backfill

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/veritas-sms/veritas-sms/internal/identity"
	"github.com/veritas-sms/veritas-sms/jobs"
)

// Job processes queued reconciliation requests.
type Job struct {
	service *Service
	logger  *slog.Logger
}

// NewJob constructs a Job handler.
func NewJob(service *Service, logger *slog.Logger) *Job {
	if logger == nil {
		logger = slog.Default()
	}
	return &Job{service: service, logger: logger}
}

// Handle fulfils the asynq.HandlerFunc contract.
func (j *Job) Handle(ctx context.Context, task *asynq.Task) error {
	var payload jobs.BackfillPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	role := identity.Role(payload.Role)
	if !IsBackfillRole(role) {
		return asynq.SkipRetry
	}
	report, err := j.service.Run(ctx, role)
	if err != nil {
		if errors.Is(err, ErrUnknownRole) {
			return asynq.SkipRetry
		}
		return err
	}
	j.logger.Info("backfill job done",
		slog.String("role", payload.Role),
		slog.Int("created", len(report.Created)),
		slog.Int("skipped", report.Skipped))
	return nil
}
