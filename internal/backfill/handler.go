package backfill

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/veritas-sms/veritas-sms/internal/identity"
	"github.com/veritas-sms/veritas-sms/internal/platform/httpx"
	"github.com/veritas-sms/veritas-sms/jobs"
)

// Handler wires the backfill admin endpoint. With a queue client
// configured, ?async=1 enqueues the run instead of blocking.
type Handler struct {
	logger  *slog.Logger
	service *Service
	queue   *asynq.Client
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, queue *asynq.Client) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, queue: queue}
}

type runResponse struct {
	Role    identity.Role              `json:"role"`
	Count   int                        `json:"count"`
	Skipped int                        `json:"skipped"`
	Created []identity.ResolvedAccount `json:"created"`
}

// HandleRun serves POST /admin/backfill/{role}.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	role := identity.Role(chi.URLParam(r, "role"))
	if !IsBackfillRole(role) {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	if r.URL.Query().Get("async") == "1" && h.queue != nil {
		task, err := jobs.NewBackfillTask(jobs.BackfillPayload{Role: string(role)})
		if err == nil {
			_, err = h.queue.EnqueueContext(r.Context(), task)
		}
		if err != nil {
			h.logger.Error("enqueue backfill", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		httpx.JSON(w, http.StatusAccepted, map[string]string{"status": "queued", "role": string(role)})
		return
	}

	report, err := h.service.Run(r.Context(), role)
	if err != nil {
		h.logger.Error("backfill run", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, runResponse{
		Role:    report.Role,
		Count:   len(report.Created),
		Skipped: report.Skipped,
		Created: report.Created,
	})
}
