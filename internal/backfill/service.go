package backfill

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/veritas-sms/veritas-sms/internal/identity"
	"github.com/veritas-sms/veritas-sms/internal/observability"
)

// Service runs account reconciliation batches.
type Service struct {
	repo    Repository
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewService constructs a Service.
func NewService(repo Repository, logger *slog.Logger, metrics *observability.Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, metrics: metrics}
}

// Run reconciles one role's domain table. One shared temporary
// password is generated and hashed once for the whole batch; created
// accounts carry must_change_password so the first login forces a
// reset. Per-row duplicate conflicts are expected and skipped.
func (s *Service) Run(ctx context.Context, role identity.Role) (*Report, error) {
	if !IsBackfillRole(role) {
		return nil, ErrUnknownRole
	}

	records, err := s.repo.ListUnmatched(ctx, role)
	if err != nil {
		return nil, err
	}

	report := &Report{Role: role, Created: []identity.ResolvedAccount{}}
	if len(records) == 0 {
		return report, nil
	}

	tempPassword := uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	// Dedup emails that differ only by case within the batch itself;
	// the store constraint only protects against concurrent writers.
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		key := strings.ToLower(strings.TrimSpace(rec.Email))
		if _, dup := seen[key]; dup {
			report.Skipped++
			continue
		}
		seen[key] = struct{}{}

		account := &identity.Account{
			Email:              rec.Email,
			PasswordHash:       string(hash),
			Role:               role,
			DisplayName:        rec.Name,
			MustChangePassword: true,
		}
		id, err := s.repo.InsertAccount(ctx, account)
		if err != nil {
			if errors.Is(err, ErrDuplicateAccount) {
				report.Skipped++
				continue
			}
			return nil, err
		}
		report.Created = append(report.Created, identity.ResolvedAccount{
			ID:    id,
			Email: rec.Email,
			Role:  role,
			Name:  rec.Name,
		})
	}

	s.metrics.ObserveBackfill(string(role), "created", len(report.Created))
	s.metrics.ObserveBackfill(string(role), "skipped", report.Skipped)
	s.logger.Info("backfill run",
		slog.String("role", string(role)),
		slog.Int("created", len(report.Created)),
		slog.Int("skipped", report.Skipped))
	return report, nil
}
