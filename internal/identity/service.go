package identity

import (
	"context"
	"errors"
	"log/slog"

	"github.com/veritas-sms/veritas-sms/internal/observability"
	"github.com/veritas-sms/veritas-sms/internal/shared"
)

// Service wraps login and token business rules.
type Service struct {
	gate    *LicenseGate
	issuer  *Issuer
	repo    Repository
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewService constructs a new Service.
func NewService(gate *LicenseGate, issuer *Issuer, repo Repository, logger *slog.Logger, metrics *observability.Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gate: gate, issuer: issuer, repo: repo, logger: logger, metrics: metrics}
}

// LoginResult is a successful login or refresh outcome.
type LoginResult struct {
	Tokens  TokenPair       `json:"tokens"`
	Account ResolvedAccount `json:"account"`
}

// Login resolves credentials through the license gate and issues a
// token pair on success.
func (s *Service) Login(ctx context.Context, identifier, password, licenseKey string) (*LoginResult, error) {
	account, state, err := s.gate.Submit(ctx, identifier, password, licenseKey)
	if err != nil {
		outcome := "rejected"
		if errors.Is(err, shared.ErrOwnerKeyRequired) {
			outcome = "license_required"
		}
		s.metrics.ObserveLogin("gate", outcome)
		return nil, err
	}

	tokens, err := s.issuer.Issue(account)
	if err != nil {
		s.logger.Error("issue tokens", slog.Any("error", err))
		return nil, err
	}
	s.metrics.ObserveLogin(string(account.Role), "authenticated")
	s.logger.Info("login",
		slog.Int64("account_id", account.ID),
		slog.String("role", string(account.Role)),
		slog.String("state", state.String()))
	return &LoginResult{Tokens: tokens, Account: *account}, nil
}

// Refresh validates a refresh token, reloads the account so role and
// name changes take effect, and re-issues both tokens.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	accountID, err := s.issuer.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	account, err := s.repo.FindAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUnauthorized
		}
		return nil, err
	}
	resolvedAccount := resolved(account)
	tokens, err := s.issuer.Issue(resolvedAccount)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Tokens: tokens, Account: *resolvedAccount}, nil
}
