package identity

import (
	"context"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/veritas-sms/veritas-sms/internal/shared"
)

// Resolver turns a login attempt into a resolved account or a single
// terminal verdict. Strategies run in strict priority order: owner,
// guardian phone, generic email. A strategy miss or internal error is
// data handed to the next strategy, never an exception.
type Resolver struct {
	repo       Repository
	ownerEmail string
	logger     *slog.Logger
	strategies []IdentityStrategy
}

// NewResolver constructs a Resolver for the given owner identity.
func NewResolver(repo Repository, ownerEmail string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{repo: repo, ownerEmail: ownerEmail, logger: logger}
	r.strategies = []IdentityStrategy{
		&ownerStrategy{repo: repo, resolver: r},
		&guardianPhoneStrategy{repo: repo},
		&emailStrategy{repo: repo},
	}
	return r
}

// OwnerEmail returns the configured owner identity.
func (r *Resolver) OwnerEmail() string { return r.ownerEmail }

// Resolve maps an identifier and password to an account. Failures on
// any path collapse to ErrInvalidCredentials so callers cannot probe
// which identifiers exist.
func (r *Resolver) Resolve(ctx context.Context, identifier, password string) (*ResolvedAccount, error) {
	for _, strategy := range r.strategies {
		result := strategy.Resolve(ctx, identifier, password)
		if result.Err != nil {
			r.logger.Warn("identity strategy error",
				slog.String("strategy", strategy.Name()),
				slog.Any("error", result.Err))
		}
		if !result.Terminal {
			continue
		}
		if result.Account != nil {
			return result.Account, nil
		}
		return nil, shared.ErrInvalidCredentials
	}
	return nil, shared.ErrInvalidCredentials
}

// RecoverOwnerCredential resynchronizes the stored owner hash to the
// given password. It is the only write the resolver performs on a
// login read, kept separate so every invocation leaves an audit line.
func (r *Resolver) RecoverOwnerCredential(ctx context.Context, password string) error {
	account, err := r.repo.FindAccountByEmail(ctx, r.ownerEmail)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	r.logger.Warn("owner credential recovery",
		slog.String("owner", r.ownerEmail),
		slog.Int64("account_id", account.ID))
	return r.repo.SetPasswordHash(ctx, account.ID, string(hash))
}
