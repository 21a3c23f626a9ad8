package identity

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/veritas-sms/veritas-sms/internal/shared"
)

// Result is the explicit verdict of one strategy. A non-terminal result
// hands the identifier to the next strategy in order; Err carries an
// internal diagnostic that is logged and never surfaced to the caller.
type Result struct {
	Account  *ResolvedAccount
	Terminal bool
	Err      error
}

func missed(err error) Result { return Result{Err: err} }

func rejected(err error) Result { return Result{Terminal: true, Err: err} }

func accepted(a *ResolvedAccount) Result { return Result{Account: a, Terminal: true} }

// IdentityStrategy resolves one class of login identifier.
type IdentityStrategy interface {
	Name() string
	Resolve(ctx context.Context, identifier, password string) Result
}

// ownerStrategy handles the configured owner email. The owner is always
// reachable: a hash mismatch resynchronizes the stored hash to the
// submitted password and the session is accepted either way.
type ownerStrategy struct {
	repo     Repository
	resolver *Resolver
}

func (s *ownerStrategy) Name() string { return "owner" }

func (s *ownerStrategy) Resolve(ctx context.Context, identifier, password string) Result {
	if FoldIdentifier(identifier) != FoldIdentifier(s.resolver.ownerEmail) {
		return missed(nil)
	}

	account, err := s.repo.FindAccountByEmail(ctx, s.resolver.ownerEmail)
	if errors.Is(err, shared.ErrNotFound) {
		bootstrapped, berr := s.bootstrap(ctx, password)
		if berr != nil {
			return missed(berr)
		}
		return accepted(resolved(bootstrapped))
	}
	if err != nil {
		return missed(err)
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) == nil {
		return accepted(resolved(account))
	}

	// Mismatch: heal the stored hash, retry once, then accept anyway.
	if rerr := s.resolver.RecoverOwnerCredential(ctx, password); rerr != nil {
		return accepted(resolved(account))
	}
	healed, err := s.repo.FindAccountByEmail(ctx, s.resolver.ownerEmail)
	if err != nil {
		return accepted(resolved(account))
	}
	return accepted(resolved(healed))
}

func (s *ownerStrategy) bootstrap(ctx context.Context, password string) (*Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	account := &Account{
		Email:        s.resolver.ownerEmail,
		PasswordHash: string(hash),
		Role:         RoleOwner,
		DisplayName:  "Owner",
	}
	id, err := s.repo.CreateAccount(ctx, account)
	if err != nil {
		return nil, err
	}
	account.ID = id
	return account, nil
}

// guardianPhoneStrategy provisions parent accounts for phone-identified
// guardians on first login.
type guardianPhoneStrategy struct {
	repo Repository
}

func (s *guardianPhoneStrategy) Name() string { return "guardian-phone" }

func (s *guardianPhoneStrategy) Resolve(ctx context.Context, identifier, password string) Result {
	if !IsPhoneShaped(identifier) {
		return missed(nil)
	}
	phone := NormalizePhone(identifier)

	if account, err := s.repo.FindAccountByPhone(ctx, phone); err == nil {
		if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
			return rejected(nil)
		}
		return accepted(resolved(account))
	} else if !errors.Is(err, shared.ErrNotFound) {
		return missed(err)
	}

	guardian, err := s.repo.FindGuardianByPhone(ctx, phone)
	if errors.Is(err, shared.ErrNotFound) {
		return missed(nil)
	}
	if err != nil {
		return missed(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return missed(err)
	}
	account := &Account{
		Phone:        phone,
		PasswordHash: string(hash),
		Role:         RoleParent,
		DisplayName:  guardian.PrimaryName,
	}
	id, err := s.repo.CreateAccount(ctx, account)
	if err != nil {
		// Lost a provisioning race: the account exists now, reuse it.
		if existing, ferr := s.repo.FindAccountByPhone(ctx, phone); ferr == nil {
			return accepted(resolved(existing))
		}
		return missed(err)
	}
	account.ID = id
	return accepted(resolved(account))
}

// emailStrategy is the generic case-insensitive email lookup.
type emailStrategy struct {
	repo Repository
}

func (s *emailStrategy) Name() string { return "email" }

func (s *emailStrategy) Resolve(ctx context.Context, identifier, password string) Result {
	account, err := s.repo.FindAccountByEmail(ctx, strings.TrimSpace(identifier))
	if errors.Is(err, shared.ErrNotFound) {
		return rejected(nil)
	}
	if err != nil {
		return missed(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return rejected(nil)
	}
	return accepted(resolved(account))
}
