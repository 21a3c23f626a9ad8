package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/veritas-sms/veritas-sms/internal/shared"
)

const testLicenseKey = "LX-2031-PK"

func newTestGate(repo Repository) *LicenseGate {
	return NewLicenseGate(NewResolver(repo, testOwner, nil), testLicenseKey)
}

func TestGateNonOwnerBypassesLicense(t *testing.T) {
	repo := newMemoryRepo()
	repo.seedAccount(Account{
		Email:        "admin@school.pk",
		PasswordHash: mustHash(t, "adminpass"),
		Role:         RoleAdmin,
		DisplayName:  "Admin",
	})
	gate := newTestGate(repo)

	account, state, err := gate.Submit(context.Background(), "admin@school.pk", "adminpass", "")
	require.NoError(t, err)
	require.Equal(t, StateAuthenticated, state)
	require.Equal(t, RoleAdmin, account.Role)
}

func TestGateNonOwnerRejectedInOneStep(t *testing.T) {
	repo := newMemoryRepo()
	gate := newTestGate(repo)

	_, state, err := gate.Submit(context.Background(), "nobody@school.pk", "whatever", "")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
	require.Equal(t, StateRejected, state)
}

func TestGateOwnerRequiresLicenseKey(t *testing.T) {
	repo := newMemoryRepo()
	repo.seedAccount(Account{
		Email:        testOwner,
		PasswordHash: mustHash(t, "ownerpass"),
		Role:         RoleOwner,
		DisplayName:  "Owner",
	})
	gate := newTestGate(repo)

	// No key: soft outcome, distinguishable from a credential failure.
	_, state, err := gate.Submit(context.Background(), testOwner, "ownerpass", "")
	require.ErrorIs(t, err, shared.ErrOwnerKeyRequired)
	require.NotErrorIs(t, err, shared.ErrInvalidCredentials)
	require.Equal(t, StateLicenseRequired, state)

	// Wrong key: terminal rejection.
	_, state, err = gate.Submit(context.Background(), testOwner, "ownerpass", "wrong-key")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
	require.Equal(t, StateRejected, state)

	// Right key: authenticated.
	account, state, err := gate.Submit(context.Background(), testOwner, "ownerpass", testLicenseKey)
	require.NoError(t, err)
	require.Equal(t, StateAuthenticated, state)
	require.Equal(t, RoleOwner, account.Role)
}

func TestGateOwnerSelfHealAcrossPhases(t *testing.T) {
	repo := newMemoryRepo()
	owner := repo.seedAccount(Account{
		Email:        testOwner,
		PasswordHash: mustHash(t, "forgotten"),
		Role:         RoleOwner,
		DisplayName:  "Owner",
	})
	gate := newTestGate(repo)

	// First attempt with one password reaches the license phase.
	_, state, err := gate.Submit(context.Background(), testOwner, "password-a", "")
	require.ErrorIs(t, err, shared.ErrOwnerKeyRequired)
	require.Equal(t, StateLicenseRequired, state)

	// Second attempt with a different password and the correct key
	// succeeds; the stored hash matches the most recent submission.
	account, state, err := gate.Submit(context.Background(), testOwner, "password-b", testLicenseKey)
	require.NoError(t, err)
	require.Equal(t, StateAuthenticated, state)
	require.Equal(t, owner.ID, account.ID)

	stored, err := repo.FindAccountByID(context.Background(), owner.ID)
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("password-b")))
}

func TestGateStateStrings(t *testing.T) {
	require.Equal(t, "INIT", StateInit.String())
	require.Equal(t, "CRED_CHECK", StateCredCheck.String())
	require.Equal(t, "LICENSE_REQUIRED", StateLicenseRequired.String())
	require.Equal(t, "AUTHENTICATED", StateAuthenticated.String())
	require.Equal(t, "REJECTED", StateRejected.String())
}
