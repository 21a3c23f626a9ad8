package identity

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/veritas-sms/veritas-sms/internal/shared"
)

type memoryRepo struct {
	mu        sync.Mutex
	accounts  map[int64]*Account
	guardians map[string]*GuardianRecord
	nextID    int64

	failGuardianLookup bool
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		accounts:  make(map[int64]*Account),
		guardians: make(map[string]*GuardianRecord),
	}
}

func (r *memoryRepo) seedAccount(a Account) *Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	a.ID = r.nextID
	r.accounts[a.ID] = &a
	return &a
}

func (r *memoryRepo) seedGuardian(g GuardianRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guardians[g.Phone] = &g
}

func (r *memoryRepo) FindAccountByID(ctx context.Context, id int64) (*Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memoryRepo) FindAccountByEmail(ctx context.Context, email string) (*Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Email != "" && strings.EqualFold(a.Email, strings.TrimSpace(email)) {
			copied := *a
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryRepo) FindAccountByPhone(ctx context.Context, phone string) (*Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Phone == phone {
			copied := *a
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryRepo) FindGuardianByPhone(ctx context.Context, phone string) (*GuardianRecord, error) {
	if r.failGuardianLookup {
		return nil, errors.New("store unavailable")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.guardians[phone]; ok {
		copied := *g
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memoryRepo) CreateAccount(ctx context.Context, account *Account) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if account.Email != "" && strings.EqualFold(a.Email, account.Email) {
			return 0, errors.New("duplicate email")
		}
		if account.Phone != "" && a.Phone == account.Phone {
			return 0, errors.New("duplicate phone")
		}
	}
	r.nextID++
	copied := *account
	copied.ID = r.nextID
	r.accounts[copied.ID] = &copied
	return copied.ID, nil
}

func (r *memoryRepo) SetPasswordHash(ctx context.Context, accountID int64, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[accountID]
	if !ok {
		return shared.ErrNotFound
	}
	a.PasswordHash = hash
	return nil
}

func (r *memoryRepo) accountCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.accounts)
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

const testOwner = "owner@school.pk"

func TestResolveOwnerSelfHeal(t *testing.T) {
	repo := newMemoryRepo()
	owner := repo.seedAccount(Account{
		Email:        testOwner,
		PasswordHash: mustHash(t, "original"),
		Role:         RoleOwner,
		DisplayName:  "Owner",
	})
	resolver := NewResolver(repo, testOwner, nil)

	// Wrong password heals the stored hash and still resolves.
	account, err := resolver.Resolve(context.Background(), "  Owner@School.PK ", "replacement")
	require.NoError(t, err)
	require.Equal(t, owner.ID, account.ID)
	require.Equal(t, RoleOwner, account.Role)

	stored, err := repo.FindAccountByID(context.Background(), owner.ID)
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("replacement")))

	// A second login with another password heals again.
	_, err = resolver.Resolve(context.Background(), testOwner, "replacement2")
	require.NoError(t, err)
	stored, err = repo.FindAccountByID(context.Background(), owner.ID)
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("replacement2")))
}

func TestResolveOwnerBootstrap(t *testing.T) {
	repo := newMemoryRepo()
	resolver := NewResolver(repo, testOwner, nil)

	account, err := resolver.Resolve(context.Background(), testOwner, "firstpass")
	require.NoError(t, err)
	require.Equal(t, RoleOwner, account.Role)
	require.Equal(t, testOwner, account.Email)
	require.Equal(t, 1, repo.accountCount())

	// The bootstrap password sticks.
	stored, err := repo.FindAccountByEmail(context.Background(), testOwner)
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("firstpass")))
}

func TestResolveGuardianProvisioning(t *testing.T) {
	repo := newMemoryRepo()
	repo.seedGuardian(GuardianRecord{ID: 1, Phone: "+923001234567", PrimaryName: "Khan", FamilyNumber: "F-12"})
	resolver := NewResolver(repo, testOwner, nil)

	account, err := resolver.Resolve(context.Background(), "+923001234567", "newpass1")
	require.NoError(t, err)
	require.Equal(t, RoleParent, account.Role)
	require.Equal(t, "Khan", account.Name)
	require.Equal(t, 1, repo.accountCount())

	// Same phone, different password: no second account, no login.
	_, err = resolver.Resolve(context.Background(), "03001234567", "otherpass")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
	require.Equal(t, 1, repo.accountCount())

	// Same phone in another local shape, same password: same account.
	again, err := resolver.Resolve(context.Background(), "3001234567", "newpass1")
	require.NoError(t, err)
	require.Equal(t, account.ID, again.ID)
	require.Equal(t, 1, repo.accountCount())
}

func TestResolveGenericEmail(t *testing.T) {
	repo := newMemoryRepo()
	teacher := repo.seedAccount(Account{
		Email:        "aisha@school.pk",
		PasswordHash: mustHash(t, "secret123"),
		Role:         RoleTeacher,
		DisplayName:  "Aisha",
	})
	resolver := NewResolver(repo, testOwner, nil)

	account, err := resolver.Resolve(context.Background(), "AISHA@school.pk", "secret123")
	require.NoError(t, err)
	require.Equal(t, teacher.ID, account.ID)
	require.Equal(t, RoleTeacher, account.Role)
}

func TestResolveDoesNotLeakExistence(t *testing.T) {
	repo := newMemoryRepo()
	repo.seedAccount(Account{
		Email:        "known@school.pk",
		PasswordHash: mustHash(t, "rightpass"),
		Role:         RoleAdmin,
		DisplayName:  "Admin",
	})
	resolver := NewResolver(repo, testOwner, nil)

	_, errUnknown := resolver.Resolve(context.Background(), "nobody@school.pk", "whatever")
	_, errWrongPass := resolver.Resolve(context.Background(), "known@school.pk", "wrongpass")

	require.ErrorIs(t, errUnknown, shared.ErrInvalidCredentials)
	require.ErrorIs(t, errWrongPass, shared.ErrInvalidCredentials)
	require.Equal(t, errUnknown.Error(), errWrongPass.Error())
}

func TestResolveSuppressesInternalErrors(t *testing.T) {
	repo := newMemoryRepo()
	repo.failGuardianLookup = true
	resolver := NewResolver(repo, testOwner, nil)

	// The guardian strategy blows up internally; the caller still gets
	// a single terminal verdict.
	_, err := resolver.Resolve(context.Background(), "+923009998877", "pass123")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestRecoverOwnerCredential(t *testing.T) {
	repo := newMemoryRepo()
	owner := repo.seedAccount(Account{
		Email:        testOwner,
		PasswordHash: mustHash(t, "old"),
		Role:         RoleOwner,
		DisplayName:  "Owner",
	})
	resolver := NewResolver(repo, testOwner, nil)

	require.NoError(t, resolver.RecoverOwnerCredential(context.Background(), "rotated"))
	stored, err := repo.FindAccountByID(context.Background(), owner.ID)
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("rotated")))
}
