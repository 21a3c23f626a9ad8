package backfill

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/veritas-sms/veritas-sms/internal/identity"
)

type memoryBackfillRepo struct {
	mu      sync.Mutex
	domain  map[identity.Role][]DomainRecord
	created []identity.Account
	nextID  int64
}

func newMemoryBackfillRepo() *memoryBackfillRepo {
	return &memoryBackfillRepo{domain: make(map[identity.Role][]DomainRecord)}
}

func (r *memoryBackfillRepo) ListUnmatched(ctx context.Context, role identity.Role) ([]DomainRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]DomainRecord(nil), r.domain[role]...), nil
}

func (r *memoryBackfillRepo) InsertAccount(ctx context.Context, account *identity.Account) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.created {
		if strings.EqualFold(existing.Email, account.Email) {
			return 0, ErrDuplicateAccount
		}
	}
	r.nextID++
	copied := *account
	copied.ID = r.nextID
	r.created = append(r.created, copied)
	return copied.ID, nil
}

func TestRunCreatesMissingAccounts(t *testing.T) {
	repo := newMemoryBackfillRepo()
	repo.domain[identity.RoleTeacher] = []DomainRecord{
		{ID: 1, Email: "sana@x.com", Name: "Sana"},
		{ID: 2, Email: "tariq@x.com", Name: "Tariq"},
	}
	service := NewService(repo, nil, nil)

	report, err := service.Run(context.Background(), identity.RoleTeacher)
	require.NoError(t, err)
	require.Len(t, report.Created, 2)
	require.Equal(t, 0, report.Skipped)
	require.Equal(t, identity.RoleTeacher, report.Created[0].Role)

	// One shared temporary password: every created account carries the
	// same hash, computed once for the batch.
	require.Len(t, repo.created, 2)
	require.Equal(t, repo.created[0].PasswordHash, repo.created[1].PasswordHash)
	require.NotEmpty(t, repo.created[0].PasswordHash)
	require.True(t, repo.created[0].MustChangePassword)
}

func TestRunDedupsCaseInsensitiveEmails(t *testing.T) {
	repo := newMemoryBackfillRepo()
	repo.domain[identity.RoleTeacher] = []DomainRecord{
		{ID: 1, Email: "dup@x.com", Name: "First"},
		{ID: 2, Email: "Dup@X.com", Name: "Second"},
	}
	service := NewService(repo, nil, nil)

	report, err := service.Run(context.Background(), identity.RoleTeacher)
	require.NoError(t, err)
	require.Len(t, report.Created, 1)
	require.Equal(t, 1, report.Skipped)
}

func TestRunSkipsInsertConflicts(t *testing.T) {
	repo := newMemoryBackfillRepo()
	// A concurrent writer already owns this email.
	repo.created = append(repo.created, identity.Account{ID: 99, Email: "taken@x.com"})
	repo.domain[identity.RoleStudent] = []DomainRecord{
		{ID: 1, Email: "taken@x.com", Name: "Late"},
		{ID: 2, Email: "fresh@x.com", Name: "Fresh"},
	}
	service := NewService(repo, nil, nil)

	report, err := service.Run(context.Background(), identity.RoleStudent)
	require.NoError(t, err)
	require.Len(t, report.Created, 1)
	require.Equal(t, "fresh@x.com", report.Created[0].Email)
	require.Equal(t, 1, report.Skipped)
}

func TestRunUnknownRole(t *testing.T) {
	service := NewService(newMemoryBackfillRepo(), nil, nil)

	_, err := service.Run(context.Background(), identity.RoleParent)
	require.ErrorIs(t, err, ErrUnknownRole)
}

func TestRunEmptyBatch(t *testing.T) {
	service := NewService(newMemoryBackfillRepo(), nil, nil)

	report, err := service.Run(context.Background(), identity.RoleDriver)
	require.NoError(t, err)
	require.Empty(t, report.Created)
}
