package backfill

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/veritas-sms/veritas-sms/internal/identity"
)

// ErrDuplicateAccount indicates the insert lost a race to another
// writer; the row is skipped, the batch continues.
var ErrDuplicateAccount = errors.New("backfill: duplicate account")

const uniqueViolation = "23505"

// Repository defines persistence for the reconciler.
type Repository interface {
	ListUnmatched(ctx context.Context, role identity.Role) ([]DomainRecord, error)
	InsertAccount(ctx context.Context, account *identity.Account) (int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

var domainTables = map[identity.Role]string{
	identity.RoleStudent: "students",
	identity.RoleTeacher: "teachers",
	identity.RoleDriver:  "drivers",
}

// ListUnmatched scans the domain table for rows with a non-empty email
// lacking a case-insensitively matching account.
func (r *PGRepository) ListUnmatched(ctx context.Context, role identity.Role) ([]DomainRecord, error) {
	table, ok := domainTables[role]
	if !ok {
		return nil, ErrUnknownRole
	}
	query := fmt.Sprintf(`SELECT d.id, d.email, d.name FROM %s d
WHERE d.email IS NOT NULL AND d.email <> ''
  AND NOT EXISTS (SELECT 1 FROM accounts a WHERE lower(a.email) = lower(d.email))
ORDER BY d.id`, table)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []DomainRecord
	for rows.Next() {
		var rec DomainRecord
		if err := rows.Scan(&rec.ID, &rec.Email, &rec.Name); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// InsertAccount creates one account, translating a unique-violation
// conflict into ErrDuplicateAccount. The uniqueness constraint on
// lower(email) is the safety net against the scan/insert race.
func (r *PGRepository) InsertAccount(ctx context.Context, account *identity.Account) (int64, error) {
	now := time.Now().UTC()
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO accounts (email, password_hash, role, display_name, must_change_password, created_at, updated_at)
VALUES ($1, $2, $3, $4, TRUE, $5, $5) RETURNING id`,
		account.Email, account.PasswordHash, account.Role, account.DisplayName, now).
		Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, ErrDuplicateAccount
		}
		return 0, err
	}
	return id, nil
}

var _ Repository = (*PGRepository)(nil)
