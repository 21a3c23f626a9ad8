package identity

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/veritas-sms/veritas-sms/internal/shared"
)

// Repository defines persistence operations for the identity module.
type Repository interface {
	FindAccountByID(ctx context.Context, id int64) (*Account, error)
	FindAccountByEmail(ctx context.Context, email string) (*Account, error)
	FindAccountByPhone(ctx context.Context, phone string) (*Account, error)
	FindGuardianByPhone(ctx context.Context, phone string) (*GuardianRecord, error)
	CreateAccount(ctx context.Context, account *Account) (int64, error)
	SetPasswordHash(ctx context.Context, accountID int64, hash string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const accountColumns = `id, COALESCE(email, ''), COALESCE(phone, ''), password_hash, role, display_name, must_change_password, created_at, updated_at`

func (r *PGRepository) scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Email, &a.Phone, &a.PasswordHash, &a.Role, &a.DisplayName, &a.MustChangePassword, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// FindAccountByID fetches an account by primary key.
func (r *PGRepository) FindAccountByID(ctx context.Context, id int64) (*Account, error) {
	return r.scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
}

// FindAccountByEmail fetches an account by email, case-insensitively.
func (r *PGRepository) FindAccountByEmail(ctx context.Context, email string) (*Account, error) {
	return r.scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE lower(email) = lower($1)`, email))
}

// FindAccountByPhone fetches an account bound to a normalized phone.
func (r *PGRepository) FindAccountByPhone(ctx context.Context, phone string) (*Account, error) {
	return r.scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE phone = $1`, phone))
}

// FindGuardianByPhone fetches a guardian record by normalized phone.
func (r *PGRepository) FindGuardianByPhone(ctx context.Context, phone string) (*GuardianRecord, error) {
	var g GuardianRecord
	err := r.pool.QueryRow(ctx,
		`SELECT id, phone, family_number, primary_name, linked_child_ids FROM guardians WHERE phone = $1`, phone).
		Scan(&g.ID, &g.Phone, &g.FamilyNumber, &g.PrimaryName, &g.LinkedChildIDs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

// CreateAccount inserts a new account and returns its id.
func (r *PGRepository) CreateAccount(ctx context.Context, account *Account) (int64, error) {
	now := time.Now().UTC()
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO accounts (email, phone, password_hash, role, display_name, must_change_password, created_at, updated_at)
VALUES (NULLIF($1, ''), NULLIF($2, ''), $3, $4, $5, $6, $7, $7) RETURNING id`,
		account.Email, account.Phone, account.PasswordHash, account.Role, account.DisplayName, account.MustChangePassword, now).
		Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// SetPasswordHash overwrites the stored hash for one account. Only the
// hash and updated_at change; concurrent writers race last-write-wins.
func (r *PGRepository) SetPasswordHash(ctx context.Context, accountID int64, hash string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE accounts SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		accountID, hash, time.Now().UTC())
	return err
}

var _ Repository = (*PGRepository)(nil)
