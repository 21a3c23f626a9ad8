package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines persistence for role settings. Rows are created
// lazily on first write and replaced wholesale on each set operation.
type Repository interface {
	ListActivations(ctx context.Context) ([]RoleActivation, error)
	SetActivation(ctx context.Context, role string, active bool) error
	GetGrants(ctx context.Context, role string) (EffectiveGrants, error)
	SetPermissions(ctx context.Context, role string, permissions []string) error
	SetModules(ctx context.Context, grant ModuleGrant) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// ListActivations returns activation rows for all operational roles,
// defaulting to active where no row exists.
func (r *PGRepository) ListActivations(ctx context.Context) ([]RoleActivation, error) {
	rows, err := r.pool.Query(ctx, `SELECT role, active FROM role_activations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stored := make(map[string]bool, len(OperationalRoles))
	for rows.Next() {
		var role string
		var active bool
		if err := rows.Scan(&role, &active); err != nil {
			return nil, err
		}
		stored[role] = active
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	activations := make([]RoleActivation, 0, len(OperationalRoles))
	for _, role := range OperationalRoles {
		active, ok := stored[role]
		if !ok {
			active = true
		}
		activations = append(activations, RoleActivation{Role: role, Active: active})
	}
	return activations, nil
}

// SetActivation upserts the activation row for a role.
func (r *PGRepository) SetActivation(ctx context.Context, role string, active bool) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO role_activations (role, active) VALUES ($1, $2)
ON CONFLICT (role) DO UPDATE SET active = EXCLUDED.active`, role, active)
	return err
}

// GetGrants assembles the full grant picture for one role across the
// three settings tables, applying defaults for missing rows.
func (r *PGRepository) GetGrants(ctx context.Context, role string) (EffectiveGrants, error) {
	grants := EffectiveGrants{
		Role:        role,
		Active:      true,
		Permissions: []string{},
		Modules:     ModuleGrant{Role: role, Modules: []string{}, Subroutes: []string{}},
	}

	err := r.pool.QueryRow(ctx, `SELECT active FROM role_activations WHERE role = $1`, role).
		Scan(&grants.Active)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return EffectiveGrants{}, err
	}

	err = r.pool.QueryRow(ctx, `SELECT permissions FROM permission_grants WHERE role = $1`, role).
		Scan(&grants.Permissions)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return EffectiveGrants{}, err
	}

	err = r.pool.QueryRow(ctx,
		`SELECT all_modules, modules, all_subroutes, subroutes FROM module_grants WHERE role = $1`, role).
		Scan(&grants.Modules.AllModules, &grants.Modules.Modules, &grants.Modules.AllSubroutes, &grants.Modules.Subroutes)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return EffectiveGrants{}, err
	}
	return grants, nil
}

// SetPermissions replaces the permission row for a role.
func (r *PGRepository) SetPermissions(ctx context.Context, role string, permissions []string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO permission_grants (role, permissions) VALUES ($1, $2)
ON CONFLICT (role) DO UPDATE SET permissions = EXCLUDED.permissions`, role, permissions)
	return err
}

// SetModules replaces the module allowlist row for a role.
func (r *PGRepository) SetModules(ctx context.Context, grant ModuleGrant) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO module_grants (role, all_modules, modules, all_subroutes, subroutes)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (role) DO UPDATE SET all_modules = EXCLUDED.all_modules, modules = EXCLUDED.modules,
  all_subroutes = EXCLUDED.all_subroutes, subroutes = EXCLUDED.subroutes`,
		grant.Role, grant.AllModules, grant.Modules, grant.AllSubroutes, grant.Subroutes)
	return err
}

var _ Repository = (*PGRepository)(nil)
