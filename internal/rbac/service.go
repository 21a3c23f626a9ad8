package rbac

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/veritas-sms/veritas-sms/internal/observability"
)

// ErrUnknownRole indicates a grant operation on a role outside the
// operational set.
var ErrUnknownRole = errors.New("rbac: unknown role")

// Service orchestrates grant administration and capability decisions.
type Service struct {
	repo    Repository
	cache   *Cache
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewService constructs a Service.
func NewService(repo Repository, cache *Cache, logger *slog.Logger, metrics *observability.Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, logger: logger, metrics: metrics}
}

func (s *Service) grants(ctx context.Context, role string) (EffectiveGrants, error) {
	return s.cache.Fetch(ctx, role, func(ctx context.Context) (EffectiveGrants, error) {
		return s.repo.GetGrants(ctx, role)
	})
}

// Decision reports whether a role may use a capability. The owner role
// short-circuits to true; roles outside the operational set have no
// grants and are denied. An inactive role is denied regardless of any
// permission or module grant.
func (s *Service) Decision(ctx context.Context, role, capability string) bool {
	if role == "owner" {
		return true
	}
	if !IsOperationalRole(role) {
		s.metrics.ObserveDecision(role, false)
		return false
	}
	grants, err := s.grants(ctx, role)
	if err != nil {
		s.logger.Warn("rbac grants load", slog.String("role", role), slog.Any("error", err))
		s.metrics.ObserveDecision(role, false)
		return false
	}
	allowed := s.evaluate(grants, capability)
	s.metrics.ObserveDecision(role, allowed)
	return allowed
}

func (s *Service) evaluate(grants EffectiveGrants, capability string) bool {
	if !grants.Active {
		return false
	}
	for _, p := range grants.Permissions {
		if p == capability {
			return true
		}
	}
	if grants.Modules.AllModules {
		return true
	}
	module := ModuleOf(capability)
	for _, m := range grants.Modules.Modules {
		if m == module {
			return true
		}
	}
	return false
}

// EffectiveGrantsFor derives what a role may currently do, for
// self-service capability discovery.
func (s *Service) EffectiveGrantsFor(ctx context.Context, role string) (EffectiveGrants, error) {
	if role == "owner" {
		return EffectiveGrants{
			Role:        role,
			Active:      true,
			Permissions: PermissionCatalog(),
			Modules: ModuleGrant{
				Role:         role,
				AllModules:   true,
				Modules:      []string{},
				AllSubroutes: true,
				Subroutes:    []string{},
			},
		}, nil
	}
	if !IsOperationalRole(role) {
		return EffectiveGrants{
			Role:        role,
			Permissions: []string{},
			Modules:     ModuleGrant{Role: role, Modules: []string{}, Subroutes: []string{}},
		}, nil
	}
	return s.grants(ctx, role)
}

// ListActivations returns the activation state of all operational roles.
func (s *Service) ListActivations(ctx context.Context) ([]RoleActivation, error) {
	return s.repo.ListActivations(ctx)
}

// SetRoleActive toggles a role on or off.
func (s *Service) SetRoleActive(ctx context.Context, role string, active bool) error {
	if !IsOperationalRole(role) {
		return fmt.Errorf("%w %q", ErrUnknownRole, role)
	}
	if err := s.repo.SetActivation(ctx, role, active); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, role)
	s.logger.Info("role activation set", slog.String("role", role), slog.Bool("active", active))
	return nil
}

// SetPermissionsForRole replaces a role's permission set. Input is
// clamped to the catalog; unknown strings are dropped, not rejected.
func (s *Service) SetPermissionsForRole(ctx context.Context, role string, permissions []string) (PermissionGrant, error) {
	if !IsOperationalRole(role) {
		return PermissionGrant{}, fmt.Errorf("%w %q", ErrUnknownRole, role)
	}
	clamped := ClampPermissions(permissions)
	if err := s.repo.SetPermissions(ctx, role, clamped); err != nil {
		return PermissionGrant{}, err
	}
	s.cache.Invalidate(ctx, role)
	return PermissionGrant{Role: role, Permissions: clamped}, nil
}

// SetModulesForRole replaces a role's module/subroute allowlist with
// the same clamp-don't-reject policy.
func (s *Service) SetModulesForRole(ctx context.Context, grant ModuleGrant) (ModuleGrant, error) {
	if !IsOperationalRole(grant.Role) {
		return ModuleGrant{}, fmt.Errorf("%w %q", ErrUnknownRole, grant.Role)
	}
	clamped := ModuleGrant{
		Role:         grant.Role,
		AllModules:   grant.AllModules,
		AllSubroutes: grant.AllSubroutes,
		Modules:      []string{},
		Subroutes:    []string{},
	}
	if !grant.AllModules {
		clamped.Modules = ClampModules(grant.Modules)
	}
	if !grant.AllSubroutes {
		clamped.Subroutes = ClampSubroutes(grant.Subroutes)
	}
	if err := s.repo.SetModules(ctx, clamped); err != nil {
		return ModuleGrant{}, err
	}
	s.cache.Invalidate(ctx, grant.Role)
	return clamped, nil
}
