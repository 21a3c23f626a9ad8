// Package rbac evaluates whether a role may use a capability. A
// capability is either a permission string from the fixed catalog or a
// top-level module name.
package rbac

// OperationalRoles is the fixed set of roles that grant rows may exist
// for. Owner bypasses the engine entirely and parent is scoped by
// fixed routes, so neither appears here.
var OperationalRoles = []string{"admin", "teacher", "student", "driver"}

// IsOperationalRole reports whether grant rows may exist for the role.
func IsOperationalRole(role string) bool {
	for _, r := range OperationalRoles {
		if r == role {
			return true
		}
	}
	return false
}

// RoleActivation toggles a whole role on or off. A missing row means
// active.
type RoleActivation struct {
	Role   string `json:"role"`
	Active bool   `json:"active"`
}

// PermissionGrant is the catalog-validated permission set for a role.
type PermissionGrant struct {
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// ModuleGrant is the coarse module/subroute allowlist for a role.
// AllModules and AllSubroutes represent the "ALL" sentinel.
type ModuleGrant struct {
	Role         string   `json:"role"`
	AllModules   bool     `json:"allModules"`
	Modules      []string `json:"modules"`
	AllSubroutes bool     `json:"allSubroutes"`
	Subroutes    []string `json:"subroutes"`
}

// EffectiveGrants is the full grant picture for one role, the unit the
// decision cache stores.
type EffectiveGrants struct {
	Role        string      `json:"role"`
	Active      bool        `json:"active"`
	Permissions []string    `json:"permissions"`
	Modules     ModuleGrant `json:"modules"`
}
