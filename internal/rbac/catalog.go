package rbac

import "strings"

// The capability catalog is fixed at build time. Setters clamp input
// to it: unknown strings are dropped, not rejected, so a stale client
// writing a removed capability cannot poison a grant row.

// Catalog of top-level application modules.
var moduleCatalog = []string{
	"dashboard",
	"students",
	"teachers",
	"classes",
	"attendance",
	"exams",
	"results",
	"finance",
	"transport",
	"library",
	"settings",
}

// Catalog of nested subroutes, keyed module/subroute.
var subrouteCatalog = []string{
	"students/admissions",
	"students/promotions",
	"teachers/payroll",
	"exams/schedule",
	"results/publish",
	"finance/fees",
	"finance/invoices",
	"finance/expenses",
	"transport/routes",
	"transport/drivers",
	"settings/roles",
	"settings/accounts",
}

// Catalog of granular permissions.
var permissionCatalog = []string{
	"students.view", "students.edit",
	"teachers.view", "teachers.edit",
	"classes.view", "classes.edit",
	"attendance.view", "attendance.edit",
	"exams.view", "exams.edit",
	"results.view", "results.edit", "results.publish",
	"finance.view", "finance.edit",
	"transport.view", "transport.edit",
	"library.view", "library.edit",
	"settings.roles", "settings.accounts",
}

var (
	moduleSet     = toSet(moduleCatalog)
	subrouteSet   = toSet(subrouteCatalog)
	permissionSet = toSet(permissionCatalog)
)

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

// PermissionCatalog returns the known permission strings.
func PermissionCatalog() []string {
	return append([]string(nil), permissionCatalog...)
}

// ModuleCatalog returns the known module names.
func ModuleCatalog() []string {
	return append([]string(nil), moduleCatalog...)
}

// ModuleOf maps a capability to its owning module: the part before the
// first dot, or the capability itself for bare module names.
func ModuleOf(capability string) string {
	if idx := strings.IndexByte(capability, '.'); idx >= 0 {
		return capability[:idx]
	}
	return capability
}

func clamp(input []string, catalog map[string]struct{}) []string {
	out := make([]string, 0, len(input))
	seen := make(map[string]struct{}, len(input))
	for _, raw := range input {
		s := strings.ToLower(strings.TrimSpace(raw))
		if _, ok := catalog[s]; !ok {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// ClampPermissions filters input down to the permission catalog.
func ClampPermissions(input []string) []string { return clamp(input, permissionSet) }

// ClampModules filters input down to the module catalog.
func ClampModules(input []string) []string { return clamp(input, moduleSet) }

// ClampSubroutes filters input down to the subroute catalog.
func ClampSubroutes(input []string) []string { return clamp(input, subrouteSet) }
