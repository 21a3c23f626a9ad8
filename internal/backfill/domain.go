// Package backfill reconciles domain tables against login accounts,
// creating missing accounts for rows that carry an email.
package backfill

import (
	"errors"

	"github.com/veritas-sms/veritas-sms/internal/identity"
)

// ErrUnknownRole indicates a backfill request for a role without a
// domain table.
var ErrUnknownRole = errors.New("backfill: unknown role")

// Roles eligible for reconciliation.
var Roles = []identity.Role{identity.RoleStudent, identity.RoleTeacher, identity.RoleDriver}

// IsBackfillRole reports whether the role has a domain table to scan.
func IsBackfillRole(role identity.Role) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// DomainRecord is one scanned row from a domain table.
type DomainRecord struct {
	ID    int64
	Email string
	Name  string
}

// Report summarizes one reconciliation run. The shared temporary
// password is distributed out-of-band and never appears here.
type Report struct {
	Role    identity.Role              `json:"role"`
	Created []identity.ResolvedAccount `json:"created"`
	Skipped int                        `json:"skipped"`
}
