package identity

import (
	"context"
	"crypto/subtle"

	"github.com/veritas-sms/veritas-sms/internal/shared"
)

// GateState tracks the owner two-phase login state machine.
type GateState int

const (
	StateInit GateState = iota
	StateCredCheck
	StateLicenseRequired
	StateAuthenticated
	StateRejected
)

func (s GateState) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateCredCheck:
		return "CRED_CHECK"
	case StateLicenseRequired:
		return "LICENSE_REQUIRED"
	case StateAuthenticated:
		return "AUTHENTICATED"
	case StateRejected:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}

// LicenseGate wraps the resolver with the license-key phase applied to
// the owner identity only. Non-owner logins pass straight through.
type LicenseGate struct {
	resolver   *Resolver
	licenseKey string
}

// NewLicenseGate constructs a LicenseGate.
func NewLicenseGate(resolver *Resolver, licenseKey string) *LicenseGate {
	return &LicenseGate{resolver: resolver, licenseKey: licenseKey}
}

// Submit advances the gate with one login attempt. The machine is
// stateless between requests: the owner's second phase re-submits
// identifier and password together with the license key.
//
// LICENSE_REQUIRED is a soft outcome carried as ErrOwnerKeyRequired so
// callers can prompt for the key instead of showing a failure.
func (g *LicenseGate) Submit(ctx context.Context, identifier, password, licenseKey string) (*ResolvedAccount, GateState, error) {
	account, err := g.resolver.Resolve(ctx, identifier, password)
	if err != nil {
		return nil, StateRejected, err
	}

	if account.Role != RoleOwner {
		return account, StateAuthenticated, nil
	}

	if licenseKey == "" {
		return nil, StateLicenseRequired, shared.ErrOwnerKeyRequired
	}
	if subtle.ConstantTimeCompare([]byte(licenseKey), []byte(g.licenseKey)) != 1 {
		return nil, StateRejected, shared.ErrInvalidCredentials
	}
	return account, StateAuthenticated, nil
}
