package shared

import "context"

// Principal describes the authenticated actor attached to a request.
type Principal struct {
	AccountID int64
	Email     string
	Role      string
	Name      string
}

type contextKey string

const principalKey contextKey = "veritas.principal"

// ContextWithPrincipal returns a context carrying the principal.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext extracts the request principal, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
