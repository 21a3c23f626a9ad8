package rbac

import (
	"log/slog"
	"net/http"

	"github.com/veritas-sms/veritas-sms/internal/platform/httpx"
	"github.com/veritas-sms/veritas-sms/internal/shared"
)

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// RequireCapability ensures the current principal's role may use the
// capability before the request proceeds.
func (m Middleware) RequireCapability(capability string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := shared.PrincipalFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, shared.ErrUnauthorized)
				return
			}
			if !m.Service.Decision(r.Context(), principal.Role, capability) {
				if m.Logger != nil {
					m.Logger.Info("rbac denial",
						slog.String("role", principal.Role),
						slog.String("capability", capability))
				}
				httpx.RespondError(w, shared.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
