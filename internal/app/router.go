package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/veritas-sms/veritas-sms/internal/backfill"
	"github.com/veritas-sms/veritas-sms/internal/identity"
	"github.com/veritas-sms/veritas-sms/internal/observability"
	"github.com/veritas-sms/veritas-sms/internal/rbac"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	IdentityHandler *identity.Handler
	Authenticator   *identity.Authenticator
	RBACHandler     *rbac.Handler
	RBACMiddleware  rbac.Middleware
	BackfillHandler *backfill.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with Veritas defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", func(auth chi.Router) {
		auth.With(LoginRateLimiter(params.Config)).Post("/login", params.IdentityHandler.HandleLogin)
		auth.Post("/refresh", params.IdentityHandler.HandleRefresh)
	})

	r.Group(func(protected chi.Router) {
		protected.Use(params.Authenticator.RequireToken)

		protected.Route("/rbac", func(rr chi.Router) {
			rr.Get("/my-modules", params.RBACHandler.HandleMyModules)

			rr.Group(func(admin chi.Router) {
				admin.Use(params.RBACMiddleware.RequireCapability("settings.roles"))
				admin.Get("/roles", params.RBACHandler.HandleListActivations)
				admin.Put("/roles/{role}/active", params.RBACHandler.HandleSetActive)
				admin.Get("/roles/{role}/permissions", params.RBACHandler.HandleGetPermissions)
				admin.Put("/roles/{role}/permissions", params.RBACHandler.HandleSetPermissions)
				admin.Get("/roles/{role}/modules", params.RBACHandler.HandleGetModules)
				admin.Put("/roles/{role}/modules", params.RBACHandler.HandleSetModules)
			})
		})

		protected.Route("/admin", func(admin chi.Router) {
			admin.Use(params.RBACMiddleware.RequireCapability("settings.accounts"))
			admin.Post("/backfill/{role}", params.BackfillHandler.HandleRun)
		})
	})

	return r
}
