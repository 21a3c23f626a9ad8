package rbac

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/veritas-sms/veritas-sms/internal/platform/httpx"
	"github.com/veritas-sms/veritas-sms/internal/shared"
)

// Handler wires the RBAC admin surface.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

type setActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type setPermissionsRequest struct {
	Permissions []string `json:"permissions" validate:"required"`
}

type setModulesRequest struct {
	AllModules   bool     `json:"allModules"`
	Modules      []string `json:"modules"`
	AllSubroutes bool     `json:"allSubroutes"`
	Subroutes    []string `json:"subroutes"`
}

// HandleListActivations serves GET /rbac/roles.
func (h *Handler) HandleListActivations(w http.ResponseWriter, r *http.Request) {
	activations, err := h.service.ListActivations(r.Context())
	if err != nil {
		h.logger.Error("list activations", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": activations})
}

// HandleSetActive serves PUT /rbac/roles/{role}/active.
func (h *Handler) HandleSetActive(w http.ResponseWriter, r *http.Request) {
	role := chi.URLParam(r, "role")
	var req setActiveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.service.SetRoleActive(r.Context(), role, *req.Active); err != nil {
		if errors.Is(err, ErrUnknownRole) {
			httpx.RespondError(w, httpx.ErrValidation)
			return
		}
		h.logger.Error("set role active", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, RoleActivation{Role: role, Active: *req.Active})
}

// HandleGetPermissions serves GET /rbac/roles/{role}/permissions.
func (h *Handler) HandleGetPermissions(w http.ResponseWriter, r *http.Request) {
	role := chi.URLParam(r, "role")
	if !IsOperationalRole(role) {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	grants, err := h.service.EffectiveGrantsFor(r.Context(), role)
	if err != nil {
		h.logger.Error("get permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, PermissionGrant{Role: role, Permissions: grants.Permissions})
}

// HandleSetPermissions serves PUT /rbac/roles/{role}/permissions.
func (h *Handler) HandleSetPermissions(w http.ResponseWriter, r *http.Request) {
	role := chi.URLParam(r, "role")
	var req setPermissionsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	grant, err := h.service.SetPermissionsForRole(r.Context(), role, req.Permissions)
	if err != nil {
		if errors.Is(err, ErrUnknownRole) {
			httpx.RespondError(w, httpx.ErrValidation)
			return
		}
		h.logger.Error("set permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, grant)
}

// HandleGetModules serves GET /rbac/roles/{role}/modules.
func (h *Handler) HandleGetModules(w http.ResponseWriter, r *http.Request) {
	role := chi.URLParam(r, "role")
	if !IsOperationalRole(role) {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	grants, err := h.service.EffectiveGrantsFor(r.Context(), role)
	if err != nil {
		h.logger.Error("get modules", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, grants.Modules)
}

// HandleSetModules serves PUT /rbac/roles/{role}/modules.
func (h *Handler) HandleSetModules(w http.ResponseWriter, r *http.Request) {
	role := chi.URLParam(r, "role")
	var req setModulesRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	grant, err := h.service.SetModulesForRole(r.Context(), ModuleGrant{
		Role:         role,
		AllModules:   req.AllModules,
		Modules:      req.Modules,
		AllSubroutes: req.AllSubroutes,
		Subroutes:    req.Subroutes,
	})
	if err != nil {
		if errors.Is(err, ErrUnknownRole) {
			httpx.RespondError(w, httpx.ErrValidation)
			return
		}
		h.logger.Error("set modules", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, grant)
}

// HandleMyModules serves GET /rbac/my-modules, scoped to the caller's
// own role.
func (h *Handler) HandleMyModules(w http.ResponseWriter, r *http.Request) {
	principal, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	grants, err := h.service.EffectiveGrantsFor(r.Context(), principal.Role)
	if err != nil {
		h.logger.Error("my modules", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, grants)
}
