package rbac

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	_ "github.com/veritas-sms/veritas-sms/testing"
)

type failingRBACRepo struct {
	*memoryRBACRepo
}

func (r *failingRBACRepo) SetActivation(ctx context.Context, role string, active bool) error {
	return errors.New("store unavailable")
}

func (r *failingRBACRepo) SetPermissions(ctx context.Context, role string, permissions []string) error {
	return errors.New("store unavailable")
}

func (r *failingRBACRepo) SetModules(ctx context.Context, grant ModuleGrant) error {
	return errors.New("store unavailable")
}

func putJSON(t *testing.T, handler http.HandlerFunc, role, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("role", role)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	res := httptest.NewRecorder()
	handler(res, req)
	return res
}

func TestSettersRejectUnknownRoleWithBadRequest(t *testing.T) {
	handler := NewHandler(nil, newTestService(newMemoryRBACRepo()))

	res := putJSON(t, handler.HandleSetActive, "astronaut",
		"/rbac/roles/astronaut/active", `{"active":false}`)
	require.Equal(t, http.StatusBadRequest, res.Code)

	res = putJSON(t, handler.HandleSetPermissions, "astronaut",
		"/rbac/roles/astronaut/permissions", `{"permissions":["finance.edit"]}`)
	require.Equal(t, http.StatusBadRequest, res.Code)

	res = putJSON(t, handler.HandleSetModules, "astronaut",
		"/rbac/roles/astronaut/modules", `{"allModules":true}`)
	require.Equal(t, http.StatusBadRequest, res.Code)
}

func TestSettersSurfaceStoreFailuresAsServerErrors(t *testing.T) {
	repo := &failingRBACRepo{memoryRBACRepo: newMemoryRBACRepo()}
	handler := NewHandler(nil, newTestService(repo))

	res := putJSON(t, handler.HandleSetActive, "teacher",
		"/rbac/roles/teacher/active", `{"active":false}`)
	require.Equal(t, http.StatusInternalServerError, res.Code)

	res = putJSON(t, handler.HandleSetPermissions, "teacher",
		"/rbac/roles/teacher/permissions", `{"permissions":["finance.edit"]}`)
	require.Equal(t, http.StatusInternalServerError, res.Code)

	res = putJSON(t, handler.HandleSetModules, "teacher",
		"/rbac/roles/teacher/modules", `{"allModules":true}`)
	require.Equal(t, http.StatusInternalServerError, res.Code)
}
