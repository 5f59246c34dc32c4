package http

import (
	"net/http"

	"github.com/aussiebroadwan/courtside/internal/roles/service"
	"github.com/aussiebroadwan/courtside/pkg/authsdk"
	"github.com/aussiebroadwan/courtside/pkg/authz"
	"github.com/aussiebroadwan/courtside/pkg/httpx"
)

type PermissionsHandler struct {
	RolesService *service.RolesService
}

// HandleCreate serves POST /api/v1/permissions.
func (h *PermissionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req authsdk.CreatePermissionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	p, err := h.RolesService.CreatePermission(r.Context(), service.CreatePermissionInput{
		Name:        req.Name,
		Resource:    req.Resource,
		Action:      req.Action,
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toPermission(p))
}

// HandleList serves GET /api/v1/permissions?resource=.
func (h *PermissionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	perms, err := h.RolesService.ListPermissions(r.Context(), r.URL.Query().Get("resource"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toPermissions(perms))
}

// UserPermissionsHandler serves GET /api/v1/users/{id}/permissions. Users
// may always read their own; reading someone else's needs
// users:view_permissions.
type UserPermissionsHandler struct {
	RolesService *service.RolesService
	Enforcer     httpx.Enforcer
}

func (h *UserPermissionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := authz.IdentityFrom(ctx)
	if !ok {
		httpx.WriteAuthzError(w, r, authz.ErrUnauthenticated)
		return
	}

	userID := r.PathValue("id")
	if userID != caller.SubjectID {
		if err := h.Enforcer.Enforce(ctx, caller, authz.Need("users", "view_permissions")); err != nil {
			httpx.WriteAuthzError(w, r, err)
			return
		}
	}

	up, err := h.RolesService.UserPermissions(ctx, userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	role := toRole(up.Role)
	httpx.WriteJSON(w, http.StatusOK, authsdk.UserPermissions{
		UserID:      up.UserID,
		Role:        &role,
		Permissions: toPermissions(up.Permissions),
	})
}
