package http

import (
	"net/http"

	"github.com/aussiebroadwan/courtside/internal/roles/service"
	"github.com/aussiebroadwan/courtside/pkg/authsdk"
	"github.com/aussiebroadwan/courtside/pkg/httpx"
)

type RolesHandler struct {
	RolesService *service.RolesService
}

// HandleCreate serves POST /api/v1/roles.
func (h *RolesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req authsdk.CreateRoleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	role, err := h.RolesService.CreateRole(r.Context(), service.CreateRoleInput{
		Name:        req.Name,
		Description: req.Description,
		GrantsAll:   req.GrantsAll,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toRole(role))
}

// HandleList serves GET /api/v1/roles.
func (h *RolesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	roles, err := h.RolesService.ListRoles(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]authsdk.Role, len(roles))
	for i, role := range roles {
		out[i] = toRole(role)
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleAssign serves POST /api/v1/roles/assign.
func (h *RolesHandler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	var req authsdk.AssignRoleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	a, err := h.RolesService.AssignRole(r.Context(), httpx.SubjectFromCtx(r.Context()), service.AssignRoleInput{
		UserID: req.UserID,
		RoleID: req.RoleID,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.Assignment{
		ID:         a.ID,
		UserID:     a.UserID,
		RoleID:     a.RoleID,
		AssignedBy: a.AssignedBy,
		IsActive:   a.IsActive,
		AssignedAt: a.AssignedAt,
	})
}

// HandleGrant serves POST /api/v1/roles/{id}/permissions.
func (h *RolesHandler) HandleGrant(w http.ResponseWriter, r *http.Request) {
	var req authsdk.GrantRequest
	if !decodeBody(w, r, &req) {
		return
	}

	g, err := h.RolesService.GrantPermission(r.Context(), httpx.SubjectFromCtx(r.Context()), service.GrantInput{
		RoleID:       r.PathValue("id"),
		PermissionID: req.PermissionID,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, authsdk.Grant{
		RoleID:       g.RoleID,
		PermissionID: g.PermissionID,
		GrantedBy:    g.GrantedBy,
		GrantedAt:    g.GrantedAt,
	})
}
