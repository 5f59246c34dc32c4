package http

import (
	"net/http"

	"github.com/aussiebroadwan/courtside/internal/roles/service"
	"github.com/aussiebroadwan/courtside/pkg/authsdk"
	"github.com/aussiebroadwan/courtside/pkg/authz"
	"github.com/aussiebroadwan/courtside/pkg/httpx"
)

// CheckHandler serves POST /api/v1/permissions/check. A denial is a normal
// 200 answer with has_permission=false.
type CheckHandler struct {
	CheckService *service.CheckService
}

func (h *CheckHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	caller, ok := authz.IdentityFrom(r.Context())
	if !ok {
		httpx.WriteAuthzError(w, r, authz.ErrUnauthenticated)
		return
	}

	var req authsdk.PermissionCheckRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.CheckService.Check(r.Context(), caller, service.CheckInput{
		UserID:   req.UserID,
		Resource: req.Resource,
		Action:   req.Action,
		Accept:   req.Accept,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.PermissionCheckResponse{
		HasPermission: res.Decision.Allowed,
		UserID:        res.UserID,
		Resource:      res.Resource,
		Action:        res.Action,
		RoleName:      res.Decision.RoleName,
		Reason:        string(res.Decision.Reason),
	})
}
