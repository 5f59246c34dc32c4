package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/courtside/internal/roles/service"
	"github.com/aussiebroadwan/courtside/pkg/authz"
	"github.com/aussiebroadwan/courtside/pkg/httpx"
	"github.com/aussiebroadwan/courtside/pkg/slogx"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 64 << 10

// writeServiceError maps service and resolution errors onto the envelope.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.WriteValidationError(w, "request validation failed", verr.Fields)
	case errors.Is(err, service.ErrRoleNotFound),
		errors.Is(err, service.ErrPermissionNotFound),
		errors.Is(err, service.ErrNoActiveRole):
		httpx.WriteError(w, http.StatusNotFound, httpx.KindNotFound, err.Error())
	case errors.Is(err, service.ErrRoleExists), errors.Is(err, service.ErrPermissionExists):
		httpx.WriteError(w, http.StatusConflict, httpx.KindAlreadyExists, err.Error())
	case errors.Is(err, service.ErrAlreadyGranted):
		httpx.WriteError(w, http.StatusConflict, httpx.KindAlreadyGranted, err.Error())
	case errors.Is(err, service.ErrForbidden):
		httpx.WriteAuthzError(w, r, authz.ErrInsufficientPermission)
	case errors.Is(err, authz.ErrUnauthenticated),
		errors.Is(err, authz.ErrServiceUnavailable),
		errors.Is(err, authz.ErrNoRoleAssigned),
		errors.Is(err, authz.ErrInsufficientPermission):
		httpx.WriteAuthzError(w, r, err)
	case errors.Is(err, authz.ErrInvalidCheck):
		httpx.WriteValidationError(w, "resource and action are required", nil)
	default:
		slogx.FromContext(r.Context()).Error("request failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, httpx.KindInternal, "internal error")
	}
}

// decodeBody reads the JSON body or writes a 400 and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst, maxBodyBytes); err != nil {
		slogx.FromContext(r.Context()).Debug("bad request body", "error", err)
		httpx.WriteValidationError(w, "invalid JSON body", nil)
		return false
	}
	return true
}
