package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/courtside/pkg/authz"
	"github.com/aussiebroadwan/courtside/pkg/slogx"
)

// Enforcer is satisfied by *authz.Engine.
type Enforcer interface {
	Enforce(ctx context.Context, id authz.Identity, chk authz.Check) error
}

// RequirePermission lets the request through only when the authenticated
// identity passes chk. Must run after AuthnMiddleware.
func RequirePermission(e Enforcer, chk authz.Check) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := authz.IdentityFrom(r.Context())
			if !ok {
				writeBearerError(w, "missing identity")
				return
			}
			if err := e.Enforce(r.Context(), id, chk); err != nil {
				WriteAuthzError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WriteAuthzError maps resolution errors to responses. Both denial kinds
// share one terse message so probing can't tell them apart by text.
func WriteAuthzError(w http.ResponseWriter, r *http.Request, err error) {
	log := slogx.FromContext(r.Context())

	switch {
	case errors.Is(err, authz.ErrNoRoleAssigned):
		log.Info("access denied", "reason", "no_role_assigned")
		WriteError(w, http.StatusForbidden, KindNoRoleAssigned, "access denied")
	case errors.Is(err, authz.ErrInsufficientPermission):
		log.Info("access denied", "reason", "insufficient_permission")
		WriteError(w, http.StatusForbidden, KindInsufficientPermission, "access denied")
	case errors.Is(err, authz.ErrUnauthenticated):
		writeBearerError(w, "identity not active")
	case errors.Is(err, authz.ErrServiceUnavailable):
		log.Error("authorization unavailable", "err", err)
		WriteError(w, http.StatusServiceUnavailable, KindServiceUnavailable,
			"authorization service unavailable")
	default:
		log.Error("authorization failed", "err", err)
		WriteError(w, http.StatusInternalServerError, KindInternal, "internal error")
	}
}
