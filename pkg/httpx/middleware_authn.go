package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/courtside/pkg/authz"
	"github.com/aussiebroadwan/courtside/pkg/slogx"
)

// Verifier turns a bearer credential into an identity.
type Verifier interface {
	Verify(ctx context.Context, credential string) (authz.Identity, error)
}

// AuthnMiddleware verifies the bearer credential on every request and stores
// the identity in the request context.
func AuthnMiddleware(v Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw, ok := BearerToken(r)
			if !ok {
				writeBearerError(w, "missing bearer token")
				return
			}

			id, err := v.Verify(ctx, raw)
			if err != nil {
				if errors.Is(err, authz.ErrServiceUnavailable) {
					log.Error("credential verifier unavailable", "err", err)
					WriteError(w, http.StatusServiceUnavailable, KindServiceUnavailable,
						"authentication service unavailable")
					return
				}
				log.Warn("credential verify failed", "err", err)
				writeBearerError(w, "token verification failed")
				return
			}

			ctx = authz.WithIdentity(ctx, id)
			ctx = slogx.WithContext(ctx, log.With("subject", id.SubjectID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the credential from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteError(w, http.StatusUnauthorized, KindUnauthenticated, "authentication required")
}
