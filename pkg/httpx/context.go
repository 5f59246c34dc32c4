package httpx

import (
	"context"

	"github.com/aussiebroadwan/courtside/pkg/authz"
)

// SubjectFromCtx returns the authenticated subject id, or "".
func SubjectFromCtx(ctx context.Context) string {
	if id, ok := authz.IdentityFrom(ctx); ok {
		return id.SubjectID
	}
	return ""
}
