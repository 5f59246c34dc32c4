// Package authn verifies bearer credentials and turns them into
// authz.Identity values. Every implementation reports a bad credential as
// authz.ErrUnauthenticated and an unreachable authority as
// authz.ErrServiceUnavailable.
package authn

import (
	"context"

	"github.com/aussiebroadwan/courtside/pkg/authz"
)

// Verifier is called synchronously before every protected operation.
type Verifier interface {
	Verify(ctx context.Context, credential string) (authz.Identity, error)
}
