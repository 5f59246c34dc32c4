package authn

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/courtside/pkg/authsdk"
	"github.com/aussiebroadwan/courtside/pkg/authz"
)

// Remote asks the identity service about every credential it sees, so a
// revoked token or deactivated account is rejected on the very next call.
type Remote struct {
	Client *authsdk.Client
}

func NewRemote(client *authsdk.Client) *Remote {
	return &Remote{Client: client}
}

func (v *Remote) Verify(ctx context.Context, credential string) (authz.Identity, error) {
	if credential == "" {
		return authz.Identity{}, authz.ErrUnauthenticated
	}

	user, err := v.Client.Me(ctx, credential)
	if err != nil {
		return authz.Identity{}, classify(err)
	}
	if user.ID == "" || !user.IsActive {
		return authz.Identity{}, fmt.Errorf("%w: inactive or anonymous user", authz.ErrUnauthenticated)
	}

	return authz.Identity{
		SubjectID: string(user.ID),
		IsAdmin:   user.IsAdmin,
		IsActive:  true,
	}, nil
}

// classify maps identity service failures onto the two verifier errors.
// Only 401 and 403 mean the credential itself is bad.
func classify(err error) error {
	if errors.Is(err, authsdk.ErrUnreachable) {
		return fmt.Errorf("%w: %w", authz.ErrServiceUnavailable, err)
	}
	switch authsdk.StatusCode(err) {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %w", authz.ErrUnauthenticated, err)
	default:
		return fmt.Errorf("%w: %w", authz.ErrServiceUnavailable, err)
	}
}
