package authn

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/courtside/pkg/authsdk"
	"github.com/aussiebroadwan/courtside/pkg/authz"
	"github.com/aussiebroadwan/courtside/pkg/jwtx"
)

// JWT verifies EdDSA access tokens locally. It trades immediate revocation
// for not calling the identity service, bounded by the token TTL.
type JWT struct {
	verifier *jwtx.Verifier
}

func NewJWT(keys *jwtx.KeySet, opts jwtx.VerifyOptions) *JWT {
	return &JWT{verifier: jwtx.NewVerifier(keys, opts)}
}

func (v *JWT) Verify(_ context.Context, credential string) (authz.Identity, error) {
	if credential == "" {
		return authz.Identity{}, authz.ErrUnauthenticated
	}
	claims, err := v.verifier.Verify(credential)
	if err != nil {
		return authz.Identity{}, fmt.Errorf("%w: %w", authz.ErrUnauthenticated, err)
	}
	return authz.Identity{
		SubjectID: claims.Subject,
		IsAdmin:   claims.Admin,
		IsActive:  true,
	}, nil
}

// LoadKeys replaces keys with the identity service's published JWKS.
func LoadKeys(ctx context.Context, client *authsdk.Client, keys *jwtx.KeySet) error {
	jwks, err := client.GetJWKS(ctx)
	if err != nil {
		return fmt.Errorf("fetch jwks: %w", err)
	}
	if err := keys.ResetFromJWKS(*jwks); err != nil {
		return fmt.Errorf("load jwks: %w", err)
	}
	return nil
}
