package authsdk

import (
	"context"
	"net/http"
)

// Me asks the identity service who holds token.
func (c *Client) Me(ctx context.Context, token string) (*UserInfo, error) {
	var user UserInfo
	if err := c.call(ctx, http.MethodGet, "/auth/me", token, nil, &user, http.StatusOK); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetJWKS retrieves the JSON Web Key Set for token verification.
func (c *Client) GetJWKS(ctx context.Context) (*JWKSResponse, error) {
	var jwks JWKSResponse
	if err := c.call(ctx, http.MethodGet, "/.well-known/jwks.json", "", nil, &jwks, http.StatusOK); err != nil {
		return nil, err
	}
	return &jwks, nil
}
