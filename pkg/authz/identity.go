package authz

import "context"

// Identity is the verified caller for one request. It is never shared
// between requests.
type Identity struct {
	SubjectID string `json:"subject_id"`
	IsAdmin   bool   `json:"is_admin"`
	IsActive  bool   `json:"is_active"`
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
