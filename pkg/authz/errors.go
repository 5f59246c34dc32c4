package authz

import "errors"

var (
	// ErrUnauthenticated is returned when there is no usable identity.
	ErrUnauthenticated = errors.New("authz: unauthenticated")

	// ErrNoRoleAssigned is returned when the subject has no active role.
	ErrNoRoleAssigned = errors.New("authz: no role assigned")

	// ErrInsufficientPermission is returned when the active role lacks a matching grant.
	ErrInsufficientPermission = errors.New("authz: insufficient permission")

	// ErrServiceUnavailable is returned when a verifier or permission store
	// cannot answer. It is never folded into a denial.
	ErrServiceUnavailable = errors.New("authz: authorization service unavailable")

	// ErrInvalidCheck is returned for a check without a resource or actions.
	ErrInvalidCheck = errors.New("authz: invalid check")
)

// IsDenied reports whether err is one of the two denial kinds.
func IsDenied(err error) bool {
	return errors.Is(err, ErrNoRoleAssigned) || errors.Is(err, ErrInsufficientPermission)
}
