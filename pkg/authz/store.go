package authz

import "context"

// Role is the slice of a role the engine needs.
type Role struct {
	ID        string
	Name      string
	GrantsAll bool
}

// Store is the read side of the permission store.
type Store interface {
	// ActiveRole returns the subject's active role. ok is false when the
	// subject has no active assignment.
	ActiveRole(ctx context.Context, subjectID string) (role Role, ok bool, err error)

	// HasGrant reports whether roleID holds an active permission on resource
	// whose action is one of actions.
	HasGrant(ctx context.Context, roleID, resource string, actions []string) (bool, error)

	// PermissionConfigured reports whether any active permission exists on
	// resource for one of actions.
	PermissionConfigured(ctx context.Context, resource string, actions []string) (bool, error)
}
