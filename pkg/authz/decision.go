package authz

// Reason explains a Decision.
type Reason string

const (
	ReasonAdminIdentity Reason = "admin_identity"
	ReasonGrantsAll     Reason = "role_grants_all"
	ReasonGranted       Reason = "granted"
	ReasonFailOpen      Reason = "fail_open"

	ReasonNoRoleAssigned         Reason = "no_role_assigned"
	ReasonInsufficientPermission Reason = "insufficient_permission"
)

// Decision is the result of a resolution.
type Decision struct {
	Allowed  bool
	Reason   Reason
	RoleID   string
	RoleName string
}

// Err returns the denial sentinel for a denied decision and nil otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	if d.Reason == ReasonNoRoleAssigned {
		return ErrNoRoleAssigned
	}
	return ErrInsufficientPermission
}

func allow(r Reason) Decision { return Decision{Allowed: true, Reason: r} }

func deny(r Reason) Decision { return Decision{Reason: r} }
