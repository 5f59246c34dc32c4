package domain

import "time"

// Role groups permissions. A role with GrantsAll satisfies every
// non-explicit check without consulting its grants.
type Role struct {
	ID          string
	Name        string
	Description string
	GrantsAll   bool
	IsActive    bool
	CreatedAt   time.Time
}

// Permission names one action on one resource.
type Permission struct {
	ID          string
	Name        string
	Resource    string
	Action      string
	Description string
	IsActive    bool
	CreatedAt   time.Time
}

// Assignment binds a user to a role. At most one assignment per user is
// active; older ones are kept inactive as history.
type Assignment struct {
	ID         string
	UserID     string
	RoleID     string
	AssignedBy string
	IsActive   bool
	AssignedAt time.Time
}

// Grant gives a role a permission. A (role, permission) pair exists once.
type Grant struct {
	RoleID       string
	PermissionID string
	GrantedBy    string
	GrantedAt    time.Time
}
