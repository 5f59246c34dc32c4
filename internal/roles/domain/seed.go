package domain

// Role names created by the seed.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// SeedSubject is recorded as assigned_by / granted_by for seeded rows.
const SeedSubject = "system"

// PermissionDef describes a permission the seed creates if missing.
type PermissionDef struct {
	Name        string
	Resource    string
	Action      string
	Description string
}

// RoleDef describes a seeded role and the permissions it is granted.
type RoleDef struct {
	Name        string
	Description string
	GrantsAll   bool
	Permissions []string
}

// Permissions guarding the roles service's own administrator endpoints.
// They must exist for explicit checks to admit administrators.
var AdminPermissions = []PermissionDef{
	{Name: "create_roles", Resource: "roles", Action: "create", Description: "Create roles"},
	{Name: "view_roles", Resource: "roles", Action: "view", Description: "List roles"},
	{Name: "assign_roles", Resource: "roles", Action: "assign", Description: "Assign roles to users"},
	{Name: "grant_permissions", Resource: "roles", Action: "grant", Description: "Grant permissions to roles"},
	{Name: "create_permissions", Resource: "permissions", Action: "create", Description: "Create permissions"},
	{Name: "view_permissions", Resource: "permissions", Action: "view", Description: "List permissions"},
	{Name: "view_user_permissions", Resource: "users", Action: "view_permissions", Description: "Inspect any user's permissions"},
}

// PlatformPermissions are the reservation platform's baseline permissions.
var PlatformPermissions = []PermissionDef{
	{Name: "create_reservations", Resource: "reservations", Action: "create", Description: "Create reservations"},
	{Name: "view_own_reservations", Resource: "reservations", Action: "view", Description: "View own reservations"},
	{Name: "edit_own_profile", Resource: "profile", Action: "edit", Description: "Edit own profile"},
	{Name: "manage_fields", Resource: "fields", Action: "manage", Description: "Manage sport fields"},
	{Name: "manage_users", Resource: "users", Action: "manage", Description: "Manage users"},
	{Name: "create_admin", Resource: "users", Action: "create_admin", Description: "Create administrators"},
	{Name: "view_all_reservations", Resource: "reservations", Action: "view_all", Description: "View every reservation"},
}

// DefaultRoles returns the seeded roles. The admin role is granted every
// seeded permission so explicit checks have something to match.
func DefaultRoles() []RoleDef {
	all := make([]string, 0, len(PlatformPermissions)+len(AdminPermissions))
	for _, p := range PlatformPermissions {
		all = append(all, p.Name)
	}
	for _, p := range AdminPermissions {
		all = append(all, p.Name)
	}

	return []RoleDef{
		{
			Name:        RoleAdmin,
			Description: "System administrator",
			GrantsAll:   true,
			Permissions: all,
		},
		{
			Name:        RoleUser,
			Description: "Registered user",
			Permissions: []string{"create_reservations", "view_own_reservations", "edit_own_profile"},
		},
	}
}

// DefaultPermissions returns every seeded permission.
func DefaultPermissions() []PermissionDef {
	out := make([]PermissionDef, 0, len(PlatformPermissions)+len(AdminPermissions))
	out = append(out, PlatformPermissions...)
	return append(out, AdminPermissions...)
}
