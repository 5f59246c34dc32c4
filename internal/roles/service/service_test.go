package service

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/courtside/internal/roles/domain"
	"github.com/aussiebroadwan/courtside/internal/roles/store/drivers/sqlite"
	"github.com/aussiebroadwan/courtside/pkg/authz"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store *sqlite.Store
	roles *RolesService
	check *CheckService
}

func newFixture(t *testing.T, adminUser string) fixture {
	t.Helper()
	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	_, err = (&BootstrapService{Store: st, AdminUser: adminUser}).Seed(context.Background())
	require.NoError(t, err)

	engine, err := authz.NewEngine(st)
	require.NoError(t, err)

	return fixture{store: st, roles: NewRolesService(st), check: NewCheckService(engine)}
}

func (f fixture) roleID(t *testing.T, name string) string {
	t.Helper()
	r, err := f.store.Roles().GetRoleByName(context.Background(), name)
	require.NoError(t, err)
	return r.ID
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	defer st.Close()

	svc := &BootstrapService{Store: st, AdminUser: "1"}

	first, err := svc.Seed(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, first.Roles)
	require.Equal(t, len(domain.DefaultPermissions()), first.Permissions)
	require.Equal(t, len(domain.DefaultPermissions())+3, first.Grants)
	require.True(t, first.AdminUser)

	second, err := svc.Seed(ctx)
	require.NoError(t, err)
	require.Equal(t, SeedReport{}, second)

	admin, err := st.Roles().GetRoleByName(ctx, domain.RoleAdmin)
	require.NoError(t, err)
	require.True(t, admin.GrantsAll)

	a, err := st.Assignments().GetActive(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, admin.ID, a.RoleID)
	require.Equal(t, domain.SeedSubject, a.AssignedBy)
}

func TestUserRoleReservations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")

	_, err := f.roles.AssignRole(ctx, "admin-1", AssignRoleInput{UserID: "7", RoleID: f.roleID(t, domain.RoleUser)})
	require.NoError(t, err)

	caller := authz.Identity{SubjectID: "7", IsActive: true}

	res, err := f.check.Check(ctx, caller, CheckInput{Resource: "reservations", Action: "create"})
	require.NoError(t, err)
	require.True(t, res.Decision.Allowed)
	require.Equal(t, domain.RoleUser, res.Decision.RoleName)

	res, err = f.check.Check(ctx, caller, CheckInput{Resource: "reservations", Action: "delete"})
	require.NoError(t, err)
	require.False(t, res.Decision.Allowed)
	require.ErrorIs(t, res.Decision.Err(), authz.ErrInsufficientPermission)

	// Any accepted action satisfies the check.
	res, err = f.check.Check(ctx, caller, CheckInput{Resource: "reservations", Action: "delete", Accept: []string{"create"}})
	require.NoError(t, err)
	require.True(t, res.Decision.Allowed)
}

func TestCheckOtherUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")

	_, err := f.check.Check(ctx,
		authz.Identity{SubjectID: "7", IsActive: true},
		CheckInput{UserID: "8", Resource: "reservations", Action: "create"})
	require.ErrorIs(t, err, ErrForbidden)

	res, err := f.check.Check(ctx,
		authz.Identity{SubjectID: "1", IsActive: true, IsAdmin: true},
		CheckInput{UserID: "8", Resource: "reservations", Action: "create"})
	require.NoError(t, err)
	require.Equal(t, "8", res.UserID)
	require.False(t, res.Decision.Allowed)
	require.Equal(t, authz.ReasonNoRoleAssigned, res.Decision.Reason)

	// Asking about yourself is always fine.
	res, err = f.check.Check(ctx,
		authz.Identity{SubjectID: "7", IsActive: true},
		CheckInput{UserID: "7", Resource: "reservations", Action: "create"})
	require.NoError(t, err)
	require.Equal(t, authz.ReasonNoRoleAssigned, res.Decision.Reason)
}

func TestCheckValidation(t *testing.T) {
	f := newFixture(t, "")
	_, err := f.check.Check(context.Background(), authz.Identity{SubjectID: "7", IsActive: true}, CheckInput{Action: "create"})
	require.ErrorIs(t, err, ErrInvalidInput)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "resource")
}

func TestCreateRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")

	role, err := f.roles.CreateRole(ctx, CreateRoleInput{Name: "staff", Description: "Front desk"})
	require.NoError(t, err)
	require.NotEmpty(t, role.ID)
	require.True(t, role.IsActive)
	require.False(t, role.GrantsAll)

	_, err = f.roles.CreateRole(ctx, CreateRoleInput{Name: "staff"})
	require.ErrorIs(t, err, ErrRoleExists)

	_, err = f.roles.CreateRole(ctx, CreateRoleInput{Name: "Front Desk"})
	require.ErrorIs(t, err, ErrInvalidInput)

	roles, err := f.roles.ListRoles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 3)
}

func TestCreatePermission(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")

	p, err := f.roles.CreatePermission(ctx, CreatePermissionInput{
		Name: "delete_reservations", Resource: "reservations", Action: "delete",
	})
	require.NoError(t, err)
	require.Equal(t, "delete", p.Action)

	_, err = f.roles.CreatePermission(ctx, CreatePermissionInput{
		Name: "delete_reservations", Resource: "reservations", Action: "delete",
	})
	require.ErrorIs(t, err, ErrPermissionExists)

	_, err = f.roles.CreatePermission(ctx, CreatePermissionInput{Name: "x1", Resource: "reservations"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "is required", verr.Fields["action"])

	perms, err := f.roles.ListPermissions(ctx, "reservations")
	require.NoError(t, err)
	require.Len(t, perms, 4)
}

func TestGrantPermission(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")

	staff, err := f.roles.CreateRole(ctx, CreateRoleInput{Name: "staff"})
	require.NoError(t, err)
	perm, err := f.store.Permissions().GetPermissionByName(ctx, "manage_fields")
	require.NoError(t, err)

	g, err := f.roles.GrantPermission(ctx, "1", GrantInput{RoleID: staff.ID, PermissionID: perm.ID})
	require.NoError(t, err)
	require.Equal(t, "1", g.GrantedBy)

	_, err = f.roles.GrantPermission(ctx, "1", GrantInput{RoleID: staff.ID, PermissionID: perm.ID})
	require.ErrorIs(t, err, ErrAlreadyGranted)

	_, err = f.roles.GrantPermission(ctx, "1", GrantInput{RoleID: "nope", PermissionID: perm.ID})
	require.ErrorIs(t, err, ErrRoleNotFound)

	_, err = f.roles.GrantPermission(ctx, "1", GrantInput{RoleID: staff.ID, PermissionID: "nope"})
	require.ErrorIs(t, err, ErrPermissionNotFound)

	perms, err := f.store.Grants().ListPermissions(ctx, staff.ID)
	require.NoError(t, err)
	require.Len(t, perms, 1)
}

func TestAssignRoleReplacesPrevious(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")

	_, err := f.roles.AssignRole(ctx, "1", AssignRoleInput{UserID: "9", RoleID: "missing"})
	require.ErrorIs(t, err, ErrRoleNotFound)

	_, err = f.roles.AssignRole(ctx, "1", AssignRoleInput{UserID: "9", RoleID: f.roleID(t, domain.RoleUser)})
	require.NoError(t, err)
	a, err := f.roles.AssignRole(ctx, "1", AssignRoleInput{UserID: "9", RoleID: f.roleID(t, domain.RoleAdmin)})
	require.NoError(t, err)
	require.True(t, a.IsActive)
	require.Equal(t, "1", a.AssignedBy)

	history, err := f.store.Assignments().ListForUser(ctx, "9")
	require.NoError(t, err)
	require.Len(t, history, 2)

	up, err := f.roles.UserPermissions(ctx, "9")
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, up.Role.Name)
	require.Len(t, up.Permissions, len(domain.DefaultPermissions()))
}

func TestUserPermissions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")

	_, err := f.roles.UserPermissions(ctx, "42")
	require.ErrorIs(t, err, ErrNoActiveRole)

	_, err = f.roles.AssignRole(ctx, "1", AssignRoleInput{UserID: "42", RoleID: f.roleID(t, domain.RoleUser)})
	require.NoError(t, err)

	up, err := f.roles.UserPermissions(ctx, "42")
	require.NoError(t, err)
	require.Equal(t, "42", up.UserID)

	names := make([]string, 0, len(up.Permissions))
	for _, p := range up.Permissions {
		names = append(names, p.Name)
	}
	require.ElementsMatch(t, []string{"create_reservations", "view_own_reservations", "edit_own_profile"}, names)
}
