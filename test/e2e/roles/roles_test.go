package roles_test

import (
	"net/http"
	"testing"

	"github.com/aussiebroadwan/courtside/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func TestHealthEndpoints(t *testing.T) {
	client := setupRolesContainer(t)

	live, err := client.GetLiveness(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)

	ready, err := client.GetReadiness(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Checks["database"])
}

func TestAdministratorWorkflow(t *testing.T) {
	client := setupRolesContainer(t)
	ctx := t.Context()

	roles, err := client.ListRoles(ctx, adminToken)
	require.NoError(t, err)
	require.Len(t, roles, 2)

	staff, err := client.CreateRole(ctx, adminToken, authsdk.CreateRoleRequest{Name: "staff"})
	require.NoError(t, err)

	perm, err := client.CreatePermission(ctx, adminToken, authsdk.CreatePermissionRequest{
		Name: "cancel_reservations", Resource: "reservations", Action: "cancel",
	})
	require.NoError(t, err)

	_, err = client.GrantPermission(ctx, adminToken, staff.ID, authsdk.GrantRequest{PermissionID: perm.ID})
	require.NoError(t, err)

	_, err = client.GrantPermission(ctx, adminToken, staff.ID, authsdk.GrantRequest{PermissionID: perm.ID})
	require.Equal(t, http.StatusConflict, authsdk.StatusCode(err))

	// The player has no role yet.
	res, err := client.CheckPermission(ctx, userToken, authsdk.PermissionCheckRequest{Resource: "reservations", Action: "cancel"})
	require.NoError(t, err)
	require.False(t, res.HasPermission)
	require.Equal(t, "no_role_assigned", res.Reason)

	_, err = client.AssignRole(ctx, adminToken, authsdk.AssignRoleRequest{UserID: plainUserID, RoleID: staff.ID})
	require.NoError(t, err)

	res, err = client.CheckPermission(ctx, userToken, authsdk.PermissionCheckRequest{Resource: "reservations", Action: "cancel"})
	require.NoError(t, err)
	require.True(t, res.HasPermission)
	require.Equal(t, "staff", res.RoleName)

	up, err := client.UserPermissions(ctx, userToken, plainUserID)
	require.NoError(t, err)
	require.Len(t, up.Permissions, 1)
}

func TestNonAdminIsDenied(t *testing.T) {
	client := setupRolesContainer(t)
	ctx := t.Context()

	_, err := client.CreateRole(ctx, userToken, authsdk.CreateRoleRequest{Name: "sneaky"})
	require.Equal(t, http.StatusForbidden, authsdk.StatusCode(err))

	_, err = client.ListRoles(ctx, "garbage")
	require.Equal(t, http.StatusUnauthorized, authsdk.StatusCode(err))
}
