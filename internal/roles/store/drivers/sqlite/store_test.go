package sqlite_test

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/courtside/internal/roles/domain"
	"github.com/aussiebroadwan/courtside/internal/roles/store"
	"github.com/aussiebroadwan/courtside/internal/roles/store/drivers/sqlite"
	"github.com/aussiebroadwan/courtside/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustRole(t *testing.T, s store.Store, name string, grantsAll bool) domain.Role {
	t.Helper()
	r := domain.Role{ID: idx.New().String(), Name: name, GrantsAll: grantsAll, IsActive: true}
	require.NoError(t, s.Roles().CreateRole(context.Background(), r))
	return r
}

func mustPermission(t *testing.T, s store.Store, resource, action string) domain.Permission {
	t.Helper()
	p := domain.Permission{
		ID:       idx.New().String(),
		Name:     resource + "_" + action,
		Resource: resource,
		Action:   action,
		IsActive: true,
	}
	require.NoError(t, s.Permissions().CreatePermission(context.Background(), p))
	return p
}

func assign(t *testing.T, s store.Store, userID, roleID string) {
	t.Helper()
	err := s.WithTx(context.Background(), func(tx store.Tx) error {
		if err := tx.Assignments().Deactivate(context.Background(), userID); err != nil {
			return err
		}
		return tx.Assignments().CreateAssignment(context.Background(), domain.Assignment{
			ID:         idx.New().String(),
			UserID:     userID,
			RoleID:     roleID,
			AssignedBy: "test",
		})
	})
	require.NoError(t, err)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(context.Background()))

	empty, err := s.Roles().IsEmpty(context.Background())
	require.NoError(t, err)
	require.True(t, empty)
}

func TestRoles(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	admin := mustRole(t, s, "admin", true)
	mustRole(t, s, "user", false)

	got, err := s.Roles().GetRoleByName(ctx, "admin")
	require.NoError(t, err)
	require.Equal(t, admin.ID, got.ID)
	require.True(t, got.GrantsAll)
	require.True(t, got.IsActive)
	require.False(t, got.CreatedAt.IsZero())

	_, err = s.Roles().GetRoleByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	err = s.Roles().CreateRole(ctx, domain.Role{ID: idx.New().String(), Name: "admin", IsActive: true})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	roles, err := s.Roles().ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 2)
	require.Equal(t, "admin", roles[0].Name)
	require.Equal(t, "user", roles[1].Name)
}

func TestPermissions(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	mustPermission(t, s, "reservations", "create")
	mustPermission(t, s, "reservations", "view")
	mustPermission(t, s, "fields", "manage")

	all, err := s.Permissions().ListActive(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)

	res, err := s.Permissions().ListActive(ctx, "reservations")
	require.NoError(t, err)
	require.Len(t, res, 2)
	require.Equal(t, "create", res[0].Action)

	err = s.Permissions().CreatePermission(ctx, domain.Permission{
		ID: idx.New().String(), Name: "reservations_create", Resource: "x", Action: "y", IsActive: true,
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestDuplicateGrantIsRejected(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	role := mustRole(t, s, "user", false)
	perm := mustPermission(t, s, "reservations", "create")

	g := domain.Grant{RoleID: role.ID, PermissionID: perm.ID, GrantedBy: "admin-1"}
	require.NoError(t, s.Grants().CreateGrant(ctx, g))
	require.ErrorIs(t, s.Grants().CreateGrant(ctx, g), store.ErrAlreadyGranted)

	perms, err := s.Grants().ListPermissions(ctx, role.ID)
	require.NoError(t, err)
	require.Len(t, perms, 1)
}

func TestAtMostOneActiveAssignment(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	roles := []domain.Role{
		mustRole(t, s, "a", false),
		mustRole(t, s, "b", false),
		mustRole(t, s, "c", false),
	}

	for i := range 7 {
		assign(t, s, "u-1", roles[i%len(roles)].ID)

		history, err := s.Assignments().ListForUser(ctx, "u-1")
		require.NoError(t, err)
		require.Len(t, history, i+1)

		active := 0
		for _, a := range history {
			if a.IsActive {
				active++
			}
		}
		require.Equal(t, 1, active)
	}

	cur, err := s.Assignments().GetActive(ctx, "u-1")
	require.NoError(t, err)
	require.Equal(t, roles[6%3].ID, cur.RoleID)

	// Inserting a second active row without deactivating is refused.
	err = s.Assignments().CreateAssignment(ctx, domain.Assignment{
		ID: idx.New().String(), UserID: "u-1", RoleID: roles[0].ID,
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	role := mustRole(t, s, "user", false)
	assign(t, s, "u-1", role.ID)

	err := s.WithTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.Assignments().Deactivate(ctx, "u-1"))
		return tx.Assignments().CreateAssignment(ctx, domain.Assignment{
			ID: idx.New().String(), UserID: "u-1", RoleID: "no-such-role",
		})
	})
	require.Error(t, err)

	cur, err := s.Assignments().GetActive(ctx, "u-1")
	require.NoError(t, err)
	require.Equal(t, role.ID, cur.RoleID)
}

func TestResolutionReads(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	user := mustRole(t, s, "user", false)
	admin := mustRole(t, s, "admin", true)
	create := mustPermission(t, s, "reservations", "create")
	mustPermission(t, s, "reservations", "delete")
	require.NoError(t, s.Grants().CreateGrant(ctx, domain.Grant{RoleID: user.ID, PermissionID: create.ID}))

	_, ok, err := s.ActiveRole(ctx, "nobody")
	require.NoError(t, err)
	require.False(t, ok)

	assign(t, s, "u-1", user.ID)
	assign(t, s, "u-2", admin.ID)

	r, ok, err := s.ActiveRole(ctx, "u-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "user", r.Name)
	require.False(t, r.GrantsAll)

	r, ok, err = s.ActiveRole(ctx, "u-2")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, r.GrantsAll)

	has, err := s.HasGrant(ctx, user.ID, "reservations", []string{"create"})
	require.NoError(t, err)
	require.True(t, has)

	has, err = s.HasGrant(ctx, user.ID, "reservations", []string{"delete"})
	require.NoError(t, err)
	require.False(t, has)

	has, err = s.HasGrant(ctx, user.ID, "reservations", []string{"delete", "update", "create"})
	require.NoError(t, err)
	require.True(t, has)

	has, err = s.HasGrant(ctx, user.ID, "fields", []string{"create"})
	require.NoError(t, err)
	require.False(t, has)

	configured, err := s.PermissionConfigured(ctx, "reservations", []string{"delete"})
	require.NoError(t, err)
	require.True(t, configured)

	configured, err = s.PermissionConfigured(ctx, "reports", []string{"view"})
	require.NoError(t, err)
	require.False(t, configured)
}
