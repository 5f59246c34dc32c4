package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/courtside/internal/roles/domain"
	"github.com/aussiebroadwan/courtside/pkg/authz"
)

var (
	ErrNotFound       = errors.New("store: not found")
	ErrAlreadyExists  = errors.New("store: already exists")
	ErrAlreadyGranted = errors.New("store: permission already granted")
)

// Store is the root data access interface of the permission store. It
// exposes sub-repositories so a transaction cannot be opened from inside
// another one, and it answers the resolution engine's reads directly.
type Store interface {
	authz.Store

	Roles() Roles
	Permissions() Permissions
	Assignments() Assignments
	Grants() Grants

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Roles interface {
	GetRoleByID(ctx context.Context, id string) (domain.Role, error)

	// GetRoleByName is used by the seed.
	GetRoleByName(ctx context.Context, name string) (domain.Role, error)

	// ListActive returns active roles ordered by name.
	ListActive(ctx context.Context) ([]domain.Role, error)

	// CreateRole inserts a role. A taken name is ErrAlreadyExists.
	CreateRole(ctx context.Context, r domain.Role) error

	IsEmpty(ctx context.Context) (bool, error)
}

type Permissions interface {
	GetPermissionByID(ctx context.Context, id string) (domain.Permission, error)
	GetPermissionByName(ctx context.Context, name string) (domain.Permission, error)

	// ListActive returns active permissions, filtered by resource when it is
	// non-empty.
	ListActive(ctx context.Context, resource string) ([]domain.Permission, error)

	// CreatePermission inserts a permission. A taken name is ErrAlreadyExists.
	CreatePermission(ctx context.Context, p domain.Permission) error
}

type Assignments interface {
	// GetActive returns the user's single active assignment.
	GetActive(ctx context.Context, userID string) (domain.Assignment, error)

	// Deactivate flips the user's active assignment, if any, to inactive.
	Deactivate(ctx context.Context, userID string) error

	// CreateAssignment inserts an active assignment. Fails with
	// ErrAlreadyExists while another assignment for the user is active.
	CreateAssignment(ctx context.Context, a domain.Assignment) error

	// ListForUser returns every assignment for the user, newest first.
	ListForUser(ctx context.Context, userID string) ([]domain.Assignment, error)
}

type Grants interface {
	// CreateGrant inserts a grant. A repeated pair is ErrAlreadyGranted.
	CreateGrant(ctx context.Context, g domain.Grant) error

	// ListPermissions returns the active permissions granted to a role.
	ListPermissions(ctx context.Context, roleID string) ([]domain.Permission, error)
}
