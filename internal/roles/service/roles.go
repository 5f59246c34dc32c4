package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/courtside/internal/roles/domain"
	"github.com/aussiebroadwan/courtside/internal/roles/store"
	"github.com/aussiebroadwan/courtside/pkg/idx"
	"github.com/aussiebroadwan/courtside/pkg/slogx"
	"github.com/go-playground/validator/v10"
)

type CreateRoleInput struct {
	Name        string `json:"name" validate:"required,min=2,max=64,ident"`
	Description string `json:"description" validate:"max=255"`
	GrantsAll   bool   `json:"grants_all"`
}

type CreatePermissionInput struct {
	Name        string `json:"name" validate:"required,min=2,max=64,ident"`
	Resource    string `json:"resource" validate:"required,max=64,ident"`
	Action      string `json:"action" validate:"required,max=64,ident"`
	Description string `json:"description" validate:"max=255"`
}

type AssignRoleInput struct {
	UserID string `json:"user_id" validate:"required,max=128"`
	RoleID string `json:"role_id" validate:"required,max=64"`
}

type GrantInput struct {
	RoleID       string `json:"role_id" validate:"required,max=64"`
	PermissionID string `json:"permission_id" validate:"required,max=64"`
}

// UserPermissions is a user's active role and the permissions it yields.
type UserPermissions struct {
	UserID      string
	Role        domain.Role
	Permissions []domain.Permission
}

// RolesService implements the administrator operations on the permission
// store. Gatekeeping happens in the HTTP layer; actor is only recorded.
type RolesService struct {
	Store    store.Store
	validate *validator.Validate
}

func NewRolesService(st store.Store) *RolesService {
	return &RolesService{Store: st, validate: newValidator()}
}

func (s *RolesService) CreateRole(ctx context.Context, in CreateRoleInput) (domain.Role, error) {
	if err := validateStruct(s.validate, in); err != nil {
		return domain.Role{}, err
	}

	role := domain.Role{
		ID:          idx.New().String(),
		Name:        in.Name,
		Description: in.Description,
		GrantsAll:   in.GrantsAll,
		IsActive:    true,
	}
	if err := s.Store.Roles().CreateRole(ctx, role); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Role{}, ErrRoleExists
		}
		return domain.Role{}, fmt.Errorf("create role: %w", err)
	}

	slogx.FromContext(ctx).Info("role created",
		"role_id", role.ID, "role", role.Name, "grants_all", role.GrantsAll)
	return s.Store.Roles().GetRoleByID(ctx, role.ID)
}

// ListRoles returns active roles.
func (s *RolesService) ListRoles(ctx context.Context) ([]domain.Role, error) {
	return s.Store.Roles().ListActive(ctx)
}

func (s *RolesService) CreatePermission(ctx context.Context, in CreatePermissionInput) (domain.Permission, error) {
	if err := validateStruct(s.validate, in); err != nil {
		return domain.Permission{}, err
	}

	perm := domain.Permission{
		ID:          idx.New().String(),
		Name:        in.Name,
		Resource:    in.Resource,
		Action:      in.Action,
		Description: in.Description,
		IsActive:    true,
	}
	if err := s.Store.Permissions().CreatePermission(ctx, perm); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Permission{}, ErrPermissionExists
		}
		return domain.Permission{}, fmt.Errorf("create permission: %w", err)
	}

	slogx.FromContext(ctx).Info("permission created",
		"permission_id", perm.ID, "resource", perm.Resource, "action", perm.Action)
	return s.Store.Permissions().GetPermissionByID(ctx, perm.ID)
}

// ListPermissions returns active permissions, optionally for one resource.
func (s *RolesService) ListPermissions(ctx context.Context, resource string) ([]domain.Permission, error) {
	return s.Store.Permissions().ListActive(ctx, resource)
}

// AssignRole makes roleID the user's only active role. The previous
// assignment is deactivated in the same transaction and kept as history.
func (s *RolesService) AssignRole(ctx context.Context, actor string, in AssignRoleInput) (domain.Assignment, error) {
	if err := validateStruct(s.validate, in); err != nil {
		return domain.Assignment{}, err
	}

	a := domain.Assignment{
		ID:         idx.New().String(),
		UserID:     in.UserID,
		RoleID:     in.RoleID,
		AssignedBy: actor,
		IsActive:   true,
	}
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		role, err := tx.Roles().GetRoleByID(ctx, in.RoleID)
		if errors.Is(err, store.ErrNotFound) || (err == nil && !role.IsActive) {
			return ErrRoleNotFound
		}
		if err != nil {
			return err
		}
		if err := tx.Assignments().Deactivate(ctx, in.UserID); err != nil {
			return err
		}
		if err := tx.Assignments().CreateAssignment(ctx, a); err != nil {
			return err
		}
		a, err = tx.Assignments().GetActive(ctx, in.UserID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			return domain.Assignment{}, err
		}
		return domain.Assignment{}, fmt.Errorf("assign role: %w", err)
	}

	slogx.FromContext(ctx).Info("role assigned",
		"user_id", a.UserID, "role_id", a.RoleID, "assigned_by", actor)
	return a, nil
}

// GrantPermission gives a role a permission. Granting the same pair twice
// fails with ErrAlreadyGranted.
func (s *RolesService) GrantPermission(ctx context.Context, actor string, in GrantInput) (domain.Grant, error) {
	if err := validateStruct(s.validate, in); err != nil {
		return domain.Grant{}, err
	}

	if _, err := s.Store.Roles().GetRoleByID(ctx, in.RoleID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Grant{}, ErrRoleNotFound
		}
		return domain.Grant{}, fmt.Errorf("load role: %w", err)
	}
	if _, err := s.Store.Permissions().GetPermissionByID(ctx, in.PermissionID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Grant{}, ErrPermissionNotFound
		}
		return domain.Grant{}, fmt.Errorf("load permission: %w", err)
	}

	g := domain.Grant{
		RoleID:       in.RoleID,
		PermissionID: in.PermissionID,
		GrantedBy:    actor,
		GrantedAt:    time.Now().UTC().Truncate(time.Second),
	}
	if err := s.Store.Grants().CreateGrant(ctx, g); err != nil {
		if errors.Is(err, store.ErrAlreadyGranted) {
			return domain.Grant{}, ErrAlreadyGranted
		}
		return domain.Grant{}, fmt.Errorf("grant permission: %w", err)
	}

	slogx.FromContext(ctx).Info("permission granted",
		"role_id", g.RoleID, "permission_id", g.PermissionID, "granted_by", actor)
	return g, nil
}

// UserPermissions lists what a user's active role yields. A grants-all role
// yields every active permission.
func (s *RolesService) UserPermissions(ctx context.Context, userID string) (UserPermissions, error) {
	a, err := s.Store.Assignments().GetActive(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return UserPermissions{}, ErrNoActiveRole
	}
	if err != nil {
		return UserPermissions{}, fmt.Errorf("load assignment: %w", err)
	}

	role, err := s.Store.Roles().GetRoleByID(ctx, a.RoleID)
	if err != nil {
		return UserPermissions{}, fmt.Errorf("load role: %w", err)
	}

	var perms []domain.Permission
	if role.GrantsAll {
		perms, err = s.Store.Permissions().ListActive(ctx, "")
	} else {
		perms, err = s.Store.Grants().ListPermissions(ctx, role.ID)
	}
	if err != nil {
		return UserPermissions{}, fmt.Errorf("load permissions: %w", err)
	}

	return UserPermissions{UserID: userID, Role: role, Permissions: perms}, nil
}
