package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/courtside/internal/roles/domain"
	"github.com/aussiebroadwan/courtside/internal/roles/store"
	"github.com/aussiebroadwan/courtside/pkg/idx"
	"github.com/aussiebroadwan/courtside/pkg/slogx"
)

// BootstrapService seeds the default roles and permissions out of band. It
// is idempotent: existing rows are left alone and only missing ones are
// created.
type BootstrapService struct {
	Store store.Store

	// AdminUser, when set, is given the admin role if it has no active role.
	AdminUser string
}

// SeedReport counts the rows a Seed call created.
type SeedReport struct {
	Roles       int
	Permissions int
	Grants      int
	AdminUser   bool
}

func (s *BootstrapService) Seed(ctx context.Context) (SeedReport, error) {
	var report SeedReport
	l := slogx.FromContext(ctx)

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		report = SeedReport{}

		permIDs := make(map[string]string)
		for _, def := range domain.DefaultPermissions() {
			id, created, err := ensurePermission(ctx, tx, def)
			if err != nil {
				return fmt.Errorf("seed permission %q: %w", def.Name, err)
			}
			permIDs[def.Name] = id
			if created {
				report.Permissions++
			}
		}

		roleIDs := make(map[string]string)
		for _, def := range domain.DefaultRoles() {
			id, created, err := ensureRole(ctx, tx, def)
			if err != nil {
				return fmt.Errorf("seed role %q: %w", def.Name, err)
			}
			roleIDs[def.Name] = id
			if created {
				report.Roles++
			}

			for _, name := range def.Permissions {
				err := tx.Grants().CreateGrant(ctx, domain.Grant{
					RoleID:       id,
					PermissionID: permIDs[name],
					GrantedBy:    domain.SeedSubject,
				})
				switch {
				case err == nil:
					report.Grants++
				case errors.Is(err, store.ErrAlreadyGranted):
				default:
					return fmt.Errorf("seed grant %s/%s: %w", def.Name, name, err)
				}
			}
		}

		if s.AdminUser == "" {
			return nil
		}
		_, err := tx.Assignments().GetActive(ctx, s.AdminUser)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if err := tx.Assignments().CreateAssignment(ctx, domain.Assignment{
			ID:         idx.New().String(),
			UserID:     s.AdminUser,
			RoleID:     roleIDs[domain.RoleAdmin],
			AssignedBy: domain.SeedSubject,
		}); err != nil {
			return fmt.Errorf("seed admin assignment: %w", err)
		}
		report.AdminUser = true
		return nil
	})
	if err != nil {
		l.Error("seed failed", "error", err)
		return SeedReport{}, err
	}

	l.Info("seed complete",
		"roles_created", report.Roles,
		"permissions_created", report.Permissions,
		"grants_created", report.Grants,
		"admin_assigned", report.AdminUser,
	)
	return report, nil
}

func ensurePermission(ctx context.Context, tx store.Tx, def domain.PermissionDef) (string, bool, error) {
	existing, err := tx.Permissions().GetPermissionByName(ctx, def.Name)
	if err == nil {
		return existing.ID, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", false, err
	}

	id := idx.New().String()
	err = tx.Permissions().CreatePermission(ctx, domain.Permission{
		ID:          id,
		Name:        def.Name,
		Resource:    def.Resource,
		Action:      def.Action,
		Description: def.Description,
		IsActive:    true,
	})
	return id, err == nil, err
}

func ensureRole(ctx context.Context, tx store.Tx, def domain.RoleDef) (string, bool, error) {
	existing, err := tx.Roles().GetRoleByName(ctx, def.Name)
	if err == nil {
		return existing.ID, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", false, err
	}

	id := idx.New().String()
	err = tx.Roles().CreateRole(ctx, domain.Role{
		ID:          id,
		Name:        def.Name,
		Description: def.Description,
		GrantsAll:   def.GrantsAll,
		IsActive:    true,
	})
	return id, err == nil, err
}
