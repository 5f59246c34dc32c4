package sqlite

import (
	"context"

	"github.com/aussiebroadwan/courtside/internal/roles/domain"
	"github.com/aussiebroadwan/courtside/internal/roles/store"
)

type permissionsRepo struct {
	q dbtx
}

const permissionColumns = `id, name, resource, action, description, is_active, created_at`

func scanPermission(row interface{ Scan(...any) error }) (domain.Permission, error) {
	var p domain.Permission
	err := row.Scan(&p.ID, &p.Name, &p.Resource, &p.Action, &p.Description, &p.IsActive, &p.CreatedAt)
	return p, err
}

func collectPermissions(ctx context.Context, q dbtx, query string, args ...any) ([]domain.Permission, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []domain.Permission
	for rows.Next() {
		p, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

func (r *permissionsRepo) GetPermissionByID(ctx context.Context, id string) (domain.Permission, error) {
	p, err := scanPermission(r.q.QueryRowContext(ctx,
		`SELECT `+permissionColumns+` FROM permissions WHERE id = ?`, id))
	if err != nil {
		return domain.Permission{}, mapNotFound(err)
	}
	return p, nil
}

func (r *permissionsRepo) GetPermissionByName(ctx context.Context, name string) (domain.Permission, error) {
	p, err := scanPermission(r.q.QueryRowContext(ctx,
		`SELECT `+permissionColumns+` FROM permissions WHERE name = ?`, name))
	if err != nil {
		return domain.Permission{}, mapNotFound(err)
	}
	return p, nil
}

func (r *permissionsRepo) ListActive(ctx context.Context, resource string) ([]domain.Permission, error) {
	if resource == "" {
		return collectPermissions(ctx, r.q,
			`SELECT `+permissionColumns+` FROM permissions WHERE is_active = 1 ORDER BY resource, action`)
	}
	return collectPermissions(ctx, r.q,
		`SELECT `+permissionColumns+` FROM permissions WHERE is_active = 1 AND resource = ? ORDER BY action`,
		resource)
}

func (r *permissionsRepo) CreatePermission(ctx context.Context, p domain.Permission) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now()
	}
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO permissions (id, name, resource, action, description, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Resource, p.Action, p.Description, p.IsActive, p.CreatedAt,
	)
	return mapUnique(err, store.ErrAlreadyExists)
}
