package sqlite

import (
	"context"

	"github.com/aussiebroadwan/courtside/internal/roles/domain"
	"github.com/aussiebroadwan/courtside/internal/roles/store"
)

type grantsRepo struct {
	q dbtx
}

func (r *grantsRepo) CreateGrant(ctx context.Context, g domain.Grant) error {
	if g.GrantedAt.IsZero() {
		g.GrantedAt = now()
	}
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO role_permissions (role_id, permission_id, granted_by, granted_at)
		 VALUES (?, ?, ?, ?)`,
		g.RoleID, g.PermissionID, g.GrantedBy, g.GrantedAt,
	)
	return mapUnique(err, store.ErrAlreadyGranted)
}

func (r *grantsRepo) ListPermissions(ctx context.Context, roleID string) ([]domain.Permission, error) {
	return collectPermissions(ctx, r.q, `
SELECT p.id, p.name, p.resource, p.action, p.description, p.is_active, p.created_at
FROM role_permissions rp
JOIN permissions p ON p.id = rp.permission_id
WHERE rp.role_id = ? AND p.is_active = 1
ORDER BY p.resource, p.action`, roleID)
}
