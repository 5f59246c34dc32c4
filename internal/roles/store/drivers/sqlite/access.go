package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aussiebroadwan/courtside/pkg/authz"
)

// access answers the resolution engine. Each method is a single indexed
// read.
type access struct {
	q dbtx
}

const activeRoleQuery = `
SELECT r.id, r.name, r.grants_all
FROM role_assignments a
JOIN roles r ON r.id = a.role_id
WHERE a.user_id = ? AND a.is_active = 1 AND r.is_active = 1
LIMIT 1`

func (a access) ActiveRole(ctx context.Context, subjectID string) (authz.Role, bool, error) {
	var r authz.Role
	err := a.q.QueryRowContext(ctx, activeRoleQuery, subjectID).Scan(&r.ID, &r.Name, &r.GrantsAll)
	if errors.Is(err, sql.ErrNoRows) {
		return authz.Role{}, false, nil
	}
	if err != nil {
		return authz.Role{}, false, err
	}
	return r, true, nil
}

func (a access) HasGrant(ctx context.Context, roleID, resource string, actions []string) (bool, error) {
	if len(actions) == 0 {
		return false, nil
	}
	query := `
SELECT EXISTS (
    SELECT 1
    FROM role_permissions rp
    JOIN permissions p ON p.id = rp.permission_id
    WHERE rp.role_id = ? AND p.resource = ? AND p.is_active = 1
      AND p.action IN (` + placeholders(len(actions)) + `)
)`
	args := append([]any{roleID, resource}, stringArgs(actions)...)

	var ok bool
	if err := a.q.QueryRowContext(ctx, query, args...).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (a access) PermissionConfigured(ctx context.Context, resource string, actions []string) (bool, error) {
	if len(actions) == 0 {
		return false, nil
	}
	query := `
SELECT EXISTS (
    SELECT 1 FROM permissions
    WHERE resource = ? AND is_active = 1
      AND action IN (` + placeholders(len(actions)) + `)
)`
	args := append([]any{resource}, stringArgs(actions)...)

	var ok bool
	if err := a.q.QueryRowContext(ctx, query, args...).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}
