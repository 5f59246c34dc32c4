package sqlite

import (
	"context"

	"github.com/aussiebroadwan/courtside/internal/roles/domain"
	"github.com/aussiebroadwan/courtside/internal/roles/store"
)

type assignmentsRepo struct {
	q dbtx
}

const assignmentColumns = `id, user_id, role_id, assigned_by, is_active, assigned_at`

func scanAssignment(row interface{ Scan(...any) error }) (domain.Assignment, error) {
	var a domain.Assignment
	err := row.Scan(&a.ID, &a.UserID, &a.RoleID, &a.AssignedBy, &a.IsActive, &a.AssignedAt)
	return a, err
}

func (r *assignmentsRepo) GetActive(ctx context.Context, userID string) (domain.Assignment, error) {
	a, err := scanAssignment(r.q.QueryRowContext(ctx,
		`SELECT `+assignmentColumns+` FROM role_assignments WHERE user_id = ? AND is_active = 1`, userID))
	if err != nil {
		return domain.Assignment{}, mapNotFound(err)
	}
	return a, nil
}

func (r *assignmentsRepo) Deactivate(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE role_assignments SET is_active = 0 WHERE user_id = ? AND is_active = 1`, userID)
	return err
}

func (r *assignmentsRepo) CreateAssignment(ctx context.Context, a domain.Assignment) error {
	if a.AssignedAt.IsZero() {
		a.AssignedAt = now()
	}
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO role_assignments (id, user_id, role_id, assigned_by, is_active, assigned_at)
		 VALUES (?, ?, ?, ?, 1, ?)`,
		a.ID, a.UserID, a.RoleID, a.AssignedBy, a.AssignedAt,
	)
	return mapUnique(err, store.ErrAlreadyExists)
}

func (r *assignmentsRepo) ListForUser(ctx context.Context, userID string) ([]domain.Assignment, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+assignmentColumns+` FROM role_assignments WHERE user_id = ? ORDER BY assigned_at DESC, id DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
