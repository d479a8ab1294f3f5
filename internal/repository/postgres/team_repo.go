// internal/repository/postgres/team_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"inboker-service/internal/domain/team"
	xerrors "inboker-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const staffColumns = `id, workspace_id, user_id, full_name, email, phone, role_title, is_active, created_at, updated_at`

type TeamRepository struct {
	db *pgxpool.Pool
}

func NewTeamRepository(db *pgxpool.Pool) *TeamRepository {
	return &TeamRepository{db: db}
}

func scanStaff(row pgx.Row) (*team.StaffMember, error) {
	var m team.StaffMember
	err := row.Scan(
		&m.ID, &m.WorkspaceID, &m.UserID, &m.FullName, &m.Email,
		&m.Phone, &m.RoleTitle, &m.IsActive, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *TeamRepository) CreateStaff(ctx context.Context, m *team.StaffMember) error {
	query := `
		INSERT INTO staff_members (workspace_id, user_id, full_name, email, phone, role_title, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		m.WorkspaceID, m.UserID, m.FullName, m.Email, m.Phone, m.RoleTitle, m.IsActive,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create staff member: %w", err)
	}
	return nil
}

func (r *TeamRepository) FindStaff(ctx context.Context, workspaceID, id int64) (*team.StaffMember, error) {
	m, err := scanStaff(r.db.QueryRow(ctx,
		`SELECT `+staffColumns+` FROM staff_members WHERE id = $1 AND workspace_id = $2`, id, workspaceID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find staff member: %w", err)
	}
	return m, nil
}

func (r *TeamRepository) ListStaff(ctx context.Context, workspaceID int64) ([]team.StaffMember, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+staffColumns+` FROM staff_members WHERE workspace_id = $1 ORDER BY full_name ASC`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	defer rows.Close()

	staff := []team.StaffMember{}
	for rows.Next() {
		m, err := scanStaff(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan staff member: %w", err)
		}
		staff = append(staff, *m)
	}
	return staff, rows.Err()
}

func (r *TeamRepository) UpdateStaff(ctx context.Context, m *team.StaffMember) error {
	query := `
		UPDATE staff_members SET
			full_name = $3, email = $4, phone = $5, role_title = $6, is_active = $7, updated_at = NOW()
		WHERE id = $1 AND workspace_id = $2
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query,
		m.ID, m.WorkspaceID, m.FullName, m.Email, m.Phone, m.RoleTitle, m.IsActive,
	).Scan(&m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return xerrors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update staff member: %w", err)
	}
	return nil
}

func (r *TeamRepository) DeleteStaff(ctx context.Context, workspaceID, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM staff_members WHERE id = $1 AND workspace_id = $2`, id, workspaceID)
	if err != nil {
		return fmt.Errorf("failed to delete staff member: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

func (r *TeamRepository) CreateShift(ctx context.Context, s *team.Shift) error {
	query := `
		INSERT INTO shifts (workspace_id, staff_member_id, weekday, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		s.WorkspaceID, s.StaffID, s.Weekday, s.StartTime, s.EndTime,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create shift: %w", err)
	}
	return nil
}

// ListShifts returns a workspace's shifts, optionally for one staff member.
func (r *TeamRepository) ListShifts(ctx context.Context, workspaceID int64, staffID *int64) ([]team.Shift, error) {
	query := `
		SELECT id, workspace_id, staff_member_id, weekday, start_time, end_time, created_at
		FROM shifts
		WHERE workspace_id = $1 AND ($2::BIGINT IS NULL OR staff_member_id = $2)
		ORDER BY staff_member_id, weekday, start_time
	`

	rows, err := r.db.Query(ctx, query, workspaceID, staffID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	defer rows.Close()

	shifts := []team.Shift{}
	for rows.Next() {
		var s team.Shift
		if err := rows.Scan(&s.ID, &s.WorkspaceID, &s.StaffID, &s.Weekday, &s.StartTime, &s.EndTime, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		shifts = append(shifts, s)
	}
	return shifts, rows.Err()
}

func (r *TeamRepository) DeleteShift(ctx context.Context, workspaceID, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM shifts WHERE id = $1 AND workspace_id = $2`, id, workspaceID)
	if err != nil {
		return fmt.Errorf("failed to delete shift: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}
