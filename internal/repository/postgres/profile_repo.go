// internal/repository/postgres/profile_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"inboker-service/internal/domain/profile"
	xerrors "inboker-service/internal/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProfileRepository struct {
	db *pgxpool.Pool
}

func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// EnsureProfile returns the profile for an identity, creating it with the
// customer role on first sight.
func (r *ProfileRepository) EnsureProfile(ctx context.Context, id uuid.UUID, email, fullName string) (*profile.Profile, error) {
	query := `
		INSERT INTO profiles (id, email, full_name, role)
		VALUES ($1, $2, NULLIF($3, ''), $4)
		ON CONFLICT (id) DO UPDATE SET
			email = CASE WHEN EXCLUDED.email <> '' THEN EXCLUDED.email ELSE profiles.email END,
			full_name = COALESCE(profiles.full_name, EXCLUDED.full_name)
		RETURNING id, email, full_name, role, created_at, updated_at
	`

	var p profile.Profile
	err := r.db.QueryRow(ctx, query, id, email, fullName, profile.RoleCustomer).Scan(
		&p.ID, &p.Email, &p.FullName, &p.Role, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure profile: %w", err)
	}
	return &p, nil
}

func (r *ProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	query := `
		SELECT id, email, full_name, role, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`

	var p profile.Profile
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Email, &p.FullName, &p.Role, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}
	return &p, nil
}

// Update applies the non-nil fields.
func (r *ProfileRepository) Update(ctx context.Context, id uuid.UUID, fullName *string, role *profile.Role) (*profile.Profile, error) {
	query := `
		UPDATE profiles SET
			full_name = COALESCE($2, full_name),
			role = COALESCE($3, role),
			updated_at = NOW()
		WHERE id = $1
		RETURNING id, email, full_name, role, created_at, updated_at
	`

	var roleArg *string
	if role != nil {
		s := string(*role)
		roleArg = &s
	}

	var p profile.Profile
	err := r.db.QueryRow(ctx, query, id, fullName, roleArg).Scan(
		&p.ID, &p.Email, &p.FullName, &p.Role, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return &p, nil
}

func (r *ProfileRepository) List(ctx context.Context, filters *profile.ProfileListFilters) ([]profile.Profile, int64, error) {
	conditions := []string{"TRUE"}
	args := []interface{}{}
	argPos := 1

	if filters.Role != nil {
		conditions = append(conditions, fmt.Sprintf("role = $%d", argPos))
		args = append(args, *filters.Role)
		argPos++
	}
	if filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(email ILIKE $%d OR full_name ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+filters.Search+"%")
		argPos++
	}
	whereClause := strings.Join(conditions, " AND ")

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM profiles WHERE "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count profiles: %w", err)
	}

	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 || filters.PageSize > 100 {
		filters.PageSize = 20
	}
	offset := (filters.Page - 1) * filters.PageSize

	query := fmt.Sprintf(`
		SELECT id, email, full_name, role, created_at, updated_at
		FROM profiles
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argPos, argPos+1)
	args = append(args, filters.PageSize, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	profiles := []profile.Profile{}
	for rows.Next() {
		var p profile.Profile
		if err := rows.Scan(&p.ID, &p.Email, &p.FullName, &p.Role, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, total, rows.Err()
}
