// internal/repository/postgres/service_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"inboker-service/internal/domain/catalog"
	xerrors "inboker-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const serviceColumns = `id, workspace_id, name, description, duration_minutes, price_cents, currency, is_active, created_at, updated_at`

type ServiceRepository struct {
	db *pgxpool.Pool
}

func NewServiceRepository(db *pgxpool.Pool) *ServiceRepository {
	return &ServiceRepository{db: db}
}

func scanService(row pgx.Row) (*catalog.Service, error) {
	var s catalog.Service
	err := row.Scan(
		&s.ID, &s.WorkspaceID, &s.Name, &s.Description, &s.DurationMinutes,
		&s.PriceCents, &s.Currency, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ServiceRepository) Create(ctx context.Context, s *catalog.Service) error {
	query := `
		INSERT INTO services (workspace_id, name, description, duration_minutes, price_cents, currency, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		s.WorkspaceID, s.Name, s.Description, s.DurationMinutes, s.PriceCents, s.Currency, s.IsActive,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	return nil
}

// FindByID scopes the lookup to a workspace.
func (r *ServiceRepository) FindByID(ctx context.Context, workspaceID, id int64) (*catalog.Service, error) {
	s, err := scanService(r.db.QueryRow(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE id = $1 AND workspace_id = $2`, id, workspaceID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find service: %w", err)
	}
	return s, nil
}

func (r *ServiceRepository) List(ctx context.Context, workspaceID int64, activeOnly bool) ([]catalog.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE workspace_id = $1`
	if activeOnly {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	services := []catalog.Service{}
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, *s)
	}
	return services, rows.Err()
}

func (r *ServiceRepository) Update(ctx context.Context, s *catalog.Service) error {
	query := `
		UPDATE services SET
			name = $3, description = $4, duration_minutes = $5, price_cents = $6,
			currency = $7, is_active = $8, updated_at = NOW()
		WHERE id = $1 AND workspace_id = $2
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query,
		s.ID, s.WorkspaceID, s.Name, s.Description, s.DurationMinutes, s.PriceCents, s.Currency, s.IsActive,
	).Scan(&s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return xerrors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update service: %w", err)
	}
	return nil
}

func (r *ServiceRepository) Delete(ctx context.Context, workspaceID, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM services WHERE id = $1 AND workspace_id = $2`, id, workspaceID)
	if isForeignKeyViolation(err) {
		return xerrors.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to delete service: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}
