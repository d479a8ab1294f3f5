// internal/repository/postgres/client_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"inboker-service/internal/domain/crm"
	xerrors "inboker-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

const clientColumns = `id, workspace_id, full_name, email, phone, notes, tags, pipeline_stage, created_at, updated_at`

// querier is satisfied by both the pool and a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type ClientRepository struct {
	db *pgxpool.Pool
}

func NewClientRepository(db *pgxpool.Pool) *ClientRepository {
	return &ClientRepository{db: db}
}

func scanClient(row pgx.Row) (*crm.Client, error) {
	var c crm.Client
	var tags []string
	err := row.Scan(
		&c.ID, &c.WorkspaceID, &c.FullName, &c.Email, &c.Phone,
		&c.Notes, &tags, &c.PipelineStage, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Tags = pq.StringArray(tags)
	return &c, nil
}

func (r *ClientRepository) Create(ctx context.Context, c *crm.Client) error {
	query := `
		INSERT INTO clients (workspace_id, full_name, email, phone, notes, tags, pipeline_stage)
		VALUES ($1, $2, LOWER($3), $4, $5, $6, $7)
		RETURNING id, email, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		c.WorkspaceID, c.FullName, c.Email, c.Phone, c.Notes, []string(c.Tags), c.PipelineStage,
	).Scan(&c.ID, &c.Email, &c.CreatedAt, &c.UpdatedAt)
	if isUniqueViolation(err) {
		return xerrors.ErrDuplicateEntry
	}
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

// UpsertByEmailTx finds or creates the workspace client for an email inside
// a booking transaction. An existing lead moves to the booked stage.
func (r *ClientRepository) UpsertByEmailTx(ctx context.Context, tx pgx.Tx, c *crm.Client) error {
	return r.upsertByEmail(ctx, tx, c)
}

func (r *ClientRepository) upsertByEmail(ctx context.Context, q querier, c *crm.Client) error {
	query := `
		INSERT INTO clients (workspace_id, full_name, email, phone, tags, pipeline_stage)
		VALUES ($1, $2, LOWER($3), $4, '{}', $5)
		ON CONFLICT (workspace_id, email) DO UPDATE SET
			phone = COALESCE(EXCLUDED.phone, clients.phone),
			pipeline_stage = CASE
				WHEN clients.pipeline_stage IN ('lead', 'contacted', 'inactive') THEN EXCLUDED.pipeline_stage
				ELSE clients.pipeline_stage
			END,
			updated_at = NOW()
		RETURNING ` + clientColumns

	got, err := scanClient(q.QueryRow(ctx, query, c.WorkspaceID, c.FullName, c.Email, c.Phone, crm.StageBooked))
	if err != nil {
		return fmt.Errorf("failed to upsert client: %w", err)
	}
	*c = *got
	return nil
}

func (r *ClientRepository) FindByID(ctx context.Context, workspaceID, id int64) (*crm.Client, error) {
	c, err := scanClient(r.db.QueryRow(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = $1 AND workspace_id = $2`, id, workspaceID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find client: %w", err)
	}
	return c, nil
}

func (r *ClientRepository) List(ctx context.Context, workspaceID int64, filters *crm.ClientListFilters) ([]crm.Client, int64, error) {
	conditions := []string{"workspace_id = $1"}
	args := []interface{}{workspaceID}
	argPos := 2

	if filters.Stage != nil {
		conditions = append(conditions, fmt.Sprintf("pipeline_stage = $%d", argPos))
		args = append(args, *filters.Stage)
		argPos++
	}
	if filters.Tag != "" {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(tags)", argPos))
		args = append(args, filters.Tag)
		argPos++
	}
	if filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(full_name ILIKE $%d OR email ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+filters.Search+"%")
		argPos++
	}
	whereClause := strings.Join(conditions, " AND ")

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM clients WHERE "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count clients: %w", err)
	}

	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 || filters.PageSize > 200 {
		filters.PageSize = 50
	}
	offset := (filters.Page - 1) * filters.PageSize

	query := fmt.Sprintf(`SELECT %s FROM clients WHERE %s ORDER BY updated_at DESC LIMIT $%d OFFSET $%d`,
		clientColumns, whereClause, argPos, argPos+1)
	args = append(args, filters.PageSize, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	clients := []crm.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, *c)
	}
	return clients, total, rows.Err()
}

func (r *ClientRepository) Update(ctx context.Context, c *crm.Client) error {
	query := `
		UPDATE clients SET
			full_name = $3, phone = $4, notes = $5, tags = $6, updated_at = NOW()
		WHERE id = $1 AND workspace_id = $2
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query,
		c.ID, c.WorkspaceID, c.FullName, c.Phone, c.Notes, []string(c.Tags),
	).Scan(&c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return xerrors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}
	return nil
}

func (r *ClientRepository) SetStage(ctx context.Context, workspaceID, id int64, stage crm.Stage) (*crm.Client, error) {
	query := `
		UPDATE clients SET pipeline_stage = $3, updated_at = NOW()
		WHERE id = $1 AND workspace_id = $2
		RETURNING ` + clientColumns

	c, err := scanClient(r.db.QueryRow(ctx, query, id, workspaceID, stage))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to move client: %w", err)
	}
	return c, nil
}

func (r *ClientRepository) Delete(ctx context.Context, workspaceID, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM clients WHERE id = $1 AND workspace_id = $2`, id, workspaceID)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}
