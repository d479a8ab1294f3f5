// internal/repository/postgres/workspace_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"inboker-service/internal/domain/workspace"
	xerrors "inboker-service/internal/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const workspaceColumns = `id, owner_id, name, slug, description, timezone, phone, email, created_at, updated_at`

type WorkspaceRepository struct {
	db *pgxpool.Pool
}

func NewWorkspaceRepository(db *pgxpool.Pool) *WorkspaceRepository {
	return &WorkspaceRepository{db: db}
}

func scanWorkspace(row pgx.Row) (*workspace.Workspace, error) {
	var w workspace.Workspace
	err := row.Scan(
		&w.ID, &w.OwnerID, &w.Name, &w.Slug, &w.Description,
		&w.Timezone, &w.Phone, &w.Email, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WorkspaceRepository) Create(ctx context.Context, w *workspace.Workspace) error {
	query := `
		INSERT INTO workspaces (owner_id, name, slug, description, timezone, phone, email)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		w.OwnerID, w.Name, w.Slug, w.Description, w.Timezone, w.Phone, w.Email,
	).Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt)
	if isUniqueViolation(err) {
		return xerrors.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to create workspace: %w", err)
	}
	return nil
}

func (r *WorkspaceRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*workspace.Workspace, error) {
	w, err := scanWorkspace(r.db.QueryRow(ctx,
		`SELECT `+workspaceColumns+` FROM workspaces WHERE owner_id = $1`, ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find workspace: %w", err)
	}
	return w, nil
}

func (r *WorkspaceRepository) FindBySlug(ctx context.Context, slug string) (*workspace.Workspace, error) {
	w, err := scanWorkspace(r.db.QueryRow(ctx,
		`SELECT `+workspaceColumns+` FROM workspaces WHERE slug = $1`, slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find workspace: %w", err)
	}
	return w, nil
}

func (r *WorkspaceRepository) FindByID(ctx context.Context, id int64) (*workspace.Workspace, error) {
	w, err := scanWorkspace(r.db.QueryRow(ctx,
		`SELECT `+workspaceColumns+` FROM workspaces WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find workspace: %w", err)
	}
	return w, nil
}

func (r *WorkspaceRepository) Update(ctx context.Context, w *workspace.Workspace) error {
	query := `
		UPDATE workspaces SET
			name = $2, description = $3, timezone = $4, phone = $5, email = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query,
		w.ID, w.Name, w.Description, w.Timezone, w.Phone, w.Email,
	).Scan(&w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return xerrors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update workspace: %w", err)
	}
	return nil
}
