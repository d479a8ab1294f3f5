// internal/service/crm/service.go
package crm

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"inboker-service/internal/domain/crm"
	"inboker-service/internal/domain/workspace"
	xerrors "inboker-service/internal/pkg/errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, c *crm.Client) error
	FindByID(ctx context.Context, workspaceID, id int64) (*crm.Client, error)
	List(ctx context.Context, workspaceID int64, filters *crm.ClientListFilters) ([]crm.Client, int64, error)
	Update(ctx context.Context, c *crm.Client) error
	SetStage(ctx context.Context, workspaceID, id int64, stage crm.Stage) (*crm.Client, error)
	Delete(ctx context.Context, workspaceID, id int64) error
}

type Workspaces interface {
	ForOwner(ctx context.Context, ownerID uuid.UUID) (*workspace.Workspace, error)
}

// Clients shown per pipeline board load.
const boardLimit = 200

type Service struct {
	repo       Repository
	workspaces Workspaces
	logger     *zap.Logger
}

func NewService(repo Repository, workspaces Workspaces, logger *zap.Logger) *Service {
	return &Service{repo: repo, workspaces: workspaces, logger: logger}
}

func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, req *crm.CreateClientRequest) (*crm.Client, error) {
	ws, err := s.workspaces.ForOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	c := &crm.Client{
		WorkspaceID:   ws.ID,
		FullName:      strings.TrimSpace(req.FullName),
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:         nullString(req.Phone),
		Notes:         nullString(req.Notes),
		Tags:          NormalizeTags(req.Tags),
		PipelineStage: crm.StageLead,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("client created", zap.Int64("workspace_id", ws.ID), zap.Int64("client_id", c.ID))
	return c, nil
}

func (s *Service) List(ctx context.Context, ownerID uuid.UUID, filters *crm.ClientListFilters) (*crm.ClientListResponse, error) {
	ws, err := s.workspaces.ForOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if filters.Stage != nil && !filters.Stage.Valid() {
		return nil, fmt.Errorf("%w: unknown stage %q", xerrors.ErrInvalidInput, *filters.Stage)
	}

	clients, total, err := s.repo.List(ctx, ws.ID, filters)
	if err != nil {
		return nil, err
	}

	totalPages := 0
	if filters.PageSize > 0 {
		totalPages = int(total) / filters.PageSize
		if int(total)%filters.PageSize > 0 {
			totalPages++
		}
	}

	return &crm.ClientListResponse{
		Clients:    clients,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: totalPages,
	}, nil
}

// Pipeline groups the workspace's most recently touched clients into board
// columns, one per stage, in stage order.
func (s *Service) Pipeline(ctx context.Context, ownerID uuid.UUID) ([]crm.PipelineColumn, error) {
	ws, err := s.workspaces.ForOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	clients, _, err := s.repo.List(ctx, ws.ID, &crm.ClientListFilters{Page: 1, PageSize: boardLimit})
	if err != nil {
		return nil, err
	}
	return BuildBoard(clients), nil
}

func (s *Service) Get(ctx context.Context, ownerID uuid.UUID, id int64) (*crm.Client, error) {
	ws, err := s.workspaces.ForOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, ws.ID, id)
}

func (s *Service) Update(ctx context.Context, ownerID uuid.UUID, id int64, req *crm.UpdateClientRequest) (*crm.Client, error) {
	c, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		c.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Phone != nil {
		c.Phone = nullString(*req.Phone)
	}
	if req.Notes != nil {
		c.Notes = nullString(*req.Notes)
	}
	if req.Tags != nil {
		c.Tags = NormalizeTags(req.Tags)
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// MoveStage places a client in any pipeline column; the board has no
// forward-only rule.
func (s *Service) MoveStage(ctx context.Context, ownerID uuid.UUID, id int64, stage crm.Stage) (*crm.Client, error) {
	if !stage.Valid() {
		return nil, fmt.Errorf("%w: unknown stage %q", xerrors.ErrInvalidInput, stage)
	}
	ws, err := s.workspaces.ForOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	c, err := s.repo.SetStage(ctx, ws.ID, id, stage)
	if err != nil {
		return nil, err
	}
	s.logger.Info("client stage changed",
		zap.Int64("client_id", id),
		zap.String("stage", string(stage)))
	return c, nil
}

func (s *Service) Delete(ctx context.Context, ownerID uuid.UUID, id int64) error {
	ws, err := s.workspaces.ForOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, ws.ID, id)
}

// NormalizeTags trims, lowercases, dedupes and sorts tags.
func NormalizeTags(tags []string) pq.StringArray {
	seen := make(map[string]bool, len(tags))
	out := pq.StringArray{}
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// BuildBoard buckets clients by stage. Every stage gets a column, empty or not.
func BuildBoard(clients []crm.Client) []crm.PipelineColumn {
	byStage := make(map[crm.Stage][]crm.Client, len(crm.Stages))
	for _, c := range clients {
		byStage[c.PipelineStage] = append(byStage[c.PipelineStage], c)
	}

	board := make([]crm.PipelineColumn, 0, len(crm.Stages))
	for _, stage := range crm.Stages {
		col := byStage[stage]
		if col == nil {
			col = []crm.Client{}
		}
		board = append(board, crm.PipelineColumn{Stage: stage, Clients: col})
	}
	return board
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
