// internal/service/catalog/service.go
package catalog

import (
	"context"
	"database/sql"
	"strings"

	"inboker-service/internal/domain/catalog"
	"inboker-service/internal/domain/workspace"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, s *catalog.Service) error
	FindByID(ctx context.Context, workspaceID, id int64) (*catalog.Service, error)
	List(ctx context.Context, workspaceID int64, activeOnly bool) ([]catalog.Service, error)
	Update(ctx context.Context, s *catalog.Service) error
	Delete(ctx context.Context, workspaceID, id int64) error
}

type Workspaces interface {
	ForOwner(ctx context.Context, ownerID uuid.UUID) (*workspace.Workspace, error)
}

const defaultCurrency = "USD"

type Service struct {
	repo       Repository
	workspaces Workspaces
	logger     *zap.Logger
}

func NewService(repo Repository, workspaces Workspaces, logger *zap.Logger) *Service {
	return &Service{repo: repo, workspaces: workspaces, logger: logger}
}

func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, req *catalog.CreateServiceRequest) (*catalog.Service, error) {
	ws, err := s.workspaces.ForOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	svc := &catalog.Service{
		WorkspaceID:     ws.ID,
		Name:            strings.TrimSpace(req.Name),
		Description:     nullString(req.Description),
		DurationMinutes: req.DurationMinutes,
		PriceCents:      req.PriceCents,
		Currency:        currency(req.Currency),
		IsActive:        true,
	}
	if err := s.repo.Create(ctx, svc); err != nil {
		return nil, err
	}

	s.logger.Info("service created",
		zap.Int64("workspace_id", ws.ID),
		zap.Int64("service_id", svc.ID),
		zap.Int("duration_minutes", svc.DurationMinutes))
	return svc, nil
}

func (s *Service) List(ctx context.Context, ownerID uuid.UUID) ([]catalog.Service, error) {
	ws, err := s.workspaces.ForOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, ws.ID, false)
}

func (s *Service) Get(ctx context.Context, ownerID uuid.UUID, id int64) (*catalog.Service, error) {
	ws, err := s.workspaces.ForOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, ws.ID, id)
}

func (s *Service) Update(ctx context.Context, ownerID uuid.UUID, id int64, req *catalog.UpdateServiceRequest) (*catalog.Service, error) {
	svc, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		svc.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		svc.Description = nullString(*req.Description)
	}
	if req.DurationMinutes != nil {
		svc.DurationMinutes = *req.DurationMinutes
	}
	if req.PriceCents != nil {
		svc.PriceCents = *req.PriceCents
	}
	if req.Currency != nil {
		svc.Currency = currency(*req.Currency)
	}
	if req.IsActive != nil {
		svc.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

// Delete removes a service. Services with bookings cannot be deleted and
// should be deactivated instead.
func (s *Service) Delete(ctx context.Context, ownerID uuid.UUID, id int64) error {
	ws, err := s.workspaces.ForOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, ws.ID, id)
}

func currency(c string) string {
	c = strings.ToUpper(strings.TrimSpace(c))
	if c == "" {
		return defaultCurrency
	}
	return c
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
