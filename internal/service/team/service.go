// internal/service/team/service.go
package team

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"inboker-service/internal/domain/team"
	"inboker-service/internal/domain/workspace"
	xerrors "inboker-service/internal/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Repository interface {
	CreateStaff(ctx context.Context, m *team.StaffMember) error
	FindStaff(ctx context.Context, workspaceID, id int64) (*team.StaffMember, error)
	ListStaff(ctx context.Context, workspaceID int64) ([]team.StaffMember, error)
	UpdateStaff(ctx context.Context, m *team.StaffMember) error
	DeleteStaff(ctx context.Context, workspaceID, id int64) error
	CreateShift(ctx context.Context, s *team.Shift) error
	ListShifts(ctx context.Context, workspaceID int64, staffID *int64) ([]team.Shift, error)
	DeleteShift(ctx context.Context, workspaceID, id int64) error
}

type Workspaces interface {
	ForOwner(ctx context.Context, ownerID uuid.UUID) (*workspace.Workspace, error)
}

type Service struct {
	repo       Repository
	workspaces Workspaces
	logger     *zap.Logger
}

func NewService(repo Repository, workspaces Workspaces, logger *zap.Logger) *Service {
	return &Service{repo: repo, workspaces: workspaces, logger: logger}
}

func (s *Service) CreateStaff(ctx context.Context, ownerID uuid.UUID, req *team.CreateStaffRequest) (*team.StaffMember, error) {
	ws, err := s.workspaces.ForOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	m := &team.StaffMember{
		WorkspaceID: ws.ID,
		FullName:    strings.TrimSpace(req.FullName),
		Email:       nullString(strings.ToLower(req.Email)),
		Phone:       nullString(req.Phone),
		RoleTitle:   nullString(req.RoleTitle),
		IsActive:    true,
	}
	if err := s.repo.CreateStaff(ctx, m); err != nil {
		return nil, err
	}

	s.logger.Info("staff member added", zap.Int64("workspace_id", ws.ID), zap.Int64("staff_id", m.ID))
	return m, nil
}

func (s *Service) ListStaff(ctx context.Context, ownerID uuid.UUID) ([]team.StaffMember, error) {
	ws, err := s.workspaces.ForOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListStaff(ctx, ws.ID)
}

func (s *Service) UpdateStaff(ctx context.Context, ownerID uuid.UUID, id int64, req *team.UpdateStaffRequest) (*team.StaffMember, error) {
	ws, err := s.workspaces.ForOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	m, err := s.repo.FindStaff(ctx, ws.ID, id)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		m.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Email != nil {
		m.Email = nullString(strings.ToLower(*req.Email))
	}
	if req.Phone != nil {
		m.Phone = nullString(*req.Phone)
	}
	if req.RoleTitle != nil {
		m.RoleTitle = nullString(*req.RoleTitle)
	}
	if req.IsActive != nil {
		m.IsActive = *req.IsActive
	}

	if err := s.repo.UpdateStaff(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) DeleteStaff(ctx context.Context, ownerID uuid.UUID, id int64) error {
	ws, err := s.workspaces.ForOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	return s.repo.DeleteStaff(ctx, ws.ID, id)
}

// CreateShift adds a weekly window for a staff member. Overlapping shifts
// are accepted.
func (s *Service) CreateShift(ctx context.Context, ownerID uuid.UUID, req *team.CreateShiftRequest) (*team.Shift, error) {
	ws, err := s.workspaces.ForOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if req.Weekday == nil || *req.Weekday < 0 || *req.Weekday > 6 {
		return nil, fmt.Errorf("%w: weekday must be 0-6", xerrors.ErrInvalidInput)
	}

	start, err := team.ParseClock(req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%w: start_time must be HH:MM", xerrors.ErrInvalidInput)
	}
	end, err := team.ParseClock(req.EndTime)
	if err != nil {
		return nil, fmt.Errorf("%w: end_time must be HH:MM", xerrors.ErrInvalidInput)
	}
	if start >= end {
		return nil, fmt.Errorf("%w: start_time must be before end_time", xerrors.ErrInvalidInput)
	}

	if _, err := s.repo.FindStaff(ctx, ws.ID, req.StaffID); err != nil {
		return nil, err
	}

	shift := &team.Shift{
		WorkspaceID: ws.ID,
		StaffID:     req.StaffID,
		Weekday:     *req.Weekday,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	}
	if err := s.repo.CreateShift(ctx, shift); err != nil {
		return nil, err
	}
	return shift, nil
}

func (s *Service) ListShifts(ctx context.Context, ownerID uuid.UUID, staffID *int64) ([]team.Shift, error) {
	ws, err := s.workspaces.ForOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListShifts(ctx, ws.ID, staffID)
}

func (s *Service) DeleteShift(ctx context.Context, ownerID uuid.UUID, id int64) error {
	ws, err := s.workspaces.ForOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	return s.repo.DeleteShift(ctx, ws.ID, id)
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
