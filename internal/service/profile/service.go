// internal/service/profile/service.go
package profile

import (
	"context"
	"strings"

	"inboker-service/internal/domain/profile"
	xerrors "inboker-service/internal/pkg/errors"
	"inboker-service/internal/pkg/session"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*profile.Profile, error)
	Update(ctx context.Context, id uuid.UUID, fullName *string, role *profile.Role) (*profile.Profile, error)
	List(ctx context.Context, filters *profile.ProfileListFilters) ([]profile.Profile, int64, error)
}

// Cache drops a cached principal so role changes apply on the next request.
type Cache interface {
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

type Service struct {
	repo   Repository
	cache  Cache
	logger *zap.Logger
}

func NewService(repo Repository, cache Cache, logger *zap.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger}
}

func (s *Service) Me(ctx context.Context, p *session.Principal) (*profile.Profile, error) {
	if p == nil {
		return nil, xerrors.ErrUnauthorized
	}
	return s.repo.FindByID(ctx, p.UserID)
}

// Dashboard tells the client where to land the caller.
func (s *Service) Dashboard(p *session.Principal) (*profile.DashboardResponse, error) {
	if p == nil {
		return nil, xerrors.ErrUnauthorized
	}
	return &profile.DashboardResponse{Role: p.Role, Redirect: p.Role.DashboardPath()}, nil
}

// Update changes the caller's display name and, during onboarding, lets a
// customer become a business owner. Admin roles are never self-assigned.
func (s *Service) Update(ctx context.Context, p *session.Principal, req *profile.UpdateProfileRequest) (*profile.Profile, error) {
	if p == nil {
		return nil, xerrors.ErrUnauthorized
	}

	var fullName *string
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		fullName = &name
	}

	role := req.Role
	if role != nil {
		if !role.Valid() || *role == profile.RoleAdmin {
			return nil, xerrors.ErrInvalidInput
		}
		if *role == p.Role {
			role = nil
		} else if p.Role != profile.RoleCustomer {
			return nil, xerrors.ErrForbidden
		}
	}

	updated, err := s.repo.Update(ctx, p.UserID, fullName, role)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Invalidate(ctx, p.UserID); err != nil {
		s.logger.Warn("failed to invalidate cached principal", zap.String("user_id", p.UserID.String()), zap.Error(err))
	}

	if role != nil {
		s.logger.Info("profile role changed",
			zap.String("user_id", p.UserID.String()),
			zap.String("from", string(p.Role)),
			zap.String("to", string(*role)))
	}
	return updated, nil
}

// List backs the admin console.
func (s *Service) List(ctx context.Context, filters *profile.ProfileListFilters) (*profile.ProfileListResponse, error) {
	profiles, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, err
	}

	totalPages := int(total) / filters.PageSize
	if int(total)%filters.PageSize > 0 {
		totalPages++
	}

	return &profile.ProfileListResponse{
		Profiles:   profiles,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: totalPages,
	}, nil
}
