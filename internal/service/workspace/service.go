// internal/service/workspace/service.go
package workspace

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"inboker-service/internal/domain/catalog"
	"inboker-service/internal/domain/workspace"
	xerrors "inboker-service/internal/pkg/errors"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, w *workspace.Workspace) error
	FindByOwner(ctx context.Context, ownerID uuid.UUID) (*workspace.Workspace, error)
	FindBySlug(ctx context.Context, slug string) (*workspace.Workspace, error)
	Update(ctx context.Context, w *workspace.Workspace) error
}

// Services lists a workspace's catalog for the public page.
type Services interface {
	List(ctx context.Context, workspaceID int64, activeOnly bool) ([]catalog.Service, error)
}

// PublicWorkspace is what the booking page renders.
type PublicWorkspace struct {
	Workspace *workspace.Workspace `json:"workspace"`
	Services  []catalog.Service    `json:"services"`
}

type Service struct {
	repo     Repository
	services Services
	logger   *zap.Logger
}

func NewService(repo Repository, services Services, logger *zap.Logger) *Service {
	return &Service{repo: repo, services: services, logger: logger}
}

// Create opens the owner's workspace. An owner has at most one; a taken
// slug is a conflict when chosen explicitly and retried with a suffix when
// derived from the name.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, req *workspace.CreateWorkspaceRequest) (*workspace.Workspace, error) {
	if _, err := s.repo.FindByOwner(ctx, ownerID); err == nil {
		return nil, xerrors.ErrConflict
	} else if !errors.Is(err, xerrors.ErrNotFound) {
		return nil, err
	}

	tz, err := normalizeTimezone(req.Timezone)
	if err != nil {
		return nil, err
	}

	explicit := strings.TrimSpace(req.Slug) != ""
	slug := Slugify(req.Slug)
	if !explicit {
		slug = Slugify(req.Name)
	}
	if slug == "" {
		return nil, fmt.Errorf("%w: slug must contain letters or digits", xerrors.ErrInvalidInput)
	}

	w := &workspace.Workspace{
		OwnerID:     ownerID,
		Name:        strings.TrimSpace(req.Name),
		Slug:        slug,
		Description: nullString(req.Description),
		Timezone:    tz,
		Phone:       nullString(req.Phone),
		Email:       nullString(req.Email),
	}

	for attempt := 0; ; attempt++ {
		err = s.repo.Create(ctx, w)
		if err == nil {
			break
		}
		if !errors.Is(err, xerrors.ErrConflict) || explicit || attempt >= 2 {
			return nil, err
		}
		w.Slug = slug + "-" + strings.ToLower(ulid.Make().String()[20:])
	}

	s.logger.Info("workspace created",
		zap.Int64("workspace_id", w.ID),
		zap.String("owner_id", ownerID.String()),
		zap.String("slug", w.Slug))
	return w, nil
}

// ForOwner returns the caller's workspace or ErrNotFound.
func (s *Service) ForOwner(ctx context.Context, ownerID uuid.UUID) (*workspace.Workspace, error) {
	return s.repo.FindByOwner(ctx, ownerID)
}

func (s *Service) Update(ctx context.Context, ownerID uuid.UUID, req *workspace.UpdateWorkspaceRequest) (*workspace.Workspace, error) {
	w, err := s.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		w.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		w.Description = nullString(*req.Description)
	}
	if req.Timezone != nil {
		tz, err := normalizeTimezone(*req.Timezone)
		if err != nil {
			return nil, err
		}
		w.Timezone = tz
	}
	if req.Phone != nil {
		w.Phone = nullString(*req.Phone)
	}
	if req.Email != nil {
		w.Email = nullString(*req.Email)
	}

	if err := s.repo.Update(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// Public resolves a booking page by slug with its active services.
func (s *Service) Public(ctx context.Context, slug string) (*PublicWorkspace, error) {
	w, err := s.repo.FindBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return nil, err
	}

	services, err := s.services.List(ctx, w.ID, true)
	if err != nil {
		return nil, err
	}
	return &PublicWorkspace{Workspace: w, Services: services}, nil
}

// Slugify lowercases s and collapses every run of non-alphanumerics into a
// single hyphen.
func Slugify(s string) string {
	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			hyphen = false
		case b.Len() > 0 && !hyphen:
			b.WriteByte('-')
			hyphen = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if len(out) > 50 {
		out = strings.TrimSuffix(out[:50], "-")
	}
	return out
}

func normalizeTimezone(tz string) (string, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return "UTC", nil
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return "", fmt.Errorf("%w: unknown timezone %q", xerrors.ErrInvalidInput, tz)
	}
	return tz, nil
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
