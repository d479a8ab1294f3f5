package workspace

import (
	"context"
	"strings"
	"testing"

	"inboker-service/internal/domain/catalog"
	"inboker-service/internal/domain/workspace"
	xerrors "inboker-service/internal/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memRepo struct {
	byOwner map[uuid.UUID]*workspace.Workspace
	slugs   map[string]bool
	nextID  int64
}

func newMemRepo() *memRepo {
	return &memRepo{byOwner: map[uuid.UUID]*workspace.Workspace{}, slugs: map[string]bool{}}
}

func (m *memRepo) Create(_ context.Context, w *workspace.Workspace) error {
	if m.slugs[w.Slug] || m.byOwner[w.OwnerID] != nil {
		return xerrors.ErrConflict
	}
	m.nextID++
	w.ID = m.nextID
	m.slugs[w.Slug] = true
	m.byOwner[w.OwnerID] = w
	return nil
}

func (m *memRepo) FindByOwner(_ context.Context, ownerID uuid.UUID) (*workspace.Workspace, error) {
	w, ok := m.byOwner[ownerID]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return w, nil
}

func (m *memRepo) FindBySlug(_ context.Context, slug string) (*workspace.Workspace, error) {
	for _, w := range m.byOwner {
		if w.Slug == slug {
			return w, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (m *memRepo) Update(_ context.Context, w *workspace.Workspace) error {
	m.byOwner[w.OwnerID] = w
	return nil
}

type stubServices struct{}

func (stubServices) List(_ context.Context, workspaceID int64, activeOnly bool) ([]catalog.Service, error) {
	return []catalog.Service{{ID: 1, WorkspaceID: workspaceID, Name: "Haircut", IsActive: activeOnly}}, nil
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Glow Beauty Studio":     "glow-beauty-studio",
		"  Dr. Mwangi & Sons!! ": "dr-mwangi-sons",
		"---":                    "",
		"Café 24/7":              "caf-24-7",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
	assert.LessOrEqual(t, len(Slugify(strings.Repeat("long name ", 20))), 50)
}

func TestCreateDerivesSlugAndRetriesOnCollision(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, stubServices{}, zap.NewNop())

	first, err := svc.Create(context.Background(), uuid.New(), &workspace.CreateWorkspaceRequest{Name: "Glow Studio"})
	require.NoError(t, err)
	assert.Equal(t, "glow-studio", first.Slug)
	assert.Equal(t, "UTC", first.Timezone)

	second, err := svc.Create(context.Background(), uuid.New(), &workspace.CreateWorkspaceRequest{Name: "Glow Studio"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(second.Slug, "glow-studio-"))
	assert.NotEqual(t, first.Slug, second.Slug)
}

func TestCreateConflicts(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, stubServices{}, zap.NewNop())
	owner := uuid.New()

	_, err := svc.Create(context.Background(), owner, &workspace.CreateWorkspaceRequest{Name: "Glow", Slug: "glow"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), owner, &workspace.CreateWorkspaceRequest{Name: "Second"})
	assert.ErrorIs(t, err, xerrors.ErrConflict)

	_, err = svc.Create(context.Background(), uuid.New(), &workspace.CreateWorkspaceRequest{Name: "Other", Slug: "Glow"})
	assert.ErrorIs(t, err, xerrors.ErrConflict)
}

func TestCreateRejectsBadTimezone(t *testing.T) {
	svc := NewService(newMemRepo(), stubServices{}, zap.NewNop())

	_, err := svc.Create(context.Background(), uuid.New(), &workspace.CreateWorkspaceRequest{Name: "Glow", Timezone: "Mars/Olympus"})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}

func TestUpdateAndPublic(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, stubServices{}, zap.NewNop())
	owner := uuid.New()

	_, err := svc.Create(context.Background(), owner, &workspace.CreateWorkspaceRequest{Name: "Glow"})
	require.NoError(t, err)

	tz := "Africa/Nairobi"
	desc := "Hair and nails"
	updated, err := svc.Update(context.Background(), owner, &workspace.UpdateWorkspaceRequest{Timezone: &tz, Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "Africa/Nairobi", updated.Timezone)
	assert.Equal(t, "Hair and nails", updated.Description.String)

	page, err := svc.Public(context.Background(), " GLOW ")
	require.NoError(t, err)
	assert.Equal(t, updated.ID, page.Workspace.ID)
	require.Len(t, page.Services, 1)
	assert.True(t, page.Services[0].IsActive)

	_, err = svc.Public(context.Background(), "missing")
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}
