package team

import (
	"context"
	"testing"

	"inboker-service/internal/domain/team"
	"inboker-service/internal/domain/workspace"
	xerrors "inboker-service/internal/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memRepo struct {
	staff  map[int64]*team.StaffMember
	shifts []team.Shift
	nextID int64
}

func (m *memRepo) CreateStaff(_ context.Context, s *team.StaffMember) error {
	m.nextID++
	s.ID = m.nextID
	cp := *s
	m.staff[s.ID] = &cp
	return nil
}

func (m *memRepo) FindStaff(_ context.Context, workspaceID, id int64) (*team.StaffMember, error) {
	s, ok := m.staff[id]
	if !ok || s.WorkspaceID != workspaceID {
		return nil, xerrors.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memRepo) ListStaff(_ context.Context, workspaceID int64) ([]team.StaffMember, error) {
	out := []team.StaffMember{}
	for _, s := range m.staff {
		if s.WorkspaceID == workspaceID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memRepo) UpdateStaff(_ context.Context, s *team.StaffMember) error {
	cp := *s
	m.staff[s.ID] = &cp
	return nil
}

func (m *memRepo) DeleteStaff(_ context.Context, _, id int64) error {
	delete(m.staff, id)
	return nil
}

func (m *memRepo) CreateShift(_ context.Context, s *team.Shift) error {
	m.nextID++
	s.ID = m.nextID
	m.shifts = append(m.shifts, *s)
	return nil
}

func (m *memRepo) ListShifts(_ context.Context, _ int64, staffID *int64) ([]team.Shift, error) {
	out := []team.Shift{}
	for _, s := range m.shifts {
		if staffID == nil || s.StaffID == *staffID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memRepo) DeleteShift(_ context.Context, _, _ int64) error { return nil }

type oneWorkspace struct {
	owner uuid.UUID
}

func (o oneWorkspace) ForOwner(_ context.Context, ownerID uuid.UUID) (*workspace.Workspace, error) {
	if ownerID != o.owner {
		return nil, xerrors.ErrNotFound
	}
	return &workspace.Workspace{ID: 3, OwnerID: ownerID}, nil
}

func intPtr(i int) *int { return &i }

func TestCreateShiftValidation(t *testing.T) {
	owner := uuid.New()
	repo := &memRepo{staff: map[int64]*team.StaffMember{}}
	svc := NewService(repo, oneWorkspace{owner: owner}, zap.NewNop())

	staff, err := svc.CreateStaff(context.Background(), owner, &team.CreateStaffRequest{FullName: "Baraka", Email: "Baraka@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, "baraka@example.com", staff.Email.String)

	tests := []struct {
		name string
		req  team.CreateShiftRequest
	}{
		{"weekday out of range", team.CreateShiftRequest{StaffID: staff.ID, Weekday: intPtr(7), StartTime: "09:00", EndTime: "17:00"}},
		{"missing weekday", team.CreateShiftRequest{StaffID: staff.ID, StartTime: "09:00", EndTime: "17:00"}},
		{"bad start", team.CreateShiftRequest{StaffID: staff.ID, Weekday: intPtr(1), StartTime: "9am", EndTime: "17:00"}},
		{"end before start", team.CreateShiftRequest{StaffID: staff.ID, Weekday: intPtr(1), StartTime: "17:00", EndTime: "09:00"}},
		{"empty window", team.CreateShiftRequest{StaffID: staff.ID, Weekday: intPtr(1), StartTime: "09:00", EndTime: "09:00"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateShift(context.Background(), owner, &tt.req)
			assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
		})
	}

	_, err = svc.CreateShift(context.Background(), owner, &team.CreateShiftRequest{StaffID: 999, Weekday: intPtr(1), StartTime: "09:00", EndTime: "17:00"})
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestOverlappingShiftsAreAccepted(t *testing.T) {
	owner := uuid.New()
	repo := &memRepo{staff: map[int64]*team.StaffMember{}}
	svc := NewService(repo, oneWorkspace{owner: owner}, zap.NewNop())

	staff, err := svc.CreateStaff(context.Background(), owner, &team.CreateStaffRequest{FullName: "Baraka"})
	require.NoError(t, err)

	_, err = svc.CreateShift(context.Background(), owner, &team.CreateShiftRequest{StaffID: staff.ID, Weekday: intPtr(2), StartTime: "09:00", EndTime: "13:00"})
	require.NoError(t, err)
	_, err = svc.CreateShift(context.Background(), owner, &team.CreateShiftRequest{StaffID: staff.ID, Weekday: intPtr(2), StartTime: "12:00", EndTime: "18:00"})
	require.NoError(t, err)

	shifts, err := svc.ListShifts(context.Background(), owner, &staff.ID)
	require.NoError(t, err)
	require.Len(t, shifts, 2)
	assert.True(t, shifts[0].Overlaps(shifts[1]))
}
