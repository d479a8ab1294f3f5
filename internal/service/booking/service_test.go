package booking

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"testing"
	"time"

	"inboker-service/internal/domain/booking"
	"inboker-service/internal/domain/catalog"
	"inboker-service/internal/domain/crm"
	"inboker-service/internal/domain/profile"
	"inboker-service/internal/domain/team"
	wstypes "inboker-service/internal/domain/websocket"
	"inboker-service/internal/domain/workspace"
	xerrors "inboker-service/internal/pkg/errors"
	"inboker-service/internal/pkg/session"
	"inboker-service/internal/service/email"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	ownerID    = uuid.MustParse("0b6f5c8e-3d2a-4f7b-9c1e-5a8d2e4f6b10")
	customerID = uuid.MustParse("9a1d3f5e-7b2c-4e6a-8d0f-1c3e5a7b9d20")
	testNow    = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
)

type fakeTx struct{ calls int }

func (f *fakeTx) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	f.calls++
	return fn(nil)
}

type fakeBookings struct {
	items  map[int64]*booking.Booking
	nextID int64
	err    error
}

func (f *fakeBookings) CreateWithTx(_ context.Context, _ pgx.Tx, b *booking.Booking) error {
	if f.err != nil {
		return f.err
	}
	f.nextID++
	b.ID = f.nextID
	cp := *b
	f.items[b.ID] = &cp
	return nil
}

func (f *fakeBookings) FindByID(_ context.Context, id int64) (*booking.Booking, error) {
	b, ok := f.items[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBookings) ListByWorkspace(_ context.Context, workspaceID int64, filters *booking.BookingListFilters) ([]booking.Booking, int64, error) {
	var out []booking.Booking
	for id := int64(1); id <= f.nextID; id++ {
		b, ok := f.items[id]
		if !ok || b.WorkspaceID != workspaceID {
			continue
		}
		if filters.From != nil && b.StartsAt.Before(*filters.From) {
			continue
		}
		out = append(out, *b)
	}
	return out, int64(len(out)), nil
}

func (f *fakeBookings) ListByCustomer(_ context.Context, id uuid.UUID, _ *booking.BookingListFilters) ([]booking.Booking, int64, error) {
	var out []booking.Booking
	for _, b := range f.items {
		if b.CustomerID != nil && *b.CustomerID == id {
			out = append(out, *b)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeBookings) UpdateStatus(_ context.Context, id int64, from, to booking.Status) (*booking.Booking, error) {
	b, ok := f.items[id]
	if !ok || b.Status != from {
		return nil, xerrors.ErrConflict
	}
	b.Status = to
	cp := *b
	return &cp, nil
}

type fakeClients struct{ upserts []crm.Client }

func (f *fakeClients) UpsertByEmailTx(_ context.Context, _ pgx.Tx, c *crm.Client) error {
	c.ID = 41
	f.upserts = append(f.upserts, *c)
	return nil
}

type fakeWorkspaces struct{ ws *workspace.Workspace }

func (f *fakeWorkspaces) FindBySlug(_ context.Context, slug string) (*workspace.Workspace, error) {
	if slug != f.ws.Slug {
		return nil, xerrors.ErrNotFound
	}
	return f.ws, nil
}

func (f *fakeWorkspaces) FindByID(_ context.Context, id int64) (*workspace.Workspace, error) {
	if id != f.ws.ID {
		return nil, xerrors.ErrNotFound
	}
	return f.ws, nil
}

func (f *fakeWorkspaces) FindByOwner(_ context.Context, id uuid.UUID) (*workspace.Workspace, error) {
	if id != f.ws.OwnerID {
		return nil, xerrors.ErrNotFound
	}
	return f.ws, nil
}

type fakeServices struct{ items map[int64]*catalog.Service }

func (f *fakeServices) FindByID(_ context.Context, workspaceID, id int64) (*catalog.Service, error) {
	s, ok := f.items[id]
	if !ok || s.WorkspaceID != workspaceID {
		return nil, xerrors.ErrNotFound
	}
	return s, nil
}

type fakeStaff struct{ items map[int64]*team.StaffMember }

func (f *fakeStaff) FindStaff(_ context.Context, workspaceID, id int64) (*team.StaffMember, error) {
	m, ok := f.items[id]
	if !ok || m.WorkspaceID != workspaceID {
		return nil, xerrors.ErrNotFound
	}
	return m, nil
}

type fakeProfiles struct{}

func (fakeProfiles) FindByID(_ context.Context, id uuid.UUID) (*profile.Profile, error) {
	if id != ownerID {
		return nil, xerrors.ErrNotFound
	}
	return &profile.Profile{ID: id, Email: "owner@studio.test"}, nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []email.Message
	// gate, when set, holds every send until closed.
	gate chan struct{}
}

func (f *fakeMailer) Send(_ context.Context, msg email.Message) error {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMailer) tags() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, m := range f.sent {
		out = append(out, m.Tag+":"+m.To)
	}
	return out
}

type pushed struct {
	owner uuid.UUID
	event wstypes.EventType
	data  *wstypes.BookingEventData
}

type fakeNotifier struct{ events []pushed }

func (f *fakeNotifier) BroadcastBooking(owner uuid.UUID, event wstypes.EventType, data *wstypes.BookingEventData) {
	f.events = append(f.events, pushed{owner, event, data})
}

type harness struct {
	svc      *Service
	bookings *fakeBookings
	clients  *fakeClients
	tx       *fakeTx
	mailer   *fakeMailer
	notifier *fakeNotifier
	ws       *workspace.Workspace
}

func newHarness() *harness {
	ws := &workspace.Workspace{ID: 3, OwnerID: ownerID, Name: "Lumen Studio", Slug: "lumen-studio", Timezone: "Africa/Nairobi"}
	h := &harness{
		bookings: &fakeBookings{items: map[int64]*booking.Booking{}},
		clients:  &fakeClients{},
		tx:       &fakeTx{},
		mailer:   &fakeMailer{},
		notifier: &fakeNotifier{},
		ws:       ws,
	}
	h.svc = NewService(Deps{
		Bookings:   h.bookings,
		Tx:         h.tx,
		Clients:    h.clients,
		Workspaces: &fakeWorkspaces{ws: ws},
		Services: &fakeServices{items: map[int64]*catalog.Service{
			10: {ID: 10, WorkspaceID: 3, Name: "Haircut", DurationMinutes: 45, IsActive: true},
			11: {ID: 11, WorkspaceID: 3, Name: "Retired", DurationMinutes: 30, IsActive: false},
		}},
		Staff: &fakeStaff{items: map[int64]*team.StaffMember{
			20: {ID: 20, WorkspaceID: 3, FullName: "Wanjiru", IsActive: true},
			21: {ID: 21, WorkspaceID: 3, FullName: "Left", IsActive: false},
			22: {ID: 22, WorkspaceID: 99, FullName: "Elsewhere", IsActive: true},
		}},
		Profiles:  fakeProfiles{},
		Mailer:    h.mailer,
		Templates: email.NewTemplates("https://app.inboker.test"),
		Notifier:  h.notifier,
	}, zap.NewNop())
	h.svc.now = func() time.Time { return testNow }
	h.svc.dispatch = func(fn func()) { fn() }
	return h
}

func request() *booking.CreateBookingRequest {
	return &booking.CreateBookingRequest{
		ServiceID: 10,
		StartsAt:  testNow.Add(26 * time.Hour),
		FullName:  " Juma Kariuki ",
		Email:     "Juma@Example.com",
		Phone:     "+254700000001",
	}
}

func TestCreatePublicBooksPendingAndUpsertsClient(t *testing.T) {
	h := newHarness()

	b, err := h.svc.CreatePublic(context.Background(), "Lumen-Studio", nil, request())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(b.Reference, "BK-"))
	assert.Equal(t, booking.StatusPending, b.Status)
	assert.Equal(t, "Juma Kariuki", b.CustomerName)
	assert.Equal(t, "juma@example.com", b.CustomerEmail)
	assert.Equal(t, b.StartsAt.Add(45*time.Minute), b.EndsAt)
	assert.Nil(t, b.CustomerID)
	assert.Equal(t, sql.NullInt64{Int64: 41, Valid: true}, b.ClientID)
	assert.Equal(t, 1, h.tx.calls)

	require.Len(t, h.clients.upserts, 1)
	assert.Equal(t, "juma@example.com", h.clients.upserts[0].Email)
	assert.Equal(t, int64(3), h.clients.upserts[0].WorkspaceID)

	require.Len(t, h.notifier.events, 1)
	assert.Equal(t, ownerID, h.notifier.events[0].owner)
	assert.Equal(t, wstypes.EventTypeBookingCreated, h.notifier.events[0].event)
	assert.Equal(t, "Haircut", h.notifier.events[0].data.ServiceName)

	assert.Equal(t, []string{
		"booking-confirmation:juma@example.com",
		"booking-received:owner@studio.test",
	}, h.mailer.tags())
}

func TestCreatePublicPrefersWorkspaceEmailForOwner(t *testing.T) {
	h := newHarness()
	h.ws.Email = sql.NullString{String: "desk@lumen.test", Valid: true}

	_, err := h.svc.CreatePublic(context.Background(), "lumen-studio", nil, request())
	require.NoError(t, err)
	assert.Contains(t, h.mailer.tags(), "booking-received:desk@lumen.test")
}

func TestCreatePublicLinksSignedInCustomer(t *testing.T) {
	h := newHarness()
	p := &session.Principal{UserID: customerID, Role: profile.RoleCustomer}

	b, err := h.svc.CreatePublic(context.Background(), "lumen-studio", p, request())
	require.NoError(t, err)
	require.NotNil(t, b.CustomerID)
	assert.Equal(t, customerID, *b.CustomerID)
}

func TestCreatePublicRejections(t *testing.T) {
	tests := []struct {
		name   string
		slug   string
		mutate func(r *booking.CreateBookingRequest)
		want   error
	}{
		{"unknown workspace", "nope", func(*booking.CreateBookingRequest) {}, xerrors.ErrNotFound},
		{"unknown service", "lumen-studio", func(r *booking.CreateBookingRequest) { r.ServiceID = 99 }, xerrors.ErrNotFound},
		{"inactive service", "lumen-studio", func(r *booking.CreateBookingRequest) { r.ServiceID = 11 }, xerrors.ErrServiceInactive},
		{"in the past", "lumen-studio", func(r *booking.CreateBookingRequest) { r.StartsAt = testNow.Add(-time.Minute) }, xerrors.ErrBookingInPast},
		{"starting now", "lumen-studio", func(r *booking.CreateBookingRequest) { r.StartsAt = testNow }, xerrors.ErrBookingInPast},
		{"inactive staff", "lumen-studio", func(r *booking.CreateBookingRequest) { id := int64(21); r.StaffID = &id }, xerrors.ErrNotFound},
		{"staff from another workspace", "lumen-studio", func(r *booking.CreateBookingRequest) { id := int64(22); r.StaffID = &id }, xerrors.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			req := request()
			tt.mutate(req)

			_, err := h.svc.CreatePublic(context.Background(), tt.slug, nil, req)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, h.bookings.items)
			assert.Empty(t, h.mailer.tags())
		})
	}
}

func TestCreatePublicWithStaff(t *testing.T) {
	h := newHarness()
	req := request()
	id := int64(20)
	req.StaffID = &id

	b, err := h.svc.CreatePublic(context.Background(), "lumen-studio", nil, req)
	require.NoError(t, err)
	assert.Equal(t, sql.NullInt64{Int64: 20, Valid: true}, b.StaffID)
}

func TestUpdateStatusFollowsLifecycle(t *testing.T) {
	h := newHarness()
	b, err := h.svc.CreatePublic(context.Background(), "lumen-studio", nil, request())
	require.NoError(t, err)
	h.notifier.events = nil

	updated, err := h.svc.UpdateStatus(context.Background(), ownerID, b.ID, booking.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, updated.Status)
	require.Len(t, h.notifier.events, 1)
	assert.Equal(t, wstypes.EventTypeBookingStatus, h.notifier.events[0].event)
	assert.Contains(t, h.mailer.tags(), "booking-status:juma@example.com")

	_, err = h.svc.UpdateStatus(context.Background(), ownerID, b.ID, booking.StatusPending)
	assert.ErrorIs(t, err, xerrors.ErrInvalidTransition)

	_, err = h.svc.UpdateStatus(context.Background(), ownerID, b.ID, booking.StatusCompleted)
	require.NoError(t, err)

	_, err = h.svc.UpdateStatus(context.Background(), ownerID, b.ID, booking.StatusCancelled)
	assert.ErrorIs(t, err, xerrors.ErrInvalidTransition)
}

func TestUpdateStatusHidesOtherWorkspaces(t *testing.T) {
	h := newHarness()
	b, err := h.svc.CreatePublic(context.Background(), "lumen-studio", nil, request())
	require.NoError(t, err)

	_, err = h.svc.UpdateStatus(context.Background(), customerID, b.ID, booking.StatusConfirmed)
	assert.ErrorIs(t, err, xerrors.ErrNotFound)

	h.bookings.items[b.ID].WorkspaceID = 99
	_, err = h.svc.GetForOwner(context.Background(), ownerID, b.ID)
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestCustomerCancelsOwnBookingOnly(t *testing.T) {
	h := newHarness()
	p := &session.Principal{UserID: customerID, Role: profile.RoleCustomer}

	mine, err := h.svc.CreatePublic(context.Background(), "lumen-studio", p, request())
	require.NoError(t, err)
	anonymous, err := h.svc.CreatePublic(context.Background(), "lumen-studio", nil, request())
	require.NoError(t, err)

	list, err := h.svc.ListMine(context.Background(), p, &booking.BookingListFilters{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)
	assert.Equal(t, 1, list.TotalPages)

	_, err = h.svc.CancelMine(context.Background(), p, anonymous.ID)
	assert.ErrorIs(t, err, xerrors.ErrNotFound)

	cancelled, err := h.svc.CancelMine(context.Background(), p, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCancelled, cancelled.Status)

	_, err = h.svc.CancelMine(context.Background(), p, mine.ID)
	assert.ErrorIs(t, err, xerrors.ErrInvalidTransition)

	_, err = h.svc.ListMine(context.Background(), nil, &booking.BookingListFilters{})
	assert.ErrorIs(t, err, xerrors.ErrUnauthorized)
}

func TestUpcomingForOwnerSkipsClosedBookings(t *testing.T) {
	h := newHarness()

	first, err := h.svc.CreatePublic(context.Background(), "lumen-studio", nil, request())
	require.NoError(t, err)
	second, err := h.svc.CreatePublic(context.Background(), "lumen-studio", nil, request())
	require.NoError(t, err)
	_, err = h.svc.UpdateStatus(context.Background(), ownerID, second.ID, booking.StatusCancelled)
	require.NoError(t, err)

	upcoming, err := h.svc.UpcomingForOwner(context.Background(), ownerID, 10)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, first.ID, upcoming[0].ID)
}

func TestListForOwnerPages(t *testing.T) {
	h := newHarness()
	for i := 0; i < 3; i++ {
		_, err := h.svc.CreatePublic(context.Background(), "lumen-studio", nil, request())
		require.NoError(t, err)
	}

	resp, err := h.svc.ListForOwner(context.Background(), ownerID, &booking.BookingListFilters{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.Total)
	assert.Equal(t, 2, resp.TotalPages)
}

func TestDrainWaitsForBookingEmails(t *testing.T) {
	h := newHarness()
	h.svc.dispatch = h.svc.background
	h.mailer.gate = make(chan struct{})

	_, err := h.svc.CreatePublic(context.Background(), "lumen-studio", nil, request())
	require.NoError(t, err)

	short, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, h.svc.Drain(short), context.DeadlineExceeded)
	assert.Empty(t, h.mailer.tags())

	close(h.mailer.gate)
	require.NoError(t, h.svc.Drain(context.Background()))
	assert.Equal(t, []string{
		"booking-confirmation:juma@example.com",
		"booking-received:owner@studio.test",
	}, h.mailer.tags())
}
