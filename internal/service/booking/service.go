// internal/service/booking/service.go
package booking

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
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
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

const referencePrefix = "BK-"

type Repository interface {
	CreateWithTx(ctx context.Context, tx pgx.Tx, b *booking.Booking) error
	FindByID(ctx context.Context, id int64) (*booking.Booking, error)
	ListByWorkspace(ctx context.Context, workspaceID int64, filters *booking.BookingListFilters) ([]booking.Booking, int64, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, filters *booking.BookingListFilters) ([]booking.Booking, int64, error)
	UpdateStatus(ctx context.Context, id int64, from, to booking.Status) (*booking.Booking, error)
}

// Transactor runs fn inside a database transaction.
type Transactor interface {
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

type Clients interface {
	UpsertByEmailTx(ctx context.Context, tx pgx.Tx, c *crm.Client) error
}

type Workspaces interface {
	FindBySlug(ctx context.Context, slug string) (*workspace.Workspace, error)
	FindByID(ctx context.Context, id int64) (*workspace.Workspace, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID) (*workspace.Workspace, error)
}

type Services interface {
	FindByID(ctx context.Context, workspaceID, id int64) (*catalog.Service, error)
}

type Staff interface {
	FindStaff(ctx context.Context, workspaceID, id int64) (*team.StaffMember, error)
}

type Profiles interface {
	FindByID(ctx context.Context, id uuid.UUID) (*profile.Profile, error)
}

// Notifier pushes booking events to the owner's dashboard.
type Notifier interface {
	BroadcastBooking(ownerID uuid.UUID, eventType wstypes.EventType, data *wstypes.BookingEventData)
}

type Deps struct {
	Bookings   Repository
	Tx         Transactor
	Clients    Clients
	Workspaces Workspaces
	Services   Services
	Staff      Staff
	Profiles   Profiles
	Mailer     email.Sender
	Templates  *email.Templates
	Notifier   Notifier
}

type Service struct {
	Deps
	logger *zap.Logger
	now    func() time.Time
	// dispatch runs best-effort side effects off the request path.
	dispatch func(func())
	pending  sync.WaitGroup
}

func NewService(deps Deps, logger *zap.Logger) *Service {
	s := &Service{
		Deps:   deps,
		logger: logger,
		now:    time.Now,
	}
	s.dispatch = s.background
	return s
}

func (s *Service) background(fn func()) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		fn()
	}()
}

// Drain waits for in-flight booking emails, giving up when ctx is done.
func (s *Service) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CreatePublic books a service on a workspace's public page. The booking
// starts pending; the CRM client for the email is created or reused in the
// same transaction. Overlapping bookings are not rejected.
func (s *Service) CreatePublic(ctx context.Context, slug string, p *session.Principal, req *booking.CreateBookingRequest) (*booking.Booking, error) {
	ws, err := s.Workspaces.FindBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return nil, err
	}

	svc, err := s.Services.FindByID(ctx, ws.ID, req.ServiceID)
	if err != nil {
		return nil, err
	}
	if !svc.IsActive {
		return nil, xerrors.ErrServiceInactive
	}

	startsAt := req.StartsAt.UTC()
	if !startsAt.After(s.now()) {
		return nil, xerrors.ErrBookingInPast
	}

	b := &booking.Booking{
		Reference:     NewReference(),
		WorkspaceID:   ws.ID,
		ServiceID:     svc.ID,
		CustomerName:  strings.TrimSpace(req.FullName),
		CustomerEmail: strings.ToLower(strings.TrimSpace(req.Email)),
		CustomerPhone: nullString(req.Phone),
		StartsAt:      startsAt,
		EndsAt:        startsAt.Add(time.Duration(svc.DurationMinutes) * time.Minute),
		Status:        booking.StatusPending,
		Notes:         nullString(req.Notes),
	}
	if p != nil {
		id := p.UserID
		b.CustomerID = &id
	}

	if req.StaffID != nil {
		staff, err := s.Staff.FindStaff(ctx, ws.ID, *req.StaffID)
		if err != nil {
			return nil, err
		}
		if !staff.IsActive {
			return nil, xerrors.ErrNotFound
		}
		b.StaffID = sql.NullInt64{Int64: staff.ID, Valid: true}
	}

	err = s.Tx.WithTx(ctx, func(tx pgx.Tx) error {
		client := &crm.Client{
			WorkspaceID: ws.ID,
			FullName:    b.CustomerName,
			Email:       b.CustomerEmail,
			Phone:       b.CustomerPhone,
		}
		if err := s.Clients.UpsertByEmailTx(ctx, tx, client); err != nil {
			return err
		}
		b.ClientID = sql.NullInt64{Int64: client.ID, Valid: true}
		return s.Bookings.CreateWithTx(ctx, tx, b)
	})
	if err != nil {
		s.logger.Error("failed to create booking",
			zap.Int64("workspace_id", ws.ID),
			zap.Int64("service_id", svc.ID),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("booking created",
		zap.Int64("booking_id", b.ID),
		zap.String("reference", b.Reference),
		zap.Int64("workspace_id", ws.ID))

	details := s.details(ws, svc, b)
	s.notify(ws.OwnerID, wstypes.EventTypeBookingCreated, svc.Name, b)
	s.dispatch(func() {
		s.send(s.Templates.BookingConfirmation(details), b.Reference)
		if to := s.ownerEmail(ws); to != "" {
			s.send(s.Templates.BookingReceived(to, details), b.Reference)
		}
	})

	return b, nil
}

// ListForOwner lists bookings in the caller's workspace.
func (s *Service) ListForOwner(ctx context.Context, ownerID uuid.UUID, filters *booking.BookingListFilters) (*booking.BookingListResponse, error) {
	ws, err := s.Workspaces.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	bookings, total, err := s.Bookings.ListByWorkspace(ctx, ws.ID, filters)
	if err != nil {
		return nil, err
	}
	return listResponse(bookings, total, filters), nil
}

// GetForOwner returns a booking that belongs to the caller's workspace.
func (s *Service) GetForOwner(ctx context.Context, ownerID uuid.UUID, id int64) (*booking.Booking, error) {
	ws, err := s.Workspaces.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	b, err := s.Bookings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.WorkspaceID != ws.ID {
		return nil, xerrors.ErrNotFound
	}
	return b, nil
}

// UpcomingForOwner returns the next open bookings across the owner's workspace.
func (s *Service) UpcomingForOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]booking.Booking, error) {
	ws, err := s.Workspaces.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	from := s.now()
	bookings, _, err := s.Bookings.ListByWorkspace(ctx, ws.ID, &booking.BookingListFilters{
		From:     &from,
		Page:     1,
		PageSize: limit,
	})
	if err != nil {
		return nil, err
	}

	open := make([]booking.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.Status == booking.StatusPending || b.Status == booking.StatusConfirmed {
			open = append(open, b)
		}
	}
	return open, nil
}

// UpdateStatus moves a booking through its lifecycle on the owner's behalf
// and emails the customer.
func (s *Service) UpdateStatus(ctx context.Context, ownerID uuid.UUID, id int64, next booking.Status) (*booking.Booking, error) {
	b, err := s.GetForOwner(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.transition(ctx, b, next)
	if err != nil {
		return nil, err
	}

	ws, svc := s.context(ctx, updated)
	s.notify(ownerID, wstypes.EventTypeBookingStatus, serviceName(svc), updated)
	if ws != nil && svc != nil {
		details := s.details(ws, svc, updated)
		s.dispatch(func() {
			s.send(s.Templates.BookingStatusChanged(details), updated.Reference)
		})
	}
	return updated, nil
}

// ListMine lists bookings the signed-in customer made.
func (s *Service) ListMine(ctx context.Context, p *session.Principal, filters *booking.BookingListFilters) (*booking.BookingListResponse, error) {
	if p == nil {
		return nil, xerrors.ErrUnauthorized
	}
	bookings, total, err := s.Bookings.ListByCustomer(ctx, p.UserID, filters)
	if err != nil {
		return nil, err
	}
	return listResponse(bookings, total, filters), nil
}

// CancelMine cancels one of the caller's own bookings.
func (s *Service) CancelMine(ctx context.Context, p *session.Principal, id int64) (*booking.Booking, error) {
	if p == nil {
		return nil, xerrors.ErrUnauthorized
	}

	b, err := s.Bookings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.CustomerID == nil || *b.CustomerID != p.UserID {
		return nil, xerrors.ErrNotFound
	}

	updated, err := s.transition(ctx, b, booking.StatusCancelled)
	if err != nil {
		return nil, err
	}

	ws, svc := s.context(ctx, updated)
	if ws != nil {
		s.notify(ws.OwnerID, wstypes.EventTypeBookingStatus, serviceName(svc), updated)
	}
	return updated, nil
}

func (s *Service) transition(ctx context.Context, b *booking.Booking, next booking.Status) (*booking.Booking, error) {
	if !b.Status.CanTransition(next) {
		return nil, xerrors.ErrInvalidTransition
	}

	updated, err := s.Bookings.UpdateStatus(ctx, b.ID, b.Status, next)
	if errors.Is(err, xerrors.ErrConflict) {
		// Someone else moved it first.
		return nil, xerrors.ErrInvalidTransition
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking status changed",
		zap.Int64("booking_id", b.ID),
		zap.String("from", string(b.Status)),
		zap.String("to", string(next)))
	return updated, nil
}

// context loads the workspace and service for notifications. Failures are
// logged; the status change already happened.
func (s *Service) context(ctx context.Context, b *booking.Booking) (*workspace.Workspace, *catalog.Service) {
	ws, err := s.Workspaces.FindByID(ctx, b.WorkspaceID)
	if err != nil {
		s.logger.Warn("failed to load workspace for booking notification", zap.Int64("booking_id", b.ID), zap.Error(err))
		return nil, nil
	}
	svc, err := s.Services.FindByID(ctx, b.WorkspaceID, b.ServiceID)
	if err != nil {
		s.logger.Warn("failed to load service for booking notification", zap.Int64("booking_id", b.ID), zap.Error(err))
		return ws, nil
	}
	return ws, svc
}

func (s *Service) notify(ownerID uuid.UUID, eventType wstypes.EventType, serviceName string, b *booking.Booking) {
	if s.Notifier == nil {
		return
	}
	s.Notifier.BroadcastBooking(ownerID, eventType, &wstypes.BookingEventData{
		BookingID:     b.ID,
		Reference:     b.Reference,
		WorkspaceID:   b.WorkspaceID,
		ServiceName:   serviceName,
		CustomerName:  b.CustomerName,
		CustomerEmail: b.CustomerEmail,
		StartsAt:      b.StartsAt,
		Status:        string(b.Status),
	})
}

func (s *Service) send(msg email.Message, reference string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := s.Mailer.Send(ctx, msg); err != nil {
		s.logger.Warn("failed to send booking email",
			zap.String("reference", reference),
			zap.String("tag", msg.Tag),
			zap.Error(err))
	}
}

// ownerEmail prefers the workspace contact address over the owner's login.
func (s *Service) ownerEmail(ws *workspace.Workspace) string {
	if ws.Email.Valid && ws.Email.String != "" {
		return ws.Email.String
	}
	p, err := s.Profiles.FindByID(context.Background(), ws.OwnerID)
	if err != nil {
		s.logger.Warn("failed to load owner profile", zap.String("owner_id", ws.OwnerID.String()), zap.Error(err))
		return ""
	}
	return p.Email
}

func (s *Service) details(ws *workspace.Workspace, svc *catalog.Service, b *booking.Booking) email.BookingDetails {
	return email.BookingDetails{
		Reference:     b.Reference,
		WorkspaceName: ws.Name,
		ServiceName:   svc.Name,
		CustomerName:  b.CustomerName,
		CustomerEmail: b.CustomerEmail,
		StartsAt:      b.StartsAt,
		Timezone:      ws.Timezone,
		Status:        string(b.Status),
	}
}

// NewReference returns a sortable, unguessable booking reference.
func NewReference() string {
	return referencePrefix + ulid.Make().String()
}

func listResponse(bookings []booking.Booking, total int64, filters *booking.BookingListFilters) *booking.BookingListResponse {
	totalPages := 0
	if filters.PageSize > 0 {
		totalPages = int(total) / filters.PageSize
		if int(total)%filters.PageSize > 0 {
			totalPages++
		}
	}
	return &booking.BookingListResponse{
		Bookings:   bookings,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: totalPages,
	}
}

func serviceName(svc *catalog.Service) string {
	if svc == nil {
		return ""
	}
	return svc.Name
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
