// internal/repository/postgres/booking_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"inboker-service/internal/domain/booking"
	xerrors "inboker-service/internal/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookingColumns = `
	id, reference, workspace_id, service_id, staff_member_id, client_id,
	customer_id, customer_name, customer_email, customer_phone,
	starts_at, ends_at, status, notes, created_at, updated_at`

type BookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{db: db}
}

func scanBooking(row pgx.Row) (*booking.Booking, error) {
	var b booking.Booking
	err := row.Scan(
		&b.ID, &b.Reference, &b.WorkspaceID, &b.ServiceID, &b.StaffID, &b.ClientID,
		&b.CustomerID, &b.CustomerName, &b.CustomerEmail, &b.CustomerPhone,
		&b.StartsAt, &b.EndsAt, &b.Status, &b.Notes, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateWithTx inserts a booking within a transaction
func (r *BookingRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, b *booking.Booking) error {
	query := `
		INSERT INTO bookings (
			reference, workspace_id, service_id, staff_member_id, client_id,
			customer_id, customer_name, customer_email, customer_phone,
			starts_at, ends_at, status, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		b.Reference, b.WorkspaceID, b.ServiceID, b.StaffID, b.ClientID,
		b.CustomerID, b.CustomerName, b.CustomerEmail, b.CustomerPhone,
		b.StartsAt, b.EndsAt, b.Status, b.Notes,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *BookingRepository) FindByID(ctx context.Context, id int64) (*booking.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return b, nil
}

// ListByWorkspace lists a workspace's bookings, soonest first.
func (r *BookingRepository) ListByWorkspace(ctx context.Context, workspaceID int64, filters *booking.BookingListFilters) ([]booking.Booking, int64, error) {
	return r.list(ctx, "workspace_id", workspaceID, filters)
}

// ListByCustomer lists bookings made by a signed-in customer.
func (r *BookingRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID, filters *booking.BookingListFilters) ([]booking.Booking, int64, error) {
	return r.list(ctx, "customer_id", customerID, filters)
}

func (r *BookingRepository) list(ctx context.Context, column string, key interface{}, filters *booking.BookingListFilters) ([]booking.Booking, int64, error) {
	conditions := []string{column + " = $1"}
	args := []interface{}{key}
	argPos := 2

	if filters.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *filters.Status)
		argPos++
	}
	if filters.From != nil {
		conditions = append(conditions, fmt.Sprintf("starts_at >= $%d", argPos))
		args = append(args, *filters.From)
		argPos++
	}
	if filters.To != nil {
		conditions = append(conditions, fmt.Sprintf("starts_at < $%d", argPos))
		args = append(args, *filters.To)
		argPos++
	}
	whereClause := strings.Join(conditions, " AND ")

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM bookings WHERE "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 || filters.PageSize > 100 {
		filters.PageSize = 20
	}
	offset := (filters.Page - 1) * filters.PageSize

	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE %s ORDER BY starts_at ASC LIMIT $%d OFFSET $%d`,
		bookingColumns, whereClause, argPos, argPos+1)
	args = append(args, filters.PageSize, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	bookings := []booking.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, total, rows.Err()
}

// UpdateStatus moves a booking from one status to another. It returns
// ErrConflict when the booking is no longer in the expected status.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id int64, from, to booking.Status) (*booking.Booking, error) {
	query := `
		UPDATE bookings SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + bookingColumns

	b, err := scanBooking(r.db.QueryRow(ctx, query, id, from, to))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}
	return b, nil
}
