// internal/domain/booking/dto.go
package booking

import "time"

// CreateBookingRequest is submitted from a workspace's public booking page.
type CreateBookingRequest struct {
	ServiceID int64     `json:"service_id" binding:"required"`
	StaffID   *int64    `json:"staff_member_id"`
	StartsAt  time.Time `json:"starts_at" binding:"required"`
	FullName  string    `json:"full_name" binding:"required,max=255"`
	Email     string    `json:"email" binding:"required,email,max=255"`
	Phone     string    `json:"phone" binding:"omitempty,max=32"`
	Notes     string    `json:"notes" binding:"omitempty,max=2000"`
}

type UpdateStatusRequest struct {
	Status Status `json:"status" binding:"required,oneof=confirmed cancelled completed"`
}

type BookingListFilters struct {
	Status   *Status    `form:"status"`
	From     *time.Time `form:"from" time_format:"2006-01-02"`
	To       *time.Time `form:"to" time_format:"2006-01-02"`
	Page     int        `form:"page"`
	PageSize int        `form:"page_size"`
}

type BookingListResponse struct {
	Bookings   []Booking `json:"bookings"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}
