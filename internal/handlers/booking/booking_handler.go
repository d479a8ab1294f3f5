// internal/handlers/booking/booking_handler.go
package booking

import (
	"context"
	"net/http"
	"strconv"

	"inboker-service/internal/domain/booking"
	"inboker-service/internal/middleware"
	"inboker-service/internal/pkg/metrics"
	"inboker-service/internal/pkg/response"
	"inboker-service/internal/pkg/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Bookings interface {
	CreatePublic(ctx context.Context, slug string, p *session.Principal, req *booking.CreateBookingRequest) (*booking.Booking, error)
	ListForOwner(ctx context.Context, ownerID uuid.UUID, filters *booking.BookingListFilters) (*booking.BookingListResponse, error)
	GetForOwner(ctx context.Context, ownerID uuid.UUID, id int64) (*booking.Booking, error)
	UpdateStatus(ctx context.Context, ownerID uuid.UUID, id int64, next booking.Status) (*booking.Booking, error)
	ListMine(ctx context.Context, p *session.Principal, filters *booking.BookingListFilters) (*booking.BookingListResponse, error)
	CancelMine(ctx context.Context, p *session.Principal, id int64) (*booking.Booking, error)
}

type BookingHandler struct {
	bookings Bookings
	metrics  *metrics.Metrics
}

func NewBookingHandler(bookings Bookings, m *metrics.Metrics) *BookingHandler {
	return &BookingHandler{
		bookings: bookings,
		metrics:  m,
	}
}

// ========== Public Endpoints ==========

// Create books a service from a workspace's public page. A signed-in caller
// is linked to the booking.
func (h *BookingHandler) Create(c *gin.Context) {
	var req booking.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	principal, _ := middleware.GetPrincipal(c)
	result, err := h.bookings.CreatePublic(c.Request.Context(), c.Param("slug"), principal, &req)
	if h.metrics != nil {
		h.metrics.BookingCreated(err)
	}
	if err != nil {
		response.FromError(c, "failed to create booking", err)
		return
	}

	response.Success(c, http.StatusCreated, "booking created successfully", result)
}

// ========== Owner Endpoints ==========

// List retrieves bookings with filters
func (h *BookingHandler) List(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	var filters booking.BookingListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	result, err := h.bookings.ListForOwner(c.Request.Context(), principal.UserID, &filters)
	if err != nil {
		response.FromError(c, "failed to list bookings", err)
		return
	}

	response.Success(c, http.StatusOK, "bookings retrieved", result)
}

func (h *BookingHandler) Get(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid booking ID", err)
		return
	}

	result, err := h.bookings.GetForOwner(c.Request.Context(), principal.UserID, id)
	if err != nil {
		response.FromError(c, "booking not found", err)
		return
	}

	response.Success(c, http.StatusOK, "booking retrieved", result)
}

// UpdateStatus confirms, completes or cancels a booking
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid booking ID", err)
		return
	}

	var req booking.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.bookings.UpdateStatus(c.Request.Context(), principal.UserID, id, req.Status)
	if err != nil {
		response.FromError(c, "failed to update booking", err)
		return
	}

	response.Success(c, http.StatusOK, "booking updated successfully", result)
}

// ========== Customer Endpoints ==========

func (h *BookingHandler) ListMine(c *gin.Context) {
	var filters booking.BookingListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	result, err := h.bookings.ListMine(c.Request.Context(), middleware.MustGetPrincipal(c), &filters)
	if err != nil {
		response.FromError(c, "failed to list bookings", err)
		return
	}

	response.Success(c, http.StatusOK, "bookings retrieved", result)
}

func (h *BookingHandler) CancelMine(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid booking ID", err)
		return
	}

	result, err := h.bookings.CancelMine(c.Request.Context(), middleware.MustGetPrincipal(c), id)
	if err != nil {
		response.FromError(c, "failed to cancel booking", err)
		return
	}

	response.Success(c, http.StatusOK, "booking cancelled", result)
}
