// internal/websocket/handler/booking.go
package handler

import (
	"context"
	"fmt"

	"inboker-service/internal/domain/booking"
	"inboker-service/internal/domain/profile"
	wstypes "inboker-service/internal/domain/websocket"
	ws "inboker-service/internal/websocket"

	"github.com/google/uuid"
)

// UpcomingLister returns the next bookings across an owner's workspace.
type UpcomingLister interface {
	UpcomingForOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]booking.Booking, error)
}

type BookingHandler struct {
	bookings UpcomingLister
}

func NewBookingHandler(bookings UpcomingLister) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

func (h *BookingHandler) SupportedEvents() []wstypes.EventType {
	return []wstypes.EventType{wstypes.EventTypeBookingUpcoming}
}

func (h *BookingHandler) HandleMessage(ctx context.Context, client *ws.Client, msg *wstypes.WSMessage) error {
	switch msg.Type {
	case wstypes.EventTypeBookingUpcoming:
		return h.handleUpcoming(ctx, client, msg)
	default:
		return fmt.Errorf("unsupported event type: %s", msg.Type)
	}
}

func (h *BookingHandler) handleUpcoming(ctx context.Context, client *ws.Client, msg *wstypes.WSMessage) error {
	if client.Role() != profile.RoleBusinessOwner {
		client.SendError("forbidden", "Only business owners can list upcoming bookings", "")
		return nil
	}

	var req struct {
		Limit int `json:"limit"`
	}
	if err := ws.DecodeData(msg, &req); err != nil {
		client.SendError("invalid_request", "Invalid upcoming bookings request", err.Error())
		return nil
	}
	if req.Limit <= 0 || req.Limit > 50 {
		req.Limit = 10
	}

	bookings, err := h.bookings.UpcomingForOwner(ctx, client.UserID(), req.Limit)
	if err != nil {
		client.SendError("list_failed", "Failed to load upcoming bookings", err.Error())
		return nil
	}

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeBookingUpcoming, map[string]interface{}{
		"bookings": bookings,
		"count":    len(bookings),
	}))
	return nil
}
