// internal/domain/websocket/types.go
package websocket

import (
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventType represents different real-time event types
type EventType string

const (
	// Connection events
	EventTypePing         EventType = "ping"
	EventTypePong         EventType = "pong"
	EventTypeConnected    EventType = "connected"
	EventTypeDisconnected EventType = "disconnected"
	EventTypeError        EventType = "error"

	// Booking events (server -> client)
	EventTypeBookingCreated EventType = "booking:created"
	EventTypeBookingStatus  EventType = "booking:status"

	// Booking requests (client -> server)
	EventTypeBookingUpcoming EventType = "booking:upcoming"

	// Billing events (server -> client)
	EventTypeSubscriptionUpdated EventType = "subscription:updated"

	EventTypeSubscribe   EventType = "subscribe"
	EventTypeUnsubscribe EventType = "unsubscribe"
)

// WSMessage is the universal message format
type WSMessage struct {
	Type      EventType              `json:"type"`
	Data      interface{}            `json:"data,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	ID        string                 `json:"id,omitempty"`
}

type ChannelType string

const (
	ChannelBookings ChannelType = "bookings"
	ChannelBilling  ChannelType = "billing"
)

type SubscribeRequest struct {
	Channels []ChannelType `json:"channels"`
}

type UnsubscribeRequest struct {
	Channels []ChannelType `json:"channels"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// BookingEventData is pushed to a workspace owner when a booking is made or changes state.
type BookingEventData struct {
	BookingID     int64     `json:"booking_id"`
	Reference     string    `json:"reference"`
	WorkspaceID   int64     `json:"workspace_id"`
	ServiceName   string    `json:"service_name,omitempty"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	StartsAt      time.Time `json:"starts_at"`
	Status        string    `json:"status"`
}

// SubscriptionEventData mirrors the owner's subscription after a webhook landed.
type SubscriptionEventData struct {
	Status            string     `json:"status"`
	CancelAtPeriodEnd bool       `json:"cancel_at_period_end"`
	CurrentPeriodEnd  *time.Time `json:"current_period_end,omitempty"`
	TrialEnd          *time.Time `json:"trial_end,omitempty"`
}

func NewMessage(eventType EventType, data interface{}) *WSMessage {
	return &WSMessage{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
		ID:        ulid.Make().String(),
	}
}

func (m *WSMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ParseMessage(data []byte) (*WSMessage, error) {
	var msg WSMessage
	err := json.Unmarshal(data, &msg)
	return &msg, err
}
