// internal/websocket/hub.go
package websocket

import (
	"context"
	"sync"

	"inboker-service/internal/domain/subscription"
	wstypes "inboker-service/internal/domain/websocket"
	"inboker-service/internal/pkg/session"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Authenticator resolves the principal behind an access token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*session.Principal, error)
}

type Hub struct {
	// Registered clients by user id
	clients map[uuid.UUID]map[*Client]bool
	mu      sync.RWMutex

	Register   chan *Client
	unregister chan *Client

	broadcast chan *BroadcastMessage

	// Handler registry for modular message handling
	handlerRegistry *HandlerRegistry

	auth   Authenticator
	gauge  ClientGauge
	logger *zap.Logger
}

// ClientGauge observes the number of connected clients.
type ClientGauge interface {
	SetConnectedClients(n int)
}

type BroadcastMessage struct {
	UserIDs []uuid.UUID
	Channel wstypes.ChannelType
	Message *wstypes.WSMessage
}

func NewHub(auth Authenticator, logger *zap.Logger) *Hub {
	return &Hub{
		clients:         make(map[uuid.UUID]map[*Client]bool),
		Register:        make(chan *Client),
		unregister:      make(chan *Client, 64),
		broadcast:       make(chan *BroadcastMessage, 256),
		handlerRegistry: NewHandlerRegistry(),
		auth:            auth,
		logger:          logger,
	}
}

// SetGauge reports connection counts to g after every register and unregister.
func (h *Hub) SetGauge(g ClientGauge) {
	h.gauge = g
}

// AuthenticateClient validates the access token and resolves the caller's role.
func (h *Hub) AuthenticateClient(ctx context.Context, token string) (*session.Principal, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	p, err := h.auth.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// RegisterHandler registers a message handler
func (h *Hub) RegisterHandler(handler MessageHandler) {
	h.handlerRegistry.Register(handler)
}

// HandleClientMessage dispatches to a registered handler. handled is false
// when no handler claims the event type.
func (h *Hub) HandleClientMessage(ctx context.Context, client *Client, msg *wstypes.WSMessage) (bool, error) {
	handler, exists := h.handlerRegistry.GetHandler(msg.Type)
	if !exists {
		return false, nil
	}
	return true, handler.HandleMessage(ctx, client, msg)
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.BroadcastMessage(msg)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.userID] == nil {
		h.clients[client.userID] = make(map[*Client]bool)
	}
	h.clients[client.userID][client] = true

	h.logger.Info("websocket client connected",
		zap.String("user_id", client.userID.String()),
		zap.String("connection_id", client.connID),
		zap.Int("total", h.totalClients()))
	h.observe()

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeConnected, map[string]interface{}{
		"user_id":       client.userID,
		"connection_id": client.connID,
		"role":          client.role,
	}))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.userID]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			client.Close()

			if len(clients) == 0 {
				delete(h.clients, client.userID)
			}

			h.logger.Info("websocket client disconnected",
				zap.String("user_id", client.userID.String()),
				zap.String("connection_id", client.connID),
				zap.Int("total", h.totalClients()))
			h.observe()
		}
	}
}

func (h *Hub) BroadcastMessage(msg *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if msg.UserIDs == nil {
		for _, clients := range h.clients {
			for client := range clients {
				if client.IsSubscribed(msg.Channel) {
					client.SendMessage(msg.Message)
				}
			}
		}
		return
	}

	for _, userID := range msg.UserIDs {
		for client := range h.clients[userID] {
			if client.IsSubscribed(msg.Channel) {
				client.SendMessage(msg.Message)
			}
		}
	}
}

func (h *Hub) GetConnectedClients(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalClients()
}

// IsUserConnected checks if a user has any active connections
func (h *Hub) IsUserConnected(userID uuid.UUID) bool {
	return h.GetConnectedClients(userID) > 0
}

// enqueue hands a message to the run loop without blocking the caller.
func (h *Hub) enqueue(msg *BroadcastMessage) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("websocket broadcast queue full, dropping message",
			zap.String("type", string(msg.Message.Type)))
	}
}

// BroadcastBooking pushes a booking event to the workspace owner.
func (h *Hub) BroadcastBooking(ownerID uuid.UUID, eventType wstypes.EventType, data *wstypes.BookingEventData) {
	h.enqueue(&BroadcastMessage{
		UserIDs: []uuid.UUID{ownerID},
		Channel: wstypes.ChannelBookings,
		Message: wstypes.NewMessage(eventType, data),
	})
}

// SubscriptionChanged pushes the refreshed subscription to its owner.
func (h *Hub) SubscriptionChanged(userID uuid.UUID, sub *subscription.Subscription) {
	if sub == nil {
		return
	}
	h.enqueue(&BroadcastMessage{
		UserIDs: []uuid.UUID{userID},
		Channel: wstypes.ChannelBilling,
		Message: wstypes.NewMessage(wstypes.EventTypeSubscriptionUpdated, &wstypes.SubscriptionEventData{
			Status:            string(sub.Status),
			CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
			CurrentPeriodEnd:  sub.CurrentPeriodEnd,
			TrialEnd:          sub.TrialEnd,
		}),
	})
}

// DisconnectUser forcefully disconnects all connections for a user
func (h *Hub) DisconnectUser(userID uuid.UUID, reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[userID]
	if !ok {
		return
	}

	disconnectMsg := wstypes.NewMessage(wstypes.EventTypeDisconnected, map[string]interface{}{
		"reason": reason,
	})
	for client := range clients {
		client.SendMessage(disconnectMsg)
		client.Close()
	}

	delete(h.clients, userID)
	h.logger.Info("disconnected all clients for user",
		zap.String("user_id", userID.String()),
		zap.String("reason", reason))
}

func (h *Hub) totalClients() int {
	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}

// observe must be called with h.mu held.
func (h *Hub) observe() {
	if h.gauge != nil {
		h.gauge.SetConnectedClients(h.totalClients())
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.clients {
		for client := range clients {
			client.Close()
		}
	}
	h.clients = make(map[uuid.UUID]map[*Client]bool)
}
