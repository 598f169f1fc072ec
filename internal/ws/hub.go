package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"playearn/internal/domain"
	"playearn/internal/logger"
)

// Hub fans admin events out to every connected dashboard.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool
	log     *slog.Logger
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		log:     logger.With("component", "ws_hub"),
	}
}

// Register adds c unless the hub is shut down.
func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	h.log.Info("admin connected", "admin_id", c.AdminID, "clients", len(h.clients))
	return true
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.Send)
		h.log.Info("admin disconnected", "admin_id", c.AdminID, "clients", len(h.clients))
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// sendTo queues msg for c if it is still registered.
func (h *Hub) sendTo(c *Client, msg []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; !ok {
		return false
	}
	select {
	case c.Send <- msg:
		return true
	default:
		return false
	}
}

// Broadcast queues msg for every client. Slow clients are disconnected.
func (h *Hub) Broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.Send <- msg:
		default:
			delete(h.clients, c)
			close(c.Send)
			h.log.Warn("dropping slow admin client", "admin_id", c.AdminID)
		}
	}
}

// Notify implements service.Notifier.
func (h *Hub) Notify(_ context.Context, e domain.AdminEvent) {
	p := EventPayload{Event: e.Type, UserID: e.UserID, Withdrawal: e.Withdrawal, Flag: e.Flag}
	if e.Withdrawal != nil {
		p.Amount = e.Withdrawal.Amount()
	}

	b, err := json.Marshal(Message{Type: MsgEvent, At: e.At, Data: p})
	if err != nil {
		h.log.Error("marshal event", "error", err)
		return
	}
	h.Broadcast(b)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.Send)
	}
}
