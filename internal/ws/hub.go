package ws

import (
	"context"
	"sync"

	"job-tracker/internal/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type outbound struct {
	userID  uuid.UUID
	message []byte
}

// Hub tracks open chart channels by user.
type Hub struct {
	clients    map[*Client]bool
	byUser     map[uuid.UUID]map[*Client]bool
	send       chan outbound
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		byUser:     make(map[uuid.UUID]map[*Client]bool),
		send:       make(chan outbound, 1024),
		register:   make(chan *Client, 128),
		unregister: make(chan *Client, 128),
		done:       make(chan struct{}),
		logger:     logger.OrNop(log),
	}
}

// Run serves registrations and user messages until ctx is done, then
// closes every remaining client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			remaining := make([]*Client, 0, len(h.clients))
			for c := range h.clients {
				remaining = append(remaining, c)
			}
			h.clients = make(map[*Client]bool)
			h.byUser = make(map[uuid.UUID]map[*Client]bool)
			h.mutex.Unlock()
			for _, c := range remaining {
				c.Close()
			}
			return

		case client := <-h.register:
			if client == nil {
				continue
			}
			h.mutex.Lock()
			h.clients[client] = true
			set := h.byUser[client.userID]
			if set == nil {
				set = make(map[*Client]bool)
				h.byUser[client.userID] = set
			}
			set[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("ws connected", zap.String("conn_id", client.id), zap.Int("total_clients", total))

		case client := <-h.unregister:
			h.remove(client)

		case out := <-h.send:
			for _, client := range h.userClients(out.userID) {
				if !client.enqueue(out.message) {
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	if client == nil {
		return
	}
	h.mutex.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		if set := h.byUser[client.userID]; set != nil {
			delete(set, client)
			if len(set) == 0 {
				delete(h.byUser, client.userID)
			}
		}
	}
	total := len(h.clients)
	h.mutex.Unlock()
	client.Close()
	h.logger.Info("ws disconnected", zap.String("conn_id", client.id), zap.Int("total_clients", total))
}

func (h *Hub) userClients(userID uuid.UUID) []*Client {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	out := make([]*Client, 0, len(h.byUser[userID]))
	for c := range h.byUser[userID] {
		out = append(out, c)
	}
	return out
}

// Register adds client. After Run has returned the client is closed instead.
func (h *Hub) Register(client *Client) {
	if h == nil {
		return
	}
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

func (h *Hub) Unregister(client *Client) {
	if h == nil {
		return
	}
	select {
	case h.unregister <- client:
	case <-h.done:
		client.Close()
	}
}

// SendToUser queues message for every channel of userID. It never blocks;
// messages beyond the buffer are dropped.
func (h *Hub) SendToUser(userID uuid.UUID, message []byte) {
	if h == nil || message == nil {
		return
	}
	select {
	case h.send <- outbound{userID: userID, message: message}:
	default:
		h.logger.Warn("ws message dropped", zap.String("reason", "buffer_full"))
	}
}

func (h *Hub) ClientCount() int {
	if h == nil {
		return 0
	}
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
