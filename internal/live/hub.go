package live

import (
	"log/slog"
	"sync"

	"github.com/coder/websocket"
)

// Hub tracks the single controlling connection of each board.
type Hub struct {
	mu          sync.Mutex
	controllers map[string]*Client // boardID -> client
	log         *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		controllers: make(map[string]*Client),
		log:         logger,
	}
}

// claim reserves a board for a connection that is being upgraded. It
// fails if the board already has a controller or a pending upgrade.
func (h *Hub) claim(boardID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, taken := h.controllers[boardID]; taken {
		return false
	}
	h.controllers[boardID] = nil
	return true
}

// attach fills a reservation made by claim.
func (h *Hub) attach(c *Client) {
	h.mu.Lock()
	h.controllers[c.BoardID] = c
	h.mu.Unlock()
}

// release drops the reservation or controller of a board.
func (h *Hub) release(boardID string) {
	h.mu.Lock()
	delete(h.controllers, boardID)
	h.mu.Unlock()
}

// Controlled reports whether a board currently has a live controller.
func (h *Hub) Controlled(boardID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.controllers[boardID]
	return ok
}

// Stop disconnects every controller.
func (h *Hub) Stop() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.controllers))
	for _, c := range h.controllers {
		if c != nil {
			clients = append(clients, c)
		}
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
	h.log.Info("live hub stopped", "clients", len(clients))
}
