package live

import (
	"context"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/driftboard/driftboard/backend-go/internal/board"
	"github.com/driftboard/driftboard/backend-go/internal/store"
)

type Authorizer interface {
	Authorize(token, boardID string) error
}

type BoardLoader interface {
	Get(ctx context.Context, id string) (*board.Board, error)
}

type Handler struct {
	hub            *Hub
	auth           Authorizer
	boards         BoardLoader
	originPatterns []string
}

// NewHandler serves GET /ws/boards/{boardId}?token=. originPatterns is
// passed to websocket.Accept; nil restricts connections to the same host.
func NewHandler(hub *Hub, auth Authorizer, boards BoardLoader, originPatterns []string) *Handler {
	return &Handler{hub: hub, auth: auth, boards: boards, originPatterns: originPatterns}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	boardID := mux.Vars(r)["boardId"]

	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	if err := h.auth.Authorize(token, boardID); err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	b, err := h.boards.Get(r.Context(), boardID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "board not found", http.StatusNotFound)
			return
		}
		h.hub.log.Error("load board", "error", err, "board", boardID)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if !h.hub.claim(boardID) {
		http.Error(w, "board already has a controller", http.StatusConflict)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.hub.release(boardID)
		h.hub.log.Error("websocket accept", "error", err)
		return
	}

	client := NewClient(h.hub, conn, b, uuid.New().String())
	h.hub.attach(client)
	client.log.Info("controller connected")

	ctx := r.Context()
	client.welcome()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
	client.log.Info("controller disconnected")
}
