package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

// PasswordLookup finds the password hash guarding a board.
type PasswordLookup interface {
	PasswordHash(ctx context.Context, boardID string) (string, error)
}

type Handler struct {
	service *Service
	boards  PasswordLookup
	// notFound reports whether a lookup error means the board does not exist.
	notFound func(error) bool
}

func NewHandler(service *Service, boards PasswordLookup, notFound func(error) bool) *Handler {
	return &Handler{service: service, boards: boards, notFound: notFound}
}

type tokenRequest struct {
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Token handles POST /boards/{boardId}/token.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	boardID := mux.Vars(r)["boardId"]

	var req tokenRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
	}

	hash, err := h.boards.PasswordHash(r.Context(), boardID)
	if err != nil {
		if h.notFound != nil && h.notFound(err) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		slog.Error("lookup board password", "error", err, "board", boardID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	if err := h.service.CheckPassword(hash, req.Password); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	token, err := h.service.IssueToken(boardID)
	if err != nil {
		slog.Error("issue token failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
