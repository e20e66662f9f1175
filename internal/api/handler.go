package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/driftboard/driftboard/backend-go/internal/auth"
	"github.com/driftboard/driftboard/backend-go/internal/board"
	"github.com/driftboard/driftboard/backend-go/internal/document"
	"github.com/driftboard/driftboard/backend-go/internal/engine"
	"github.com/driftboard/driftboard/backend-go/internal/export"
	"github.com/driftboard/driftboard/backend-go/internal/store"
)

// maxInputBatch bounds the events accepted by one input request.
const maxInputBatch = 512

// ErrBoardControlled is returned when a live session holds the board.
var ErrBoardControlled = errors.New("board is controlled by a live session")

// Controllers reports boards held by a live session. While held, REST
// requests that drive the engine are refused.
type Controllers interface {
	Controlled(boardID string) bool
}

type Handler struct {
	boards  *board.Registry
	auth    *auth.Service
	exports *export.Dir
	live    Controllers
	log     *slog.Logger
}

// NewHandler creates the REST handler. live may be nil when no live
// sessions are served.
func NewHandler(boards *board.Registry, authService *auth.Service, exports *export.Dir, live Controllers, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{boards: boards, auth: authService, exports: exports, live: live, log: logger}
}

type createBoardRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type createBoardResponse struct {
	Board store.Board `json:"board"`
	Token string      `json:"token"`
}

type boardResponse struct {
	store.Board
	Protected  bool             `json:"protected"`
	ActivePage string           `json:"activePage"`
	Pages      []board.PageInfo `json:"pages"`
}

type renameRequest struct {
	Name string `json:"name"`
}

type pagesResponse struct {
	ActivePage string           `json:"activePage"`
	Pages      []board.PageInfo `json:"pages"`
}

type inputRequest struct {
	Events []engine.InputEvent `json:"events"`
}

type inputResponse struct {
	PageID   string        `json:"pageId"`
	Consumed []bool        `json:"consumed"`
	Status   engine.Status `json:"status"`
}

type commandResponse struct {
	PageID string `json:"pageId"`
	engine.CommandResult
}

type textRequest struct {
	Text string `json:"text"`
}

type createExportRequest struct {
	PageID string `json:"pageId"`
	Format string `json:"format"`
}

// --- Boards ---

func (h *Handler) CreateBoard(w http.ResponseWriter, r *http.Request) {
	var req createBoardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	hash, err := h.auth.HashPassword(req.Password)
	if err != nil {
		h.log.Error("hash password failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	_, rec, err := h.boards.Create(r.Context(), req.Name, hash)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	token, err := h.auth.IssueToken(rec.ID)
	if err != nil {
		h.log.Error("issue token failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusCreated, createBoardResponse{Board: rec, Token: token})
}

func (h *Handler) ListBoards(w http.ResponseWriter, r *http.Request) {
	boards, err := h.boards.List(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, boards)
}

func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	boardID := mux.Vars(r)["boardId"]

	rec, err := h.boards.Info(r.Context(), boardID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	b, err := h.boards.Get(r.Context(), boardID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	rec.Name = b.Name()
	writeJSON(w, http.StatusOK, boardResponse{
		Board:      rec,
		Protected:  rec.Protected(),
		ActivePage: b.Active().ID,
		Pages:      b.Pages(),
	})
}

func (h *Handler) RenameBoard(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	b, ok := h.board(w, r)
	if !ok {
		return
	}
	b.Rename(req.Name)
	writeJSON(w, http.StatusOK, map[string]string{"id": b.ID, "name": b.Name()})
}

func (h *Handler) DeleteBoard(w http.ResponseWriter, r *http.Request) {
	boardID := mux.Vars(r)["boardId"]

	if err := h.boards.Delete(r.Context(), boardID); err != nil {
		h.handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Pages ---

func (h *Handler) AddPage(w http.ResponseWriter, r *http.Request) {
	b, ok := h.board(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, b.AddPage())
}

func (h *Handler) RenamePage(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	b, ok := h.board(w, r)
	if !ok {
		return
	}
	if err := b.RenamePage(mux.Vars(r)["pageId"], req.Name); err != nil {
		h.handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pages(b))
}

func (h *Handler) DeletePage(w http.ResponseWriter, r *http.Request) {
	b, ok := h.board(w, r)
	if !ok {
		return
	}
	if err := b.RemovePage(mux.Vars(r)["pageId"]); err != nil {
		h.handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pages(b))
}

func (h *Handler) ActivatePage(w http.ResponseWriter, r *http.Request) {
	b, ok := h.board(w, r)
	if !ok {
		return
	}
	if err := b.SwitchPage(mux.Vars(r)["pageId"]); err != nil {
		h.handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pages(b))
}

func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	b, ok := h.board(w, r)
	if !ok {
		return
	}

	var snap engine.Snapshot
	err := b.ReadPage(mux.Vars(r)["pageId"], func(e *engine.Engine) error {
		snap = e.Snapshot()
		return nil
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) PutSnapshot(w http.ResponseWriter, r *http.Request) {
	var snap engine.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	b, ok := h.drivenBoard(w, r)
	if !ok {
		return
	}

	var status engine.Status
	err := b.UpdatePage(mux.Vars(r)["pageId"], func(e *engine.Engine) error {
		if err := e.LoadSnapshot(snap); err != nil {
			return err
		}
		status = e.Status()
		return nil
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// --- Engine ---

// Input feeds a batch of events to the active page, in order. A failing
// event stops the batch; events before it stay applied.
func (h *Handler) Input(w http.ResponseWriter, r *http.Request) {
	var req inputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(req.Events) > maxInputBatch {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "too many events"})
		return
	}

	b, ok := h.drivenBoard(w, r)
	if !ok {
		return
	}

	resp := inputResponse{Consumed: make([]bool, 0, len(req.Events))}
	var inputErr error
	b.Update(func(pageID string, e *engine.Engine) error {
		resp.PageID = pageID
		for _, ev := range req.Events {
			consumed, err := e.Dispatch(ev)
			if err != nil {
				inputErr = err
				break
			}
			resp.Consumed = append(resp.Consumed, consumed)
		}
		resp.Status = e.Status()
		return nil
	})
	if inputErr != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": inputErr.Error()})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Command(w http.ResponseWriter, r *http.Request) {
	var cmd engine.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	h.apply(w, r, cmd)
}

func (h *Handler) CommitText(w http.ResponseWriter, r *http.Request) {
	h.commitPending(w, r, engine.CmdCommitText)
}

func (h *Handler) CancelText(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, engine.Command{Name: engine.CmdCancelText})
}

func (h *Handler) CommitSticky(w http.ResponseWriter, r *http.Request) {
	h.commitPending(w, r, engine.CmdCommitSticky)
}

func (h *Handler) CancelSticky(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, engine.Command{Name: engine.CmdCancelSticky})
}

func (h *Handler) commitPending(w http.ResponseWriter, r *http.Request, name string) {
	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	h.apply(w, r, engine.Command{Name: name, Text: req.Text})
}

func (h *Handler) apply(w http.ResponseWriter, r *http.Request, cmd engine.Command) {
	b, ok := h.drivenBoard(w, r)
	if !ok {
		return
	}

	var resp commandResponse
	err := b.Update(func(pageID string, e *engine.Engine) error {
		res, err := e.Apply(cmd)
		if err != nil {
			return err
		}
		resp = commandResponse{PageID: pageID, CommandResult: res}
		return nil
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Exports ---

func (h *Handler) ExportPNG(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, mux.Vars(r)["pageId"], export.FormatPNG)
}

func (h *Handler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, mux.Vars(r)["pageId"], export.FormatPDF)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request, pageID string, format export.Format) {
	b, ok := h.board(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := render(b, pageID, format, &buf); err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// CreateExport renders a page and keeps the file under the export dir.
func (h *Handler) CreateExport(w http.ResponseWriter, r *http.Request) {
	var req createExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	b, ok := h.board(w, r)
	if !ok {
		return
	}
	if req.PageID == "" {
		req.PageID = b.Active().ID
	}

	stored, err := h.exports.Save(b.ID, format, func(out io.Writer) error {
		return render(b, req.PageID, format, out)
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.log.Info("export stored", "board", b.ID, "page", req.PageID, "id", stored.ID, "size", stored.Size)
	writeJSON(w, http.StatusCreated, stored)
}

// DeleteExport removes an export of the board the token is bound to.
func (h *Handler) DeleteExport(w http.ResponseWriter, r *http.Request) {
	id, format, err := export.ParseFileName(mux.Vars(r)["file"])
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	if err := h.exports.Delete(auth.BoardIDFromContext(r.Context()), id, format); err != nil {
		h.handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

func (h *Handler) board(w http.ResponseWriter, r *http.Request) (*board.Board, bool) {
	b, err := h.boards.Get(r.Context(), mux.Vars(r)["boardId"])
	if err != nil {
		h.handleServiceError(w, err)
		return nil, false
	}
	return b, true
}

// drivenBoard loads a board for a request that feeds its engine. Boards
// held by a live session are refused.
func (h *Handler) drivenBoard(w http.ResponseWriter, r *http.Request) (*board.Board, bool) {
	b, ok := h.board(w, r)
	if !ok {
		return nil, false
	}
	if h.live != nil && h.live.Controlled(b.ID) {
		h.handleServiceError(w, ErrBoardControlled)
		return nil, false
	}
	return b, true
}

func render(b *board.Board, pageID string, format export.Format, w io.Writer) error {
	if format == export.FormatPNG {
		return b.ExportPNG(pageID, w)
	}

	var elements []document.Element
	err := b.ReadPage(pageID, func(e *engine.Engine) error {
		elements = e.Elements()
		return nil
	})
	if err != nil {
		return err
	}
	return export.WritePDF(w, elements, export.PDFOptions{Title: b.Name()})
}

func pages(b *board.Board) pagesResponse {
	return pagesResponse{ActivePage: b.Active().ID, Pages: b.Pages()}
}

func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "board not found"})
	case errors.Is(err, board.ErrPageNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "page not found"})
	case errors.Is(err, export.ErrExportNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "export not found"})
	case errors.Is(err, board.ErrLastPage):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, store.ErrDuplicate),
		errors.Is(err, ErrBoardControlled):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, engine.ErrInvalidSnapshot),
		errors.Is(err, engine.ErrInvalidCommand),
		errors.Is(err, export.ErrUnknownFormat):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, engine.ErrExportUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	default:
		h.log.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
