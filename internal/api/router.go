package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/driftboard/driftboard/backend-go/internal/auth"
)

// Routes groups the handlers mounted by NewRouter.
type Routes struct {
	API     *Handler
	Auth    *auth.Service
	Tokens  *auth.Handler
	Live    http.Handler
	Exports http.Handler
}

// NewRouter mounts every HTTP route. Middleware is left to the caller.
func NewRouter(rt Routes) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Public board routes
	r.HandleFunc("/boards", rt.API.ListBoards).Methods("GET")
	r.HandleFunc("/boards", rt.API.CreateBoard).Methods("POST")
	r.HandleFunc("/boards/{boardId}/token", rt.Tokens.Token).Methods("POST")

	if rt.Exports != nil {
		r.PathPrefix("/exports/").Handler(rt.Exports).Methods("GET")
	}
	if rt.Live != nil {
		r.Handle("/ws/boards/{boardId}", rt.Live)
	}

	// Protected board routes
	b := r.PathPrefix("/boards/{boardId}").Subrouter()
	b.Use(rt.Auth.BoardMiddleware)

	b.HandleFunc("", rt.API.GetBoard).Methods("GET")
	b.HandleFunc("", rt.API.RenameBoard).Methods("PATCH")
	b.HandleFunc("", rt.API.DeleteBoard).Methods("DELETE")

	b.HandleFunc("/pages", rt.API.AddPage).Methods("POST")
	b.HandleFunc("/pages/{pageId}", rt.API.RenamePage).Methods("PATCH")
	b.HandleFunc("/pages/{pageId}", rt.API.DeletePage).Methods("DELETE")
	b.HandleFunc("/pages/{pageId}/activate", rt.API.ActivatePage).Methods("POST")
	b.HandleFunc("/pages/{pageId}/snapshot", rt.API.GetSnapshot).Methods("GET")
	b.HandleFunc("/pages/{pageId}/snapshot", rt.API.PutSnapshot).Methods("PUT")
	b.HandleFunc("/pages/{pageId}/export.png", rt.API.ExportPNG).Methods("GET")
	b.HandleFunc("/pages/{pageId}/export.pdf", rt.API.ExportPDF).Methods("GET")

	b.HandleFunc("/input", rt.API.Input).Methods("POST")
	b.HandleFunc("/commands", rt.API.Command).Methods("POST")
	b.HandleFunc("/text", rt.API.CommitText).Methods("POST")
	b.HandleFunc("/text", rt.API.CancelText).Methods("DELETE")
	b.HandleFunc("/sticky", rt.API.CommitSticky).Methods("POST")
	b.HandleFunc("/sticky", rt.API.CancelSticky).Methods("DELETE")
	b.HandleFunc("/exports", rt.API.CreateExport).Methods("POST")
	b.HandleFunc("/exports/{file}", rt.API.DeleteExport).Methods("DELETE")

	return r
}
