package board

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/driftboard/driftboard/backend-go/internal/store"
	"github.com/driftboard/driftboard/backend-go/internal/typeid"
)

// Registry keeps live boards in memory, loading them from the store on
// first use and writing dirty boards back.
type Registry struct {
	store store.Store
	opts  Options
	log   *slog.Logger

	mu     sync.Mutex
	boards map[string]*Board

	newBoardID func() string
}

func NewRegistry(s store.Store, opts Options) *Registry {
	opts = opts.withDefaults()
	return &Registry{
		store:      s,
		opts:       opts,
		log:        opts.Logger,
		boards:     make(map[string]*Board),
		newBoardID: typeid.NewBoardID,
	}
}

// Create makes a new board with one empty page and persists it.
func (r *Registry) Create(ctx context.Context, name, passwordHash string) (*Board, store.Board, error) {
	b := New(r.newBoardID(), name, r.opts)

	state, err := json.Marshal(b.Snapshot())
	if err != nil {
		return nil, store.Board{}, fmt.Errorf("marshal board state: %w", err)
	}
	if err := r.store.CreateBoard(ctx, store.Board{
		ID:           b.ID,
		Name:         name,
		PasswordHash: passwordHash,
		State:        state,
	}); err != nil {
		return nil, store.Board{}, fmt.Errorf("create board: %w", err)
	}

	rec, err := r.store.GetBoard(ctx, b.ID)
	if err != nil {
		return nil, store.Board{}, fmt.Errorf("reload board: %w", err)
	}

	r.mu.Lock()
	r.boards[b.ID] = b
	r.mu.Unlock()

	r.log.Info("board created", "board", b.ID)
	return b, rec, nil
}

// Get returns the live board, loading it from the store if needed.
func (r *Registry) Get(ctx context.Context, id string) (*Board, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.boards[id]; ok {
		return b, nil
	}

	rec, err := r.store.GetBoard(ctx, id)
	if err != nil {
		return nil, err
	}

	b := New(rec.ID, rec.Name, r.opts)
	if len(rec.State) > 0 {
		var s State
		if err := json.Unmarshal(rec.State, &s); err != nil {
			return nil, fmt.Errorf("decode board %s: %w", id, err)
		}
		if err := b.Restore(s); err != nil {
			return nil, fmt.Errorf("restore board %s: %w", id, err)
		}
	}
	r.boards[id] = b
	r.log.Debug("board loaded", "board", id, "pages", len(b.Pages()))
	return b, nil
}

// Info returns the stored record of a board, without its state.
func (r *Registry) Info(ctx context.Context, id string) (store.Board, error) {
	rec, err := r.store.GetBoard(ctx, id)
	if err != nil {
		return store.Board{}, err
	}
	rec.State = nil
	return rec, nil
}

// PasswordHash returns the bcrypt hash guarding a board, empty when open.
func (r *Registry) PasswordHash(ctx context.Context, id string) (string, error) {
	rec, err := r.store.GetBoard(ctx, id)
	if err != nil {
		return "", err
	}
	return rec.PasswordHash, nil
}

func (r *Registry) List(ctx context.Context) ([]store.Board, error) {
	return r.store.ListBoards(ctx)
}

// Delete drops the board from memory and the store.
func (r *Registry) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	delete(r.boards, id)
	r.mu.Unlock()

	if err := r.store.DeleteBoard(ctx, id); err != nil {
		return err
	}
	r.log.Info("board deleted", "board", id)
	return nil
}

// Save writes the board if it is dirty. A failed write leaves it dirty.
func (r *Registry) Save(ctx context.Context, b *Board) error {
	s, dirty := b.takeDirty()
	if !dirty {
		return nil
	}

	data, err := json.Marshal(s)
	if err == nil {
		err = r.store.SaveState(ctx, b.ID, s.Name, data)
	}
	if err != nil {
		b.markDirty()
		return fmt.Errorf("save board %s: %w", b.ID, err)
	}
	r.log.Debug("board saved", "board", b.ID, "bytes", len(data))
	return nil
}

// Flush saves every dirty board.
func (r *Registry) Flush(ctx context.Context) error {
	r.mu.Lock()
	boards := make([]*Board, 0, len(r.boards))
	for _, b := range r.boards {
		boards = append(boards, b)
	}
	r.mu.Unlock()

	var errs []error
	for _, b := range boards {
		if err := r.Save(ctx, b); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Run autosaves dirty boards every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := r.Flush(ctx); err != nil {
				r.log.Error("autosave failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
