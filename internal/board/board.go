// Package board groups page engines into boards and keeps them persisted.
package board

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/driftboard/driftboard/backend-go/internal/engine"
	"github.com/driftboard/driftboard/backend-go/internal/typeid"
)

var (
	ErrLastPage     = errors.New("cannot remove the last page")
	ErrPageNotFound = errors.New("page not found")
	ErrInvalidState = errors.New("invalid board state")
)

// Options configures boards and the engines of their pages.
type Options struct {
	Logger *slog.Logger

	// Viewport is the screen size engines assume for auto-pan and export.
	Viewport engine.Size

	// Engine is passed to every page engine. Its Logger is replaced by a
	// page-scoped child of Logger.
	Engine engine.Options

	// NewPageID generates page ids.
	NewPageID func() string
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.NewPageID == nil {
		o.NewPageID = typeid.NewPageID
	}
	return o
}

type page struct {
	id     string
	name   string
	engine *engine.Engine
}

// PageInfo describes a page without exposing its engine.
type PageInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Active       bool   `json:"active"`
	ElementCount int    `json:"elementCount"`
}

// State is the persisted form of a board.
type State struct {
	Name       string      `json:"name"`
	ActivePage string      `json:"activePage"`
	Pages      []PageState `json:"pages"`
}

type PageState struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Snapshot engine.Snapshot `json:"snapshot"`
}

// Board is an ordered list of pages with exactly one active. It is safe for
// concurrent use; engine access is serialised through Update and Read.
type Board struct {
	ID string

	mu     sync.Mutex
	name   string
	pages  []*page
	active int
	dirty  bool

	opts Options
	log  *slog.Logger
}

// New creates a board holding a single empty "Page 1".
func New(id, name string, opts Options) *Board {
	opts = opts.withDefaults()
	b := &Board{
		ID:   id,
		name: name,
		opts: opts,
		log:  opts.Logger.With("board", id),
	}
	b.pages = []*page{b.newPage(opts.NewPageID(), "Page 1")}
	return b
}

func (b *Board) newPage(id, name string) *page {
	opts := b.opts.Engine
	opts.Logger = b.log.With("page", id)
	e := engine.NewEngine(opts)
	if vp := b.opts.Viewport; vp.Width > 0 && vp.Height > 0 {
		e.Resize(vp.Width, vp.Height)
	}
	return &page{id: id, name: name, engine: e}
}

// --- Pages ---

func (b *Board) Name() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.name
}

func (b *Board) Rename(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.name = name
	b.dirty = true
}

// Pages lists the pages in tab order.
func (b *Board) Pages() []PageInfo {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]PageInfo, len(b.pages))
	for i, p := range b.pages {
		out[i] = b.infoLocked(i, p)
	}
	return out
}

// Active describes the active page.
func (b *Board) Active() PageInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.infoLocked(b.active, b.pages[b.active])
}

// AddPage appends "Page N", N being the new page count, and activates it.
func (b *Board) AddPage() PageInfo {
	b.mu.Lock()
	defer b.mu.Unlock()

	p := b.newPage(b.opts.NewPageID(), fmt.Sprintf("Page %d", len(b.pages)+1))
	b.pages = append(b.pages, p)
	b.active = len(b.pages) - 1
	b.dirty = true
	b.log.Info("page added", "page", p.id)
	return b.infoLocked(b.active, p)
}

// RemovePage deletes a page. The last page cannot be removed. Removing the
// active page activates its predecessor.
func (b *Board) RemovePage(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	i, err := b.indexLocked(id)
	if err != nil {
		return err
	}
	if len(b.pages) <= 1 {
		return ErrLastPage
	}

	b.pages[i].engine.DetachSurface()
	b.pages = slices.Delete(b.pages, i, i+1)
	switch {
	case b.active == i:
		b.active = max(0, i-1)
	case b.active > i:
		b.active--
	}
	b.dirty = true
	b.log.Info("page removed", "page", id)
	return nil
}

func (b *Board) RenamePage(id, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	i, err := b.indexLocked(id)
	if err != nil {
		return err
	}
	b.pages[i].name = name
	b.dirty = true
	return nil
}

// SwitchPage activates a page. The previous page keeps its state.
func (b *Board) SwitchPage(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	i, err := b.indexLocked(id)
	if err != nil {
		return err
	}
	b.active = i
	b.dirty = true
	return nil
}

// --- Engine access ---

// Update runs fn against the active page's engine and marks the board dirty.
func (b *Board) Update(fn func(pageID string, e *engine.Engine) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	p := b.pages[b.active]
	b.dirty = true
	return fn(p.id, p.engine)
}

// UpdatePage is Update for a specific page.
func (b *Board) UpdatePage(id string, fn func(e *engine.Engine) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	i, err := b.indexLocked(id)
	if err != nil {
		return err
	}
	b.dirty = true
	return fn(b.pages[i].engine)
}

// ReadPage runs fn against a page's engine without marking the board dirty.
// fn must only query the engine.
func (b *Board) ReadPage(id string, fn func(e *engine.Engine) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	i, err := b.indexLocked(id)
	if err != nil {
		return err
	}
	return fn(b.pages[i].engine)
}

// ExportPNG renders a page at the board viewport size and writes it as PNG.
// The surface is attached only for the duration of the export.
func (b *Board) ExportPNG(id string, w io.Writer) error {
	return b.ReadPage(id, func(e *engine.Engine) error {
		vp := b.opts.Viewport
		if vp.Width <= 0 || vp.Height <= 0 {
			return engine.ErrExportUnavailable
		}
		if !e.HasSurface() {
			if err := e.AttachSurface(vp.Width, vp.Height); err != nil {
				return err
			}
			defer e.DetachSurface()
		}
		return e.WritePNG(w)
	})
}

// --- Persistence ---

// Snapshot captures every page verbatim.
func (b *Board) Snapshot() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stateLocked()
}

// takeDirty returns the state and clears the dirty flag if it was set.
func (b *Board) takeDirty() (State, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.dirty {
		return State{}, false
	}
	b.dirty = false
	return b.stateLocked(), true
}

func (b *Board) markDirty() {
	b.mu.Lock()
	b.dirty = true
	b.mu.Unlock()
}

// Dirty reports whether the board changed since it was last saved.
func (b *Board) Dirty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dirty
}

// Restore replaces all pages from s. Nothing changes if any page fails to
// load.
func (b *Board) Restore(s State) error {
	if len(s.Pages) == 0 {
		return fmt.Errorf("%w: no pages", ErrInvalidState)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	pages := make([]*page, 0, len(s.Pages))
	active := 0
	for i, ps := range s.Pages {
		if ps.ID == "" {
			return fmt.Errorf("%w: page %d has no id", ErrInvalidState, i)
		}
		p := b.newPage(ps.ID, ps.Name)
		if err := p.engine.LoadSnapshot(ps.Snapshot); err != nil {
			return fmt.Errorf("%w: page %s: %w", ErrInvalidState, ps.ID, err)
		}
		if ps.ID == s.ActivePage {
			active = i
		}
		pages = append(pages, p)
	}

	for _, p := range b.pages {
		p.engine.DetachSurface()
	}
	if s.Name != "" {
		b.name = s.Name
	}
	b.pages = pages
	b.active = active
	b.dirty = false
	return nil
}

func (b *Board) stateLocked() State {
	s := State{
		Name:       b.name,
		ActivePage: b.pages[b.active].id,
		Pages:      make([]PageState, len(b.pages)),
	}
	for i, p := range b.pages {
		s.Pages[i] = PageState{ID: p.id, Name: p.name, Snapshot: p.engine.Snapshot()}
	}
	return s
}

func (b *Board) indexLocked(id string) (int, error) {
	i := slices.IndexFunc(b.pages, func(p *page) bool { return p.id == id })
	if i < 0 {
		return 0, fmt.Errorf("%w: %s", ErrPageNotFound, id)
	}
	return i, nil
}

func (b *Board) infoLocked(i int, p *page) PageInfo {
	return PageInfo{
		ID:           p.id,
		Name:         p.name,
		Active:       i == b.active,
		ElementCount: p.engine.ElementCount(),
	}
}
