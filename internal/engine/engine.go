package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/driftboard/driftboard/backend-go/internal/document"
	"github.com/driftboard/driftboard/backend-go/internal/typeid"
)

var (
	ErrExportUnavailable = errors.New("export unavailable: no drawing surface attached")
	ErrInvalidSnapshot   = errors.New("invalid snapshot")
	ErrUnknownTool       = errors.New("unknown tool")
)

type Tool string

const (
	ToolSelect    Tool = "select"
	ToolPen       Tool = "pen"
	ToolEraser    Tool = "eraser"
	ToolRectangle Tool = "rectangle"
	ToolCircle    Tool = "circle"
	ToolLine      Tool = "line"
	ToolArrow     Tool = "arrow"
	ToolText      Tool = "text"
	ToolSticky    Tool = "sticky"
)

// Tools lists every tool in toolbar order.
var Tools = []Tool{ToolSelect, ToolPen, ToolEraser, ToolRectangle, ToolCircle, ToolLine, ToolArrow, ToolText, ToolSticky}

// ParseTool converts a tool name into a Tool.
func ParseTool(s string) (Tool, error) {
	for _, t := range Tools {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTool, s)
}

// PromptFunc synchronously asks the user for sticky note text. ok is false
// when the user dismissed the prompt.
type PromptFunc func() (text string, ok bool)

// TextRequest asks the host to show a text input. World is where the text
// element will be anchored, Screen where the widget should appear.
type TextRequest struct {
	World  document.Point `json:"world"`
	Screen document.Point `json:"screen"`
}

// StickyRequest asks the host for sticky note text when no PromptFunc is
// configured. At most one is pending at a time.
type StickyRequest struct {
	World   document.Point `json:"world"`
	Screen  document.Point `json:"screen"`
	BgColor string         `json:"bgColor"`
}

// Options configures an Engine. Zero values select defaults.
type Options struct {
	Logger *slog.Logger

	// NewID generates element ids.
	NewID func() string

	// RandN returns a uniform integer in [0, n). Used for sticky colors.
	RandN func(n int) int

	// Prompt, when set, supplies sticky text synchronously.
	Prompt PromptFunc

	OnTextRequest   func(TextRequest)
	OnStickyRequest func(StickyRequest)
}

// Size is a viewport size in screen pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Snapshot is the complete persistent state of one page.
type Snapshot struct {
	Elements      []document.Element   `json:"elements"`
	History       [][]document.Element `json:"history"`
	HistoryIndex  int                  `json:"historyIndex"`
	ViewTransform ViewTransform        `json:"viewTransform"`
}

// EmptySnapshot is the state of a freshly created page.
func EmptySnapshot() Snapshot {
	return Snapshot{
		Elements:      []document.Element{},
		History:       [][]document.Element{{}},
		ViewTransform: DefaultView(),
	}
}

// Status aggregates the derived, read-only observables a host displays.
type Status struct {
	Tool          Tool           `json:"tool"`
	Color         string         `json:"color"`
	StrokeWidth   float64        `json:"strokeWidth"`
	FillShape     bool           `json:"fillShape"`
	FontSize      float64        `json:"fontSize"`
	ElementCount  int            `json:"elementCount"`
	ZoomPercent   int            `json:"zoomPercent"`
	CanUndo       bool           `json:"canUndo"`
	CanRedo       bool           `json:"canRedo"`
	Gesture       string         `json:"gesture"`
	PendingText   *TextRequest   `json:"pendingText,omitempty"`
	PendingSticky *StickyRequest `json:"pendingSticky,omitempty"`
}

// Engine owns one page: its elements, history, view and tool session.
// It is not safe for concurrent use; hosts serialise calls.
type Engine struct {
	// Document state
	elements []document.Element
	history  *History
	view     ViewTransform

	// Tool settings
	tool        Tool
	color       string
	strokeWidth float64
	fillShape   bool
	fontSize    float64

	session       toolSession
	pendingText   *TextRequest
	pendingSticky *StickyRequest

	viewport Size
	surface  *Surface

	newID    func() string
	randN    func(n int) int
	prompt   PromptFunc
	onText   func(TextRequest)
	onSticky func(StickyRequest)
	log      *slog.Logger
}

// NewEngine creates an engine holding an empty page.
func NewEngine(opts Options) *Engine {
	e := &Engine{
		elements:    []document.Element{},
		history:     NewHistory(),
		view:        DefaultView(),
		tool:        ToolPen,
		color:       document.DefaultColor,
		strokeWidth: document.DefaultStrokeWidth,
		fontSize:    document.DefaultFontSize,
		newID:       opts.NewID,
		randN:       opts.RandN,
		prompt:      opts.Prompt,
		onText:      opts.OnTextRequest,
		onSticky:    opts.OnStickyRequest,
		log:         opts.Logger,
	}
	if e.newID == nil {
		e.newID = typeid.NewElementID
	}
	if e.randN == nil {
		e.randN = rand.IntN
	}
	if e.log == nil {
		e.log = slog.New(slog.DiscardHandler)
	}
	return e
}

// --- Commands ---

// SetTool selects a tool and discards any gesture in progress.
func (e *Engine) SetTool(t Tool) {
	if e.session.state != stateIdle {
		e.session.reset()
		e.redraw()
	}
	e.tool = t
}

func (e *Engine) SetColor(color string) {
	if color != "" {
		e.color = color
	}
}

func (e *Engine) SetStrokeWidth(w float64) {
	if w > 0 {
		e.strokeWidth = w
	}
}

func (e *Engine) SetFillShape(fill bool) { e.fillShape = fill }

func (e *Engine) SetFontSize(size float64) {
	if size > 0 {
		e.fontSize = size
	}
}

// Undo restores the previous snapshot. It reports false at the start of history.
func (e *Engine) Undo() bool {
	elements, ok := e.history.Undo()
	if !ok {
		return false
	}
	e.elements = elements
	e.redraw()
	return true
}

// Redo reapplies the next snapshot. It reports false at the tail of history.
func (e *Engine) Redo() bool {
	elements, ok := e.history.Redo()
	if !ok {
		return false
	}
	e.elements = elements
	e.redraw()
	return true
}

// Clear removes every element as one undoable step.
func (e *Engine) Clear() {
	e.commit([]document.Element{})
}

// CommitText completes a pending text request. Whitespace-only text cancels.
// It reports whether an element was added.
func (e *Engine) CommitText(text string) bool {
	req := e.pendingText
	if req == nil {
		return false
	}
	e.pendingText = nil

	text = trimText(text)
	if text == "" {
		return false
	}

	el := document.NewText(e.newID(), req.World, text, e.style())
	e.commit(append(e.currentElements(), el))
	return true
}

// CancelText drops a pending text request.
func (e *Engine) CancelText() {
	e.pendingText = nil
}

// CommitSticky completes a pending sticky request. Unlike text, an empty note
// is still created.
func (e *Engine) CommitSticky(text string) bool {
	req := e.pendingSticky
	if req == nil {
		return false
	}
	e.pendingSticky = nil

	el := document.NewSticky(e.newID(), req.World, text, req.BgColor)
	e.commit(append(e.currentElements(), el))
	return true
}

// CancelSticky drops a pending sticky request.
func (e *Engine) CancelSticky() {
	e.pendingSticky = nil
}

// LoadSnapshot replaces elements, history, history index and view in one
// step. The tool session and pending requests are discarded.
func (e *Engine) LoadSnapshot(s Snapshot) error {
	h, err := RestoreHistory(s.History, s.HistoryIndex)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	for _, el := range s.Elements {
		if !el.Valid() {
			return fmt.Errorf("load snapshot: %w: invalid %s element %q", ErrInvalidSnapshot, el.Type, el.ID)
		}
	}
	if s.ViewTransform.Scale <= 0 {
		return fmt.Errorf("load snapshot: %w: scale %v must be positive", ErrInvalidSnapshot, s.ViewTransform.Scale)
	}

	e.elements = document.CloneElements(s.Elements)
	e.history = h
	e.view = s.ViewTransform.Normalize()
	e.session.reset()
	e.pendingText = nil
	e.pendingSticky = nil

	e.redraw()
	return nil
}

// SetView replaces the view transform, clamping its scale.
func (e *Engine) SetView(v ViewTransform) {
	if v.Scale <= 0 {
		v.Scale = 1
	}
	e.view = v.Normalize()
	e.redraw()
}

// --- Queries ---

func (e *Engine) Tool() Tool           { return e.tool }
func (e *Engine) Color() string        { return e.color }
func (e *Engine) StrokeWidth() float64 { return e.strokeWidth }
func (e *Engine) FillShape() bool      { return e.fillShape }
func (e *Engine) FontSize() float64    { return e.fontSize }
func (e *Engine) ElementCount() int    { return len(e.elements) }
func (e *Engine) ZoomPercent() int     { return e.view.ZoomPercent() }
func (e *Engine) CanUndo() bool        { return e.history.CanUndo() }
func (e *Engine) CanRedo() bool        { return e.history.CanRedo() }
func (e *Engine) View() ViewTransform  { return e.view }
func (e *Engine) Viewport() Size       { return e.viewport }

// Elements returns a deep copy of the committed element list.
func (e *Engine) Elements() []document.Element {
	return document.CloneElements(e.elements)
}

// Draft returns a copy of the element being drawn, if any.
func (e *Engine) Draft() (document.Element, bool) {
	if e.session.state != stateDrawing {
		return document.Element{}, false
	}
	return e.session.draft.Clone(), true
}

// PendingText returns the outstanding text request, if any.
func (e *Engine) PendingText() (TextRequest, bool) {
	if e.pendingText == nil {
		return TextRequest{}, false
	}
	return *e.pendingText, true
}

// PendingSticky returns the outstanding sticky request, if any.
func (e *Engine) PendingSticky() (StickyRequest, bool) {
	if e.pendingSticky == nil {
		return StickyRequest{}, false
	}
	return *e.pendingSticky, true
}

// Snapshot captures the persistent page state.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Elements:      document.CloneElements(e.elements),
		History:       e.history.Snapshots(),
		HistoryIndex:  e.history.Index(),
		ViewTransform: e.view,
	}
}

func (e *Engine) Status() Status {
	s := Status{
		Tool:         e.tool,
		Color:        e.color,
		StrokeWidth:  e.strokeWidth,
		FillShape:    e.fillShape,
		FontSize:     e.fontSize,
		ElementCount: len(e.elements),
		ZoomPercent:  e.view.ZoomPercent(),
		CanUndo:      e.history.CanUndo(),
		CanRedo:      e.history.CanRedo(),
		Gesture:      e.session.state.String(),
	}
	if e.pendingText != nil {
		req := *e.pendingText
		s.PendingText = &req
	}
	if e.pendingSticky != nil {
		req := *e.pendingSticky
		s.PendingSticky = &req
	}
	return s
}

// HitTest returns the topmost element at a screen point, or "".
func (e *Engine) HitTest(screenX, screenY float64) string {
	return HitTest(e.elements, e.view.ToWorld(document.Pt(screenX, screenY)), 0)
}

// --- internal ---

func (e *Engine) style() document.Style {
	s := document.Style{
		Color:     e.color,
		LineWidth: e.strokeWidth,
		FontSize:  e.fontSize,
	}
	if e.fillShape {
		s.Fill = document.TranslucentFill(e.color)
	}
	return s
}

// currentElements returns a fresh slice holding the committed elements, safe
// to append to.
func (e *Engine) currentElements() []document.Element {
	out := make([]document.Element, len(e.elements), len(e.elements)+1)
	copy(out, e.elements)
	return out
}

// commit makes elements the committed list and records it in history.
func (e *Engine) commit(elements []document.Element) {
	e.elements = elements
	e.history.Commit(elements)
	e.log.Debug("commit", "elements", len(elements), "history", e.history.Len(), "index", e.history.Index())
	e.redraw()
}
