package engine

import (
	"fmt"

	"github.com/driftboard/driftboard/backend-go/internal/document"
)

// History is a linear stack of full element-list snapshots. Snapshot 0 is
// always the empty list; committing after an undo drops the redo branch.
//
// Stored snapshots are never mutated in place, so element point slices may
// be shared between neighbouring snapshots.
type History struct {
	snapshots [][]document.Element
	index     int
}

// NewHistory returns a history holding only the empty birth snapshot.
func NewHistory() *History {
	return &History{snapshots: [][]document.Element{{}}}
}

// Commit truncates any redo tail, appends elements and makes it current.
func (h *History) Commit(elements []document.Element) {
	snap := make([]document.Element, len(elements))
	copy(snap, elements)

	h.snapshots = append(h.snapshots[:h.index+1:h.index+1], snap)
	h.index++
}

// Undo steps back one snapshot. ok is false at the start of history.
func (h *History) Undo() (elements []document.Element, ok bool) {
	if !h.CanUndo() {
		return nil, false
	}
	h.index--
	return h.Current(), true
}

// Redo steps forward one snapshot. ok is false at the tail.
func (h *History) Redo() (elements []document.Element, ok bool) {
	if !h.CanRedo() {
		return nil, false
	}
	h.index++
	return h.Current(), true
}

func (h *History) CanUndo() bool { return h.index > 0 }
func (h *History) CanRedo() bool { return h.index < len(h.snapshots)-1 }

func (h *History) Index() int { return h.index }
func (h *History) Len() int   { return len(h.snapshots) }

// Current returns a copy of the list at the current index.
func (h *History) Current() []document.Element {
	cur := h.snapshots[h.index]
	out := make([]document.Element, len(cur))
	copy(out, cur)
	return out
}

// Snapshots returns deep copies of every stored snapshot.
func (h *History) Snapshots() [][]document.Element {
	out := make([][]document.Element, len(h.snapshots))
	for i, s := range h.snapshots {
		out[i] = document.CloneElements(s)
	}
	return out
}

// RestoreHistory rebuilds a history from persisted snapshots.
func RestoreHistory(snapshots [][]document.Element, index int) (*History, error) {
	if len(snapshots) == 0 {
		return nil, fmt.Errorf("%w: history is empty", ErrInvalidSnapshot)
	}
	if index < 0 || index >= len(snapshots) {
		return nil, fmt.Errorf("%w: history index %d out of range [0,%d)", ErrInvalidSnapshot, index, len(snapshots))
	}
	if len(snapshots[0]) != 0 {
		return nil, fmt.Errorf("%w: first history entry must be empty", ErrInvalidSnapshot)
	}
	for i, snap := range snapshots {
		for _, el := range snap {
			if !el.Valid() {
				return nil, fmt.Errorf("%w: history entry %d holds invalid %s element %q", ErrInvalidSnapshot, i, el.Type, el.ID)
			}
		}
	}

	h := &History{snapshots: make([][]document.Element, len(snapshots)), index: index}
	for i, s := range snapshots {
		h.snapshots[i] = document.CloneElements(s)
	}
	return h, nil
}
