package engine

import (
	"errors"
	"reflect"
	"testing"

	"github.com/driftboard/driftboard/backend-go/internal/document"
)

func rectEl(id string) document.Element {
	el := document.NewRectangle(id, document.Pt(0, 0), document.Style{Color: "#ffffff", LineWidth: 1})
	el.Width, el.Height = 10, 10
	return el
}

func TestHistoryStartsEmpty(t *testing.T) {
	h := NewHistory()
	if h.Len() != 1 || h.Index() != 0 {
		t.Fatalf("new history len=%d index=%d, want 1 and 0", h.Len(), h.Index())
	}
	if h.CanUndo() || h.CanRedo() {
		t.Error("new history can undo or redo")
	}
	if _, ok := h.Undo(); ok {
		t.Error("Undo() on new history reported ok")
	}
	if _, ok := h.Redo(); ok {
		t.Error("Redo() on new history reported ok")
	}
	if got := h.Current(); len(got) != 0 {
		t.Errorf("Current() = %v, want empty", got)
	}
}

func TestHistoryCommitClearsRedo(t *testing.T) {
	h := NewHistory()
	a := []document.Element{rectEl("a")}
	ab := []document.Element{rectEl("a"), rectEl("b")}

	h.Commit(a)
	h.Commit(ab)
	if h.CanRedo() {
		t.Error("CanRedo() after commit = true")
	}

	h.Undo()
	if !h.CanRedo() {
		t.Fatal("CanRedo() after undo = false")
	}

	c := []document.Element{rectEl("a"), rectEl("c")}
	h.Commit(c)
	if h.CanRedo() {
		t.Error("CanRedo() after branching commit = true")
	}
	if h.Len() != 3 {
		t.Errorf("Len() = %d, want 3", h.Len())
	}
	if _, ok := h.Redo(); ok {
		t.Error("old redo branch still reachable")
	}
	if got := h.Current(); got[1].ID != "c" {
		t.Errorf("Current()[1].ID = %q, want c", got[1].ID)
	}
}

func TestHistoryUndoRedoRoundTrip(t *testing.T) {
	h := NewHistory()
	var list []document.Element
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		list = append(list, rectEl(id))
		h.Commit(list)
	}
	final := h.Current()

	for i := 0; i < 5; i++ {
		if _, ok := h.Undo(); !ok {
			t.Fatalf("Undo() %d reported no-op", i)
		}
	}
	if h.CanUndo() {
		t.Error("CanUndo() at start = true")
	}
	for i := 0; i < 5; i++ {
		if _, ok := h.Redo(); !ok {
			t.Fatalf("Redo() %d reported no-op", i)
		}
	}
	if got := h.Current(); !reflect.DeepEqual(got, final) {
		t.Errorf("after round trip Current() = %v, want %v", got, final)
	}
}

func TestHistoryCommitCopiesList(t *testing.T) {
	h := NewHistory()
	list := []document.Element{rectEl("a")}
	h.Commit(list)
	list[0].ID = "mutated"

	if got := h.Current()[0].ID; got != "a" {
		t.Errorf("stored snapshot changed with caller slice: ID = %q", got)
	}
}

func TestRestoreHistory(t *testing.T) {
	valid := [][]document.Element{{}, {rectEl("a")}}
	click := rectEl("tiny")
	click.Width, click.Height = 1, 1

	tests := []struct {
		name      string
		snapshots [][]document.Element
		index     int
		wantErr   bool
	}{
		{"valid", valid, 1, false},
		{"empty", nil, 0, true},
		{"index past end", valid, 2, true},
		{"negative index", valid, -1, true},
		{"non-empty birth", [][]document.Element{{rectEl("a")}}, 0, true},
		{"invalid element", [][]document.Element{{}, {click}}, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := RestoreHistory(tt.snapshots, tt.index)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSnapshot) {
					t.Errorf("RestoreHistory() error = %v, want ErrInvalidSnapshot", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("RestoreHistory() error = %v", err)
			}
			if h.Index() != tt.index || h.Len() != len(tt.snapshots) {
				t.Errorf("restored index=%d len=%d", h.Index(), h.Len())
			}
		})
	}
}
