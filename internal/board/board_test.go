package board

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"reflect"
	"testing"

	"github.com/driftboard/driftboard/backend-go/internal/document"
	"github.com/driftboard/driftboard/backend-go/internal/engine"
)

func testOptions() Options {
	n := 0
	return Options{
		Viewport: engine.Size{Width: 64, Height: 48},
		NewPageID: func() string {
			n++
			return fmt.Sprintf("page_%d", n)
		},
	}
}

func drawRect(e *engine.Engine, x, y float64) {
	e.SetTool(engine.ToolRectangle)
	e.PointerDown(engine.PointerEvent{ClientX: x, ClientY: y})
	e.PointerMove(engine.PointerEvent{ClientX: x + 10, ClientY: y + 10})
	e.PointerUp(engine.PointerEvent{ClientX: x + 10, ClientY: y + 10})
}

func pageIDs(b *Board) []string {
	var ids []string
	for _, p := range b.Pages() {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestNewBoard(t *testing.T) {
	b := New("board_1", "Ideas", testOptions())

	pages := b.Pages()
	if len(pages) != 1 || pages[0].Name != "Page 1" || !pages[0].Active {
		t.Fatalf("Pages() = %+v, want one active Page 1", pages)
	}
	if b.Dirty() {
		t.Error("new board is dirty")
	}
	_ = b.Update(func(_ string, e *engine.Engine) error {
		if e.Viewport() != (engine.Size{Width: 64, Height: 48}) {
			t.Errorf("engine viewport = %+v", e.Viewport())
		}
		return nil
	})
}

func TestAddPage(t *testing.T) {
	b := New("board_1", "Ideas", testOptions())
	p := b.AddPage()

	if p.Name != "Page 2" || !p.Active {
		t.Errorf("AddPage() = %+v, want active Page 2", p)
	}
	if b.Active().ID != p.ID {
		t.Errorf("Active() = %q, want %q", b.Active().ID, p.ID)
	}
	if !b.Dirty() {
		t.Error("AddPage() did not mark board dirty")
	}
}

func TestRemovePage(t *testing.T) {
	tests := []struct {
		name       string
		activate   string
		remove     string
		wantPages  []string
		wantActive string
	}{
		{"active middle page", "page_2", "page_2", []string{"page_1", "page_3"}, "page_1"},
		{"active first page", "page_1", "page_1", []string{"page_2", "page_3"}, "page_2"},
		{"page before active", "page_3", "page_1", []string{"page_2", "page_3"}, "page_3"},
		{"page after active", "page_1", "page_3", []string{"page_1", "page_2"}, "page_1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("board_1", "Ideas", testOptions())
			b.AddPage()
			b.AddPage()
			if err := b.SwitchPage(tt.activate); err != nil {
				t.Fatalf("SwitchPage() error = %v", err)
			}

			if err := b.RemovePage(tt.remove); err != nil {
				t.Fatalf("RemovePage() error = %v", err)
			}
			if got := pageIDs(b); !reflect.DeepEqual(got, tt.wantPages) {
				t.Errorf("pages = %v, want %v", got, tt.wantPages)
			}
			if got := b.Active().ID; got != tt.wantActive {
				t.Errorf("active = %q, want %q", got, tt.wantActive)
			}
		})
	}
}

func TestRemoveLastPage(t *testing.T) {
	b := New("board_1", "Ideas", testOptions())
	if err := b.RemovePage("page_1"); !errors.Is(err, ErrLastPage) {
		t.Errorf("RemovePage() error = %v, want ErrLastPage", err)
	}
	if err := b.RemovePage("page_9"); !errors.Is(err, ErrPageNotFound) {
		t.Errorf("RemovePage(missing) error = %v, want ErrPageNotFound", err)
	}
}

func TestPagesKeepIndependentState(t *testing.T) {
	b := New("board_1", "Ideas", testOptions())
	b.Update(func(_ string, e *engine.Engine) error {
		drawRect(e, 0, 0)
		return nil
	})

	second := b.AddPage()
	b.Update(func(pageID string, e *engine.Engine) error {
		if pageID != second.ID {
			t.Errorf("Update() page = %q, want %q", pageID, second.ID)
		}
		if e.ElementCount() != 0 {
			t.Errorf("new page has %d elements", e.ElementCount())
		}
		return nil
	})

	if err := b.SwitchPage("page_1"); err != nil {
		t.Fatal(err)
	}
	if got := b.Active().ElementCount; got != 1 {
		t.Errorf("first page ElementCount = %d after switching back, want 1", got)
	}
}

func TestRenamePage(t *testing.T) {
	b := New("board_1", "Ideas", testOptions())
	if err := b.RenamePage("page_1", "Overview"); err != nil {
		t.Fatalf("RenamePage() error = %v", err)
	}
	if got := b.Active().Name; got != "Overview" {
		t.Errorf("Name = %q, want Overview", got)
	}
	if err := b.RenamePage("nope", "x"); !errors.Is(err, ErrPageNotFound) {
		t.Errorf("RenamePage(missing) error = %v, want ErrPageNotFound", err)
	}
}

func TestSnapshotRestore(t *testing.T) {
	src := New("board_1", "Ideas", testOptions())
	src.Update(func(_ string, e *engine.Engine) error {
		drawRect(e, 0, 0)
		drawRect(e, 20, 20)
		e.Undo()
		return nil
	})
	src.AddPage()
	src.RenamePage("page_2", "Second")
	src.SwitchPage("page_1")

	state := src.Snapshot()

	dst := New("board_1", "", testOptions())
	if err := dst.Restore(state); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if !reflect.DeepEqual(dst.Snapshot(), state) {
		t.Errorf("Snapshot() after Restore differs:\n got %+v\nwant %+v", dst.Snapshot(), state)
	}
	if dst.Name() != "Ideas" || dst.Active().ID != "page_1" || dst.Dirty() {
		t.Errorf("restored name=%q active=%q dirty=%v", dst.Name(), dst.Active().ID, dst.Dirty())
	}
}

func TestRestoreRejectsBadState(t *testing.T) {
	b := New("board_1", "Ideas", testOptions())
	before := b.Snapshot()

	bad := []State{
		{},
		{Pages: []PageState{{ID: "", Snapshot: engine.EmptySnapshot()}}},
		{Pages: []PageState{
			{ID: "page_a", Snapshot: engine.EmptySnapshot()},
			{ID: "page_b", Snapshot: engine.Snapshot{History: nil, ViewTransform: engine.DefaultView()}},
		}},
	}
	for i, s := range bad {
		if err := b.Restore(s); !errors.Is(err, ErrInvalidState) {
			t.Errorf("case %d: Restore() error = %v, want ErrInvalidState", i, err)
		}
	}
	if !reflect.DeepEqual(b.Snapshot(), before) {
		t.Error("failed Restore() changed the board")
	}
}

func TestExportPNG(t *testing.T) {
	b := New("board_1", "Ideas", testOptions())
	b.Update(func(_ string, e *engine.Engine) error {
		drawRect(e, 5, 5)
		return nil
	})

	var buf bytes.Buffer
	if err := b.ExportPNG("page_1", &buf); err != nil {
		t.Fatalf("ExportPNG() error = %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 48 {
		t.Errorf("export size = %v, want 64x48", img.Bounds())
	}

	b.ReadPage("page_1", func(e *engine.Engine) error {
		if e.HasSurface() {
			t.Error("surface left attached after export")
		}
		return nil
	})
}

func TestExportPNGWithoutViewport(t *testing.T) {
	opts := testOptions()
	opts.Viewport = engine.Size{}
	b := New("board_1", "Ideas", opts)

	if err := b.ExportPNG("page_1", &bytes.Buffer{}); !errors.Is(err, engine.ErrExportUnavailable) {
		t.Errorf("ExportPNG() error = %v, want ErrExportUnavailable", err)
	}
}

func TestDocumentSampleRestores(t *testing.T) {
	elements := document.NewSampleElements()
	snap := engine.Snapshot{
		Elements:      elements,
		History:       [][]document.Element{{}, elements},
		HistoryIndex:  1,
		ViewTransform: engine.DefaultView(),
	}

	b := New("board_1", "Ideas", testOptions())
	err := b.Restore(State{Pages: []PageState{{ID: "page_x", Name: "Sample", Snapshot: snap}}})
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if got := b.Active().ElementCount; got != len(elements) {
		t.Errorf("ElementCount = %d, want %d", got, len(elements))
	}
}
