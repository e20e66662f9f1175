package export

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/driftboard/driftboard/backend-go/internal/document"
	"github.com/driftboard/driftboard/backend-go/internal/engine"
	"github.com/driftboard/driftboard/backend-go/internal/typeid"
)

func TestWritePDF(t *testing.T) {
	tests := []struct {
		name     string
		elements []document.Element
	}{
		{"empty page", nil},
		{"every element kind", document.NewSampleElements()},
		{"unicode text", []document.Element{
			document.NewText("t", document.Pt(0, 0), "café\nnaïve", document.Style{Color: "#ffffff", LineWidth: 1, FontSize: 18}),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WritePDF(&buf, tt.elements, PDFOptions{Title: "Page 1"}); err != nil {
				t.Fatalf("WritePDF() error = %v", err)
			}
			if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
				t.Errorf("output does not start with a PDF header: %q", buf.Bytes()[:min(8, buf.Len())])
			}
		})
	}
}

func TestFitContent(t *testing.T) {
	page := engine.Rect{Width: 842, Height: 595}

	big := engine.Rect{X: -1000, Y: -500, Width: 4000, Height: 2000}
	m := fitContent(big, page)
	got := m.TransformRect(big)
	if got.X < pdfMargin-1e-6 || got.X+got.Width > page.Width-pdfMargin+1e-6 {
		t.Errorf("fitted content %+v leaves the page margins", got)
	}

	tiny := engine.Rect{X: 10, Y: 10, Width: 5, Height: 5}
	if k := fitContent(tiny, page).ScaleFactor(); k > maxPDFScale+1e-9 {
		t.Errorf("tiny content scale = %v, want at most %v", k, maxPDFScale)
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"png", "pdf"} {
		if f, err := ParseFormat(s); err != nil || string(f) != s {
			t.Errorf("ParseFormat(%q) = %q, %v", s, f, err)
		}
	}
	if _, err := ParseFormat("gif"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("ParseFormat(gif) error = %v, want ErrUnknownFormat", err)
	}
	if FormatPDF.ContentType() != "application/pdf" || FormatPNG.ContentType() != "image/png" {
		t.Error("unexpected content types")
	}
}

func TestDirSaveAndServe(t *testing.T) {
	d := NewDir(t.TempDir())
	boardID := typeid.NewBoardID()

	stored, err := d.Save(boardID, FormatPNG, func(w io.Writer) error {
		_, err := w.Write([]byte("pngdata"))
		return err
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !strings.HasPrefix(stored.ID, "exp_") || stored.Size != 7 || stored.BoardID != boardID ||
		stored.URL != "/exports/"+boardID+"/"+stored.ID+".png" {
		t.Errorf("Save() = %+v", stored)
	}

	rec := httptest.NewRecorder()
	d.Serve().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, stored.URL, nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "pngdata" {
		t.Errorf("Serve() = %d %q", rec.Code, rec.Body.String())
	}
	if cc := rec.Header().Get("Cache-Control"); !strings.Contains(cc, "immutable") {
		t.Errorf("Cache-Control = %q", cc)
	}

	if err := d.Delete(typeid.NewBoardID(), stored.ID, FormatPNG); !errors.Is(err, ErrExportNotFound) {
		t.Errorf("Delete(other board) error = %v, want ErrExportNotFound", err)
	}
	if err := d.Delete(boardID, stored.ID, FormatPNG); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
}

func TestDirServeHidesDirectories(t *testing.T) {
	d := NewDir(t.TempDir())
	boardID := typeid.NewBoardID()
	stored, err := d.Save(boardID, FormatPDF, func(w io.Writer) error {
		_, err := w.Write([]byte("%PDF"))
		return err
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	for _, path := range []string{
		"/exports/",
		"/exports/" + boardID,
		"/exports/" + boardID + "/",
		"/exports/" + stored.ID + ".pdf",
		"/exports/" + boardID + "/../" + boardID + "/" + stored.ID + ".pdf",
	} {
		rec := httptest.NewRecorder()
		d.Serve().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s = %d, want 404", path, rec.Code)
		}
		if strings.Contains(rec.Body.String(), stored.ID) {
			t.Errorf("GET %s lists %s", path, stored.ID)
		}
	}
}

func TestDirSaveRejectsBadOwner(t *testing.T) {
	d := NewDir(t.TempDir())
	for _, owner := range []string{"", "../x", typeid.NewExportID()} {
		if _, err := d.Save(owner, FormatPNG, func(io.Writer) error { return nil }); err == nil {
			t.Errorf("Save(%q) succeeded", owner)
		}
	}
}

func TestDirSaveFailureLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	d := NewDir(dir)

	boom := errors.New("render failed")
	boardID := typeid.NewBoardID()
	_, err := d.Save(boardID, FormatPDF, func(w io.Writer) error {
		w.Write([]byte("partial"))
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Save() error = %v, want render error", err)
	}

	entries, _ := os.ReadDir(filepath.Join(dir, boardID))
	if len(entries) != 0 {
		t.Errorf("dir holds %d files after failed save: %v", len(entries), filepath.Base(entries[0].Name()))
	}
}

func TestDirDeleteRejectsForeignNames(t *testing.T) {
	d := NewDir(t.TempDir())
	boardID := typeid.NewBoardID()

	for _, id := range []string{"../secret", typeid.NewBoardID(), ""} {
		if err := d.Delete(boardID, id, FormatPNG); !errors.Is(err, ErrExportNotFound) {
			t.Errorf("Delete(%q) error = %v, want ErrExportNotFound", id, err)
		}
	}
	if err := d.Delete("..", typeid.NewExportID(), FormatPNG); !errors.Is(err, ErrExportNotFound) {
		t.Errorf("Delete(board \"..\") error = %v, want ErrExportNotFound", err)
	}
}

func TestParseFileName(t *testing.T) {
	id := typeid.NewExportID()
	tests := []struct {
		name    string
		id      string
		format  Format
		wantErr bool
	}{
		{id + ".png", id, FormatPNG, false},
		{id + ".pdf", id, FormatPDF, false},
		{id + ".gif", "", "", true},
		{typeid.NewBoardID() + ".png", "", "", true},
		{"noext", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, format, err := ParseFileName(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFileName() error = %v, wantErr %v", err, tt.wantErr)
			}
			if id != tt.id || format != tt.format {
				t.Errorf("ParseFileName() = %q, %q; want %q, %q", id, format, tt.id, tt.format)
			}
		})
	}
}
