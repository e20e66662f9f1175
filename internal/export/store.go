package export

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/driftboard/driftboard/backend-go/internal/typeid"
)

// Format is an export file format.
type Format string

const (
	FormatPNG Format = "png"
	FormatPDF Format = "pdf"
)

var (
	ErrUnknownFormat  = errors.New("unknown export format")
	ErrExportNotFound = errors.New("export not found")
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatPNG, FormatPDF:
		return Format(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "image/png"
}

// Stored describes an export written to disk.
type Stored struct {
	ID      string `json:"id"`
	BoardID string `json:"boardId"`
	URL     string `json:"url"`
	Format  Format `json:"format"`
	Size    int64  `json:"size"`
}

// Dir keeps rendered exports on disk, one subdirectory per board, under
// typeid file names.
type Dir struct {
	dir string
}

// NewDir creates a store rooted at dir, creating it if needed.
func NewDir(dir string) *Dir {
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Error("create export dir", "error", err, "dir", dir)
	}
	return &Dir{dir: dir}
}

// Save writes one export of a board produced by render. A failed render
// leaves no file.
func (d *Dir) Save(boardID string, format Format, render func(io.Writer) error) (*Stored, error) {
	if err := typeid.Validate(boardID, typeid.PrefixBoard); err != nil {
		return nil, fmt.Errorf("export owner: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(d.dir, boardID), 0755); err != nil {
		return nil, fmt.Errorf("create board export dir: %w", err)
	}

	id := typeid.NewExportID()
	filename := id + "." + string(format)
	path := filepath.Join(d.dir, boardID, filename)

	out, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create export file: %w", err)
	}

	cw := &countingWriter{w: out}
	err = render(cw)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return nil, err
	}

	return &Stored{
		ID:      id,
		BoardID: boardID,
		URL:     "/exports/" + boardID + "/" + filename,
		Format:  format,
		Size:    cw.n,
	}, nil
}

// Serve returns an http.Handler for stored exports. Export IDs are unique,
// so files are immutable. Only /exports/<boardId>/<exportId>.<format> is
// served; directories are never listed.
func (d *Dir) Serve() http.Handler {
	fs := http.FileServer(http.Dir(d.dir))
	return http.StripPrefix("/exports/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		boardID, file, ok := strings.Cut(r.URL.Path, "/")
		if !ok || typeid.Validate(boardID, typeid.PrefixBoard) != nil {
			http.NotFound(w, r)
			return
		}
		if _, _, err := ParseFileName(file); err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		fs.ServeHTTP(w, r)
	}))
}

// Delete removes an export owned by boardID. Exports of other boards are
// reported as not found.
func (d *Dir) Delete(boardID, id string, format Format) error {
	if err := typeid.Validate(boardID, typeid.PrefixBoard); err != nil {
		return fmt.Errorf("%w: %w", ErrExportNotFound, err)
	}
	if err := typeid.Validate(id, typeid.PrefixExport); err != nil {
		return fmt.Errorf("%w: %w", ErrExportNotFound, err)
	}
	if err := os.Remove(filepath.Join(d.dir, boardID, id+"."+string(format))); err != nil {
		return fmt.Errorf("%w: %s", ErrExportNotFound, id)
	}
	return nil
}

// ParseFileName splits a stored file name such as "exp_01h....png".
func ParseFileName(name string) (id string, format Format, err error) {
	ext := filepath.Ext(name)
	if format, err = ParseFormat(strings.TrimPrefix(ext, ".")); err != nil {
		return "", "", err
	}
	id = strings.TrimSuffix(name, ext)
	if err := typeid.Validate(id, typeid.PrefixExport); err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrExportNotFound, err)
	}
	return id, format, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
