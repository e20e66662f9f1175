package engine

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/gogpu/gg"
)

const pngDataURLPrefix = "data:image/png;base64,"

// WritePNG composites the current frame over an opaque background on an
// offscreen surface of the same size and encodes it as PNG.
func (e *Engine) WritePNG(w io.Writer) error {
	if e.surface == nil {
		return ErrExportUnavailable
	}
	e.redraw()

	frame := e.surface.Image()
	b := frame.Bounds()
	out := gg.NewContext(b.Dx(), b.Dy())
	defer out.Close()

	out.ClearWithColor(backgroundColor)
	out.DrawImage(gg.ImageBufFromImage(frame), 0, 0)
	if err := out.EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// ExportImage returns the current frame as a PNG data URL.
func (e *Engine) ExportImage() (string, error) {
	var buf bytes.Buffer
	if err := e.WritePNG(&buf); err != nil {
		return "", err
	}
	return pngDataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeDataURL extracts the PNG bytes from a data URL made by ExportImage.
func DecodeDataURL(url string) ([]byte, error) {
	if len(url) < len(pngDataURLPrefix) || url[:len(pngDataURLPrefix)] != pngDataURLPrefix {
		return nil, fmt.Errorf("not a png data url")
	}
	data, err := base64.StdEncoding.DecodeString(url[len(pngDataURLPrefix):])
	if err != nil {
		return nil, fmt.Errorf("decode data url: %w", err)
	}
	return data, nil
}
