// Command render turns a saved page snapshot into a PNG or PDF file.
//
//	render -in page.json -out page.png [-width 1280 -height 800]
//	render -in page.json -out page.pdf [-title "Sprint board"]
//	render -sample -out sample.png
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/driftboard/driftboard/backend-go/internal/document"
	"github.com/driftboard/driftboard/backend-go/internal/engine"
	"github.com/driftboard/driftboard/backend-go/internal/export"
)

func main() {
	in := flag.String("in", "", "page snapshot JSON")
	sample := flag.Bool("sample", false, "render the built-in sample board instead of -in")
	out := flag.String("out", "", "output file; the extension selects png or pdf")
	width := flag.Int("width", 1280, "PNG viewport width")
	height := flag.Int("height", 800, "PNG viewport height")
	title := flag.String("title", "", "PDF document title")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if (*in == "") == !*sample || *out == "" {
		flag.Usage()
		os.Exit(2)
	}

	var snap engine.Snapshot
	var err error
	if *sample {
		snap = sampleSnapshot()
	} else if snap, err = readSnapshot(*in); err != nil {
		slog.Error("render failed", "error", err)
		os.Exit(1)
	}

	if err := run(snap, *out, *width, *height, *title); err != nil {
		slog.Error("render failed", "error", err)
		os.Exit(1)
	}
	slog.Info("rendered", "in", *in, "sample", *sample, "out", *out)
}

func readSnapshot(path string) (engine.Snapshot, error) {
	var snap engine.Snapshot
	data, err := os.ReadFile(path)
	if err != nil {
		return snap, fmt.Errorf("read snapshot: %w", err)
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

// sampleSnapshot holds the sample elements as one undoable step.
func sampleSnapshot() engine.Snapshot {
	snap := engine.EmptySnapshot()
	snap.Elements = document.NewSampleElements()
	snap.History = append(snap.History, document.CloneElements(snap.Elements))
	snap.HistoryIndex = 1
	return snap
}

func run(snap engine.Snapshot, out string, width, height int, title string) error {
	format, err := export.ParseFormat(strings.TrimPrefix(strings.ToLower(filepath.Ext(out)), "."))
	if err != nil {
		return err
	}

	e := engine.NewEngine(engine.Options{Logger: slog.Default()})
	if err := e.LoadSnapshot(snap); err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	switch format {
	case export.FormatPDF:
		err = export.WritePDF(f, e.Elements(), export.PDFOptions{Title: title})
	default:
		if err = e.AttachSurface(width, height); err == nil {
			err = e.WritePNG(f)
			e.DetachSurface()
		}
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(out)
		return err
	}
	return nil
}
