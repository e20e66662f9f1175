//go:build js && wasm

package main

import (
	"encoding/json"
	"image"
	"image/draw"
	"log/slog"
	"os"
	"syscall/js"

	"github.com/driftboard/driftboard/backend-go/internal/engine"
)

var (
	eng *engine.Engine

	onTextRequest   js.Value
	onStickyRequest js.Value
)

func main() {
	eng = engine.NewEngine(engine.Options{
		Logger: slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn})),
		OnTextRequest: func(req engine.TextRequest) {
			notify(onTextRequest, req)
		},
		OnStickyRequest: func(req engine.StickyRequest) {
			notify(onStickyRequest, req)
		},
	})

	// Create the engine API object
	driftboardEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	driftboardEngine.Set("attach", js.FuncOf(attach))
	driftboardEngine.Set("detach", js.FuncOf(detach))
	driftboardEngine.Set("command", js.FuncOf(command))
	driftboardEngine.Set("dispatch", js.FuncOf(dispatch))
	driftboardEngine.Set("loadSnapshot", js.FuncOf(loadSnapshot))
	driftboardEngine.Set("onTextRequest", js.FuncOf(setTextCallback))
	driftboardEngine.Set("onStickyRequest", js.FuncOf(setStickyCallback))

	// --- Queries (frontend ← engine) ---
	driftboardEngine.Set("getStatus", js.FuncOf(getStatus))
	driftboardEngine.Set("getSnapshot", js.FuncOf(getSnapshot))
	driftboardEngine.Set("hitTest", js.FuncOf(hitTest))
	driftboardEngine.Set("exportImage", js.FuncOf(exportImage))
	driftboardEngine.Set("getFrame", js.FuncOf(getFrame))

	// Register on global scope
	js.Global().Set("driftboardEngine", driftboardEngine)

	// Signal that WASM is ready
	js.Global().Set("driftboardWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

// --- Command Handlers ---

func attach(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorResult("missing width and height")
	}
	if err := eng.AttachSurface(args[0].Int(), args[1].Int()); err != nil {
		return errorResult(err.Error())
	}
	return okResult()
}

func detach(this js.Value, args []js.Value) interface{} {
	eng.DetachSurface()
	return okResult()
}

func command(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("missing command JSON")
	}

	cmd, err := engine.ParseCommand([]byte(args[0].String()))
	if err != nil {
		return errorResult(err.Error())
	}
	res, err := eng.Apply(cmd)
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(res)
}

// dispatch takes one input event as JSON and returns whether the host
// should call preventDefault.
func dispatch(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("missing event JSON")
	}

	var ev engine.InputEvent
	if err := json.Unmarshal([]byte(args[0].String()), &ev); err != nil {
		return errorResult("invalid event JSON: " + err.Error())
	}
	consumed, err := eng.Dispatch(ev)
	if err != nil {
		return errorResult(err.Error())
	}
	return js.ValueOf(map[string]interface{}{"consumed": consumed})
}

func loadSnapshot(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("missing snapshot JSON")
	}

	var snap engine.Snapshot
	if err := json.Unmarshal([]byte(args[0].String()), &snap); err != nil {
		return errorResult("invalid snapshot JSON: " + err.Error())
	}
	if err := eng.LoadSnapshot(snap); err != nil {
		return errorResult(err.Error())
	}
	return okResult()
}

func setTextCallback(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		onTextRequest = js.Undefined()
	} else {
		onTextRequest = args[0]
	}
	return okResult()
}

func setStickyCallback(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		onStickyRequest = js.Undefined()
	} else {
		onStickyRequest = args[0]
	}
	return okResult()
}

// --- Query Handlers ---

func getStatus(this js.Value, args []js.Value) interface{} {
	return jsonResult(eng.Status())
}

func getSnapshot(this js.Value, args []js.Value) interface{} {
	return jsonResult(eng.Snapshot())
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.Null()
	}
	id := eng.HitTest(args[0].Float(), args[1].Float())
	if id == "" {
		return js.Null()
	}
	return js.ValueOf(id)
}

func exportImage(this js.Value, args []js.Value) interface{} {
	url, err := eng.ExportImage()
	if err != nil {
		return errorResult(err.Error())
	}
	return js.ValueOf(url)
}

// getFrame returns {width, height, pixels} with pixels as a Uint8ClampedArray
// of RGBA bytes, ready for new ImageData.
func getFrame(this js.Value, args []js.Value) interface{} {
	frame := eng.Frame()
	if frame == nil {
		return js.Null()
	}

	rgba, ok := frame.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(frame.Bounds())
		draw.Draw(rgba, rgba.Bounds(), frame, frame.Bounds().Min, draw.Src)
	}

	pixels := js.Global().Get("Uint8ClampedArray").New(len(rgba.Pix))
	js.CopyBytesToJS(pixels, rgba.Pix)

	b := rgba.Bounds()
	return js.ValueOf(map[string]interface{}{
		"width":  b.Dx(),
		"height": b.Dy(),
		"pixels": pixels,
	})
}

// --- Helpers ---

func notify(fn js.Value, payload interface{}) {
	if fn.Type() != js.TypeFunction {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fn.Invoke(string(data))
}

func jsonResult(v interface{}) interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult(err.Error())
	}
	return js.ValueOf(string(data))
}

func errorResult(msg string) interface{} {
	return js.ValueOf(map[string]interface{}{"error": msg})
}

func okResult() interface{} {
	return js.ValueOf(map[string]interface{}{"ok": true})
}
