//go:build js && wasm

package main

import (
	"encoding/json"
	"strings"
	"syscall/js"

	"github.com/pointdash/pointdash/internal/dataset"
	"github.com/pointdash/pointdash/internal/engine"
)

var (
	view *engine.View

	// JS listeners registered with onPointsChanged, onHover and onSelect.
	pointsListener js.Value
	hoverListener  js.Value
	selectListener js.Value
)

func main() {
	view = engine.NewView(engine.DefaultOptions(), engine.Callbacks{
		PointsChanged: emitPoints,
		Hover:         emitHover,
		Select:        emitSelect,
	})

	// Create the engine API object
	pointdashEngine := js.Global().Get("Object").New()

	// --- Props (frontend → engine) ---
	pointdashEngine.Set("setPoints", js.FuncOf(setPoints))
	pointdashEngine.Set("loadSamplePoints", js.FuncOf(loadSamplePoints))
	pointdashEngine.Set("setHighlighted", js.FuncOf(setHighlighted))
	pointdashEngine.Set("setViewport", js.FuncOf(setViewport))
	pointdashEngine.Set("setOptions", js.FuncOf(setOptions))
	pointdashEngine.Set("resetZoom", js.FuncOf(resetZoom))

	// --- Input events ---
	pointdashEngine.Set("pointerDown", js.FuncOf(pointerHandler(view.PointerDown)))
	pointdashEngine.Set("pointerMove", js.FuncOf(pointerHandler(view.PointerMove)))
	pointdashEngine.Set("pointerUp", js.FuncOf(pointerHandler(view.PointerUp)))
	pointdashEngine.Set("pointerCancel", js.FuncOf(pointerHandler(view.PointerCancel)))
	pointdashEngine.Set("pointerLeave", js.FuncOf(pointerHandler(view.PointerLeave)))
	pointdashEngine.Set("doubleClick", js.FuncOf(pointerHandler(view.DoubleClick)))
	pointdashEngine.Set("wheel", js.FuncOf(wheel))
	pointdashEngine.Set("tick", js.FuncOf(tick))

	// --- Callbacks (engine → frontend) ---
	pointdashEngine.Set("onPointsChanged", js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		pointsListener = listener(args)
		return nil
	}))
	pointdashEngine.Set("onHover", js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		hoverListener = listener(args)
		return nil
	}))
	pointdashEngine.Set("onSelect", js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		selectListener = listener(args)
		return nil
	}))

	// --- Queries ---
	pointdashEngine.Set("render", js.FuncOf(render))
	pointdashEngine.Set("needsRender", js.FuncOf(needsRender))
	pointdashEngine.Set("getPoints", js.FuncOf(getPoints))
	pointdashEngine.Set("getTransform", js.FuncOf(getTransform))
	pointdashEngine.Set("dataAt", js.FuncOf(dataAt))
	pointdashEngine.Set("isDragging", js.FuncOf(isDragging))

	// Register on global scope
	js.Global().Set("pointdashEngine", pointdashEngine)

	// Signal that WASM is ready
	js.Global().Set("pointdashWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func errorResult(msg string) js.Value {
	return js.ValueOf(map[string]interface{}{"error": msg})
}

func okResult() js.Value {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func listener(args []js.Value) js.Value {
	if len(args) < 1 || args[0].Type() != js.TypeFunction {
		return js.Undefined()
	}
	return args[0]
}

func toJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(data)
}

// --- Callback bridges ---

func emitPoints(points []dataset.Point, change engine.Change) {
	if pointsListener.Type() != js.TypeFunction {
		return
	}
	pointsListener.Invoke(toJSON(points), toJSON(change))
}

func emitHover(id string) {
	if hoverListener.Type() != js.TypeFunction {
		return
	}
	hoverListener.Invoke(id)
}

func emitSelect(p dataset.Point) {
	if selectListener.Type() != js.TypeFunction {
		return
	}
	selectListener.Invoke(toJSON(p))
}

// --- Prop handlers ---

func setPoints(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("missing points JSON")
	}
	f, err := dataset.Decode(strings.NewReader(args[0].String()), dataset.FormatJSON)
	if err != nil {
		return errorResult(err.Error())
	}
	view.SetPoints(f.Points)
	return okResult()
}

func loadSamplePoints(this js.Value, args []js.Value) interface{} {
	points := dataset.NewSample()
	view.SetPoints(points)
	return js.ValueOf(toJSON(points))
}

func setHighlighted(this js.Value, args []js.Value) interface{} {
	id := ""
	if len(args) > 0 && args[0].Type() == js.TypeString {
		id = args[0].String()
	}
	view.SetHighlighted(id)
	return nil
}

func setViewport(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	view.SetViewport(args[0].Float(), args[1].Float())
	return nil
}

type optionsPayload struct {
	ScaleMode            *engine.ScaleMode  `json:"scaleMode"`
	ZoomExtent           *engine.ZoomExtent `json:"zoomExtent"`
	DomainPaddingPercent *float64           `json:"domainPaddingPercent"`
}

func setOptions(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("missing options JSON")
	}
	var opts optionsPayload
	if err := json.Unmarshal([]byte(args[0].String()), &opts); err != nil {
		return errorResult(err.Error())
	}
	if opts.ScaleMode != nil {
		view.SetScaleMode(*opts.ScaleMode)
	}
	if opts.ZoomExtent != nil {
		view.SetZoomExtent(*opts.ZoomExtent)
	}
	if opts.DomainPaddingPercent != nil {
		view.SetDomainPadding(*opts.DomainPaddingPercent)
	}
	return okResult()
}

func resetZoom(this js.Value, args []js.Value) interface{} {
	view.ResetZoom()
	return nil
}

// --- Input handlers ---

// pointerHandler adapts a view method to a JS function taking the pointer
// event as JSON.
func pointerHandler(fn func(engine.PointerEvent)) func(js.Value, []js.Value) interface{} {
	return func(this js.Value, args []js.Value) interface{} {
		if len(args) < 1 {
			return nil
		}
		var e engine.PointerEvent
		if err := json.Unmarshal([]byte(args[0].String()), &e); err != nil {
			return errorResult(err.Error())
		}
		fn(e)
		return nil
	}
}

func wheel(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	var e engine.WheelEvent
	if err := json.Unmarshal([]byte(args[0].String()), &e); err != nil {
		return errorResult(err.Error())
	}
	view.Wheel(e)
	return nil
}

func tick(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(view.Tick())
}

// --- Query handlers ---

func render(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(toJSON(view.Render()))
}

func needsRender(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(view.NeedsRender())
}

func getPoints(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(toJSON(view.Points()))
}

func getTransform(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(toJSON(view.Transform()))
}

func dataAt(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("null")
	}
	x, y := view.DataAt(args[0].Float(), args[1].Float())
	return js.ValueOf(toJSON(map[string]float64{"x": x, "y": y}))
}

func isDragging(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(view.Dragging())
}
