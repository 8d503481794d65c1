package engine

import (
	"cmp"
	"slices"

	"gonum.org/v1/plot"

	"github.com/pointdash/pointdash/internal/dataset"
)

// DrawCommand is a single drawing operation for the frontend to execute.
// Coordinates are plot-area pixels; the frontend offsets them by the margins.
type DrawCommand struct {
	Op          string        `json:"op"`                    // "grid", "axis", "tick", "label", "line", "marker"
	Key         string        `json:"key,omitempty"`         // point id for markers
	Path        []PathCommand `json:"path,omitempty"`        // for grid, axis, tick, line
	X           float64       `json:"x,omitempty"`           // marker centre or label anchor
	Y           float64       `json:"y,omitempty"`           //
	Radius      float64       `json:"radius,omitempty"`      // marker radius
	Text        string        `json:"text,omitempty"`        // label text
	Anchor      string        `json:"anchor,omitempty"`      // label alignment: "start", "middle", "end"
	Fill        string        `json:"fill,omitempty"`        //
	Stroke      string        `json:"stroke,omitempty"`      //
	StrokeWidth float64       `json:"strokeWidth,omitempty"` //
	Opacity     float64       `json:"opacity,omitempty"`     //
	Highlighted bool          `json:"highlighted,omitempty"` // marker raised above siblings
}

// PathCommand is a single path segment. Format matches Canvas2D: ["M", x, y], ["L", x, y].
type PathCommand []interface{}

const (
	gridColor       = "#e5e7eb"
	axisColor       = "#6b7280"
	labelColor      = "#374151"
	lineColor       = "#6366f1"
	markerFill      = "#4f46e5"
	markerStroke    = "#ffffff"
	highlightFill   = "#f59e0b"
	highlightStroke = "#b45309"

	markerRadius          = 5.0
	highlightRadius       = 8.0
	markerStrokeWidth     = 1.5
	highlightStrokeWidth  = 2.5
	dimmedOpacity         = 0.3
	tickLength            = 6.0
	xLabelOffset          = 18.0
	yLabelOffset          = 9.0
	tickVisibilityEpsilon = 0.5
)

// Render produces a full frame in painter's order (back to front): grid, axes,
// connecting line, markers. It is a pure function of its inputs.
func Render(points []dataset.Point, sx, sy EffectiveScale, highlighted string, inner Rect) []DrawCommand {
	commands := RenderAxes(sx, sy, inner)
	return append(commands, RenderMarks(points, sx, sy, highlighted)...)
}

// RenderAxes draws background grid lines at the major tick positions of the
// visible domain plus both axes with their ticks and labels.
func RenderAxes(sx, sy EffectiveScale, inner Rect) []DrawCommand {
	if inner.IsEmpty() {
		return nil
	}
	w, h := inner.Width, inner.Height

	xTicks := visibleTicks(sx, 0, w)
	yTicks := visibleTicks(sy, h, 0)

	var commands []DrawCommand
	for _, t := range xTicks {
		commands = append(commands, strokeCommand("grid", gridColor, 1, moveTo(t.px, 0), lineTo(t.px, h)))
	}
	for _, t := range yTicks {
		commands = append(commands, strokeCommand("grid", gridColor, 1, moveTo(0, t.px), lineTo(w, t.px)))
	}

	commands = append(commands, strokeCommand("axis", axisColor, 1, moveTo(0, h), lineTo(w, h)))
	for _, t := range xTicks {
		commands = append(commands,
			strokeCommand("tick", axisColor, 1, moveTo(t.px, h), lineTo(t.px, h+tickLength)),
			labelCommand(t.label, t.px, h+xLabelOffset, "middle"),
		)
	}

	commands = append(commands, strokeCommand("axis", axisColor, 1, moveTo(0, 0), lineTo(0, h)))
	for _, t := range yTicks {
		commands = append(commands,
			strokeCommand("tick", axisColor, 1, moveTo(-tickLength, t.px), lineTo(0, t.px)),
			labelCommand(t.label, -yLabelOffset, t.px+4, "end"),
		)
	}
	return commands
}

// RenderMarks draws the polyline through the points sorted by ascending x (ties
// keep their input order) and one marker per point keyed by id. The highlighted
// marker is painted last; all others are dimmed while a highlight exists.
func RenderMarks(points []dataset.Point, sx, sy EffectiveScale, highlighted string) []DrawCommand {
	if len(points) == 0 {
		return nil
	}
	var commands []DrawCommand

	if len(points) > 1 {
		sorted := dataset.Clone(points)
		slices.SortStableFunc(sorted, func(a, b dataset.Point) int {
			return cmp.Compare(a.X, b.X)
		})
		path := make([]PathCommand, len(sorted))
		for i, p := range sorted {
			if i == 0 {
				path[i] = moveTo(sx.Apply(p.X), sy.Apply(p.Y))
			} else {
				path[i] = lineTo(sx.Apply(p.X), sy.Apply(p.Y))
			}
		}
		commands = append(commands, DrawCommand{
			Op:          "line",
			Path:        path,
			Stroke:      lineColor,
			StrokeWidth: 2,
			Opacity:     1,
		})
	}

	hl := -1
	if highlighted != "" {
		hl = dataset.IndexOf(points, highlighted)
	}
	opacity := 1.0
	if hl >= 0 {
		opacity = dimmedOpacity
	}
	for i, p := range points {
		if i == hl {
			continue
		}
		commands = append(commands, DrawCommand{
			Op:          "marker",
			Key:         p.ID,
			X:           sx.Apply(p.X),
			Y:           sy.Apply(p.Y),
			Radius:      markerRadius,
			Fill:        markerFill,
			Stroke:      markerStroke,
			StrokeWidth: markerStrokeWidth,
			Opacity:     opacity,
		})
	}
	if hl >= 0 {
		p := points[hl]
		commands = append(commands, DrawCommand{
			Op:          "marker",
			Key:         p.ID,
			X:           sx.Apply(p.X),
			Y:           sy.Apply(p.Y),
			Radius:      highlightRadius,
			Fill:        highlightFill,
			Stroke:      highlightStroke,
			StrokeWidth: highlightStrokeWidth,
			Opacity:     1,
			Highlighted: true,
		})
	}
	return commands
}

type axisTick struct {
	px    float64
	label string
}

// visibleTicks returns the labelled ticks of the domain shown between screen
// pixels a and b, positioned through the effective scale.
func visibleTicks(e EffectiveScale, a, b float64) []axisTick {
	d := e.Visible(a, b)
	if d.IsDegenerate() {
		return nil
	}
	lo, hi := min(a, b)-tickVisibilityEpsilon, max(a, b)+tickVisibilityEpsilon

	var out []axisTick
	for _, t := range (plot.DefaultTicks{}).Ticks(d.Min, d.Max) {
		if t.IsMinor() {
			continue
		}
		px := e.Apply(t.Value)
		if px < lo || px > hi {
			continue
		}
		out = append(out, axisTick{px: px, label: t.Label})
	}
	return out
}

func moveTo(x, y float64) PathCommand { return PathCommand{"M", x, y} }

func lineTo(x, y float64) PathCommand { return PathCommand{"L", x, y} }

func strokeCommand(op, color string, width float64, path ...PathCommand) DrawCommand {
	return DrawCommand{Op: op, Path: path, Stroke: color, StrokeWidth: width, Opacity: 1}
}

func labelCommand(text string, x, y float64, anchor string) DrawCommand {
	return DrawCommand{Op: "label", Text: text, X: x, Y: y, Anchor: anchor, Fill: labelColor, Opacity: 1}
}
