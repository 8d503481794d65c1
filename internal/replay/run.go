package replay

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/pointdash/pointdash/internal/dataset"
	"github.com/pointdash/pointdash/internal/engine"
)

// Epoch is the fake clock's start time, so traces are reproducible.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Event is one callback fired by the view.
type Event struct {
	Step    int     `json:"step"`
	Kind    string  `json:"kind"`
	PointID string  `json:"pointId,omitempty"`
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
}

func (e Event) String() string {
	switch e.Kind {
	case "hover":
		if e.PointID == "" {
			return fmt.Sprintf("step %d: hover -", e.Step)
		}
		return fmt.Sprintf("step %d: hover %s", e.Step, e.PointID)
	default:
		return fmt.Sprintf("step %d: %s %s (%.4g, %.4g)", e.Step, e.Kind, e.PointID, e.X, e.Y)
	}
}

// Result is the outcome of playing a script.
type Result struct {
	Trace     []Event          `json:"trace"`
	Points    []dataset.Point  `json:"points"`
	Hovered   string           `json:"hovered,omitempty"`
	Selected  []string         `json:"selected,omitempty"`
	Transform engine.Transform `json:"transform"`
	Frame     engine.Frame     `json:"frame"`
}

// Changes returns the kinds of the point-change events in order.
func (r *Result) Changes() []engine.ChangeKind {
	var out []engine.ChangeKind
	for _, e := range r.Trace {
		switch k := engine.ChangeKind(e.Kind); k {
		case engine.ChangeAdd, engine.ChangeMove, engine.ChangeCommit:
			out = append(out, k)
		}
	}
	return out
}

// TraceString renders the trace one event per line.
func (r *Result) TraceString() string {
	var b strings.Builder
	for _, e := range r.Trace {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	return b.String()
}

type player struct {
	now    time.Time
	step   int
	result *Result
	points []dataset.Point
	view   *engine.View
}

// Run plays s against a new view driven by a fake clock. The view acts as its
// own controlled parent: every emitted collection is fed straight back in.
// Added points get ids p1, p2, ...
func Run(s *Script, log *slog.Logger) (*Result, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	p := &player{now: Epoch, result: &Result{}}
	n := 0
	opts := engine.DefaultOptions()
	opts.Clock = func() time.Time { return p.now }
	opts.NewID = func() string {
		n++
		return fmt.Sprintf("p%d", n)
	}
	opts.Logger = log
	if s.Options.ScaleMode != "" {
		opts.ScaleMode = s.Options.ScaleMode
	}
	if s.Options.DomainPaddingPercent != nil {
		opts.DomainPaddingPercent = *s.Options.DomainPaddingPercent
	}
	if s.Options.ZoomMin > 0 || s.Options.ZoomMax > 0 {
		opts.ZoomExtent = engine.ZoomExtent{Min: s.Options.ZoomMin, Max: s.Options.ZoomMax}
	}

	p.view = engine.NewView(opts, engine.Callbacks{
		PointsChanged: p.onPoints,
		Hover:         p.onHover,
		Select:        p.onSelect,
	})
	defer p.view.Close()

	p.points = dataset.SanitizeAll(s.Points)
	p.view.SetViewport(s.Viewport.Width, s.Viewport.Height)
	p.view.SetPoints(p.points)

	for i, st := range s.Steps {
		p.step = i + 1
		p.apply(st)
		p.view.Tick()
	}

	// Let pending live updates and auto-pan finish.
	p.now = p.now.Add(opts.AutoPanDuration + opts.LiveUpdateInterval)
	p.view.Tick()

	p.result.Points = p.view.Points()
	p.result.Hovered = p.view.Hovered()
	p.result.Transform = p.view.Transform()
	p.result.Frame = p.view.Render()
	return p.result, nil
}

func (p *player) apply(st Step) {
	v := p.view
	ptr := engine.PointerEvent{
		PointerID:   st.Pointer,
		PointerType: engine.PointerType(st.Type),
		X:           st.X,
		Y:           st.Y,
	}
	if ptr.PointerType == "" {
		ptr.PointerType = engine.PointerMouse
	}
	if ptr.PointerID == 0 {
		ptr.PointerID = 1
	}

	switch st.Action {
	case ActionDown:
		v.PointerDown(ptr)
	case ActionMove:
		v.PointerMove(ptr)
	case ActionUp:
		v.PointerUp(ptr)
	case ActionCancel:
		v.PointerCancel(ptr)
	case ActionLeave:
		v.PointerLeave(ptr)
	case ActionDblClick:
		v.DoubleClick(ptr)
	case ActionWheel:
		v.Wheel(engine.WheelEvent{X: st.X, Y: st.Y, DeltaY: st.DeltaY})
	case ActionHighlight:
		v.SetHighlighted(st.ID)
	case ActionResize:
		v.SetViewport(st.Width, st.Height)
	case ActionReset:
		v.ResetZoom()
	case ActionWait:
		p.now = p.now.Add(st.Wait)
	}
}

func (p *player) onPoints(points []dataset.Point, change engine.Change) {
	e := Event{Step: p.step, Kind: string(change.Kind), PointID: change.PointID}
	if pt, ok := dataset.Find(points, change.PointID); ok {
		e.X, e.Y = pt.X, pt.Y
	}
	p.result.Trace = append(p.result.Trace, e)

	// Live moves are previews; only adds and commits reach the collection.
	if change.Kind != engine.ChangeMove {
		p.points = points
		p.view.SetPoints(points)
	}
}

func (p *player) onHover(id string) {
	p.result.Trace = append(p.result.Trace, Event{Step: p.step, Kind: "hover", PointID: id})
}

func (p *player) onSelect(pt dataset.Point) {
	p.result.Selected = append(p.result.Selected, pt.ID)
	p.result.Trace = append(p.result.Trace, Event{Step: p.step, Kind: "select", PointID: pt.ID, X: pt.X, Y: pt.Y})
}

// Check compares r against the script's expectations and reports every
// mismatch.
func Check(s *Script, r *Result) error {
	if s.Expect == nil {
		return nil
	}
	exp := s.Expect
	tol := exp.Tolerance
	if tol <= 0 {
		tol = 1e-6
	}

	var errs []error
	if exp.Changes != nil && !equalKinds(exp.Changes, r.Changes()) {
		errs = append(errs, fmt.Errorf("changes: want %v, got %v", exp.Changes, r.Changes()))
	}
	if exp.Points != nil {
		if len(exp.Points) != len(r.Points) {
			errs = append(errs, fmt.Errorf("points: want %d, got %d", len(exp.Points), len(r.Points)))
		}
		for _, want := range exp.Points {
			got, ok := dataset.Find(r.Points, want.ID)
			switch {
			case !ok:
				errs = append(errs, fmt.Errorf("point %s: missing", want.ID))
			case math.Abs(got.X-want.X) > tol || math.Abs(got.Y-want.Y) > tol:
				errs = append(errs, fmt.Errorf("point %s: want (%g, %g), got (%g, %g)", want.ID, want.X, want.Y, got.X, got.Y))
			}
		}
	}
	if exp.Selected != nil && strings.Join(exp.Selected, ",") != strings.Join(r.Selected, ",") {
		errs = append(errs, fmt.Errorf("selected: want %v, got %v", exp.Selected, r.Selected))
	}
	if exp.Hovered != nil && *exp.Hovered != r.Hovered {
		errs = append(errs, fmt.Errorf("hovered: want %q, got %q", *exp.Hovered, r.Hovered))
	}
	return errors.Join(errs...)
}

func equalKinds(a, b []engine.ChangeKind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
