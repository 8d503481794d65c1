package engine

import (
	"log/slog"
	"math"
	"time"

	"github.com/pointdash/pointdash/internal/dataset"
)

// View is the interactive graph engine for one rendered graph. It is a
// controlled view: the caller owns the point collection and feeds snapshots in
// with SetPoints; the view reports edits through Callbacks. A View is not safe
// for concurrent use; one goroutine (or the browser event loop) owns it.
type View struct {
	opts Options
	cb   Callbacks
	log  *slog.Logger

	// Props
	points      []dataset.Point
	highlighted string
	viewport    Viewport
	inner       Rect

	// Scales and zoom/pan
	baseX, baseY Scale
	transform    Transform
	scalesStale  bool // snapshot changed while a drag held the domain

	// Interaction
	sessions map[int]*pointerSession
	drag     *dragState
	pinch    *pinchState
	hoverID  string
	taps     *tapTracker
	live     *Coalescer[dataset.Point]

	pan     *autoPan
	markers *markerSet

	dirty  bool
	closed bool
}

// Frame is everything a frontend needs to paint one frame.
type Frame struct {
	Viewport    Viewport      `json:"viewport"`
	Margins     Margins       `json:"margins"`
	Transform   Transform     `json:"transform"`
	ScaleX      ScaleMode     `json:"scaleX"`
	ScaleY      ScaleMode     `json:"scaleY"`
	DomainX     Domain        `json:"domainX"`
	DomainY     Domain        `json:"domainY"`
	Highlighted string        `json:"highlighted,omitempty"`
	Commands    []DrawCommand `json:"commands"`
	Markers     MarkerJoin    `json:"markers"`
}

// NewView creates a view with no points and an empty viewport.
func NewView(opts Options, cb Callbacks) *View {
	opts = opts.normalized()
	v := &View{
		opts:      opts,
		cb:        cb,
		log:       opts.Logger,
		transform: Identity(),
		sessions:  make(map[int]*pointerSession),
		taps:      newTapTracker(opts.DoubleTapWindow, opts.DoubleTapDistance, opts.DragThreshold),
		markers:   newMarkerSet(),
		dirty:     true,
	}
	v.live = NewCoalescer(opts.LiveUpdateInterval, v.emitLive)
	v.rebuildScales()
	return v
}

// --- Props (caller → view) ---

// SetPoints replaces the point snapshot. Non-finite coordinates are sanitized.
// While a drag is in progress the domain is held and recomputed when the drag
// ends, so the point under the pointer does not drift.
func (v *View) SetPoints(points []dataset.Point) {
	if v.closed {
		return
	}
	v.points = dataset.SanitizeAll(points)
	v.dirty = true

	if v.drag != nil && dataset.IndexOf(v.points, v.drag.pointID) < 0 {
		v.log.Debug("dragged point removed externally", "id", v.drag.pointID)
		v.abortDrag()
	}
	if v.drag != nil {
		v.scalesStale = true
	} else {
		v.rebuildScales()
	}

	if v.hoverID != "" && dataset.IndexOf(v.points, v.hoverID) < 0 {
		v.setHover("")
	}
}

// SetHighlighted changes the highlighted point and, only on an actual change,
// auto-pans it into view.
func (v *View) SetHighlighted(id string) {
	if v.closed || id == v.highlighted {
		return
	}
	v.highlighted = id
	v.dirty = true
	v.startAutoPan()
}

// SetViewport resizes the container. The zoom level is kept and the
// translation re-derived so the data point at the centre stays centred.
func (v *View) SetViewport(width, height float64) {
	if v.closed {
		return
	}
	if !isFinite(width) || width < 0 {
		width = 0
	}
	if !isFinite(height) || height < 0 {
		height = 0
	}
	next := Viewport{Width: width, Height: height}
	if next == v.viewport {
		return
	}

	hadArea := !v.inner.IsEmpty()
	var cx, cy float64
	if hadArea {
		cx = v.ScaleX().Invert(v.inner.Width / 2)
		cy = v.ScaleY().Invert(v.inner.Height / 2)
	}

	v.viewport = next
	v.inner = next.Inner(v.opts.Margins)
	v.rebuildScales()
	v.pan = nil

	k := v.transform.K
	if hadArea && !v.inner.IsEmpty() {
		v.transform = Transform{
			K: k,
			X: v.inner.Width/2 - k*v.baseX.Apply(cx),
			Y: v.inner.Height/2 - k*v.baseY.Apply(cy),
		}
	}
	v.transform = Constrain(v.transform, v.limits())
	v.dirty = true
}

// SetScaleMode overrides automatic linear/symlog selection. ScaleAuto restores it.
func (v *View) SetScaleMode(mode ScaleMode) {
	v.opts.ScaleMode = mode
	v.opts = v.opts.normalized()
	v.rebuildScales()
}

// SetZoomExtent changes the zoom bounds and re-constrains the transform.
func (v *View) SetZoomExtent(z ZoomExtent) {
	v.opts.ZoomExtent = z
	v.opts = v.opts.normalized()
	v.transform = Constrain(v.transform, v.limits())
	v.dirty = true
}

// SetDomainPadding changes the padding percent applied around the data extent.
func (v *View) SetDomainPadding(percent float64) {
	v.opts.DomainPaddingPercent = percent
	v.opts = v.opts.normalized()
	v.rebuildScales()
}

// SetTransform replaces the zoom/pan transform programmatically. It cancels any
// auto-pan in flight.
func (v *View) SetTransform(t Transform) {
	v.cancelAutoPan()
	v.transform = Constrain(t, v.limits())
	v.dirty = true
}

// ResetZoom returns to the identity transform.
func (v *View) ResetZoom() {
	v.SetTransform(Identity())
}

// --- Queries ---

// Points returns the snapshot as currently displayed, including an in-flight
// drag position.
func (v *View) Points() []dataset.Point {
	return v.displayPoints()
}

func (v *View) Highlighted() string { return v.highlighted }

func (v *View) Hovered() string { return v.hoverID }

func (v *View) Transform() Transform { return v.transform }

func (v *View) Viewport() Viewport { return v.viewport }

// Inner returns the plot rectangle in plot-area coordinates.
func (v *View) Inner() Rect { return v.inner }

func (v *View) Margins() Margins { return v.opts.Margins }

// Domains returns the current padded data domains.
func (v *View) Domains() (Domain, Domain) {
	return v.baseX.Domain(), v.baseY.Domain()
}

// ScaleX returns the effective horizontal scale for this instant.
func (v *View) ScaleX() EffectiveScale {
	return v.transform.RescaleX(v.baseX)
}

// ScaleY returns the effective vertical scale for this instant.
func (v *View) ScaleY() EffectiveScale {
	return v.transform.RescaleY(v.baseY)
}

// DataAt inverts a container pixel (clamped to the plot area) to data space.
func (v *View) DataAt(x, y float64) (float64, float64) {
	return v.invertClamped(v.toPlot(x, y))
}

func (v *View) Dragging() bool { return v.drag != nil }

func (v *View) AutoPanning() bool { return v.pan != nil }

// NeedsRender reports whether anything visible changed since the last Render.
func (v *View) NeedsRender() bool { return v.dirty }

// Render builds the frame for the current state and clears the dirty flag.
func (v *View) Render() Frame {
	points := v.displayPoints()
	f := Frame{
		Viewport:    v.viewport,
		Margins:     v.opts.Margins,
		Transform:   v.transform,
		ScaleX:      v.baseX.Mode(),
		ScaleY:      v.baseY.Mode(),
		DomainX:     v.baseX.Domain(),
		DomainY:     v.baseY.Domain(),
		Highlighted: v.highlighted,
		Commands:    Render(points, v.ScaleX(), v.ScaleY(), v.highlighted, v.inner),
		Markers:     v.markers.join(points),
	}
	v.dirty = false
	return f
}

// Tick is the animation-frame hook: it advances an auto-pan and flushes a
// pending live drag update. It returns whether a render is due.
func (v *View) Tick() bool {
	if v.closed {
		return false
	}
	now := v.opts.Clock()
	if v.pan != nil {
		t, done := v.pan.at(now)
		v.transform = Constrain(t, v.limits())
		if done {
			v.pan = nil
		}
		v.dirty = true
	}
	v.live.Flush(now)
	return v.dirty
}

// Close tears the view down. Pending live updates are dropped and no further
// callbacks fire.
func (v *View) Close() {
	v.live.Cancel()
	v.pan = nil
	v.drag = nil
	v.pinch = nil
	clear(v.sessions)
	v.closed = true
}

// --- internals ---

func (v *View) now() time.Time {
	return v.opts.Clock()
}

func (v *View) limits() Limits {
	return Limits{Width: v.inner.Width, Height: v.inner.Height, Zoom: v.opts.ZoomExtent}
}

func (v *View) rebuildScales() {
	xs := make([]float64, len(v.points))
	ys := make([]float64, len(v.points))
	for i, p := range v.points {
		xs[i], ys[i] = p.X, p.Y
	}
	dx := PaddedDomain(xs, v.opts.DomainPaddingPercent)
	dy := PaddedDomain(ys, v.opts.DomainPaddingPercent)

	v.baseX = BuildScale(dx, 0, v.inner.Width, ResolveMode(dx, v.opts.ScaleMode, v.opts.SymlogThreshold))
	v.baseY = BuildScale(dy, v.inner.Height, 0, ResolveMode(dy, v.opts.ScaleMode, v.opts.SymlogThreshold))
	v.scalesStale = false
	v.dirty = true
}

// toPlot converts container pixels to plot-area pixels.
func (v *View) toPlot(x, y float64) (float64, float64) {
	return x - v.opts.Margins.Left, y - v.opts.Margins.Top
}

// invertClamped clamps a plot-area pixel to the plot rectangle and inverts it
// through the current effective scales.
func (v *View) invertClamped(px, py float64) (float64, float64) {
	cx, cy := v.inner.Clamp(px, py)
	return v.ScaleX().Invert(cx), v.ScaleY().Invert(cy)
}

func (v *View) displayPoints() []dataset.Point {
	if v.drag == nil {
		return v.points
	}
	return dataset.Replace(v.points, dataset.Point{ID: v.drag.pointID, X: v.drag.x, Y: v.drag.y})
}

// hitTest returns the id of the topmost marker within the hit radius of the
// plot-area pixel, or "".
func (v *View) hitTest(px, py float64) string {
	points := v.displayPoints()
	sx, sy := v.ScaleX(), v.ScaleY()
	r2 := v.opts.HitRadius * v.opts.HitRadius

	hit := func(p dataset.Point) bool {
		dx, dy := sx.Apply(p.X)-px, sy.Apply(p.Y)-py
		return dx*dx+dy*dy <= r2
	}

	if v.highlighted != "" {
		if p, ok := dataset.Find(points, v.highlighted); ok && hit(p) {
			return p.ID
		}
	}
	for i := len(points) - 1; i >= 0; i-- {
		if hit(points[i]) {
			return points[i].ID
		}
	}
	return ""
}

func (v *View) setHover(id string) {
	if id == v.hoverID {
		return
	}
	v.hoverID = id
	if v.cb.Hover != nil {
		v.cb.Hover(id)
	}
}

func (v *View) emitPoints(points []dataset.Point, change Change) {
	if v.cb.PointsChanged != nil {
		v.cb.PointsChanged(dataset.Clone(points), change)
	}
}

// emitLive is the coalescer's sink. A value for a point that is no longer
// being dragged is stale and dropped.
func (v *View) emitLive(p dataset.Point) {
	if v.closed || v.drag == nil || v.drag.pointID != p.ID {
		return
	}
	v.emitPoints(dataset.Replace(v.points, p), Change{Kind: ChangeMove, PointID: p.ID})
}

func (v *View) startAutoPan() {
	if v.highlighted == "" || v.inner.IsEmpty() {
		return
	}
	p, ok := dataset.Find(v.displayPoints(), v.highlighted)
	if !ok {
		return
	}
	target, needed := PlanAutoPan(v.transform, v.baseX.Apply(p.X), v.baseY.Apply(p.Y), v.limits(), v.opts.AutoPanPadding)
	if !needed {
		return
	}
	v.log.Debug("auto-pan", "id", p.ID, "from", v.transform, "to", target)
	v.pan = &autoPan{
		from:     v.transform,
		to:       target,
		start:    v.now(),
		duration: v.opts.AutoPanDuration,
		ease:     EaseCubicInOut,
	}
}

func (v *View) cancelAutoPan() {
	if v.pan != nil {
		v.log.Debug("auto-pan cancelled by manual gesture")
		v.pan = nil
	}
}

func (v *View) applyGesture(g Gesture) {
	v.cancelAutoPan()
	next := ApplyGesture(v.transform, g, v.limits())
	if next != v.transform {
		v.transform = next
		v.dirty = true
	}
}

func hypot(dx, dy float64) float64 {
	return math.Sqrt(dx*dx + dy*dy)
}
