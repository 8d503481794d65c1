package engine

import (
	"github.com/pointdash/pointdash/internal/dataset"
)

type pointerState int

const (
	statePotentialDrag pointerState = iota
	stateDragging
	statePanning
)

func (s pointerState) String() string {
	switch s {
	case statePotentialDrag:
		return "potential-drag"
	case stateDragging:
		return "dragging"
	case statePanning:
		return "panning"
	default:
		return "unknown"
	}
}

// pointerSession tracks one active pointer from down to up. Coordinates are
// plot-area pixels.
type pointerSession struct {
	id      int
	ptype   PointerType
	state   pointerState
	pointID string

	startX, startY float64
	lastX, lastY   float64
}

func (s *pointerSession) moved2(x, y float64) float64 {
	dx, dy := x-s.startX, y-s.startY
	return dx*dx + dy*dy
}

type dragState struct {
	pointerID int
	pointID   string
	before    dataset.Point
	x, y      float64
}

// pinchState follows the first two background pointers.
type pinchState struct {
	a, b       int
	dist       float64
	midX, midY float64
}

// PointerDown starts tracking a pointer. On a point it may become a click or a
// drag; on the background it pans, and a second background pointer pinches.
func (v *View) PointerDown(e PointerEvent) {
	if v.closed {
		return
	}
	v.cancelAutoPan()

	px, py := v.toPlot(e.X, e.Y)
	hit := v.hitTest(px, py)

	s := &pointerSession{
		id:      e.PointerID,
		ptype:   e.PointerType,
		startX:  px,
		startY:  py,
		lastX:   px,
		lastY:   py,
		pointID: hit,
		state:   statePanning,
	}
	if hit != "" && v.drag == nil {
		s.state = statePotentialDrag
	}
	if old, ok := v.sessions[e.PointerID]; ok {
		v.endSession(old)
	}
	v.sessions[e.PointerID] = s

	if e.PointerType.tapInput() {
		v.taps.down(e.PointerID, px, py, hit != "")
	}
	if s.state == statePanning {
		v.maybeStartPinch()
	}
	v.log.Debug("pointer down", "pointer", e.PointerID, "type", e.PointerType, "state", s.state, "point", hit)
}

// PointerMove advances the pointer's state machine. A move with no active
// pointer is a hover sample.
func (v *View) PointerMove(e PointerEvent) {
	if v.closed {
		return
	}
	px, py := v.toPlot(e.X, e.Y)

	s, ok := v.sessions[e.PointerID]
	if !ok {
		if v.drag == nil && len(v.sessions) == 0 {
			v.setHover(v.hitTest(px, py))
		}
		return
	}
	if s.ptype.tapInput() {
		v.taps.move(e.PointerID, px, py)
	}

	switch s.state {
	case statePotentialDrag:
		if s.moved2(px, py) >= v.opts.DragThreshold {
			v.beginDrag(s)
			v.dragTo(px, py)
		}
	case stateDragging:
		v.dragTo(px, py)
	case statePanning:
		if v.pinch != nil && (v.pinch.a == s.id || v.pinch.b == s.id) {
			s.lastX, s.lastY = px, py
			v.pinchMove()
			return
		}
		v.applyGesture(PanGesture{DX: px - s.lastX, DY: py - s.lastY})
	}
	s.lastX, s.lastY = px, py
}

// PointerUp ends a pointer. A point press that never crossed the drag
// threshold is a click; a drag commits its final position.
func (v *View) PointerUp(e PointerEvent) {
	if v.closed {
		return
	}
	px, py := v.toPlot(e.X, e.Y)
	s, ok := v.sessions[e.PointerID]
	if !ok {
		return
	}
	delete(v.sessions, e.PointerID)

	switch s.state {
	case statePotentialDrag:
		if s.moved2(px, py) < v.opts.DragThreshold {
			v.selectPoint(s.pointID)
		} else {
			v.beginDrag(s)
			v.commitDrag(px, py)
		}
	case stateDragging:
		v.commitDrag(px, py)
	case statePanning:
		v.endPinch(s.id)
	}

	if s.ptype.tapInput() {
		if t, double := v.taps.up(e.PointerID, v.now()); double {
			v.log.Debug("double tap", "x", t.x, "y", t.y)
			v.addAt(t.x, t.y)
		}
	}
}

// PointerCancel ends a pointer the platform took away. A drag in progress is
// dropped without a commit; live updates already sent stand.
func (v *View) PointerCancel(e PointerEvent) {
	if v.closed {
		return
	}
	s, ok := v.sessions[e.PointerID]
	if !ok {
		return
	}
	delete(v.sessions, e.PointerID)
	v.endSession(s)
	if s.ptype.tapInput() {
		v.taps.cancel(e.PointerID)
	}
}

// PointerLeave clears hover when the pointer leaves the container.
func (v *View) PointerLeave(e PointerEvent) {
	if v.closed {
		return
	}
	if _, ok := v.sessions[e.PointerID]; ok {
		return
	}
	v.setHover("")
}

// DoubleClick adds a point at the event position unless it lands on an
// existing point. Touch and pen input produce adds through double taps
// instead, so platform double-clicks synthesised from them are ignored.
func (v *View) DoubleClick(e PointerEvent) {
	if v.closed || e.PointerType.tapInput() {
		return
	}
	px, py := v.toPlot(e.X, e.Y)
	if v.hitTest(px, py) != "" {
		return
	}
	v.addAt(px, py)
}

// Wheel zooms around the pointer.
func (v *View) Wheel(e WheelEvent) {
	if v.closed {
		return
	}
	px, py := v.toPlot(e.X, e.Y)
	v.applyGesture(WheelGesture{X: px, Y: py, DeltaY: e.DeltaY, Mode: e.DeltaMode})
}

func (v *View) beginDrag(s *pointerSession) {
	p, ok := dataset.Find(v.points, s.pointID)
	if !ok {
		s.state = statePanning
		return
	}
	s.state = stateDragging
	v.drag = &dragState{pointerID: s.id, pointID: p.ID, before: p, x: p.X, y: p.Y}
	v.live.Reset()
	v.setHover("")
	v.log.Debug("drag start", "id", p.ID)
}

func (v *View) dragTo(px, py float64) {
	if v.drag == nil {
		return
	}
	x, y := v.invertClamped(px, py)
	if x == v.drag.x && y == v.drag.y {
		return
	}
	v.drag.x, v.drag.y = x, y
	v.dirty = true
	v.live.Offer(v.now(), dataset.Point{ID: v.drag.pointID, X: x, Y: y})
}

func (v *View) commitDrag(px, py float64) {
	if v.drag == nil {
		return
	}
	v.drag.x, v.drag.y = v.invertClamped(px, py)
	v.finishDrag()
}

// finishDrag emits the committed position and releases the held domain.
func (v *View) finishDrag() {
	d := v.drag
	v.drag = nil
	v.live.Cancel()

	moved := dataset.Point{ID: d.pointID, X: d.x, Y: d.y}
	v.points = dataset.Replace(v.points, moved)
	if v.scalesStale {
		v.log.Debug("releasing held domain", "id", d.pointID)
	}
	v.rebuildScales()

	before := d.before
	v.log.Debug("drag commit", "id", d.pointID, "x", d.x, "y", d.y)
	v.emitPoints(v.points, Change{Kind: ChangeCommit, PointID: d.pointID, Before: &before})
}

// abortDrag drops a drag without emitting anything.
func (v *View) abortDrag() {
	if v.drag == nil {
		return
	}
	if s, ok := v.sessions[v.drag.pointerID]; ok {
		s.state = statePanning
		s.pointID = ""
	}
	v.drag = nil
	v.live.Cancel()
	v.dirty = true
	if v.scalesStale {
		v.rebuildScales()
	}
}

func (v *View) endSession(s *pointerSession) {
	switch s.state {
	case stateDragging:
		if v.drag != nil && v.drag.pointerID == s.id {
			v.log.Debug("drag cancelled", "id", v.drag.pointID)
			v.abortDrag()
		}
	case statePanning:
		v.endPinch(s.id)
	}
}

func (v *View) selectPoint(id string) {
	p, ok := dataset.Find(v.points, id)
	if !ok {
		return
	}
	v.log.Debug("select", "id", id)
	if v.cb.Select != nil {
		v.cb.Select(p)
	}
}

// addAt inverts a plot-area pixel and appends a new point there.
func (v *View) addAt(px, py float64) {
	if v.inner.IsEmpty() {
		return
	}
	x, y := v.invertClamped(px, py)
	p := dataset.Sanitize(dataset.Point{ID: v.opts.NewID(), X: x, Y: y})

	v.points = append(dataset.Clone(v.points), p)
	if v.drag == nil {
		v.rebuildScales()
	} else {
		v.scalesStale = true
	}
	v.dirty = true
	v.log.Debug("add point", "id", p.ID, "x", p.X, "y", p.Y)
	v.emitPoints(v.points, Change{Kind: ChangeAdd, PointID: p.ID})
}

func (v *View) maybeStartPinch() {
	if v.pinch != nil {
		return
	}
	var pair []*pointerSession
	for _, s := range v.sessions {
		if s.state == statePanning {
			pair = append(pair, s)
		}
	}
	if len(pair) < 2 {
		return
	}
	a, b := pair[0], pair[1]
	if a.id > b.id {
		a, b = b, a
	}
	v.pinch = &pinchState{
		a:    a.id,
		b:    b.id,
		dist: hypot(b.lastX-a.lastX, b.lastY-a.lastY),
		midX: (a.lastX + b.lastX) / 2,
		midY: (a.lastY + b.lastY) / 2,
	}
}

func (v *View) pinchMove() {
	a, b := v.sessions[v.pinch.a], v.sessions[v.pinch.b]
	if a == nil || b == nil {
		return
	}
	dist := hypot(b.lastX-a.lastX, b.lastY-a.lastY)
	midX, midY := (a.lastX+b.lastX)/2, (a.lastY+b.lastY)/2

	factor := 1.0
	if v.pinch.dist > 0 && dist > 0 {
		factor = dist / v.pinch.dist
	}
	v.applyGesture(PinchGesture{
		X:      v.pinch.midX,
		Y:      v.pinch.midY,
		Factor: factor,
		DX:     midX - v.pinch.midX,
		DY:     midY - v.pinch.midY,
	})
	v.pinch.dist, v.pinch.midX, v.pinch.midY = dist, midX, midY
}

func (v *View) endPinch(pointerID int) {
	if v.pinch == nil || (v.pinch.a != pointerID && v.pinch.b != pointerID) {
		return
	}
	v.pinch = nil
	v.maybeStartPinch()
}
