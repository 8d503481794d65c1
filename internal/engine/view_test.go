package engine

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pointdash/pointdash/internal/dataset"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type emission struct {
	points []dataset.Point
	change Change
}

type recorder struct {
	changes  []emission
	hovers   []string
	selected []dataset.Point
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		PointsChanged: func(points []dataset.Point, change Change) {
			r.changes = append(r.changes, emission{points: points, change: change})
		},
		Hover:  func(id string) { r.hovers = append(r.hovers, id) },
		Select: func(p dataset.Point) { r.selected = append(r.selected, p) },
	}
}

func (r *recorder) kinds() []ChangeKind {
	var out []ChangeKind
	for _, e := range r.changes {
		out = append(out, e.change.Kind)
	}
	return out
}

func (r *recorder) last() emission {
	return r.changes[len(r.changes)-1]
}

// newTestView is a 700×500 container (plot area 620×440 at offset 50,20)
// showing two points whose padded domain is [-5,105] on both axes.
func newTestView(t *testing.T) (*View, *recorder, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	rec := &recorder{}
	n := 0

	opts := DefaultOptions()
	opts.Clock = clock.Now
	opts.NewID = func() string {
		n++
		return fmt.Sprintf("new-%d", n)
	}

	v := NewView(opts, rec.callbacks())
	v.SetViewport(700, 500)
	v.SetPoints([]dataset.Point{
		{ID: "lo", X: 0, Y: 0},
		{ID: "hi", X: 100, Y: 100},
	})
	return v, rec, clock
}

// screenOf returns the container pixel of a data point.
func screenOf(v *View, x, y float64) (float64, float64) {
	m := v.Margins()
	return v.ScaleX().Apply(x) + m.Left, v.ScaleY().Apply(y) + m.Top
}

func mouse(x, y float64) PointerEvent {
	return PointerEvent{PointerID: 1, PointerType: PointerMouse, X: x, Y: y}
}

func touch(id int, x, y float64) PointerEvent {
	return PointerEvent{PointerID: id, PointerType: PointerTouch, X: x, Y: y}
}

func TestViewAddThenDragToCorner(t *testing.T) {
	v, rec, _ := newTestView(t)

	dx, dy := v.Domains()
	require.Equal(t, Domain{Min: -5, Max: 105}, dx)
	require.Equal(t, Domain{Min: -5, Max: 105}, dy)

	// Centre of the plot area in container pixels.
	v.DoubleClick(mouse(360, 240))
	require.Equal(t, []ChangeKind{ChangeAdd}, rec.kinds())

	added := rec.last()
	assert.Equal(t, "new-1", added.change.PointID)
	require.Len(t, added.points, 3)
	p := added.points[2]
	assert.Equal(t, "new-1", p.ID)
	assert.InDelta(t, 50, p.X, 1e-9)
	assert.InDelta(t, 50, p.Y, 1e-9)

	v.PointerDown(mouse(360, 240))
	v.PointerMove(mouse(200, 100))
	v.PointerMove(mouse(0, 0))
	v.PointerUp(mouse(0, 0))

	last := rec.last()
	require.Equal(t, ChangeCommit, last.change.Kind)
	require.NotNil(t, last.change.Before)
	assert.InDelta(t, 50, last.change.Before.X, 1e-9)

	moved, ok := dataset.Find(last.points, "new-1")
	require.True(t, ok)
	assert.InDelta(t, dx.Min, moved.X, 1e-9)
	assert.InDelta(t, dy.Max, moved.Y, 1e-9)
}

func TestViewClickSelectsWithoutMoving(t *testing.T) {
	v, rec, _ := newTestView(t)
	x, y := screenOf(v, 100, 100)

	v.PointerDown(mouse(x, y))
	v.PointerMove(mouse(x+2, y))
	v.PointerUp(mouse(x+2, y))

	require.Len(t, rec.selected, 1)
	assert.Equal(t, "hi", rec.selected[0].ID)
	assert.Empty(t, rec.changes)
}

func TestViewDragAboveThresholdMoves(t *testing.T) {
	v, rec, _ := newTestView(t)
	x, y := screenOf(v, 100, 100)

	v.PointerDown(mouse(x, y))
	v.PointerMove(mouse(x-4, y))
	v.PointerUp(mouse(x-4, y))

	assert.Empty(t, rec.selected)
	require.NotEmpty(t, rec.changes)
	assert.Equal(t, ChangeCommit, rec.last().change.Kind)
	moved, _ := dataset.Find(rec.last().points, "hi")
	assert.Less(t, moved.X, 100.0)
	assert.InDelta(t, 100, moved.Y, 1e-9)
}

func TestViewDragWithoutMoveEventsCommitsOnUp(t *testing.T) {
	v, rec, _ := newTestView(t)
	x, y := screenOf(v, 0, 0)

	v.PointerDown(mouse(x, y))
	v.PointerUp(mouse(x+60, y))

	assert.Empty(t, rec.selected)
	require.Equal(t, []ChangeKind{ChangeCommit}, rec.kinds())
}

func TestViewLiveUpdatesAreCoalesced(t *testing.T) {
	v, rec, clock := newTestView(t)
	x, y := screenOf(v, 0, 0)

	v.PointerDown(mouse(x, y))
	v.PointerMove(mouse(x+10, y))
	v.PointerMove(mouse(x+20, y))
	v.PointerMove(mouse(x+30, y))
	assert.Equal(t, []ChangeKind{ChangeMove}, rec.kinds(), "leading update only")

	v.Tick()
	assert.Len(t, rec.changes, 1, "interval not elapsed")

	clock.Advance(DefaultLiveUpdateInterval)
	v.Tick()
	require.Equal(t, []ChangeKind{ChangeMove, ChangeMove}, rec.kinds())
	flushed, _ := dataset.Find(rec.last().points, "lo")
	want, _ := v.DataAt(x+30, y)
	assert.InDelta(t, want, flushed.X, 1e-9)

	v.PointerMove(mouse(x+40, y))
	v.PointerUp(mouse(x+50, y))
	assert.Equal(t, []ChangeKind{ChangeMove, ChangeMove, ChangeCommit}, rec.kinds(), "pending update dropped on commit")

	clock.Advance(time.Second)
	v.Tick()
	assert.Len(t, rec.changes, 3)
}

func TestViewEachDragLeadsWithAnUpdate(t *testing.T) {
	v, rec, _ := newTestView(t)
	lx, ly := screenOf(v, 0, 0)

	v.PointerDown(mouse(lx, ly))
	v.PointerMove(mouse(lx+10, ly))
	v.PointerUp(mouse(lx+10, ly))

	hx, hy := screenOf(v, 100, 100)
	// Same instant: a new drag is not throttled by the previous one.
	v.PointerDown(mouse(hx, hy))
	v.PointerMove(mouse(hx-10, hy))
	assert.Equal(t, []ChangeKind{ChangeMove, ChangeCommit, ChangeMove}, rec.kinds())
	assert.Equal(t, "hi", rec.last().change.PointID)
}

func TestViewDomainHeldDuringDrag(t *testing.T) {
	v, _, _ := newTestView(t)
	x, y := screenOf(v, 0, 0)
	before, _ := v.Domains()

	v.PointerDown(mouse(x, y))
	v.PointerMove(mouse(x+20, y))
	require.True(t, v.Dragging())

	v.SetPoints([]dataset.Point{
		{ID: "lo", X: 0, Y: 0},
		{ID: "hi", X: 100, Y: 100},
		{ID: "far", X: 1000, Y: 1000},
	})
	during, _ := v.Domains()
	assert.Equal(t, before, during)

	v.PointerUp(mouse(x+20, y))
	after, _ := v.Domains()
	assert.Greater(t, after.Max, 1000.0)
}

func TestViewHoverSuppressedWhileDragging(t *testing.T) {
	v, rec, _ := newTestView(t)
	lx, ly := screenOf(v, 0, 0)
	hx, hy := screenOf(v, 100, 100)

	v.PointerMove(mouse(lx, ly))
	v.PointerMove(mouse(lx+100, ly-100))
	assert.Equal(t, []string{"lo", ""}, rec.hovers)

	v.PointerDown(mouse(hx, hy))
	v.PointerMove(mouse(hx-20, hy))
	v.PointerMove(mouse(lx, ly))
	v.PointerMove(PointerEvent{PointerID: 7, PointerType: PointerMouse, X: lx, Y: ly})
	assert.Equal(t, []string{"lo", ""}, rec.hovers)
	assert.Empty(t, v.Hovered())

	v.PointerUp(mouse(lx, ly))
	v.PointerLeave(mouse(-10, -10))
	assert.Empty(t, v.Hovered())
}

func TestViewTwoFingerDoubleTapAddsOnce(t *testing.T) {
	v, rec, clock := newTestView(t)

	for range 2 {
		v.PointerDown(touch(1, 360, 240))
		v.PointerDown(touch(2, 400, 260))
		v.PointerUp(touch(1, 360, 240))
		v.PointerUp(touch(2, 400, 260))
		clock.Advance(120 * time.Millisecond)
	}

	require.Equal(t, []ChangeKind{ChangeAdd}, rec.kinds())
	p, ok := dataset.Find(rec.last().points, "new-1")
	require.True(t, ok)
	assert.InDelta(t, 50, p.X, 1e-9)
	assert.InDelta(t, 50, p.Y, 1e-9)
	assert.Equal(t, Identity(), v.Transform(), "double tap never zooms")
}

func TestViewTouchDoubleClickIgnored(t *testing.T) {
	v, rec, _ := newTestView(t)
	v.DoubleClick(touch(1, 360, 240))
	assert.Empty(t, rec.changes)
}

func TestViewDoubleClickOnPointDoesNotAdd(t *testing.T) {
	v, rec, _ := newTestView(t)
	x, y := screenOf(v, 100, 100)
	v.DoubleClick(mouse(x+3, y-3))
	assert.Empty(t, rec.changes)
}

func TestViewWheelZoomAndBackgroundPan(t *testing.T) {
	v, _, _ := newTestView(t)

	before := v.Points()[0]
	v.Wheel(WheelEvent{X: 360, Y: 240, DeltaY: -500})
	require.InDelta(t, 2, v.Transform().K, 1e-12)

	cx, cy := v.DataAt(360, 240)
	assert.InDelta(t, 50, cx, 1e-9)
	assert.InDelta(t, 50, cy, 1e-9)

	// Drag the background 40px to the right.
	v.PointerDown(mouse(300, 200))
	v.PointerMove(mouse(340, 200))
	v.PointerUp(mouse(340, 200))
	cx, _ = v.DataAt(360, 240)
	assert.Less(t, cx, 50.0)
	assert.Equal(t, before, v.Points()[0], "panning never touches data")
}

func TestViewTwoFingerPinch(t *testing.T) {
	v, rec, _ := newTestView(t)

	// Two background touches 40px apart around the centre, spread to 80px.
	v.PointerDown(touch(1, 340, 240))
	v.PointerDown(touch(2, 380, 240))
	v.PointerMove(touch(1, 320, 240))
	v.PointerMove(touch(2, 400, 240))

	assert.InDelta(t, 2, v.Transform().K, 1e-9)
	cx, cy := v.DataAt(360, 240)
	assert.InDelta(t, 50, cx, 1e-9)
	assert.InDelta(t, 50, cy, 1e-9)

	v.PointerUp(touch(1, 320, 240))
	v.PointerUp(touch(2, 400, 240))
	assert.Empty(t, rec.changes)
	assert.Nil(t, v.pinch)
}

func TestViewPinchHandsOffToNextFinger(t *testing.T) {
	v, rec, _ := newTestView(t)

	v.PointerDown(touch(1, 340, 240))
	v.PointerDown(touch(2, 380, 240))
	v.PointerMove(touch(1, 320, 240))
	v.PointerMove(touch(2, 400, 240))
	require.InDelta(t, 2, v.Transform().K, 1e-9)

	// Lifting one finger ends the pinch; finger 2 alone would pan.
	v.PointerUp(touch(1, 320, 240))
	assert.Nil(t, v.pinch)

	// A third finger pairs with the one still down.
	v.PointerDown(touch(3, 440, 240))
	require.NotNil(t, v.pinch)
	assert.Equal(t, 2, v.pinch.a)
	assert.Equal(t, 3, v.pinch.b)

	ax, ay := v.DataAt(420, 240)
	v.PointerMove(touch(3, 480, 240))

	assert.InDelta(t, 4, v.Transform().K, 1e-9)
	// The old midpoint's data follows the midpoint from 420 to 440.
	nx, ny := v.DataAt(440, 240)
	assert.InDelta(t, ax, nx, 1e-9)
	assert.InDelta(t, ay, ny, 1e-9)

	v.PointerUp(touch(2, 400, 240))
	v.PointerUp(touch(3, 480, 240))
	assert.Empty(t, rec.changes)
}

func TestViewResizeKeepsCentre(t *testing.T) {
	v, _, _ := newTestView(t)
	v.Wheel(WheelEvent{X: 200, Y: 150, DeltaY: -500})
	cx, cy := v.DataAt(360, 240)

	v.SetViewport(900, 600)
	assert.Equal(t, Rect{Width: 820, Height: 540}, v.Inner())
	assert.InDelta(t, 2, v.Transform().K, 1e-12)

	nx, ny := v.DataAt(50+410, 20+270)
	assert.InDelta(t, cx, nx, 1e-6)
	assert.InDelta(t, cy, ny, 1e-6)
}

func TestViewSanitizesPoints(t *testing.T) {
	v, _, _ := newTestView(t)
	v.SetPoints([]dataset.Point{{ID: "bad", X: math.NaN(), Y: math.Inf(1)}})

	assert.Equal(t, []dataset.Point{{ID: "bad", X: 0, Y: 0}}, v.Points())
	dx, _ := v.Domains()
	assert.Equal(t, Domain{Min: -1, Max: 1}, dx)
	assert.NotEmpty(t, v.Render().Commands)
}

func TestViewEmptyViewport(t *testing.T) {
	rec := &recorder{}
	v := NewView(DefaultOptions(), rec.callbacks())
	v.SetPoints(dataset.NewSample())

	v.DoubleClick(mouse(10, 10))
	assert.Empty(t, rec.changes)
	assert.Empty(t, RenderAxes(v.ScaleX(), v.ScaleY(), v.Inner()))
}

func TestViewCancelDropsDrag(t *testing.T) {
	v, rec, clock := newTestView(t)
	x, y := screenOf(v, 0, 0)

	v.PointerDown(mouse(x, y))
	v.PointerMove(mouse(x+30, y))
	v.PointerMove(mouse(x+40, y))
	v.PointerCancel(mouse(x+40, y))

	assert.False(t, v.Dragging())
	assert.Equal(t, []ChangeKind{ChangeMove}, rec.kinds())
	assert.Equal(t, dataset.Point{ID: "lo"}, v.Points()[0], "overlay dropped")

	clock.Advance(time.Second)
	v.Tick()
	assert.Len(t, rec.changes, 1, "pending live update cancelled")
}

func TestViewExternalRemovalAbortsDrag(t *testing.T) {
	v, rec, _ := newTestView(t)
	x, y := screenOf(v, 0, 0)

	v.PointerDown(mouse(x, y))
	v.PointerMove(mouse(x+30, y))
	n := len(rec.changes)

	v.SetPoints([]dataset.Point{{ID: "hi", X: 100, Y: 100}})
	assert.False(t, v.Dragging())
	v.PointerUp(mouse(x+40, y))
	assert.Len(t, rec.changes, n)
}

func TestViewClosedIgnoresInput(t *testing.T) {
	v, rec, _ := newTestView(t)
	v.Close()
	v.DoubleClick(mouse(360, 240))
	v.Wheel(WheelEvent{X: 360, Y: 240, DeltaY: -500})
	assert.Empty(t, rec.changes)
	assert.Equal(t, Identity(), v.Transform())
	assert.False(t, v.Tick())
}

func TestViewRenderFrame(t *testing.T) {
	v, _, _ := newTestView(t)
	v.SetHighlighted("hi")

	require.True(t, v.NeedsRender())
	f := v.Render()
	assert.False(t, v.NeedsRender())

	assert.Equal(t, ScaleLinear, f.ScaleX)
	assert.Equal(t, "hi", f.Highlighted)
	assert.Equal(t, []string{"lo", "hi"}, f.Markers.Enter)

	f = v.Render()
	assert.Empty(t, f.Markers.Enter)
	assert.Equal(t, []string{"lo", "hi"}, f.Markers.Update)
}

func TestViewSymlogOverride(t *testing.T) {
	v, _, _ := newTestView(t)
	v.SetPoints([]dataset.Point{{ID: "a", X: -10, Y: 0}, {ID: "b", X: 5e6, Y: 1}})
	assert.Equal(t, ScaleSymlog, v.Render().ScaleX)
	assert.Equal(t, ScaleLinear, v.Render().ScaleY)

	v.SetScaleMode(ScaleLinear)
	assert.Equal(t, ScaleLinear, v.Render().ScaleX)
}
