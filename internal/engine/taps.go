package engine

import "time"

// tapTracker recognises double taps on touch and pen input. Every pointer
// that goes down while another is already down joins the same tap group, so a
// multi-finger tap counts once, at the first finger's position.
type tapTracker struct {
	window   time.Duration
	maxDist2 float64
	move2    float64

	group *tapGroup
	prev  *tap
}

type tap struct {
	x, y float64
	at   time.Time
}

type tapGroup struct {
	x, y    float64
	starts  map[int][2]float64
	invalid bool
}

func newTapTracker(window time.Duration, maxDist2, move2 float64) *tapTracker {
	return &tapTracker{window: window, maxDist2: maxDist2, move2: move2}
}

// down registers a pointer. A group whose first pointer lands on a point can
// never become an add.
func (t *tapTracker) down(pointerID int, x, y float64, onPoint bool) {
	if t.group == nil {
		t.group = &tapGroup{x: x, y: y, starts: make(map[int][2]float64), invalid: onPoint}
	}
	t.group.starts[pointerID] = [2]float64{x, y}
}

// move invalidates the group once any member travels past the drag threshold.
func (t *tapTracker) move(pointerID int, x, y float64) {
	if t.group == nil {
		return
	}
	start, ok := t.group.starts[pointerID]
	if !ok {
		return
	}
	dx, dy := x-start[0], y-start[1]
	if dx*dx+dy*dy >= t.move2 {
		t.group.invalid = true
	}
}

func (t *tapTracker) cancel(pointerID int) {
	if t.group == nil {
		return
	}
	t.group.invalid = true
	t.forget(pointerID)
}

// up closes the group when its last pointer lifts. It returns the completed
// tap and whether it finished a double tap; a double tap resets the tracker.
func (t *tapTracker) up(pointerID int, now time.Time) (tap, bool) {
	if t.group == nil {
		return tap{}, false
	}
	if _, ok := t.group.starts[pointerID]; !ok {
		return tap{}, false
	}
	g := t.group
	t.forget(pointerID)
	if t.group != nil {
		return tap{}, false
	}
	if g.invalid {
		t.prev = nil
		return tap{}, false
	}

	cur := tap{x: g.x, y: g.y, at: now}
	if p := t.prev; p != nil && now.Sub(p.at) <= t.window {
		dx, dy := cur.x-p.x, cur.y-p.y
		if dx*dx+dy*dy <= t.maxDist2 {
			t.prev = nil
			return cur, true
		}
	}
	t.prev = &cur
	return cur, false
}

func (t *tapTracker) forget(pointerID int) {
	delete(t.group.starts, pointerID)
	if len(t.group.starts) == 0 {
		t.group = nil
	}
}
