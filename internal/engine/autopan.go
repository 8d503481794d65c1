package engine

import "time"

const (
	DefaultAutoPanPadding  = 20.0
	DefaultAutoPanDuration = 300 * time.Millisecond
)

// PlanAutoPan decides whether the point at base-scale pixel (bx, by) needs to
// be brought into view. If its screen position under t lies inside the plot
// rectangle inset by padding it returns (t, false). Otherwise it returns a
// constrained transform with the same k that puts the point at the plot
// centre.
func PlanAutoPan(t Transform, bx, by float64, l Limits, padding float64) (Transform, bool) {
	plotRect := Rect{Width: l.Width, Height: l.Height}
	sx, sy := t.Apply(bx, by)
	if plotRect.Inset(padding).Contains(sx, sy) {
		return t, false
	}
	cx, cy := plotRect.Center()
	target := Constrain(Transform{K: t.K, X: cx - t.K*bx, Y: cy - t.K*by}, l)
	if target.ApproxEqual(t, 1e-9) {
		return t, false
	}
	return target, true
}

// autoPan animates the transform toward a target.
type autoPan struct {
	from, to Transform
	start    time.Time
	duration time.Duration
	ease     Easing
}

// at returns the interpolated transform for now and whether the animation has
// finished.
func (a *autoPan) at(now time.Time) (Transform, bool) {
	if a.duration <= 0 {
		return a.to, true
	}
	p := float64(now.Sub(a.start)) / float64(a.duration)
	if p >= 1 {
		return a.to, true
	}
	if p < 0 {
		p = 0
	}
	return lerpTransform(a.from, a.to, a.ease(p)), false
}
