package engine

import "math"

// Transform is a uniform zoom k followed by a translation (X, Y) in pixels:
// screen = k*plot + t.
type Transform struct {
	K float64 `json:"k"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{K: 1}
}

// Apply maps a base-scale pixel to a screen pixel.
func (t Transform) Apply(x, y float64) (float64, float64) {
	return x*t.K + t.X, y*t.K + t.Y
}

// Invert maps a screen pixel back to a base-scale pixel.
func (t Transform) Invert(x, y float64) (float64, float64) {
	return (x - t.X) / t.K, (y - t.Y) / t.K
}

// ScaleAt returns t with zoom k, keeping the screen point (px, py) fixed.
func (t Transform) ScaleAt(k, px, py float64) Transform {
	bx, by := t.Invert(px, py)
	return Transform{K: k, X: px - bx*k, Y: py - by*k}
}

// PanBy shifts the translation by a screen-space delta.
func (t Transform) PanBy(dx, dy float64) Transform {
	return Transform{K: t.K, X: t.X + dx, Y: t.Y + dy}
}

// translateBase shifts by a delta expressed in base-scale pixels.
func (t Transform) translateBase(dx, dy float64) Transform {
	return Transform{K: t.K, X: t.X + t.K*dx, Y: t.Y + t.K*dy}
}

// RescaleX composes the transform's horizontal part with a base scale.
func (t Transform) RescaleX(s Scale) EffectiveScale {
	return EffectiveScale{Base: s, K: t.K, T: t.X}
}

// RescaleY composes the transform's vertical part with a base scale.
func (t Transform) RescaleY(s Scale) EffectiveScale {
	return EffectiveScale{Base: s, K: t.K, T: t.Y}
}

func (t Transform) ApproxEqual(o Transform, eps float64) bool {
	return math.Abs(t.K-o.K) < eps && math.Abs(t.X-o.X) < eps && math.Abs(t.Y-o.Y) < eps
}

func (t Transform) valid() bool {
	return isFinite(t.K) && t.K > 0 && isFinite(t.X) && isFinite(t.Y)
}

// EffectiveScale is a base scale seen through the current zoom/pan.
type EffectiveScale struct {
	Base Scale
	K    float64
	T    float64
}

func (e EffectiveScale) Apply(v float64) float64 {
	return e.K*e.Base.Apply(v) + e.T
}

func (e EffectiveScale) Invert(px float64) float64 {
	return e.Base.Invert((px - e.T) / e.K)
}

// Visible returns the data interval shown between screen pixels a and b.
func (e EffectiveScale) Visible(a, b float64) Domain {
	lo, hi := e.Invert(a), e.Invert(b)
	if lo > hi {
		lo, hi = hi, lo
	}
	return Domain{Min: lo, Max: hi}
}

// ZoomExtent bounds the zoom factor.
type ZoomExtent struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

var DefaultZoomExtent = ZoomExtent{Min: 0.5, Max: 40}

func (z ZoomExtent) valid() bool {
	return isFinite(z.Min) && isFinite(z.Max) && z.Min > 0 && z.Min <= z.Max
}

func (z ZoomExtent) Clamp(k float64) float64 {
	return clamp(k, z.Min, z.Max)
}

// Limits are the bounds every transform is constrained to: the plot rectangle
// for panning and the zoom extent for k.
type Limits struct {
	Width  float64
	Height float64
	Zoom   ZoomExtent
}

// Constrain clamps k to the zoom extent (anchored at the plot centre) and then
// translates so the zoomed content covers the plot when k >= 1, or sits centred
// in it when k < 1. Constrain(Constrain(t)) == Constrain(t).
func Constrain(t Transform, l Limits) Transform {
	if !t.valid() {
		t = Identity()
	}
	if !l.Zoom.valid() {
		l.Zoom = DefaultZoomExtent
	}
	if k := l.Zoom.Clamp(t.K); k != t.K {
		t = t.ScaleAt(k, l.Width/2, l.Height/2)
	}

	dx0 := -t.X / t.K
	dx1 := (l.Width-t.X)/t.K - l.Width
	dy0 := -t.Y / t.K
	dy1 := (l.Height-t.Y)/t.K - l.Height

	return t.translateBase(settle(dx0, dx1), settle(dy0, dy1))
}

// settle picks the base-space correction along one axis given the overshoot
// at the near (d0) and far (d1) edges.
func settle(d0, d1 float64) float64 {
	if d1 > d0 {
		return (d0 + d1) / 2
	}
	if v := math.Min(0, d0); v != 0 {
		return v
	}
	return math.Max(0, d1)
}
