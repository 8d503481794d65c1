package engine

import "math"

// WheelDeltaMode mirrors the DOM WheelEvent.deltaMode units.
type WheelDeltaMode int

const (
	WheelDeltaPixel WheelDeltaMode = iota
	WheelDeltaLine
	WheelDeltaPage
)

// wheelFactor converts a wheel delta into a power-of-two zoom step.
func wheelFactor(mode WheelDeltaMode) float64 {
	switch mode {
	case WheelDeltaLine:
		return 0.05
	case WheelDeltaPage:
		return 1
	default:
		return 0.002
	}
}

// Gesture is a manual pan or zoom input. Coordinates are plot-area pixels.
type Gesture interface {
	apply(t Transform, l Limits) Transform
}

// WheelGesture zooms around the pointer position.
type WheelGesture struct {
	X, Y   float64
	DeltaY float64
	Mode   WheelDeltaMode
}

func (g WheelGesture) apply(t Transform, l Limits) Transform {
	factor := math.Pow(2, -g.DeltaY*wheelFactor(g.Mode))
	return t.ScaleAt(l.Zoom.Clamp(t.K*factor), g.X, g.Y)
}

// PinchGesture zooms by Factor around the previous midpoint (X, Y) and then
// follows the midpoint's motion (DX, DY).
type PinchGesture struct {
	X, Y   float64
	Factor float64
	DX, DY float64
}

func (g PinchGesture) apply(t Transform, l Limits) Transform {
	factor := g.Factor
	if !isFinite(factor) || factor <= 0 {
		factor = 1
	}
	return t.ScaleAt(l.Zoom.Clamp(t.K*factor), g.X, g.Y).PanBy(g.DX, g.DY)
}

// PanGesture translates by a screen delta, as a background drag does.
type PanGesture struct {
	DX, DY float64
}

func (g PanGesture) apply(t Transform, _ Limits) Transform {
	return t.PanBy(g.DX, g.DY)
}

// ApplyGesture returns the constrained transform after g.
func ApplyGesture(t Transform, g Gesture, l Limits) Transform {
	if !l.Zoom.valid() {
		l.Zoom = DefaultZoomExtent
	}
	return Constrain(g.apply(t, l), l)
}
