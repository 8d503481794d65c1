package engine

// Rect is an axis-aligned rectangle in pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains checks if a point is inside the rect (edges included).
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// IsEmpty checks if the rect has zero or negative area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Center returns the center point of the rect.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Inset shrinks the rect by d on every side.
func (r Rect) Inset(d float64) Rect {
	return Rect{X: r.X + d, Y: r.Y + d, Width: r.Width - 2*d, Height: r.Height - 2*d}
}

// Clamp returns (x, y) pulled inside the rect.
func (r Rect) Clamp(x, y float64) (float64, float64) {
	return clamp(x, r.X, r.X+max(r.Width, 0)), clamp(y, r.Y, r.Y+max(r.Height, 0))
}

// Margins are the gutters between the container edge and the plot area.
type Margins struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

var DefaultMargins = Margins{Top: 20, Right: 30, Bottom: 40, Left: 50}

// Viewport is the size of the container the graph is drawn into.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Inner returns the plot rectangle left after margins, anchored at the origin.
func (v Viewport) Inner(m Margins) Rect {
	return Rect{
		Width:  max(v.Width-m.Left-m.Right, 0),
		Height: max(v.Height-m.Top-m.Bottom, 0),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v != v || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
