package dataset

import "math"

// Point is a single data-space sample. IDs are opaque, unique and stable once
// assigned; X and Y are arbitrary reals.
type Point struct {
	ID string  `json:"id" yaml:"id"`
	X  float64 `json:"x" yaml:"x"`
	Y  float64 `json:"y" yaml:"y"`
}

// Fallback replaces non-finite coordinates during sanitizing.
const Fallback = 0.0

// Sanitize returns p with non-finite coordinates replaced by Fallback.
func Sanitize(p Point) Point {
	if math.IsNaN(p.X) || math.IsInf(p.X, 0) {
		p.X = Fallback
	}
	if math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
		p.Y = Fallback
	}
	return p
}

// SanitizeAll returns a sanitized copy of points.
func SanitizeAll(points []Point) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = Sanitize(p)
	}
	return out
}

// Clone returns a shallow copy of points.
func Clone(points []Point) []Point {
	if points == nil {
		return nil
	}
	out := make([]Point, len(points))
	copy(out, points)
	return out
}

// IndexOf returns the index of the point with the given id, or -1.
func IndexOf(points []Point, id string) int {
	for i := range points {
		if points[i].ID == id {
			return i
		}
	}
	return -1
}

// Find returns the point with the given id.
func Find(points []Point, id string) (Point, bool) {
	if i := IndexOf(points, id); i >= 0 {
		return points[i], true
	}
	return Point{}, false
}

// Replace returns a copy of points with the entry matching p.ID swapped for p.
// If no entry matches, p is appended.
func Replace(points []Point, p Point) []Point {
	out := Clone(points)
	if i := IndexOf(out, p.ID); i >= 0 {
		out[i] = p
		return out
	}
	return append(out, p)
}

// Insert returns a copy of points with p placed at index (clamped to bounds).
func Insert(points []Point, index int, p Point) []Point {
	if index < 0 || index > len(points) {
		index = len(points)
	}
	out := make([]Point, 0, len(points)+1)
	out = append(out, points[:index]...)
	out = append(out, p)
	return append(out, points[index:]...)
}

// Remove returns a copy of points without the entry with the given id.
func Remove(points []Point, id string) []Point {
	out := make([]Point, 0, len(points))
	for _, p := range points {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}
