package dataset

import "github.com/pointdash/pointdash/internal/typeid"

// NewSample returns a small demo series used for first sign-in and the wasm
// playground.
func NewSample() []Point {
	coords := [][2]float64{
		{0, 12}, {10, 18}, {20, 15}, {30, 27}, {40, 31},
		{50, 29}, {60, 42}, {70, 47}, {80, 44}, {90, 58},
	}
	points := make([]Point, len(coords))
	for i, c := range coords {
		points[i] = Point{ID: typeid.NewPointID(), X: c[0], Y: c[1]}
	}
	return points
}
