package engine

import (
	"slices"

	"github.com/pointdash/pointdash/internal/dataset"
)

// MarkerJoin reports how the keyed marker set changed since the previous
// frame. Markers are keyed by point id, never by position in the slice, so a
// reorder or an in-place edit shows up as Update rather than Exit+Enter.
type MarkerJoin struct {
	Enter  []string `json:"enter,omitempty"`
	Update []string `json:"update,omitempty"`
	Exit   []string `json:"exit,omitempty"`
}

// markerSet is the retained marker identity between frames.
type markerSet struct {
	keys map[string]struct{}
}

func newMarkerSet() *markerSet {
	return &markerSet{keys: make(map[string]struct{})}
}

func (m *markerSet) join(points []dataset.Point) MarkerJoin {
	var j MarkerJoin
	next := make(map[string]struct{}, len(points))
	for _, p := range points {
		next[p.ID] = struct{}{}
		if _, ok := m.keys[p.ID]; ok {
			j.Update = append(j.Update, p.ID)
		} else {
			j.Enter = append(j.Enter, p.ID)
		}
	}
	for id := range m.keys {
		if _, ok := next[id]; !ok {
			j.Exit = append(j.Exit, id)
		}
	}
	slices.Sort(j.Exit)
	m.keys = next
	return j
}
