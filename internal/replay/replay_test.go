package replay

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pointdash/pointdash/internal/logging"
)

func TestRunScripts(t *testing.T) {
	for _, name := range []string{"add_and_drag", "double_tap"} {
		t.Run(name, func(t *testing.T) {
			s, err := LoadFile("testdata/" + name + ".yaml")
			require.NoError(t, err)

			r, err := Run(s, logging.NewNop())
			require.NoError(t, err)
			assert.NoError(t, Check(s, r))
		})
	}
}

func TestAddAndDragTrace(t *testing.T) {
	s, err := LoadFile("testdata/add_and_drag.yaml")
	require.NoError(t, err)
	r, err := Run(s, logging.NewNop())
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "add_and_drag", []byte(r.TraceString()))
}

func TestCheckReportsMismatches(t *testing.T) {
	s, err := Decode(strings.NewReader(`
name: wrong
viewport: {width: 700, height: 500}
points: [{id: a, x: 0, y: 0}, {id: b, x: 10, y: 10}]
steps:
  - {action: move, x: 101.7, y: 423.3}
expect:
  changes: [add]
  points: [{id: a, x: 1, y: 0}]
  hovered: b
`))
	require.NoError(t, err)

	r, err := Run(s, logging.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "a", r.Hovered)

	err = Check(s, r)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "changes: want [add]")
	assert.Contains(t, msg, "points: want 1, got 2")
	assert.Contains(t, msg, "point a: want (1, 0)")
	assert.Contains(t, msg, `hovered: want "b", got "a"`)
}

func TestClickSelects(t *testing.T) {
	s, err := Decode(strings.NewReader(`
name: click
viewport: {width: 700, height: 500}
points: [{id: lo, x: 0, y: 0}, {id: hi, x: 100, y: 100}]
steps:
  - {action: down, x: 641, y: 41}
  - {action: move, x: 642, y: 40}
  - {action: up, x: 642, y: 40}
expect:
  changes: []
  selected: [hi]
`))
	require.NoError(t, err)

	r, err := Run(s, logging.NewNop())
	require.NoError(t, err)
	assert.NoError(t, Check(s, r))
	assert.Empty(t, r.Changes())
}

func TestHighlightAutoPans(t *testing.T) {
	s, err := Decode(strings.NewReader(`
name: pan
viewport: {width: 700, height: 500}
points: [{id: lo, x: 0, y: 0}, {id: hi, x: 100, y: 100}]
steps:
  - {action: wheel, x: 360, y: 240, deltaY: -500}
  - {action: highlight, id: lo}
`))
	require.NoError(t, err)

	r, err := Run(s, logging.NewNop())
	require.NoError(t, err)
	assert.Greater(t, r.Transform.K, 1.0)
	assert.Equal(t, "lo", r.Frame.Highlighted)

	assert.Empty(t, r.Changes())

	// lo sits at base pixel (28.18, 420) in the 620×440 plot area; after the
	// pan settles it is back inside.
	tr := r.Transform
	x := tr.K*620*5/110 + tr.X
	y := tr.K*420 + tr.Y
	assert.True(t, x >= 0 && x <= 620, "x=%v", x)
	assert.True(t, y >= 0 && y <= 440, "y=%v", y)
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown field", "name: x\nviewport: {width: 1, height: 1}\nstepz: []\n", "field stepz not found"},
		{"no name", "viewport: {width: 1, height: 1}\nsteps: [{action: up}]\n", "name is required"},
		{"empty viewport", "name: x\nsteps: [{action: up}]\n", "viewport"},
		{"no steps", "name: x\nviewport: {width: 1, height: 1}\n", "steps must be non-empty"},
		{"unknown action", "name: x\nviewport: {width: 1, height: 1}\nsteps: [{action: fly}]\n", `unknown action "fly"`},
		{"bad pointer type", "name: x\nviewport: {width: 1, height: 1}\nsteps: [{action: up, type: foot}]\n", `unknown pointer type "foot"`},
		{"zero wait", "name: x\nviewport: {width: 1, height: 1}\nsteps: [{action: wait}]\n", "positive duration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
