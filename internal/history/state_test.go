package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pointdash/pointdash/internal/dataset"
)

func seed() []dataset.Point {
	return []dataset.Point{
		{ID: "a", X: 1, Y: 1},
		{ID: "b", X: 2, Y: 2},
		{ID: "c", X: 3, Y: 3},
	}
}

func TestApplyUndoRedo(t *testing.T) {
	tests := []struct {
		name  string
		op    Operation
		after []dataset.Point
	}{
		{
			name: "add",
			op:   NewAdd(dataset.Point{ID: "d", X: 4, Y: 4}),
			after: []dataset.Point{
				{ID: "a", X: 1, Y: 1}, {ID: "b", X: 2, Y: 2}, {ID: "c", X: 3, Y: 3}, {ID: "d", X: 4, Y: 4},
			},
		},
		{
			name: "move",
			op:   NewMove(nil, dataset.Point{ID: "b", X: 20, Y: 21}),
			after: []dataset.Point{
				{ID: "a", X: 1, Y: 1}, {ID: "b", X: 20, Y: 21}, {ID: "c", X: 3, Y: 3},
			},
		},
		{
			name: "edit",
			op:   NewEdit(dataset.Point{ID: "a", X: -1, Y: 0}),
			after: []dataset.Point{
				{ID: "a", X: -1, Y: 0}, {ID: "b", X: 2, Y: 2}, {ID: "c", X: 3, Y: 3},
			},
		},
		{
			name: "delete keeps position on undo",
			op:   NewDelete("b"),
			after: []dataset.Point{
				{ID: "a", X: 1, Y: 1}, {ID: "c", X: 3, Y: 3},
			},
		},
		{
			name:  "replace",
			op:    NewReplace([]dataset.Point{{ID: "z", X: 9, Y: 9}}),
			after: []dataset.Point{{ID: "z", X: 9, Y: 9}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState(seed(), 0)

			_, seq, err := s.Apply(tt.op)
			require.NoError(t, err)
			assert.Equal(t, int64(1), seq)
			assert.Equal(t, tt.after, s.Points())

			_, seq, err = s.Undo()
			require.NoError(t, err)
			assert.Equal(t, int64(2), seq)
			assert.Equal(t, seed(), s.Points())
			assert.True(t, s.CanRedo())

			_, _, err = s.Redo()
			require.NoError(t, err)
			assert.Equal(t, tt.after, s.Points())

			_, _, err = s.Undo()
			require.NoError(t, err)
			assert.Equal(t, seed(), s.Points())
		})
	}
}

func TestApplyErrors(t *testing.T) {
	s := NewState(seed(), 0)

	_, _, err := s.Apply(NewDelete("missing"))
	assert.ErrorIs(t, err, ErrPointNotFound)

	_, _, err = s.Apply(NewAdd(dataset.Point{ID: "a"}))
	assert.ErrorIs(t, err, ErrDuplicatePoint)

	_, _, err = s.Apply(Operation{Type: "point.spin"})
	assert.Error(t, err)

	assert.Equal(t, seed(), s.Points())
	assert.Equal(t, int64(0), s.Seq())
}

func TestNothingToUndoOrRedo(t *testing.T) {
	s := NewState(nil, 0)
	_, _, err := s.Undo()
	assert.ErrorIs(t, err, ErrNothingToUndo)
	_, _, err = s.Redo()
	assert.ErrorIs(t, err, ErrNothingToRedo)
}

func TestNewOperationClearsRedo(t *testing.T) {
	s := NewState(seed(), 0)
	_, _, err := s.Apply(NewDelete("a"))
	require.NoError(t, err)
	_, _, err = s.Undo()
	require.NoError(t, err)
	require.True(t, s.CanRedo())

	_, _, err = s.Apply(NewEdit(dataset.Point{ID: "c", X: 0, Y: 0}))
	require.NoError(t, err)
	assert.False(t, s.CanRedo())
}

func TestUndoLimit(t *testing.T) {
	s := NewState(nil, 2)
	for _, id := range []string{"a", "b", "c"} {
		_, _, err := s.Apply(NewAdd(dataset.Point{ID: id}))
		require.NoError(t, err)
	}
	for range 2 {
		_, _, err := s.Undo()
		require.NoError(t, err)
	}
	_, _, err := s.Undo()
	assert.ErrorIs(t, err, ErrNothingToUndo)
	assert.Equal(t, []dataset.Point{{ID: "a"}}, s.Points())
}

func TestUndoInReverseOrder(t *testing.T) {
	s := NewState(seed(), 0)
	_, _, err := s.Apply(NewMove(nil, dataset.Point{ID: "a", X: 5, Y: 5}))
	require.NoError(t, err)
	_, _, err = s.Apply(NewDelete("a"))
	require.NoError(t, err)

	_, _, err = s.Undo()
	require.NoError(t, err)
	_, _, err = s.Undo()
	require.NoError(t, err)
	assert.Equal(t, seed(), s.Points())
}

func TestRevertIsNotRedoable(t *testing.T) {
	s := NewState(seed(), 0)
	_, _, err := s.Apply(NewDelete("b"))
	require.NoError(t, err)

	require.NoError(t, s.Revert())
	assert.Equal(t, seed(), s.Points())
	assert.False(t, s.CanRedo())
	assert.False(t, s.CanUndo())
	assert.ErrorIs(t, s.Revert(), ErrNothingToUndo)
}
