package history

import (
	"errors"
	"sync"

	"github.com/pointdash/pointdash/internal/dataset"
)

const DefaultLimit = 100

var (
	ErrNothingToUndo  = errors.New("nothing to undo")
	ErrNothingToRedo  = errors.New("nothing to redo")
	ErrPointNotFound  = errors.New("point not found")
	ErrDuplicatePoint = errors.New("point already exists")
)

// State holds the authoritative point collection for one user together with
// its undo and redo stacks. It is safe for concurrent use.
type State struct {
	mu     sync.RWMutex
	points []dataset.Point
	seq    int64
	limit  int
	undo   []Operation
	redo   []Operation
}

// NewState creates a state from an initial collection. A limit <= 0 uses
// DefaultLimit.
func NewState(points []dataset.Point, limit int) *State {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &State{points: dataset.SanitizeAll(points), limit: limit}
}

// Points returns a copy of the current collection.
func (s *State) Points() []dataset.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return dataset.Clone(s.points)
}

// Seq increases by one for every applied, undone or redone operation.
func (s *State) Seq() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seq
}

func (s *State) CanUndo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.undo) > 0
}

func (s *State) CanRedo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.redo) > 0
}

// Apply applies op, records it for undo and clears the redo stack. It returns
// the completed operation and the new sequence number.
func (s *State) Apply(op Operation) (Operation, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, done, err := apply(s.points, op)
	if err != nil {
		return op, s.seq, err
	}
	s.points = next
	s.seq++
	s.undo = append(s.undo, done)
	if len(s.undo) > s.limit {
		s.undo = s.undo[len(s.undo)-s.limit:]
	}
	s.redo = s.redo[:0]
	return done, s.seq, nil
}

// Undo reverts the most recent operation and returns the inverse that was
// applied.
func (s *State) Undo() (Operation, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.undo) == 0 {
		return Operation{}, s.seq, ErrNothingToUndo
	}
	op := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]

	next, done, err := apply(s.points, op.Inverse())
	if err != nil {
		// The collection diverged from what op recorded; drop the entry.
		return done, s.seq, err
	}
	s.points = next
	s.seq++
	s.redo = append(s.redo, op)
	return done, s.seq, nil
}

// Revert rolls back the most recent operation without making it redoable.
// It is used when the operation could not be persisted.
func (s *State) Revert() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.undo) == 0 {
		return ErrNothingToUndo
	}
	op := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]

	next, _, err := apply(s.points, op.Inverse())
	if err != nil {
		return err
	}
	s.points = next
	s.seq++
	return nil
}

// Redo re-applies the most recently undone operation.
func (s *State) Redo() (Operation, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.redo) == 0 {
		return Operation{}, s.seq, ErrNothingToRedo
	}
	op := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]

	next, done, err := apply(s.points, op)
	if err != nil {
		return done, s.seq, err
	}
	s.points = next
	s.seq++
	s.undo = append(s.undo, done)
	return done, s.seq, nil
}
