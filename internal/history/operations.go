package history

import (
	"fmt"
	"time"

	"github.com/pointdash/pointdash/internal/dataset"
	"github.com/pointdash/pointdash/internal/typeid"
)

// OpType names a point operation.
type OpType string

const (
	OpAdd     OpType = "point.add"
	OpMove    OpType = "point.move"
	OpEdit    OpType = "point.edit"
	OpDelete  OpType = "point.delete"
	OpReplace OpType = "points.replace"
)

// Operation is a single reversible change to a point collection.
type Operation struct {
	ID        string          `json:"id"`
	Type      OpType          `json:"type"`
	PointID   string          `json:"pointId,omitempty"`
	Index     int             `json:"index"`
	Before    *dataset.Point  `json:"before,omitempty"`
	After     *dataset.Point  `json:"after,omitempty"`
	BeforeAll []dataset.Point `json:"beforeAll,omitempty"`
	AfterAll  []dataset.Point `json:"afterAll,omitempty"`
	Timestamp int64           `json:"ts"`
}

// NewAdd creates an add operation appending p.
func NewAdd(p dataset.Point) Operation {
	return newOp(OpAdd, p.ID, nil, &p)
}

// NewMove creates a move from before to after. Before may be nil, in which case
// it is captured from the collection when applied.
func NewMove(before *dataset.Point, after dataset.Point) Operation {
	return newOp(OpMove, after.ID, before, &after)
}

// NewEdit creates an edit replacing the coordinates of p.ID.
func NewEdit(p dataset.Point) Operation {
	return newOp(OpEdit, p.ID, nil, &p)
}

// NewDelete creates a delete of the point with the given id.
func NewDelete(id string) Operation {
	return newOp(OpDelete, id, nil, nil)
}

// NewReplace creates an operation swapping the whole collection.
func NewReplace(points []dataset.Point) Operation {
	op := newOp(OpReplace, "", nil, nil)
	op.AfterAll = dataset.Clone(points)
	return op
}

func newOp(t OpType, pointID string, before, after *dataset.Point) Operation {
	return Operation{
		ID:        typeid.NewOpID(),
		Type:      t,
		PointID:   pointID,
		Index:     -1,
		Before:    before,
		After:     after,
		Timestamp: time.Now().UnixMilli(),
	}
}

// apply returns points with op applied and op completed with whatever it
// needs to be inverted (prior coordinates, index, previous collection).
func apply(points []dataset.Point, op Operation) ([]dataset.Point, Operation, error) {
	switch op.Type {
	case OpAdd:
		return applyAdd(points, op)
	case OpMove, OpEdit:
		return applyUpdate(points, op)
	case OpDelete:
		return applyDelete(points, op)
	case OpReplace:
		op.BeforeAll = dataset.Clone(points)
		return dataset.SanitizeAll(op.AfterAll), op, nil
	default:
		return nil, op, fmt.Errorf("unknown operation type: %s", op.Type)
	}
}

func applyAdd(points []dataset.Point, op Operation) ([]dataset.Point, Operation, error) {
	if op.After == nil {
		return nil, op, fmt.Errorf("add %s: missing point", op.PointID)
	}
	if dataset.IndexOf(points, op.After.ID) >= 0 {
		return nil, op, fmt.Errorf("add %s: %w", op.After.ID, ErrDuplicatePoint)
	}
	p := dataset.Sanitize(*op.After)
	op.After = &p
	op.PointID = p.ID
	out := dataset.Insert(points, op.Index, p)
	op.Index = dataset.IndexOf(out, p.ID)
	return out, op, nil
}

func applyUpdate(points []dataset.Point, op Operation) ([]dataset.Point, Operation, error) {
	if op.After == nil {
		return nil, op, fmt.Errorf("%s %s: missing point", op.Type, op.PointID)
	}
	cur, ok := dataset.Find(points, op.PointID)
	if !ok {
		return nil, op, fmt.Errorf("%s %s: %w", op.Type, op.PointID, ErrPointNotFound)
	}
	if op.Before == nil {
		op.Before = &cur
	}
	p := dataset.Sanitize(*op.After)
	p.ID = op.PointID
	op.After = &p
	return dataset.Replace(points, p), op, nil
}

func applyDelete(points []dataset.Point, op Operation) ([]dataset.Point, Operation, error) {
	i := dataset.IndexOf(points, op.PointID)
	if i < 0 {
		return nil, op, fmt.Errorf("delete %s: %w", op.PointID, ErrPointNotFound)
	}
	before := points[i]
	op.Before = &before
	op.Index = i
	return dataset.Remove(points, op.PointID), op, nil
}

// Inverse returns the operation that undoes a completed op.
func (op Operation) Inverse() Operation {
	inv := op
	inv.ID = typeid.NewOpID()
	inv.Timestamp = time.Now().UnixMilli()
	switch op.Type {
	case OpAdd:
		inv.Type = OpDelete
		inv.Before, inv.After = op.After, nil
	case OpDelete:
		inv.Type = OpAdd
		inv.Before, inv.After = nil, op.Before
	case OpMove, OpEdit:
		inv.Before, inv.After = op.After, op.Before
	case OpReplace:
		inv.BeforeAll, inv.AfterAll = op.AfterAll, op.BeforeAll
	}
	return inv
}
