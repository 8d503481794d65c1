package engine

import (
	"io"
	"log/slog"
	"time"

	"github.com/pointdash/pointdash/internal/dataset"
	"github.com/pointdash/pointdash/internal/typeid"
)

const (
	DefaultDragThreshold      = 9.0 // squared pixels, ~3px
	DefaultHitRadius          = 8.0
	DefaultDoubleTapWindow    = 300 * time.Millisecond
	DefaultDoubleTapDistance  = 64.0 // squared pixels
	DefaultLiveUpdateInterval = 16 * time.Millisecond
)

// IDFunc generates point ids. Ids must be unique for the process lifetime,
// opaque, and never reused.
type IDFunc func() string

// ChangeKind tells consumers why the point collection changed.
type ChangeKind string

const (
	ChangeAdd    ChangeKind = "add"    // new point from a double-click or double-tap
	ChangeMove   ChangeKind = "move"   // rate-limited live update during a drag
	ChangeCommit ChangeKind = "commit" // final position at the end of a drag
)

// Change describes a single emission of the point collection.
type Change struct {
	Kind    ChangeKind     `json:"kind"`
	PointID string         `json:"pointId"`
	Before  *dataset.Point `json:"before,omitempty"` // commit only: position when the drag began
}

// Callbacks receive the view's outputs. Nil callbacks are skipped.
type Callbacks struct {
	PointsChanged func(points []dataset.Point, change Change)
	Hover         func(id string)
	Select        func(p dataset.Point)
}

// Options configure a View. Start from DefaultOptions: zero durations,
// thresholds and extents are replaced by defaults, but zero Margins,
// DomainPaddingPercent and AutoPanPadding are honoured as given.
type Options struct {
	ScaleMode            ScaleMode
	SymlogThreshold      float64
	ZoomExtent           ZoomExtent
	DomainPaddingPercent float64
	Margins              Margins

	DragThreshold      float64
	HitRadius          float64
	DoubleTapWindow    time.Duration
	DoubleTapDistance  float64
	LiveUpdateInterval time.Duration
	AutoPanPadding     float64
	AutoPanDuration    time.Duration

	Clock  func() time.Time
	NewID  IDFunc
	Logger *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		ScaleMode:            ScaleAuto,
		SymlogThreshold:      DefaultSymlogThreshold,
		ZoomExtent:           DefaultZoomExtent,
		DomainPaddingPercent: DefaultPaddingPercent,
		Margins:              DefaultMargins,
		DragThreshold:        DefaultDragThreshold,
		HitRadius:            DefaultHitRadius,
		DoubleTapWindow:      DefaultDoubleTapWindow,
		DoubleTapDistance:    DefaultDoubleTapDistance,
		LiveUpdateInterval:   DefaultLiveUpdateInterval,
		AutoPanPadding:       DefaultAutoPanPadding,
		AutoPanDuration:      DefaultAutoPanDuration,
		Clock:                time.Now,
		NewID:                typeid.NewPointID,
	}
}

func (o Options) normalized() Options {
	switch o.ScaleMode {
	case ScaleLinear, ScaleSymlog:
	default:
		o.ScaleMode = ScaleAuto
	}
	if o.SymlogThreshold <= 0 || !isFinite(o.SymlogThreshold) {
		o.SymlogThreshold = DefaultSymlogThreshold
	}
	if !o.ZoomExtent.valid() {
		o.ZoomExtent = DefaultZoomExtent
	}
	if o.DomainPaddingPercent < 0 || !isFinite(o.DomainPaddingPercent) {
		o.DomainPaddingPercent = DefaultPaddingPercent
	}
	if o.DragThreshold <= 0 {
		o.DragThreshold = DefaultDragThreshold
	}
	if o.HitRadius <= 0 {
		o.HitRadius = DefaultHitRadius
	}
	if o.DoubleTapWindow <= 0 {
		o.DoubleTapWindow = DefaultDoubleTapWindow
	}
	if o.DoubleTapDistance <= 0 {
		o.DoubleTapDistance = DefaultDoubleTapDistance
	}
	if o.LiveUpdateInterval <= 0 {
		o.LiveUpdateInterval = DefaultLiveUpdateInterval
	}
	if o.AutoPanPadding < 0 {
		o.AutoPanPadding = DefaultAutoPanPadding
	}
	if o.AutoPanDuration <= 0 {
		o.AutoPanDuration = DefaultAutoPanDuration
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.NewID == nil {
		o.NewID = typeid.NewPointID
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}
