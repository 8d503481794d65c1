package live

import (
	"encoding/json"

	"github.com/pointdash/pointdash/internal/dataset"
	"github.com/pointdash/pointdash/internal/engine"
)

// Message is the envelope for every websocket frame in both directions.
type Message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

const (
	// Client -> server
	TypeResize        = "view.resize"
	TypeHighlight     = "view.highlight"
	TypeViewOptions   = "view.options"
	TypePointerDown   = "pointer.down"
	TypePointerMove   = "pointer.move"
	TypePointerUp     = "pointer.up"
	TypePointerCancel = "pointer.cancel"
	TypePointerLeave  = "pointer.leave"
	TypeDoubleClick   = "pointer.dblclick"
	TypeWheel         = "wheel"
	TypeUndo          = "history.undo"
	TypeRedo          = "history.redo"
	TypePointEdit     = "point.edit"
	TypePointDelete   = "point.delete"

	// Server -> client
	TypeWelcome       = "welcome"
	TypeFrame         = "frame"
	TypePointsChanged = "points.changed"
	TypeHover         = "hover"
	TypeSelect        = "select"
	TypeError         = "error"
)

type ResizePayload struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type HighlightPayload struct {
	ID string `json:"id"`
}

// ViewOptionsPayload changes view options. Absent fields are left alone.
type ViewOptionsPayload struct {
	ScaleMode            *engine.ScaleMode  `json:"scaleMode,omitempty"`
	ZoomExtent           *engine.ZoomExtent `json:"zoomExtent,omitempty"`
	DomainPaddingPercent *float64           `json:"domainPaddingPercent,omitempty"`
	ResetZoom            bool               `json:"resetZoom,omitempty"`
}

type PointDeletePayload struct {
	ID string `json:"id"`
}

type WelcomePayload struct {
	SessionID string          `json:"sessionId"`
	UserID    string          `json:"userId"`
	ClientID  string          `json:"clientId"`
	Points    []dataset.Point `json:"points"`
	Seq       int64           `json:"seq"`
	CanUndo   bool            `json:"canUndo"`
	CanRedo   bool            `json:"canRedo"`
}

// PointsChangedPayload carries the full collection after a change. Live is set
// for rate-limited drag updates that have not been persisted.
type PointsChangedPayload struct {
	Kind    string          `json:"kind"`
	PointID string          `json:"pointId,omitempty"`
	Points  []dataset.Point `json:"points"`
	Live    bool            `json:"live,omitempty"`
	Origin  string          `json:"origin,omitempty"`
	CanUndo bool            `json:"canUndo"`
	CanRedo bool            `json:"canRedo"`
}

type HoverPayload struct {
	ID string `json:"id"`
}

type SelectPayload struct {
	Point dataset.Point `json:"point"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Request string `json:"request,omitempty"`
}

// Kinds reported in PointsChangedPayload besides the history op types.
const (
	KindMove   = "move"
	KindResync = "resync"
)

func newMessage(typ string, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: typ, Payload: data}, nil
}
