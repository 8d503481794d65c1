package engine

// PointerType mirrors the DOM PointerEvent.pointerType.
type PointerType string

const (
	PointerMouse PointerType = "mouse"
	PointerTouch PointerType = "touch"
	PointerPen   PointerType = "pen"
)

// tapInput reports whether double taps are recognised for this pointer type.
// Mouse input gets the platform double-click instead.
func (p PointerType) tapInput() bool {
	return p == PointerTouch || p == PointerPen
}

// PointerEvent is a pointer sample in container pixels (margins included).
type PointerEvent struct {
	PointerID   int         `json:"pointerId"`
	PointerType PointerType `json:"pointerType"`
	X           float64     `json:"x"`
	Y           float64     `json:"y"`
}

// WheelEvent is a wheel or trackpad scroll in container pixels.
type WheelEvent struct {
	X         float64        `json:"x"`
	Y         float64        `json:"y"`
	DeltaY    float64        `json:"deltaY"`
	DeltaMode WheelDeltaMode `json:"deltaMode"`
}
