package replay

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pointdash/pointdash/internal/dataset"
	"github.com/pointdash/pointdash/internal/engine"
)

// Script is a recorded gesture sequence played against a fresh view.
type Script struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description,omitempty"`
	Viewport    engine.Viewport `yaml:"viewport"`
	Options     ScriptOptions   `yaml:"options,omitempty"`
	Points      []dataset.Point `yaml:"points"`
	Steps       []Step          `yaml:"steps"`
	Expect      *Expect         `yaml:"expect,omitempty"`
}

// ScriptOptions override the view defaults.
type ScriptOptions struct {
	ScaleMode            engine.ScaleMode `yaml:"scaleMode,omitempty"`
	DomainPaddingPercent *float64         `yaml:"domainPaddingPercent,omitempty"`
	ZoomMin              float64          `yaml:"zoomMin,omitempty"`
	ZoomMax              float64          `yaml:"zoomMax,omitempty"`
}

// Step is one input. Action selects which fields are read.
type Step struct {
	Action  string        `yaml:"action"`
	Pointer int           `yaml:"pointer,omitempty"`
	Type    string        `yaml:"type,omitempty"`
	X       float64       `yaml:"x,omitempty"`
	Y       float64       `yaml:"y,omitempty"`
	DeltaY  float64       `yaml:"deltaY,omitempty"`
	ID      string        `yaml:"id,omitempty"`
	Width   float64       `yaml:"width,omitempty"`
	Height  float64       `yaml:"height,omitempty"`
	Wait    time.Duration `yaml:"wait,omitempty"`
}

const (
	ActionDown      = "down"
	ActionMove      = "move"
	ActionUp        = "up"
	ActionCancel    = "cancel"
	ActionLeave     = "leave"
	ActionDblClick  = "dblclick"
	ActionWheel     = "wheel"
	ActionHighlight = "highlight"
	ActionResize    = "resize"
	ActionWait      = "wait"
	ActionReset     = "reset"
)

// Expect is checked against the result after the last step.
type Expect struct {
	Changes   []engine.ChangeKind `yaml:"changes,omitempty"`
	Points    []dataset.Point     `yaml:"points,omitempty"`
	Tolerance float64             `yaml:"tolerance,omitempty"`
	Selected  []string            `yaml:"selected,omitempty"`
	Hovered   *string             `yaml:"hovered,omitempty"`
}

var ErrInvalidScript = errors.New("invalid script")

// Decode parses a script, rejecting unknown fields.
func Decode(r io.Reader) (*Script, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	var s Script
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func LoadFile(path string) (*Script, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open script: %w", err)
	}
	defer fh.Close()
	return Decode(fh)
}

func (s *Script) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidScript)
	}
	if s.Viewport.Width <= 0 || s.Viewport.Height <= 0 {
		return fmt.Errorf("%w: viewport must have positive size", ErrInvalidScript)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("%w: steps must be non-empty", ErrInvalidScript)
	}
	for i, st := range s.Steps {
		switch st.Action {
		case ActionDown, ActionMove, ActionUp, ActionCancel, ActionLeave, ActionDblClick,
			ActionWheel, ActionHighlight, ActionReset:
		case ActionResize:
			if st.Width < 0 || st.Height < 0 {
				return fmt.Errorf("%w: step %d: negative size", ErrInvalidScript, i)
			}
		case ActionWait:
			if st.Wait <= 0 {
				return fmt.Errorf("%w: step %d: wait needs a positive duration", ErrInvalidScript, i)
			}
		default:
			return fmt.Errorf("%w: step %d: unknown action %q", ErrInvalidScript, i, st.Action)
		}
		switch engine.PointerType(st.Type) {
		case "", engine.PointerMouse, engine.PointerTouch, engine.PointerPen:
		default:
			return fmt.Errorf("%w: step %d: unknown pointer type %q", ErrInvalidScript, i, st.Type)
		}
	}
	return nil
}
