package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pointdash/pointdash/internal/typeid"
)

// Format selects the encoding of a dataset file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var ErrUnknownFormat = errors.New("unknown dataset format")

// File is the on-disk layout of a dataset.
type File struct {
	Name   string  `json:"name,omitempty" yaml:"name,omitempty"`
	Points []Point `json:"points" yaml:"points"`
}

// FormatFromPath picks a format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// Decode reads a dataset. A bare list of points is accepted as well as the
// {name, points} object. Points without an id get a fresh one and all
// coordinates are sanitized.
func Decode(r io.Reader, format Format) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	var f File
	switch format {
	case FormatJSON:
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			err = json.Unmarshal(trimmed, &f.Points)
		} else {
			err = json.Unmarshal(trimmed, &f)
		}
	case FormatYAML:
		var node yaml.Node
		if err = yaml.Unmarshal(data, &node); err == nil && len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
			err = node.Content[0].Decode(&f.Points)
		} else if err == nil {
			err = yaml.Unmarshal(data, &f)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s dataset: %w", format, err)
	}

	for i := range f.Points {
		if f.Points[i].ID == "" {
			f.Points[i].ID = typeid.NewPointID()
		}
		f.Points[i] = Sanitize(f.Points[i])
	}
	return &f, nil
}

// LoadFile reads a dataset from path, inferring the format from its extension.
func LoadFile(path string) (*File, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer fh.Close()
	return Decode(fh, format)
}

// Encode writes f in the given format.
func Encode(w io.Writer, f *File, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(f)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(f); err != nil {
			return fmt.Errorf("encode yaml dataset: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
