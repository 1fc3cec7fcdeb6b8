package plan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cxd309/mapf-player/internal/graph"
)

// Format names a serialisation of plan, layout, and graph files.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// maxFileSize bounds plan and layout files read from disk.
const maxFileSize = 32 * 1024 * 1024

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported file extension %q (want .json, .yaml or .yml)", filepath.Ext(path))
	}
}

// Unmarshal decodes data in format f into v, rejecting unknown fields.
func Unmarshal(data []byte, f Format, v any) error {
	switch f {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(v)
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		return dec.Decode(v)
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}

// ReadFile reads and decodes a JSON or YAML file into v.
func ReadFile(path string, v any) error {
	f, err := FormatOf(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.Size() > maxFileSize {
		return fmt.Errorf("%s too large: %d bytes (max %d)", path, info.Size(), maxFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := Unmarshal(data, f, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// LoadGraph reads a graph file.
func LoadGraph(path string) (*graph.Graph, error) {
	var data graph.GraphData
	if err := ReadFile(path, &data); err != nil {
		return nil, err
	}
	if len(data.Vertices) == 0 {
		return nil, fmt.Errorf("%s: graph has no vertices", path)
	}
	return graph.NewGraph(data)
}

// LoadSpec reads a plan file without resolving it.
func LoadSpec(path string) (Spec, error) {
	var spec Spec
	err := ReadFile(path, &spec)
	return spec, err
}

// LoadFile reads a plan file and resolves it against g, which may be nil for
// plans given in explicit positions.
func LoadFile(path string, g *graph.Graph) (*Plan, error) {
	spec, err := LoadSpec(path)
	if err != nil {
		return nil, err
	}
	return Build(spec, g)
}

// LoadLayout reads a layout file and checks it against g.
func LoadLayout(path string, g *graph.Graph) (Layout, error) {
	var l Layout
	if err := ReadFile(path, &l); err != nil {
		return Layout{}, err
	}
	return l, l.Validate(g)
}

// Kind sniffs what a file holds: "graph" when it lists vertices, "layout"
// when its agents carry start/goal placements, otherwise "plan".
func Kind(path string) (string, error) {
	var probe struct {
		Vertices []any            `json:"vertices" yaml:"vertices"`
		Agents   []map[string]any `json:"agents" yaml:"agents"`
	}
	f, err := FormatOf(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	// The probe only sees part of the document, so unknown fields are fine.
	if f == FormatYAML {
		err = yaml.Unmarshal(data, &probe)
	} else {
		err = json.Unmarshal(data, &probe)
	}
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(probe.Vertices) > 0 {
		return "graph", nil
	}
	for _, a := range probe.Agents {
		if _, ok := a["goal"]; ok {
			return "layout", nil
		}
	}
	return "plan", nil
}
