package plan

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/stackplan/internal/world"
)

// Format identifies a problem file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatHCL  Format = "hcl"
	FormatText Format = "text"
)

// FormatForPath picks the decoder from the file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return FormatYAML, nil
	case ".hcl":
		return FormatHCL, nil
	case ".txt", "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("plan: unsupported problem file extension %q", filepath.Ext(path))
	}
}

// problemDocument mirrors Problem but accepts each stack either as a
// sequence or as the comma form "x,y".
type problemDocument struct {
	ID          string           `yaml:"id"`
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	Initial     map[string]stack `yaml:"initial"`
	Goal        map[string]stack `yaml:"goal"`
}

type stack []world.Block

func (s *stack) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*s = nil
			return nil
		}
		*s = splitStack(node.Value)
		return nil
	case yaml.SequenceNode:
		var names []string
		if err := node.Decode(&names); err != nil {
			return err
		}
		out := make(stack, 0, len(names))
		for _, name := range names {
			out = append(out, world.Block(name))
		}
		*s = out
		return nil
	default:
		return fmt.Errorf("line %d: stack must be a list or a comma separated string", node.Line)
	}
}

func (d problemDocument) problem() (Problem, error) {
	initial, err := layoutFromStacks(d.Initial)
	if err != nil {
		return Problem{}, fmt.Errorf("initial: %w", err)
	}
	goal, err := layoutFromStacks(d.Goal)
	if err != nil {
		return Problem{}, fmt.Errorf("goal: %w", err)
	}
	return Problem{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Initial:     initial,
		Goal:        goal,
	}, nil
}

func layoutFromStacks(stacks map[string]stack) (world.Layout, error) {
	named := make(map[string][]world.Block, len(stacks))
	for name, blocks := range stacks {
		named[name] = blocks
	}
	return world.LayoutFromNames(named)
}

// splitStack reads the comma form. An empty string is an empty stack.
func splitStack(value string) []world.Block {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]world.Block, 0, len(parts))
	for _, part := range parts {
		out = append(out, world.Block(strings.TrimSpace(part)))
	}
	return out
}

// ParseProblemYAML decodes a problem from YAML or JSON bytes.
func ParseProblemYAML(data []byte, fallbackID string) (Problem, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Problem{}, fmt.Errorf("plan: problem payload is empty")
	}
	var doc problemDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Problem{}, fmt.Errorf("plan: decode problem: %w", err)
	}
	problem, err := doc.problem()
	if err != nil {
		return Problem{}, fmt.Errorf("plan: %w: %w", ErrMalformedProblem, err)
	}
	return problem.Normalized(fallbackID)
}

// ParseProblem decodes data in the given format.
func ParseProblem(format Format, data []byte, fallbackID string) (Problem, error) {
	switch format {
	case FormatYAML:
		return ParseProblemYAML(data, fallbackID)
	case FormatHCL:
		return ParseProblemHCL(data, fallbackID+".hcl", fallbackID)
	case FormatText:
		return ParseProblemText(bytes.NewReader(data), fallbackID)
	default:
		return Problem{}, fmt.Errorf("plan: unknown problem format %q", format)
	}
}

// LoadProblemReader reads a problem of the given format from r.
func LoadProblemReader(r io.Reader, format Format, fallbackID string) (Problem, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return Problem{}, fmt.Errorf("plan: read problem: %w", err)
	}
	return ParseProblem(format, content, fallbackID)
}

// LoadProblemFile loads a problem, choosing the decoder from the extension.
// The id defaults to the file name without extension.
func LoadProblemFile(path string) (Problem, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return Problem{}, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return Problem{}, fmt.Errorf("plan: read %s: %w", path, err)
	}
	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var problem Problem
	if format == FormatHCL {
		problem, err = ParseProblemHCL(content, path, id)
	} else {
		problem, err = ParseProblem(format, content, id)
	}
	if err != nil {
		return Problem{}, fmt.Errorf("plan: %s: %w", path, err)
	}
	return problem, nil
}
