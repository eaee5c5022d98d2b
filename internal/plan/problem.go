package plan

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/kingrea/stackplan/internal/relation"
	"github.com/kingrea/stackplan/internal/world"
)

// Problem pairs an initial arrangement with the goal arrangement to reach.
type Problem struct {
	ID          string       `json:"id" yaml:"id"`
	Name        string       `json:"name,omitempty" yaml:"name,omitempty"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Initial     world.Layout `json:"initial" yaml:"initial"`
	Goal        world.Layout `json:"goal" yaml:"goal"`
}

// Clone returns a deep copy of the problem.
func (p Problem) Clone() Problem {
	return Problem{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Initial:     p.Initial.Clone(),
		Goal:        p.Goal.Clone(),
	}
}

// Title returns the display name, falling back to the id.
func (p Problem) Title() string {
	if strings.TrimSpace(p.Name) != "" {
		return p.Name
	}
	return p.ID
}

// Validate checks that both arrangements are well formed and hold the same
// blocks.
func (p Problem) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return malformed("id is required")
	}
	initial, err := inventory("initial", p.Initial)
	if err != nil {
		return err
	}
	goal, err := inventory("goal", p.Goal)
	if err != nil {
		return err
	}
	for _, b := range sortedBlocks(initial) {
		if _, ok := goal[b]; !ok {
			return malformed("block %s is in the initial arrangement but not the goal", b)
		}
	}
	for _, b := range sortedBlocks(goal) {
		if _, ok := initial[b]; !ok {
			return malformed("block %s is in the goal arrangement but not the initial", b)
		}
	}
	return nil
}

// Normalized trims block names, drops empty entries, fills a missing id from
// fallbackID and validates the result.
func (p Problem) Normalized(fallbackID string) (Problem, error) {
	clone := p.Clone()
	clone.ID = strings.TrimSpace(clone.ID)
	if clone.ID == "" {
		clone.ID = strings.TrimSpace(fallbackID)
	}
	clone.Name = strings.TrimSpace(clone.Name)
	clone.Initial = normalizeLayout(clone.Initial)
	clone.Goal = normalizeLayout(clone.Goal)
	if err := clone.Validate(); err != nil {
		return Problem{}, err
	}
	return clone, nil
}

// GoalFacts returns the goal fact list, in the order the satisfaction vector
// indexes it.
func (p Problem) GoalFacts() []relation.Relation {
	return relation.ExtractLayout(p.Goal).Items()
}

func normalizeLayout(layout world.Layout) world.Layout {
	var out world.Layout
	for _, loc := range world.Locations {
		for _, b := range layout.Stack(loc) {
			name := world.Block(strings.TrimSpace(string(b)))
			if name == "" {
				continue
			}
			out[loc] = append(out[loc], name)
		}
	}
	return out
}

func inventory(label string, layout world.Layout) (map[world.Block]world.Location, error) {
	seen := make(map[world.Block]world.Location, layout.Count())
	for _, loc := range world.Locations {
		for idx, b := range layout.Stack(loc) {
			if err := validateBlock(b); err != nil {
				return nil, malformed("%s %s[%d]: %v", label, loc, idx, err)
			}
			if prev, dup := seen[b]; dup {
				return nil, malformed("%s: block %s appears at %s and %s", label, b, prev, loc)
			}
			seen[b] = loc
		}
	}
	return seen, nil
}

func validateBlock(b world.Block) error {
	if b == "" {
		return errors.New("block name is empty")
	}
	for _, r := range string(b) {
		if unicode.IsSpace(r) || r == ',' {
			return fmt.Errorf("block name %q contains whitespace or a comma", b)
		}
	}
	return nil
}

func sortedBlocks(set map[world.Block]world.Location) []world.Block {
	out := make([]world.Block, 0, len(set))
	for b := range set {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
