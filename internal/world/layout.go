package world

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Block is an opaque block label.
type Block string

// Layout holds the contents of each location, bottom-first.
type Layout [NumLocations][]Block

// Clone returns a deep copy of the layout.
func (l Layout) Clone() Layout {
	var out Layout
	for i, stack := range l {
		if len(stack) == 0 {
			continue
		}
		out[i] = append([]Block(nil), stack...)
	}
	return out
}

// Stack returns the stack stored at loc.
func (l Layout) Stack(loc Location) []Block {
	if !loc.Valid() {
		return nil
	}
	return l[loc]
}

// Blocks returns every block in the layout, sorted.
func (l Layout) Blocks() []Block {
	var out []Block
	for _, stack := range l {
		out = append(out, stack...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Count returns the number of blocks in the layout.
func (l Layout) Count() int {
	total := 0
	for _, stack := range l {
		total += len(stack)
	}
	return total
}

// Equal reports whether both layouts hold identical stacks.
func (l Layout) Equal(other Layout) bool {
	for i := range l {
		if len(l[i]) != len(other[i]) {
			return false
		}
		for j := range l[i] {
			if l[i][j] != other[i][j] {
				return false
			}
		}
	}
	return true
}

// String renders the layout as "A=[x,y] B=[] C=[z]".
func (l Layout) String() string {
	parts := make([]string, 0, NumLocations)
	for _, loc := range Locations {
		names := make([]string, len(l[loc]))
		for i, b := range l[loc] {
			names[i] = string(b)
		}
		parts = append(parts, fmt.Sprintf("%s=[%s]", loc, strings.Join(names, ",")))
	}
	return strings.Join(parts, " ")
}

// MarshalYAML encodes the layout keyed by lower-case location name.
func (l Layout) MarshalYAML() (any, error) {
	return l.byName(), nil
}

// UnmarshalYAML decodes a name-keyed layout.
func (l *Layout) UnmarshalYAML(unmarshal func(any) error) error {
	var stacks map[string][]Block
	if err := unmarshal(&stacks); err != nil {
		return err
	}
	decoded, err := LayoutFromNames(stacks)
	if err != nil {
		return err
	}
	*l = decoded
	return nil
}

// MarshalJSON encodes the layout keyed by lower-case location name.
func (l Layout) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.byName())
}

// UnmarshalJSON decodes a name-keyed layout.
func (l *Layout) UnmarshalJSON(data []byte) error {
	var stacks map[string][]Block
	if err := json.Unmarshal(data, &stacks); err != nil {
		return err
	}
	decoded, err := LayoutFromNames(stacks)
	if err != nil {
		return err
	}
	*l = decoded
	return nil
}

func (l Layout) byName() map[string][]Block {
	out := make(map[string][]Block, NumLocations)
	for _, loc := range Locations {
		stack := l[loc]
		if stack == nil {
			stack = []Block{}
		}
		out[strings.ToLower(loc.String())] = stack
	}
	return out
}

// LayoutFromNames builds a layout from a location-name keyed map.
func LayoutFromNames(stacks map[string][]Block) (Layout, error) {
	var out Layout
	for name, stack := range stacks {
		loc, err := ParseLocation(name)
		if err != nil {
			return Layout{}, err
		}
		if len(stack) > 0 {
			out[loc] = append([]Block(nil), stack...)
		}
	}
	return out, nil
}
