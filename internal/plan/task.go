package plan

import (
	"fmt"
	"strings"

	"github.com/kingrea/stackplan/internal/relation"
	"github.com/kingrea/stackplan/internal/world"
)

// Category names a relation category processed by one driver pass.
type Category string

const (
	CategoryTable Category = "table"
	CategoryOn    Category = "on"
	CategoryClear Category = "clear"
)

// Categories lists the passes in execution order.
var Categories = []Category{CategoryTable, CategoryOn, CategoryClear}

// CategoryOf maps a relation kind to its category. Above facts have none.
func CategoryOf(kind relation.Kind) (Category, bool) {
	switch kind {
	case relation.KindOnTable:
		return CategoryTable, true
	case relation.KindOn:
		return CategoryOn, true
	case relation.KindClear:
		return CategoryClear, true
	default:
		return "", false
	}
}

// Kind returns the relation kind compared by the category.
func (c Category) Kind() relation.Kind {
	switch c {
	case CategoryTable:
		return relation.KindOnTable
	case CategoryOn:
		return relation.KindOn
	case CategoryClear:
		return relation.KindClear
	default:
		return ""
	}
}

// Placement decides whether OnTable goals are bound to their location.
type Placement string

const (
	// PlacementPinned requires each goal table block at its goal location.
	PlacementPinned Placement = "pinned"
	// PlacementAnywhere accepts a goal table block at the bottom of any stack.
	PlacementAnywhere Placement = "anywhere"
)

// Pinned reports whether OnTable facts compare location. The zero value is
// treated as pinned.
func (p Placement) Pinned() bool {
	return p != PlacementAnywhere
}

// ParsePlacement validates a placement name. Empty defaults to pinned.
func ParsePlacement(value string) (Placement, error) {
	switch Placement(strings.ToLower(strings.TrimSpace(value))) {
	case "", PlacementPinned:
		return PlacementPinned, nil
	case PlacementAnywhere:
		return PlacementAnywhere, nil
	default:
		return "", fmt.Errorf("plan: unknown placement %q", value)
	}
}

// Task is an unmet goal fact scheduled for execution. Goal indexes the fact
// in the goal fact list.
type Task struct {
	Goal int               `json:"goal" yaml:"goal"`
	Fact relation.Relation `json:"fact" yaml:"fact"`
}

// Category returns the pass the task belongs to.
func (t Task) Category() Category {
	c, _ := CategoryOf(t.Fact.Kind)
	return c
}

// Target is the block the task moves.
func (t Task) Target() world.Block {
	return t.Fact.Upper
}

func (t Task) String() string {
	return t.Fact.String()
}

// Roles assigns the three locations their part in achieving a task. Temp is
// only meaningful when HasTemp is set, which happens when Dig and Destination
// coincide.
type Roles struct {
	Dig         world.Location `json:"dig" yaml:"dig"`
	Junk        world.Location `json:"junk" yaml:"junk"`
	Temp        world.Location `json:"temp,omitempty" yaml:"temp,omitempty"`
	Destination world.Location `json:"destination" yaml:"destination"`
	HasTemp     bool           `json:"has_temp,omitempty" yaml:"has_temp,omitempty"`
}

func (r Roles) String() string {
	temp := "-"
	if r.HasTemp {
		temp = r.Temp.String()
	}
	return fmt.Sprintf("dig=%s junk=%s temp=%s dest=%s", r.Dig, r.Junk, temp, r.Destination)
}

// ActionKind enumerates the arm primitives.
type ActionKind string

const (
	ActionPickUp  ActionKind = "pick-up"
	ActionPutDown ActionKind = "put-down"
	ActionMoveTo  ActionKind = "move-to"
)

// Action is one primitive step. Location is the arm position the step runs
// at, or the target of a move. Block is the block the planner expects to
// pick up or put down; it is empty for moves.
type Action struct {
	Kind     ActionKind     `json:"kind" yaml:"kind"`
	Block    world.Block    `json:"block,omitempty" yaml:"block,omitempty"`
	Location world.Location `json:"location" yaml:"location"`
}

// PickUp builds a pick-up of b at loc.
func PickUp(b world.Block, loc world.Location) Action {
	return Action{Kind: ActionPickUp, Block: b, Location: loc}
}

// PutDown builds a put-down of b at loc.
func PutDown(b world.Block, loc world.Location) Action {
	return Action{Kind: ActionPutDown, Block: b, Location: loc}
}

// MoveTo builds an arm move to loc.
func MoveTo(loc world.Location) Action {
	return Action{Kind: ActionMoveTo, Location: loc}
}

func (a Action) String() string {
	switch a.Kind {
	case ActionMoveTo:
		return fmt.Sprintf("move-to(%s)", a.Location)
	default:
		return fmt.Sprintf("%s(%s)@%s", a.Kind, a.Block, a.Location)
	}
}
