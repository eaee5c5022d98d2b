package comparator

import (
	"fmt"

	"github.com/kingrea/stackplan/internal/plan"
	"github.com/kingrea/stackplan/internal/relation"
	"github.com/kingrea/stackplan/internal/world"
)

// Comparator tracks which goal facts have been observed to hold.
type Comparator struct {
	goals     []relation.Relation
	satisfied []bool
	pinned    bool
}

// New builds a comparator for the goal fact list. Indices into goals are the
// indices of the satisfaction vector and of plan.Task.Goal.
func New(goals []relation.Relation, placement plan.Placement) *Comparator {
	clone := make([]relation.Relation, len(goals))
	copy(clone, goals)
	return &Comparator{
		goals:     clone,
		satisfied: make([]bool, len(goals)),
		pinned:    placement.Pinned(),
	}
}

// Goals returns a copy of the goal facts.
func (c *Comparator) Goals() []relation.Relation {
	out := make([]relation.Relation, len(c.goals))
	copy(out, c.goals)
	return out
}

// Satisfied returns a copy of the satisfaction vector.
func (c *Comparator) Satisfied() []bool {
	out := make([]bool, len(c.satisfied))
	copy(out, c.satisfied)
	return out
}

// AllSatisfied reports whether every goal fact has been marked.
func (c *Comparator) AllSatisfied() bool {
	for _, ok := range c.satisfied {
		if !ok {
			return false
		}
	}
	return true
}

// Unsatisfied lists the goal facts not yet marked.
func (c *Comparator) Unsatisfied() []relation.Relation {
	var out []relation.Relation
	for i, ok := range c.satisfied {
		if !ok {
			out = append(out, c.goals[i])
		}
	}
	return out
}

// Compare evaluates one category against the current facts and returns the
// pending tasks in execution order. The clear category never returns tasks.
func (c *Comparator) Compare(category plan.Category, current *relation.Set) ([]plan.Task, error) {
	switch category {
	case plan.CategoryTable:
		return c.compareTable(current), nil
	case plan.CategoryOn:
		return c.compareOn(current), nil
	case plan.CategoryClear:
		c.compareClear(current)
		return nil, nil
	default:
		return nil, fmt.Errorf("comparator: unknown category %q", category)
	}
}

func (c *Comparator) compareTable(current *relation.Set) []plan.Task {
	var pending []plan.Task
	for i, goal := range c.goals {
		if goal.Kind != relation.KindOnTable || c.satisfied[i] {
			continue
		}
		if current.Holds(goal, c.pinned) {
			c.satisfied[i] = true
			continue
		}
		pending = append(pending, plan.Task{Goal: i, Fact: goal})
	}
	return pending
}

// compareOn walks each goal stack bottom-up from a current table block that
// is also a goal table block. Links hold while every link beneath them holds;
// the first broken link and every link above it become pending, and lose any
// earlier mark.
func (c *Comparator) compareOn(current *relation.Set) []plan.Task {
	var pending []plan.Task
	tables := tablesByLocation(current)
	for _, loc := range VisitOrder(FreeBase(current)) {
		base, ok := tables[loc]
		if !ok || !c.isGoalBase(base) {
			continue
		}
		bottom := base.Upper
		holding := true
		for steps := 0; steps < len(c.goals); steps++ {
			idx, ok := c.goalOn(bottom)
			if !ok {
				break
			}
			goal := c.goals[idx]
			if holding && current.Holds(goal, c.pinned) {
				c.satisfied[idx] = true
			} else {
				holding = false
				c.satisfied[idx] = false
				pending = append(pending, plan.Task{Goal: idx, Fact: goal})
			}
			bottom = goal.Upper
		}
	}
	return pending
}

func (c *Comparator) compareClear(current *relation.Set) {
	for i, goal := range c.goals {
		if goal.Kind == relation.KindClear && current.Holds(goal, c.pinned) {
			c.satisfied[i] = true
		}
	}
}

func (c *Comparator) isGoalBase(table relation.Relation) bool {
	for _, goal := range c.goals {
		if goal.Kind == relation.KindOnTable && table.Matches(goal, c.pinned) {
			return true
		}
	}
	return false
}

func (c *Comparator) goalOn(bottom world.Block) (int, bool) {
	for i, goal := range c.goals {
		if goal.Kind == relation.KindOn && goal.Lower == bottom {
			return i, true
		}
	}
	return 0, false
}

func tablesByLocation(current *relation.Set) map[world.Location]relation.Relation {
	out := make(map[world.Location]relation.Relation, world.NumLocations)
	for _, r := range current.Filter(relation.KindOnTable) {
		out[r.At] = r
	}
	return out
}

// FreeBase returns the first location, in priority order, whose table block
// is also clear (a stack of exactly one block). It defaults to A.
func FreeBase(current *relation.Set) world.Location {
	tables := tablesByLocation(current)
	for _, loc := range world.Locations {
		table, ok := tables[loc]
		if !ok {
			continue
		}
		if current.Contains(relation.Clear(table.Upper, loc)) {
			return loc
		}
	}
	return world.LocationA
}

// VisitOrder lists the locations starting at start and then walking
// backwards: A gives A,C,B; B gives B,A,C; C gives C,B,A.
func VisitOrder(start world.Location) []world.Location {
	out := make([]world.Location, 0, world.NumLocations)
	for i := 0; i < world.NumLocations; i++ {
		out = append(out, world.Location((int(start)-i+world.NumLocations)%world.NumLocations))
	}
	return out
}
