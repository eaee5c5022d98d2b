// Package allocator assigns the dig, junk, temp and destination roles of the
// three locations for a single pending task.
package allocator

import (
	"github.com/kingrea/stackplan/internal/plan"
	"github.com/kingrea/stackplan/internal/relation"
	"github.com/kingrea/stackplan/internal/world"
)

// Allocator resolves roles against the goal facts of one run.
type Allocator struct {
	goals     []relation.Relation
	placement plan.Placement
}

// New builds an allocator for the given goal facts.
func New(goals []relation.Relation, placement plan.Placement) *Allocator {
	clone := make([]relation.Relation, len(goals))
	copy(clone, goals)
	return &Allocator{goals: clone, placement: placement}
}

// Allocate computes the roles for task against the current state.
func (a *Allocator) Allocate(task plan.Task, state *world.State) (plan.Roles, error) {
	target := task.Target()
	dig, _, ok := state.Locate(target)
	if !ok {
		return plan.Roles{}, plan.Unresolvable(task, "block %s is not on any stack", target)
	}
	var dest world.Location
	switch task.Fact.Kind {
	case relation.KindOnTable:
		dest, ok = a.tableDestination(task, state)
		if !ok {
			return plan.Roles{}, plan.Unresolvable(task, "every location already holds a final table block")
		}
	case relation.KindOn:
		dest, _, ok = state.Locate(task.Fact.Lower)
		if !ok {
			return plan.Roles{}, plan.Unresolvable(task, "supporting block %s is not on any stack", task.Fact.Lower)
		}
	default:
		return plan.Roles{}, plan.Unresolvable(task, "category %q cannot be planned", task.Fact.Kind)
	}
	return Split(dig, dest), nil
}

// Split fills in the scratch roles for a dig/destination pair. When both
// coincide the first remaining location is temp and the second is junk;
// otherwise the single remaining location is junk.
func Split(dig, dest world.Location) plan.Roles {
	roles := plan.Roles{Dig: dig, Destination: dest}
	if dig == dest {
		rest := world.Others(dig)
		roles.Temp, roles.Junk, roles.HasTemp = rest[0], rest[1], true
		return roles
	}
	roles.Junk = world.Others(dig, dest)[0]
	return roles
}

// tableDestination is the goal location under pinned placement. Otherwise it
// is the first location whose bottom block is not already a final table
// block.
func (a *Allocator) tableDestination(task plan.Task, state *world.State) (world.Location, bool) {
	if a.placement.Pinned() {
		return task.Fact.At, task.Fact.At.Valid()
	}
	for _, loc := range world.Locations {
		bottom, ok := state.Bottom(loc)
		if !ok || !a.isFinalTable(bottom) {
			return loc, true
		}
	}
	return 0, false
}

func (a *Allocator) isFinalTable(b world.Block) bool {
	for _, goal := range a.goals {
		if goal.Kind == relation.KindOnTable && goal.Upper == b {
			return true
		}
	}
	return false
}
