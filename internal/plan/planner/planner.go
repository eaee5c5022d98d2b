package planner

import (
	"github.com/kingrea/stackplan/internal/plan"
	"github.com/kingrea/stackplan/internal/relation"
	"github.com/kingrea/stackplan/internal/world"
)

// Plan returns the actions that achieve task from state using roles. The
// state is not modified. A task whose fact already holds yields no actions.
func Plan(task plan.Task, roles plan.Roles, state *world.State, placement plan.Placement) ([]plan.Action, error) {
	if relation.Extract(state).Holds(task.Fact, placement.Pinned()) {
		return nil, nil
	}
	b := &builder{sim: state.Clone(), task: task}
	var err error
	switch task.Fact.Kind {
	case relation.KindOnTable:
		err = b.planTable(roles)
	case relation.KindOn:
		err = b.planOn(roles)
	default:
		err = plan.Unresolvable(task, "category %q cannot be planned", task.Fact.Kind)
	}
	if err != nil {
		return nil, err
	}
	return b.actions, nil
}

type builder struct {
	sim     *world.State
	task    plan.Task
	actions []plan.Action
}

func (b *builder) fail(err error) error {
	return &plan.TaskError{Task: b.task, Err: err}
}

func (b *builder) moveTo(loc world.Location) error {
	if b.sim.Arm().At == loc {
		return nil
	}
	if err := b.sim.MoveArm(loc); err != nil {
		return b.fail(err)
	}
	b.actions = append(b.actions, plan.MoveTo(loc))
	return nil
}

// transfer carries the top block of from onto to.
func (b *builder) transfer(from, to world.Location) (world.Block, error) {
	if err := b.moveTo(from); err != nil {
		return "", err
	}
	block, err := b.sim.PickUp()
	if err != nil {
		return "", b.fail(err)
	}
	b.actions = append(b.actions, plan.PickUp(block, from))
	if err := b.moveTo(to); err != nil {
		return "", err
	}
	if _, err := b.sim.PutDown(); err != nil {
		return "", b.fail(err)
	}
	b.actions = append(b.actions, plan.PutDown(block, to))
	return block, nil
}

func (b *builder) top(loc world.Location) (world.Block, bool) {
	return b.sim.Top(loc)
}

// planTable empties the destination, diverting the target to temp if it is
// found there, then brings the target to the bare table.
func (b *builder) planTable(roles plan.Roles) error {
	target := b.task.Target()
	diverted, err := b.clearDown(roles, "")
	if err != nil {
		return err
	}
	if diverted {
		_, err := b.transfer(roles.Temp, roles.Destination)
		return err
	}
	return b.dig(roles, target)
}

// planOn exposes the supporting block at the destination, then stacks the
// target on it.
func (b *builder) planOn(roles plan.Roles) error {
	target, support := b.task.Target(), b.task.Fact.Lower
	if roles.Dig == roles.Destination {
		_, targetIdx, _ := b.sim.Locate(target)
		_, supportIdx, _ := b.sim.Locate(support)
		if targetIdx < supportIdx {
			return b.rebuildAtTemp(roles, target, support)
		}
	}
	diverted, err := b.clearDown(roles, support)
	if err != nil {
		return err
	}
	if diverted {
		_, err := b.transfer(roles.Temp, roles.Destination)
		return err
	}
	return b.dig(roles, target)
}

// clearDown removes blocks from the destination until floor is exposed, or
// until the stack is empty when floor is "". The target goes to temp when it
// is met on the way; everything else goes to junk.
func (b *builder) clearDown(roles plan.Roles, floor world.Block) (bool, error) {
	target := b.task.Target()
	diverted := false
	for {
		top, ok := b.top(roles.Destination)
		if !ok {
			if floor != "" {
				return false, plan.Unresolvable(b.task, "supporting block %s left %s while clearing", floor, roles.Destination)
			}
			return diverted, nil
		}
		if top == floor {
			return diverted, nil
		}
		to := roles.Junk
		if top == target {
			if !roles.HasTemp {
				return false, plan.Unresolvable(b.task, "target %s sits at destination %s with no temp location", target, roles.Destination)
			}
			to = roles.Temp
			diverted = true
		}
		if _, err := b.transfer(roles.Destination, to); err != nil {
			return false, err
		}
	}
}

// dig removes blocks from the dig stack to junk until the target is on top,
// then carries it to the destination.
func (b *builder) dig(roles plan.Roles, target world.Block) error {
	for {
		top, ok := b.top(roles.Dig)
		if !ok {
			return plan.Unresolvable(b.task, "target %s not found at %s", target, roles.Dig)
		}
		if top == target {
			_, err := b.transfer(roles.Dig, roles.Destination)
			return err
		}
		if _, err := b.transfer(roles.Dig, roles.Junk); err != nil {
			return err
		}
	}
}

// rebuildAtTemp handles a target buried beneath its own support in one
// stack: the support is lifted out to temp, then the target is dug out and
// set on it there.
func (b *builder) rebuildAtTemp(roles plan.Roles, target, support world.Block) error {
	if !roles.HasTemp {
		return plan.Unresolvable(b.task, "target %s lies under %s with no temp location", target, support)
	}
	for {
		top, ok := b.top(roles.Dig)
		if !ok {
			return plan.Unresolvable(b.task, "supporting block %s not found at %s", support, roles.Dig)
		}
		if top == support {
			break
		}
		if _, err := b.transfer(roles.Dig, roles.Junk); err != nil {
			return err
		}
	}
	if _, err := b.transfer(roles.Dig, roles.Temp); err != nil {
		return err
	}
	for {
		top, ok := b.top(roles.Dig)
		if !ok {
			return plan.Unresolvable(b.task, "target %s not found at %s", target, roles.Dig)
		}
		if top == target {
			_, err := b.transfer(roles.Dig, roles.Temp)
			return err
		}
		if _, err := b.transfer(roles.Dig, roles.Junk); err != nil {
			return err
		}
	}
}
