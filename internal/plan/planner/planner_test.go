package planner

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kingrea/stackplan/internal/plan"
	"github.com/kingrea/stackplan/internal/plan/allocator"
	"github.com/kingrea/stackplan/internal/relation"
	"github.com/kingrea/stackplan/internal/world"
)

const (
	A = world.LocationA
	B = world.LocationB
	C = world.LocationC
)

// apply replays actions on state and fails the test on any illegal step.
func apply(t *testing.T, state *world.State, actions []plan.Action) {
	t.Helper()
	for i, action := range actions {
		var err error
		switch action.Kind {
		case plan.ActionMoveTo:
			err = state.MoveArm(action.Location)
		case plan.ActionPickUp:
			_, err = state.PickUp()
		case plan.ActionPutDown:
			_, err = state.PutDown()
		}
		if err != nil {
			t.Fatalf("action %d %s: %v", i, action, err)
		}
	}
}

func planFor(t *testing.T, fact relation.Relation, state *world.State) []plan.Action {
	t.Helper()
	task := plan.Task{Fact: fact}
	roles, err := allocator.New(nil, plan.PlacementPinned).Allocate(task, state)
	if err != nil {
		t.Fatalf("allocate %s: %v", fact, err)
	}
	actions, err := Plan(task, roles, state, plan.PlacementPinned)
	if err != nil {
		t.Fatalf("plan %s: %v", fact, err)
	}
	return actions
}

func TestPlanSingleMove(t *testing.T) {
	state := world.NewState(world.Layout{{"x"}, nil, nil})
	got := planFor(t, relation.OnTable("x", B), state)
	want := []plan.Action{plan.PickUp("x", A), plan.MoveTo(B), plan.PutDown("x", B)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected plan (-want +got):\n%s", diff)
	}
}

func TestPlanUnstackThenRestack(t *testing.T) {
	state := world.NewState(world.Layout{{"x", "y"}, nil, nil})
	table := planFor(t, relation.OnTable("x", B), state)
	want := []plan.Action{
		plan.PickUp("y", A), plan.MoveTo(C), plan.PutDown("y", C),
		plan.MoveTo(A), plan.PickUp("x", A), plan.MoveTo(B), plan.PutDown("x", B),
	}
	if diff := cmp.Diff(want, table); diff != "" {
		t.Fatalf("unexpected table plan (-want +got):\n%s", diff)
	}
	apply(t, state, table)

	on := planFor(t, relation.On("y", "x", B), state)
	want = []plan.Action{
		plan.MoveTo(C), plan.PickUp("y", C), plan.MoveTo(B), plan.PutDown("y", B),
	}
	if diff := cmp.Diff(want, on); diff != "" {
		t.Fatalf("unexpected on plan (-want +got):\n%s", diff)
	}
	apply(t, state, on)
	if !state.Layout().Equal(world.Layout{nil, {"x", "y"}, nil}) {
		t.Fatalf("final layout = %s", state.Layout())
	}
}

func TestPlanDoesNotMutateInput(t *testing.T) {
	state := world.NewState(world.Layout{{"x", "y"}, nil, nil})
	before := state.Layout()
	planFor(t, relation.OnTable("x", B), state)
	if !state.Layout().Equal(before) || state.Arm().At != A {
		t.Fatalf("planning changed the input state")
	}
}

func TestPlanTableDivertsTargetFoundAtDestination(t *testing.T) {
	state := world.NewState(world.Layout{{"z", "x", "w"}, nil, nil})
	actions := planFor(t, relation.OnTable("x", A), state)
	apply(t, state, actions)
	if bottom, _ := state.Bottom(A); bottom != "x" {
		t.Fatalf("expected x at the bottom of A, layout %s", state.Layout())
	}
	if state.Height(A) != 1 {
		t.Fatalf("destination should hold only x, layout %s", state.Layout())
	}
}

func TestPlanOnDivertsTargetAboveSupport(t *testing.T) {
	state := world.NewState(world.Layout{{"x", "q", "y"}, nil, nil})
	actions := planFor(t, relation.On("y", "x", A), state)
	apply(t, state, actions)
	if !relation.Extract(state).Contains(relation.On("y", "x", A)) {
		t.Fatalf("On(y, x) not achieved, layout %s", state.Layout())
	}
}

func TestPlanOnRebuildsWhenTargetUnderSupport(t *testing.T) {
	state := world.NewState(world.Layout{{"b", "y", "p", "x", "r"}, nil, nil})
	actions := planFor(t, relation.On("y", "x", A), state)
	apply(t, state, actions)
	facts := relation.Extract(state)
	if !facts.Holds(relation.On("y", "x", A), true) {
		t.Fatalf("On(y, x) not achieved, layout %s", state.Layout())
	}
	if bottom, _ := state.Bottom(A); bottom != "b" {
		t.Fatalf("unrelated base block moved, layout %s", state.Layout())
	}
}

func TestPlanSkipsFactThatAlreadyHolds(t *testing.T) {
	state := world.NewState(world.Layout{{"x", "y"}, nil, nil})
	if actions := planFor(t, relation.On("y", "x", A), state); len(actions) != 0 {
		t.Fatalf("expected no actions, got %v", actions)
	}
}

func TestPlanRejectsClearTask(t *testing.T) {
	state := world.NewState(world.Layout{{"x", "y"}, nil, nil})
	task := plan.Task{Fact: relation.Clear("x", A)}
	_, err := Plan(task, allocator.Split(A, A), state, plan.PlacementPinned)
	if !errors.Is(err, plan.ErrUnresolvableTask) {
		t.Fatalf("expected ErrUnresolvableTask, got %v", err)
	}
}

func TestPlanNeverEmitsRedundantMoves(t *testing.T) {
	state := world.NewState(world.Layout{{"a", "b"}, {"c", "d"}, {"e"}})
	actions := planFor(t, relation.On("b", "e", C), state)
	at := A
	for i, action := range actions {
		if action.Kind == plan.ActionMoveTo {
			if action.Location == at {
				t.Fatalf("action %d moves to the current location %s", i, at)
			}
			at = action.Location
			continue
		}
		if action.Location != at {
			t.Fatalf("action %d %s runs away from arm location %s", i, action, at)
		}
	}
}
