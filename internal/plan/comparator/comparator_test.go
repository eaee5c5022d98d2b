package comparator

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kingrea/stackplan/internal/plan"
	"github.com/kingrea/stackplan/internal/relation"
	"github.com/kingrea/stackplan/internal/world"
)

func newComparator(goal world.Layout, placement plan.Placement) *Comparator {
	return New(relation.ExtractLayout(goal).Items(), placement)
}

func facts(layout world.Layout) *relation.Set {
	return relation.Extract(world.NewState(layout))
}

func taskGoals(tasks []plan.Task) []int {
	out := make([]int, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.Goal)
	}
	return out
}

func TestCompareTableMarksMatchesAndQueuesTheRest(t *testing.T) {
	c := newComparator(world.Layout{{"x"}, {"y"}, nil}, plan.PlacementPinned)
	pending, err := c.Compare(plan.CategoryTable, facts(world.Layout{{"x", "y"}, nil, nil}))
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if len(pending) != 1 || pending[0].Fact != relation.OnTable("y", world.LocationB) {
		t.Fatalf("unexpected pending tasks: %v", pending)
	}
	satisfied := c.Satisfied()
	if !satisfied[0] {
		t.Fatalf("OnTable(x)@A should be satisfied: %v", satisfied)
	}
}

func TestCompareTablePinnedRequiresGoalLocation(t *testing.T) {
	current := facts(world.Layout{{"x"}, nil, nil})
	pinned := newComparator(world.Layout{nil, {"x"}, nil}, plan.PlacementPinned)
	if pending, _ := pinned.Compare(plan.CategoryTable, current); len(pending) != 1 {
		t.Fatalf("pinned placement should queue x for B, got %v", pending)
	}
	anywhere := newComparator(world.Layout{nil, {"x"}, nil}, plan.PlacementAnywhere)
	if pending, _ := anywhere.Compare(plan.CategoryTable, current); len(pending) != 0 {
		t.Fatalf("anywhere placement should accept x at A, got %v", pending)
	}
}

func TestCompareOnStopsMarkingAfterFirstBrokenLink(t *testing.T) {
	goal := world.Layout{{"x", "y", "z", "w"}, {"q"}, nil}
	c := newComparator(goal, plan.PlacementPinned)
	current := facts(world.Layout{{"x", "y", "q"}, {"z", "w"}, nil})

	pending, err := c.Compare(plan.CategoryOn, current)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	// goal facts: 0 OnTable(x) 1 On(y,x) 2 On(z,y) 3 On(w,z) 4 Clear(w) 5 OnTable(q) 6 Clear(q)
	if diff := cmp.Diff([]int{2, 3}, taskGoals(pending)); diff != "" {
		t.Fatalf("unexpected pending goals (-want +got):\n%s", diff)
	}
	satisfied := c.Satisfied()
	if !satisfied[1] {
		t.Fatalf("On(y, x) holds on an intact prefix and should be satisfied")
	}
	if satisfied[3] {
		t.Fatalf("On(w, z) only holds by coincidence above a broken link and must stay unsatisfied")
	}
}

func TestCompareOnIgnoresStacksWithoutGoalBase(t *testing.T) {
	goal := world.Layout{{"x", "y"}, nil, nil}
	c := newComparator(goal, plan.PlacementPinned)
	pending, err := c.Compare(plan.CategoryOn, facts(world.Layout{{"y", "x"}, nil, nil}))
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("no goal table block is in place, expected no On tasks, got %v", pending)
	}
}

func TestCompareOnClearsEarlierMarkWhenLinkBreaks(t *testing.T) {
	goal := world.Layout{{"x", "y"}, nil, nil}
	c := newComparator(goal, plan.PlacementPinned)
	if pending, _ := c.Compare(plan.CategoryOn, facts(goal)); len(pending) != 0 {
		t.Fatalf("expected goal layout to have no pending On tasks, got %v", pending)
	}
	if !c.Satisfied()[1] {
		t.Fatalf("On(y, x) should be satisfied")
	}
	pending, _ := c.Compare(plan.CategoryOn, facts(world.Layout{{"x"}, {"y"}, nil}))
	if len(pending) != 1 || c.Satisfied()[1] {
		t.Fatalf("broken link should be pending and unmarked, pending=%v satisfied=%v", pending, c.Satisfied())
	}
}

func TestCompareOnVisitsLocationsFromFreeBase(t *testing.T) {
	goal := world.Layout{{"a", "b"}, {"c", "d"}, {"e"}}
	c := newComparator(goal, plan.PlacementPinned)
	// C holds a lone table block, so the visit order is C, B, A.
	current := facts(world.Layout{{"a", "d"}, {"c", "b"}, {"e"}})
	pending, err := c.Compare(plan.CategoryOn, current)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	var got []string
	for _, task := range pending {
		got = append(got, task.Fact.String())
	}
	want := []string{"On(d, c)", "On(b, a)"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected task order (-want +got):\n%s", diff)
	}
}

func TestCompareClearIsIdempotent(t *testing.T) {
	goal := world.Layout{{"x"}, {"y"}, nil}
	c := newComparator(goal, plan.PlacementPinned)
	current := facts(world.Layout{{"x"}, nil, {"y"}})
	if _, err := c.Compare(plan.CategoryClear, current); err != nil {
		t.Fatalf("compare: %v", err)
	}
	first := c.Satisfied()
	if _, err := c.Compare(plan.CategoryClear, current); err != nil {
		t.Fatalf("compare: %v", err)
	}
	if diff := cmp.Diff(first, c.Satisfied()); diff != "" {
		t.Fatalf("clear comparison changed the vector (-first +second):\n%s", diff)
	}
	// goal facts: 0 OnTable(x)@A 1 Clear(x) 2 OnTable(y)@B 3 Clear(y)
	if !first[1] || !first[3] || first[0] || first[2] {
		t.Fatalf("unexpected vector after clear comparison: %v", first)
	}
}

func TestCompareRejectsUnknownCategory(t *testing.T) {
	c := newComparator(world.Layout{{"x"}, nil, nil}, plan.PlacementPinned)
	if _, err := c.Compare(plan.Category("above"), facts(world.Layout{{"x"}, nil, nil})); err == nil {
		t.Fatalf("expected error for unknown category")
	}
}

func TestAllSatisfiedAfterEveryPassOnGoalLayout(t *testing.T) {
	goal := world.Layout{{"x", "y"}, nil, {"z"}}
	c := newComparator(goal, plan.PlacementPinned)
	current := facts(goal)
	for _, category := range plan.Categories {
		if pending, err := c.Compare(category, current); err != nil || len(pending) != 0 {
			t.Fatalf("%s: pending=%v err=%v", category, pending, err)
		}
	}
	if !c.AllSatisfied() || len(c.Unsatisfied()) != 0 {
		t.Fatalf("goal layout should satisfy every fact: %v", c.Unsatisfied())
	}
}

func TestFreeBaseAndVisitOrder(t *testing.T) {
	if got := FreeBase(facts(world.Layout{{"x", "y"}, {"z"}, {"w"}})); got != world.LocationB {
		t.Fatalf("FreeBase = %s, want B", got)
	}
	if got := FreeBase(facts(world.Layout{{"x", "y"}, nil, nil})); got != world.LocationA {
		t.Fatalf("FreeBase default = %s, want A", got)
	}
	cases := map[world.Location][]world.Location{
		world.LocationA: {world.LocationA, world.LocationC, world.LocationB},
		world.LocationB: {world.LocationB, world.LocationA, world.LocationC},
		world.LocationC: {world.LocationC, world.LocationB, world.LocationA},
	}
	for start, want := range cases {
		if diff := cmp.Diff(want, VisitOrder(start)); diff != "" {
			t.Fatalf("VisitOrder(%s) (-want +got):\n%s", start, diff)
		}
	}
}
