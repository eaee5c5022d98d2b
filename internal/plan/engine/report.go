package engine

import (
	"fmt"
	"time"

	"github.com/kingrea/stackplan/internal/plan"
	"github.com/kingrea/stackplan/internal/plan/executor"
	"github.com/kingrea/stackplan/internal/relation"
	"github.com/kingrea/stackplan/internal/world"
)

// Status is the verdict of a run.
type Status string

const (
	StatusAchieved    Status = "achieved"
	StatusUnsatisfied Status = "unsatisfied"
	StatusError       Status = "error"
)

// Report captures everything a run did.
type Report struct {
	RunID       string         `json:"run_id" yaml:"run_id"`
	ProblemID   string         `json:"problem_id" yaml:"problem_id"`
	ProblemName string         `json:"problem_name,omitempty" yaml:"problem_name,omitempty"`
	Placement   plan.Placement `json:"placement" yaml:"placement"`
	Status      Status         `json:"status" yaml:"status"`
	// StatusReason explains error and unsatisfied verdicts.
	StatusReason string           `json:"status_reason,omitempty" yaml:"status_reason,omitempty"`
	Initial      world.Layout     `json:"initial" yaml:"initial"`
	Goal         world.Layout     `json:"goal" yaml:"goal"`
	Final        world.Layout     `json:"final" yaml:"final"`
	FinalArm     world.Arm        `json:"final_arm" yaml:"final_arm"`
	Events       []executor.Event `json:"events,omitempty" yaml:"events,omitempty"`
	Passes       []PassSummary    `json:"passes,omitempty" yaml:"passes,omitempty"`
	Goals        []GoalStatus     `json:"goals,omitempty" yaml:"goals,omitempty"`
	StartedAt    time.Time        `json:"started_at" yaml:"started_at"`
	FinishedAt   time.Time        `json:"finished_at" yaml:"finished_at"`
}

// PassSummary records one comparator iteration of a category pass.
type PassSummary struct {
	Category  plan.Category `json:"category" yaml:"category"`
	Iteration int           `json:"iteration" yaml:"iteration"`
	Pending   []string      `json:"pending,omitempty" yaml:"pending,omitempty"`
	Actions   int           `json:"actions" yaml:"actions"`
}

// GoalStatus pairs a goal fact with its final satisfaction flag.
type GoalStatus struct {
	Fact      relation.Relation `json:"fact" yaml:"fact"`
	Satisfied bool              `json:"satisfied" yaml:"satisfied"`
}

// Achieved reports whether every goal fact was satisfied.
func (r Report) Achieved() bool {
	return r.Status == StatusAchieved
}

// Actions lists the primitive actions the run applied, in order.
func (r Report) Actions() []plan.Action {
	out := make([]plan.Action, 0, len(r.Events))
	for _, event := range r.Events {
		out = append(out, event.Action())
	}
	return out
}

// Duration is the wall time between start and finish.
func (r Report) Duration() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Unsatisfied lists the goal facts left unmet.
func (r Report) Unsatisfied() []relation.Relation {
	var out []relation.Relation
	for _, goal := range r.Goals {
		if !goal.Satisfied {
			out = append(out, goal.Fact)
		}
	}
	return out
}

// Replay rebuilds the world after every event by re-applying the trace to the
// initial layout. The first state is the initial one, so the result holds
// len(Events)+1 states.
func (r Report) Replay() ([]*world.State, error) {
	exec := executor.New(world.NewState(r.Initial))
	states := make([]*world.State, 0, len(r.Events)+1)
	states = append(states, exec.Snapshot())
	for _, event := range r.Events {
		if _, err := exec.Apply(event.Action()); err != nil {
			return states, fmt.Errorf("engine: replay event %d: %w", event.Seq, err)
		}
		states = append(states, exec.Snapshot())
	}
	return states, nil
}
