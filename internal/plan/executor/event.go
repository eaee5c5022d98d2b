package executor

import (
	"fmt"

	"github.com/kingrea/stackplan/internal/plan"
	"github.com/kingrea/stackplan/internal/world"
)

// Event is the trace record of one applied action. Block is the block picked
// up, put down or carried by a move. Exposed is the block left on top after a
// pick-up, covered by a put-down, or under the arm after a move.
type Event struct {
	Seq     int             `json:"seq" yaml:"seq"`
	Kind    plan.ActionKind `json:"kind" yaml:"kind"`
	Block   world.Block     `json:"block,omitempty" yaml:"block,omitempty"`
	Exposed world.Block     `json:"exposed,omitempty" yaml:"exposed,omitempty"`
	From    world.Location  `json:"from" yaml:"from"`
	To      world.Location  `json:"to" yaml:"to"`
	Task    string          `json:"task,omitempty" yaml:"task,omitempty"`
}

// Action reconstructs the primitive the event records.
func (e Event) Action() plan.Action {
	switch e.Kind {
	case plan.ActionMoveTo:
		return plan.MoveTo(e.To)
	case plan.ActionPickUp:
		return plan.PickUp(e.Block, e.From)
	default:
		return plan.PutDown(e.Block, e.To)
	}
}

func (e Event) String() string {
	switch e.Kind {
	case plan.ActionMoveTo:
		if e.Block != "" {
			return fmt.Sprintf("#%d move %s -> %s carrying %s", e.Seq, e.From, e.To, e.Block)
		}
		return fmt.Sprintf("#%d move %s -> %s", e.Seq, e.From, e.To)
	case plan.ActionPickUp:
		return fmt.Sprintf("#%d pick up %s at %s", e.Seq, e.Block, e.From)
	default:
		if e.Exposed != "" {
			return fmt.Sprintf("#%d put down %s on %s at %s", e.Seq, e.Block, e.Exposed, e.To)
		}
		return fmt.Sprintf("#%d put down %s at %s", e.Seq, e.Block, e.To)
	}
}

// Sink receives events as actions are applied.
type Sink interface {
	Record(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Record calls f(event).
func (f SinkFunc) Record(event Event) {
	f(event)
}

// MultiSink fans events out to several sinks in order. Nil sinks are skipped.
func MultiSink(sinks ...Sink) Sink {
	var out multiSink
	for _, sink := range sinks {
		if sink != nil {
			out = append(out, sink)
		}
	}
	return out
}

type multiSink []Sink

func (m multiSink) Record(event Event) {
	for _, sink := range m {
		sink.Record(event)
	}
}
