package executor

import (
	"errors"
	"log/slog"

	"github.com/kingrea/stackplan/internal/logging"
	"github.com/kingrea/stackplan/internal/plan"
	"github.com/kingrea/stackplan/internal/relation"
	"github.com/kingrea/stackplan/internal/world"
)

// ErrPlanMismatch reports an action whose expected location or block does
// not agree with the world when it is applied.
var ErrPlanMismatch = errors.New("action does not match the world")

// Executor owns the world state for a run.
type Executor struct {
	state  *world.State
	facts  *relation.Set
	sink   Sink
	logger *slog.Logger
}

// Option customizes an executor.
type Option func(*Executor)

// WithSink registers the event observer.
func WithSink(sink Sink) Option {
	return func(e *Executor) {
		e.sink = sink
	}
}

// WithLogger sets the logger used for per-action debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New takes ownership of state and seeds the fact cache from it.
func New(state *world.State, opts ...Option) *Executor {
	e := &Executor{
		state:  state,
		facts:  relation.Extract(state),
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Snapshot returns a copy of the current world.
func (e *Executor) Snapshot() *world.State {
	return e.state.Clone()
}

// Facts returns a copy of the cached fact set.
func (e *Executor) Facts() *relation.Set {
	return e.facts.Clone()
}

// Execute applies actions in order on behalf of task. It stops at the first
// failure and returns the events applied so far.
func (e *Executor) Execute(task plan.Task, actions []plan.Action) ([]Event, error) {
	events := make([]Event, 0, len(actions))
	for _, action := range actions {
		event, err := e.apply(action, task.String())
		if err != nil {
			return events, err
		}
		events = append(events, event)
	}
	return events, nil
}

// Apply runs a single action outside any task.
func (e *Executor) Apply(action plan.Action) (Event, error) {
	return e.apply(action, "")
}

func (e *Executor) apply(action plan.Action, task string) (Event, error) {
	var (
		event Event
		err   error
	)
	switch action.Kind {
	case plan.ActionPickUp:
		event, err = e.pickUp(action)
	case plan.ActionPutDown:
		event, err = e.putDown(action)
	case plan.ActionMoveTo:
		event, err = e.moveTo(action)
	default:
		err = &world.IllegalActionError{Op: string(action.Kind), Location: action.Location, Err: ErrPlanMismatch}
	}
	if err != nil {
		return Event{}, err
	}
	event.Seq = e.state.Advance()
	event.Task = task
	e.logger.Debug("action applied",
		"seq", event.Seq,
		"kind", string(event.Kind),
		"block", string(event.Block),
		"from", event.From.String(),
		"to", event.To.String(),
	)
	if e.sink != nil {
		e.sink.Record(event)
	}
	return event, nil
}

func (e *Executor) checkAt(action plan.Action) error {
	at := e.state.Arm().At
	if action.Location != at {
		return &world.IllegalActionError{Op: string(action.Kind), Location: at, Block: action.Block, Err: ErrPlanMismatch}
	}
	return nil
}

func (e *Executor) pickUp(action plan.Action) (Event, error) {
	if err := e.checkAt(action); err != nil {
		return Event{}, err
	}
	at := e.state.Arm().At
	if top, ok := e.state.Top(at); ok && action.Block != "" && top != action.Block {
		return Event{}, &world.IllegalActionError{Op: string(action.Kind), Location: at, Block: action.Block, Err: ErrPlanMismatch}
	}
	block, err := e.state.PickUp()
	if err != nil {
		return Event{}, err
	}
	exposed, hasExposed := e.state.Top(at)
	e.facts.RemoveFunc(func(r relation.Relation) bool {
		return r.Kind != relation.KindAbove && r.Upper == block
	})
	if hasExposed {
		e.facts.Add(relation.Clear(exposed, at))
	}
	e.facts.Add(relation.Above(block, exposed, at))
	return Event{Kind: plan.ActionPickUp, Block: block, Exposed: exposed, From: at, To: at}, nil
}

func (e *Executor) putDown(action plan.Action) (Event, error) {
	if err := e.checkAt(action); err != nil {
		return Event{}, err
	}
	at := e.state.Arm().At
	if held := e.state.Arm().Holding; held != "" && action.Block != "" && held != action.Block {
		return Event{}, &world.IllegalActionError{Op: string(action.Kind), Location: at, Block: action.Block, Err: ErrPlanMismatch}
	}
	covered, hasCovered := e.state.Top(at)
	block, err := e.state.PutDown()
	if err != nil {
		return Event{}, err
	}
	e.facts.RemoveFunc(func(r relation.Relation) bool { return r.Kind == relation.KindAbove })
	if hasCovered {
		e.facts.Remove(relation.Clear(covered, at))
		e.facts.Add(relation.On(block, covered, at))
	} else {
		e.facts.Add(relation.OnTable(block, at))
	}
	e.facts.Add(relation.Clear(block, at))
	return Event{Kind: plan.ActionPutDown, Block: block, Exposed: covered, From: at, To: at}, nil
}

func (e *Executor) moveTo(action plan.Action) (Event, error) {
	from := e.state.Arm().At
	if err := e.state.MoveArm(action.Location); err != nil {
		return Event{}, err
	}
	to := action.Location
	held := e.state.Arm().Holding
	exposed, _ := e.state.Top(to)
	if held != "" {
		e.facts.RemoveFunc(func(r relation.Relation) bool { return r.Kind == relation.KindAbove })
		e.facts.Add(relation.Above(held, exposed, to))
	}
	return Event{Kind: plan.ActionMoveTo, Block: held, Exposed: exposed, From: from, To: to}, nil
}
