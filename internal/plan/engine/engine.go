package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kingrea/stackplan/internal/logging"
	"github.com/kingrea/stackplan/internal/plan"
	"github.com/kingrea/stackplan/internal/plan/allocator"
	"github.com/kingrea/stackplan/internal/plan/comparator"
	"github.com/kingrea/stackplan/internal/plan/executor"
	"github.com/kingrea/stackplan/internal/plan/planner"
	"github.com/kingrea/stackplan/internal/world"
)

// ErrNotConverged is returned when a category pass keeps producing pending
// tasks past its iteration bound.
var ErrNotConverged = errors.New("pass did not converge")

// Limits bound each category pass.
type Limits struct {
	// MaxPasses caps comparator iterations per category.
	MaxPasses int `json:"max_passes" yaml:"max_passes"`
	// StallPasses fails a pass once the pending count has not dropped below
	// its best value for this many consecutive iterations.
	StallPasses int `json:"stall_passes" yaml:"stall_passes"`
}

// DefaultLimits are used when a limit is zero or negative.
var DefaultLimits = Limits{MaxPasses: 64, StallPasses: 4}

func (l Limits) normalized() Limits {
	if l.MaxPasses <= 0 {
		l.MaxPasses = DefaultLimits.MaxPasses
	}
	if l.StallPasses <= 0 {
		l.StallPasses = DefaultLimits.StallPasses
	}
	return l
}

// Recorder observes a run for metrics.
type Recorder interface {
	CompareIteration(category plan.Category, pending int)
	TaskExecuted(category plan.Category, actions int)
	ActionApplied(kind plan.ActionKind)
	RunFinished(status string, actions int, elapsed time.Duration)
}

// Engine runs problems to a verdict. An Engine holds no per-run state and may
// be shared between goroutines.
type Engine struct {
	logger    *slog.Logger
	clock     func() time.Time
	newID     func() string
	sink      executor.Sink
	recorder  Recorder
	limits    Limits
	placement plan.Placement
	planFn    func(plan.Task, plan.Roles, *world.State, plan.Placement) ([]plan.Action, error)
}

// Option customizes the engine instance.
type Option func(*Engine)

// WithClock injects a deterministic clock (primarily for tests).
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithRunIDs overrides run id generation.
func WithRunIDs(newID func() string) Option {
	return func(e *Engine) {
		if newID != nil {
			e.newID = newID
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithSink streams every trace event to sink as it is applied.
func WithSink(sink executor.Sink) Option {
	return func(e *Engine) {
		e.sink = sink
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(recorder Recorder) Option {
	return func(e *Engine) {
		e.recorder = recorder
	}
}

// WithLimits overrides the convergence bounds.
func WithLimits(limits Limits) Option {
	return func(e *Engine) {
		e.limits = limits.normalized()
	}
}

// WithPlacement selects how OnTable goals are matched.
func WithPlacement(placement plan.Placement) Option {
	return func(e *Engine) {
		if placement != "" {
			e.placement = placement
		}
	}
}

// New builds an engine.
func New(opts ...Option) *Engine {
	engine := &Engine{
		logger:    logging.Discard(),
		clock:     time.Now,
		newID:     uuid.NewString,
		limits:    DefaultLimits,
		placement: plan.PlacementPinned,
		planFn:    planner.Plan,
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// Placement returns the configured placement policy.
func (e *Engine) Placement() plan.Placement {
	return e.placement
}

// run holds the collaborators of a single Run call.
type run struct {
	engine     *Engine
	logger     *slog.Logger
	report     *Report
	comparator *comparator.Comparator
	allocator  *allocator.Allocator
	executor   *executor.Executor
}

// Run plans and executes problem. The returned report is always populated;
// on failure its status is StatusError and err describes the cause.
func (e *Engine) Run(problem plan.Problem) (Report, error) {
	report := Report{
		RunID:       e.newID(),
		ProblemID:   problem.ID,
		ProblemName: problem.Name,
		Placement:   e.placement,
		Initial:     problem.Initial.Clone(),
		Goal:        problem.Goal.Clone(),
		Final:       problem.Initial.Clone(),
		StartedAt:   e.clock(),
	}
	logger := e.logger.With("run_id", report.RunID, "problem", problem.ID)

	normalized, err := problem.Normalized(problem.ID)
	if err != nil {
		return e.finish(logger, &report, err)
	}
	report.Initial, report.Goal, report.Final = normalized.Initial.Clone(), normalized.Goal.Clone(), normalized.Initial.Clone()
	goals := normalized.GoalFacts()
	r := &run{
		engine:     e,
		logger:     logger,
		report:     &report,
		comparator: comparator.New(goals, e.placement),
		allocator:  allocator.New(goals, e.placement),
	}
	r.executor = executor.New(
		world.NewState(normalized.Initial),
		executor.WithLogger(logger),
		executor.WithSink(executor.SinkFunc(r.record)),
	)
	logger.Info("run started", "placement", string(e.placement), "initial", normalized.Initial.String(), "goal", normalized.Goal.String())

	err = r.execute()
	final := r.executor.Snapshot()
	report.Final = final.Layout()
	report.FinalArm = final.Arm()
	goalFlags := r.comparator.Satisfied()
	report.Goals = make([]GoalStatus, len(goals))
	for i, goal := range goals {
		report.Goals[i] = GoalStatus{Fact: goal, Satisfied: goalFlags[i]}
	}
	return e.finish(logger, &report, err)
}

func (e *Engine) finish(logger *slog.Logger, report *Report, err error) (Report, error) {
	report.FinishedAt = e.clock()
	switch {
	case err != nil:
		report.Status = StatusError
		report.StatusReason = err.Error()
		logger.Error("run failed", "error", err)
	case len(report.Unsatisfied()) == 0:
		report.Status = StatusAchieved
		logger.Info("goal state achieved", "actions", len(report.Events))
	default:
		report.Status = StatusUnsatisfied
		report.StatusReason = fmt.Sprintf("%d goal facts unsatisfied", len(report.Unsatisfied()))
		logger.Warn("goal state not achieved", "unsatisfied", len(report.Unsatisfied()))
	}
	if e.recorder != nil {
		e.recorder.RunFinished(string(report.Status), len(report.Events), report.Duration())
	}
	return *report, err
}

func (r *run) record(event executor.Event) {
	r.report.Events = append(r.report.Events, event)
	if r.engine.recorder != nil {
		r.engine.recorder.ActionApplied(event.Kind)
	}
	if r.engine.sink != nil {
		r.engine.sink.Record(event)
	}
}

// execute runs the table and on passes to convergence, then the clear pass
// once as verification.
func (r *run) execute() error {
	for _, category := range []plan.Category{plan.CategoryTable, plan.CategoryOn} {
		if err := r.converge(category); err != nil {
			return err
		}
	}
	pending, err := r.comparator.Compare(plan.CategoryClear, r.executor.Facts())
	if err != nil {
		return err
	}
	r.observe(plan.CategoryClear, 1, pending, 0)
	return nil
}

func (r *run) converge(category plan.Category) error {
	limits := r.engine.limits
	best, stalled := -1, 0
	for iteration := 1; iteration <= limits.MaxPasses; iteration++ {
		pending, err := r.comparator.Compare(category, r.executor.Facts())
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			r.observe(category, iteration, nil, 0)
			return nil
		}
		if best < 0 || len(pending) < best {
			best, stalled = len(pending), 0
		} else {
			stalled++
			if stalled >= limits.StallPasses {
				return notConverged(category, iteration, pending)
			}
		}
		actions := 0
		for _, task := range pending {
			applied, err := r.achieve(task)
			actions += applied
			if err != nil {
				r.observe(category, iteration, pending, actions)
				return err
			}
		}
		r.observe(category, iteration, pending, actions)
	}
	pending, err := r.comparator.Compare(category, r.executor.Facts())
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		r.observe(category, limits.MaxPasses+1, nil, 0)
		return nil
	}
	return notConverged(category, limits.MaxPasses, pending)
}

// achieve allocates, plans and executes one task, returning the number of
// actions applied. Earlier tasks of the same iteration may already have
// satisfied it, in which case nothing is allocated.
func (r *run) achieve(task plan.Task) (int, error) {
	if r.executor.Facts().Holds(task.Fact, r.engine.placement.Pinned()) {
		r.logger.Debug("task already holds", "task", task.String())
		return 0, nil
	}
	state := r.executor.Snapshot()
	roles, err := r.allocator.Allocate(task, state)
	if err != nil {
		return 0, err
	}
	actions, err := r.engine.planFn(task, roles, state, r.engine.placement)
	if err != nil {
		return 0, err
	}
	r.logger.Debug("task planned", "task", task.String(), "roles", roles.String(), "actions", len(actions))
	events, err := r.executor.Execute(task, actions)
	if err != nil {
		return len(events), &plan.TaskError{Task: task, Err: err}
	}
	if r.engine.recorder != nil {
		r.engine.recorder.TaskExecuted(task.Category(), len(events))
	}
	return len(events), nil
}

func (r *run) observe(category plan.Category, iteration int, pending []plan.Task, actions int) {
	summary := PassSummary{Category: category, Iteration: iteration, Actions: actions}
	for _, task := range pending {
		summary.Pending = append(summary.Pending, task.String())
	}
	r.report.Passes = append(r.report.Passes, summary)
	if r.engine.recorder != nil {
		r.engine.recorder.CompareIteration(category, len(pending))
	}
	r.logger.Debug("pass iteration", "category", string(category), "iteration", iteration, "pending", len(pending), "actions", actions)
}

func notConverged(category plan.Category, iteration int, pending []plan.Task) error {
	names := make([]string, len(pending))
	for i, task := range pending {
		names[i] = task.String()
	}
	return fmt.Errorf("engine: %s pass: %w after %d iterations: pending %v", category, ErrNotConverged, iteration, names)
}
