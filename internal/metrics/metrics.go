package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/kingrea/stackplan/internal/plan"
)

const namespace = "stackplan"

// Recorder implements the engine's recorder callbacks. It is safe for
// concurrent runs.
type Recorder struct {
	registry    *prometheus.Registry
	actions     *prometheus.CounterVec
	tasks       *prometheus.CounterVec
	iterations  *prometheus.CounterVec
	pending     *prometheus.GaugeVec
	runs        *prometheus.CounterVec
	planLength  prometheus.Histogram
	runLength   prometheus.Histogram
	runDuration prometheus.Histogram
}

// New registers every collector on a fresh registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Primitive actions applied, by kind.",
		}, []string{"kind"}),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_total",
			Help:      "Tasks planned and executed, by fact category.",
		}, []string{"category"}),
		iterations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compare_iterations_total",
			Help:      "Comparator iterations, by fact category.",
		}, []string{"category"}),
		pending: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_tasks",
			Help:      "Tasks returned by the most recent comparison, by fact category.",
		}, []string{"category"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished runs, by status.",
		}, []string{"status"}),
		planLength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_plan_length",
			Help:      "Primitive actions emitted per task.",
			Buckets:   []float64{0, 1, 2, 3, 4, 6, 8, 12, 16, 24, 32},
		}),
		runLength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_plan_length",
			Help:      "Primitive actions applied per run.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a run.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}
	r.registry.MustRegister(r.actions, r.tasks, r.iterations, r.pending, r.runs, r.planLength, r.runLength, r.runDuration)
	return r
}

// Registry exposes the private registry, mainly for tests and HTTP handlers.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// CompareIteration counts one comparator call and the tasks it returned.
func (r *Recorder) CompareIteration(category plan.Category, pending int) {
	r.iterations.WithLabelValues(string(category)).Inc()
	r.pending.WithLabelValues(string(category)).Set(float64(pending))
}

// TaskExecuted counts a task and observes its plan length.
func (r *Recorder) TaskExecuted(category plan.Category, actions int) {
	r.tasks.WithLabelValues(string(category)).Inc()
	r.planLength.Observe(float64(actions))
}

// ActionApplied counts one primitive.
func (r *Recorder) ActionApplied(kind plan.ActionKind) {
	r.actions.WithLabelValues(string(kind)).Inc()
}

// RunFinished counts the verdict and observes the run length and duration.
func (r *Recorder) RunFinished(status string, actions int, elapsed time.Duration) {
	r.runs.WithLabelValues(status).Inc()
	r.runLength.Observe(float64(actions))
	r.runDuration.Observe(elapsed.Seconds())
}

// WriteText gathers the registry and writes it in text exposition format.
func (r *Recorder) WriteText(w io.Writer) error {
	families, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("metrics: gather: %w", err)
	}
	for _, family := range families {
		if _, err := expfmt.MetricFamilyToText(w, family); err != nil {
			return fmt.Errorf("metrics: write %s: %w", family.GetName(), err)
		}
	}
	return nil
}
