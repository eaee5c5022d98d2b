package plan

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedProblem reports input arrangements the planner cannot accept.
	ErrMalformedProblem = errors.New("malformed problem")
	// ErrUnresolvableTask reports a task the allocator or planner cannot place.
	ErrUnresolvableTask = errors.New("unresolvable task")
)

// TaskError ties a planning failure to the task that caused it.
type TaskError struct {
	Task Task
	Err  error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("plan: task %s: %v", e.Task, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// Unresolvable builds a TaskError wrapping ErrUnresolvableTask with detail.
func Unresolvable(task Task, format string, args ...any) error {
	return &TaskError{Task: task, Err: fmt.Errorf("%w: %s", ErrUnresolvableTask, fmt.Sprintf(format, args...))}
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("plan: %w: %s", ErrMalformedProblem, fmt.Sprintf(format, args...))
}
