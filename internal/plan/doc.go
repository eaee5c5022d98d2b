// Package plan holds the vocabulary shared by the planning pipeline: problem
// definitions and their loaders, relation categories, pending tasks, role
// assignments and the primitive actions the planner emits.
package plan
