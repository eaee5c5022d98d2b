// Package engine drives a planning run. It feeds the comparator, allocator,
// planner and executor through the table, on and clear passes, bounds each
// pass against non-convergence, and summarizes the run as a Report that can be
// persisted and replayed.
package engine
