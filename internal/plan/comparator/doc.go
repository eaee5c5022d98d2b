// Package comparator matches the current fact set against the goal facts one
// category at a time. It owns the satisfaction vector and returns the ordered
// list of goal facts that still need work.
package comparator
