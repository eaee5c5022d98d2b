// Package executor applies primitive actions to the world, keeps the fact set
// in step with every mutation and reports each applied action as an Event.
package executor
