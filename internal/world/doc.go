// Package world models the three-location blocks world: ordered stacks of
// labeled blocks, a single-capacity arm, and the primitive mutations that move
// blocks between them. Every mutation re-checks its precondition and reports
// an IllegalActionError instead of corrupting the state.
package world
