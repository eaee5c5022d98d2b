// Package planner turns one pending task and its role assignment into the
// ordered pick-up, put-down and move-to actions that achieve it. Plans are
// built by simulating every step on a private copy of the world, so each
// emitted action is known to be legal when it was generated.
package planner
