// Package metrics records planner runs as Prometheus metrics on a private
// registry and dumps them in the text exposition format.
package metrics
