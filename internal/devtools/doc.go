// Package devtools serves a live view of a reactive runtime.
//
// The inspector exposes the runtime's graph and counters over HTTP and
// streams propagation events to WebSocket clients:
//
//	GET /graph    JSON snapshot of the live graph
//	GET /stats    runtime counters
//	GET /metrics  Prometheus metrics
//	GET /ws       event stream
//
// A Runtime is confined to one goroutine, so the server never reads it
// directly. The goroutine that owns the runtime publishes snapshots with
// SetSnapshot and forwards events through the Hub, which is an Observer.
package devtools
