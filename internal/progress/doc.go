// Package progress provides the event primitives, synchronous recorder, and
// emitter interface the scanner uses to report per-item progress. Events fan
// out in emission order to pluggable sinks such as structured logging,
// Prometheus run metrics, or the in-memory snapshot served by the status API.
package progress
