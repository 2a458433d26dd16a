// Package sinks implements concrete progress consumers such as Prometheus run
// metrics, structured logging, and the in-memory snapshot served by the status
// API. Each sink satisfies the progress.Sink interface and is safe for
// repeated Consume/Close cycles.
package sinks
