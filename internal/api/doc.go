// Package api hosts the optional status HTTP server for operator access.
// Notable routes:
//   - GET /healthz and /readyz for liveness/readiness probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /progress for a JSON snapshot of the scan in progress via the
//     ProgressSource interface.
package api
