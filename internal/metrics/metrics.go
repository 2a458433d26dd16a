// Package metrics exposes Prometheus collectors for the scanner.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	scanProbesTotal            *prometheus.CounterVec
	scanProbeRetriesTotal      *prometheus.CounterVec
	scanProbeCooldownSeconds   *prometheus.HistogramVec
	scanProbeDurationSeconds   prometheus.Histogram
	scanItemsTotal             *prometheus.CounterVec
	scanVariantsFoundTotal     prometheus.Counter
	scanRunning                prometheus.Gauge
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		scanProbesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardscan_probes_total",
				Help: "Total page probes performed, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		scanProbeRetriesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardscan_probe_retries_total",
				Help: "Total transient probe retries, labeled by remote signal.",
			},
			[]string{"signal"},
		)

		scanProbeCooldownSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cardscan_probe_cooldown_seconds",
				Help:    "Histogram of cooldown waits before retrying a probe.",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"signal"},
		)

		scanProbeDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cardscan_probe_duration_seconds",
				Help:    "Histogram of end-to-end probe latencies including retries.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 60},
			},
		)

		scanItemsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardscan_items_total",
				Help: "Total catalog items processed, labeled by terminal status.",
			},
			[]string{"status"},
		)

		scanVariantsFoundTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "cardscan_variants_found_total",
				Help: "Total variant pages confirmed to exist.",
			},
		)

		scanRunning = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "cardscan_running",
				Help: "Whether a scan is currently in progress.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveProbe records one finished probe with its final outcome.
func ObserveProbe(outcome string, duration time.Duration) {
	scanProbesTotal.WithLabelValues(outcome).Inc()
	scanProbeDurationSeconds.Observe(duration.Seconds())
}

// ObserveRetry records one transient retry and the cooldown it waited.
func ObserveRetry(signal string, cooldown time.Duration) {
	scanProbeRetriesTotal.WithLabelValues(signal).Inc()
	scanProbeCooldownSeconds.WithLabelValues(signal).Observe(cooldown.Seconds())
}

// ObserveItem increments the item counter for the given terminal status.
func ObserveItem(status string) {
	scanItemsTotal.WithLabelValues(status).Inc()
}

// AddVariantsFound bumps the confirmed-variant counter.
func AddVariantsFound(n int) {
	if n > 0 {
		scanVariantsFoundTotal.Add(float64(n))
	}
}

// SetScanRunning flips the in-progress gauge.
func SetScanRunning(running bool) {
	if running {
		scanRunning.Set(1)
		return
	}
	scanRunning.Set(0)
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
