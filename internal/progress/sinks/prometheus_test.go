package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/progress"
)

// TestPrometheusSinkRecordsRunLifecycle ensures counters and the running gauge
// follow run events.
func TestPrometheusSinkRecordsRunLifecycle(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	runID := uuid.New()
	start := time.Now()
	require.NoError(t, sink.Consume(context.Background(), []progress.Event{
		{RunID: runID, TS: start, Stage: progress.StageRunStart},
	}))

	require.Equal(t, 1.0, testutil.ToFloat64(sink.runsStarted))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.runsRunning))

	require.NoError(t, sink.Consume(context.Background(), []progress.Event{
		{RunID: runID, TS: start.Add(15 * time.Second), Stage: progress.StageRunDone, Dur: 15 * time.Second},
	}))

	require.Equal(t, 1.0, testutil.ToFloat64(sink.runsCompleted.WithLabelValues("success")))
	require.Equal(t, 0.0, testutil.ToFloat64(sink.runsCompleted.WithLabelValues("error")))
	require.Equal(t, 0.0, testutil.ToFloat64(sink.runsRunning))
	require.Equal(t, 1, testutil.CollectAndCount(sink.runDuration, "cardscan_run_duration_seconds"))
}

// TestPrometheusSinkDeduplicatesRunStart verifies the gauge is not inflated by
// a replayed start event for the same run.
func TestPrometheusSinkDeduplicatesRunStart(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	runID := uuid.New()
	evt := progress.Event{RunID: runID, TS: time.Now(), Stage: progress.StageRunStart}
	require.NoError(t, sink.Consume(context.Background(), []progress.Event{evt, evt}))

	require.Equal(t, 2.0, testutil.ToFloat64(sink.runsStarted))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.runsRunning))

	// Completion for an unknown run must not drive the gauge negative.
	require.NoError(t, sink.Consume(context.Background(), []progress.Event{
		{RunID: runID, TS: time.Now(), Stage: progress.StageRunError},
		{RunID: uuid.New(), TS: time.Now(), Stage: progress.StageRunError},
	}))
	require.Equal(t, 0.0, testutil.ToFloat64(sink.runsRunning))
}

// TestPrometheusSinkIgnoresItemEvents keeps item accounting out of the run
// collectors; the metrics package owns those counters.
func TestPrometheusSinkIgnoresItemEvents(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	require.NoError(t, sink.Consume(context.Background(), []progress.Event{
		{RunID: uuid.New(), TS: time.Now(), Stage: progress.StageItemDone, Slug: "pikachu-swsh039", Status: "ok", Variants: 2},
	}))

	require.Equal(t, 0.0, testutil.ToFloat64(sink.runsStarted))
	require.Equal(t, 0.0, testutil.ToFloat64(sink.runsRunning))
}
