package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInit(t *testing.T) {
	// Reset collectors for testing purposes.
	scanProbesTotal = nil
	scanItemsTotal = nil
	scanVariantsFoundTotal = nil
	httpRequestsTotal = nil

	// Call Init multiple times to test idempotency.
	Init()
	Init()

	if scanProbesTotal == nil || scanItemsTotal == nil ||
		scanVariantsFoundTotal == nil || httpRequestsTotal == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}

	ObserveProbe("exists", 120*time.Millisecond)
	if val := testutil.ToFloat64(scanProbesTotal.WithLabelValues("exists")); val != 1 {
		t.Errorf("Expected one exists probe, got %f", val)
	}

	ObserveRetry("rate_limited", 30*time.Second)
	if val := testutil.ToFloat64(scanProbeRetriesTotal.WithLabelValues("rate_limited")); val != 1 {
		t.Errorf("Expected one rate_limited retry, got %f", val)
	}

	ObserveItem("ok")
	ObserveItem("no-variants")
	if val := testutil.ToFloat64(scanItemsTotal.WithLabelValues("ok")); val != 1 {
		t.Errorf("Expected one ok item, got %f", val)
	}

	AddVariantsFound(3)
	AddVariantsFound(0)
	if val := testutil.ToFloat64(scanVariantsFoundTotal); val != 3 {
		t.Errorf("Expected 3 variants found, got %f", val)
	}

	SetScanRunning(true)
	if val := testutil.ToFloat64(scanRunning); val != 1 {
		t.Errorf("Expected running gauge at 1, got %f", val)
	}
	SetScanRunning(false)
	if val := testutil.ToFloat64(scanRunning); val != 0 {
		t.Errorf("Expected running gauge at 0, got %f", val)
	}
}
