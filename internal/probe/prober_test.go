package probe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/metrics"
)

// scriptedFetcher replays a fixed sequence of pages or errors.
type scriptedFetcher struct {
	pages []Page
	errs  []error
	calls int
}

func (f *scriptedFetcher) Fetch(_ context.Context, rawURL string) (Page, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return Page{}, f.errs[i]
	}
	if i >= len(f.pages) {
		return Page{}, errors.New("scripted fetcher exhausted")
	}
	p := f.pages[i]
	if p.URL == "" {
		p.URL = rawURL
	}
	if p.FinalURL == "" {
		p.FinalURL = rawURL
	}
	return p, nil
}

// recordingPauser captures cooldowns without sleeping.
type recordingPauser struct {
	delays []time.Duration
	cancel context.CancelFunc
}

func (p *recordingPauser) Pause(_ context.Context, delay time.Duration) {
	p.delays = append(p.delays, delay)
	if p.cancel != nil {
		p.cancel()
	}
}

func testProbeConfig() Config {
	return Config{
		UserAgent:         "test-agent",
		Timeout:           time.Second,
		MaxAttempts:       3,
		RateLimitCooldown: 30 * time.Second,
		BlockedCooldown:   3 * time.Minute,
		MaxCooldown:       10 * time.Minute,
		InvalidMarker:     "Invalid product",
	}
}

func TestProbeRetriesThroughRateLimiting(t *testing.T) {
	metrics.Init()

	fetcher := &scriptedFetcher{pages: []Page{
		{StatusCode: 429},
		{StatusCode: 429},
		{StatusCode: 200, Body: []byte("<html>Pikachu</html>")},
	}}
	pauser := &recordingPauser{}
	prober := NewProber(testProbeConfig(), fetcher, NewGovernor(0, 1), pauser, zap.NewNop())

	outcome, err := prober.Probe(context.Background(), "https://cards.example.com/pikachu-V1-SVI007")
	require.NoError(t, err)
	require.Equal(t, Exists, outcome)
	require.Equal(t, 3, fetcher.calls)

	require.Len(t, pauser.delays, 2)
	require.GreaterOrEqual(t, pauser.delays[0], 30*time.Second)
	require.GreaterOrEqual(t, pauser.delays[1], time.Minute)
	require.Greater(t, pauser.delays[1], pauser.delays[0])
}

func TestProbeGivesUpAfterBudget(t *testing.T) {
	metrics.Init()

	fetcher := &scriptedFetcher{pages: []Page{
		{StatusCode: 429},
		{StatusCode: 403},
		{StatusCode: 429},
	}}
	pauser := &recordingPauser{}
	prober := NewProber(testProbeConfig(), fetcher, NewGovernor(0, 1), pauser, zap.NewNop())

	outcome, err := prober.Probe(context.Background(), "https://cards.example.com/pikachu-V1-SVI007")
	require.NoError(t, err)
	require.Equal(t, Inconclusive, outcome)
	require.Equal(t, 3, fetcher.calls)
	require.Len(t, pauser.delays, 2)
}

func TestProbeSurfacesTransportFailure(t *testing.T) {
	metrics.Init()

	boom := errors.New("dial tcp: connection refused")
	fetcher := &scriptedFetcher{errs: []error{boom}}
	prober := NewProber(testProbeConfig(), fetcher, NewGovernor(0, 1), &recordingPauser{}, zap.NewNop())

	outcome, err := prober.Probe(context.Background(), "https://cards.example.com/pikachu-V1-SVI007")
	require.Equal(t, Inconclusive, outcome)
	require.ErrorIs(t, err, ErrUnavailable)
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, fetcher.calls)
}

func TestProbeStopsWhenContextCanceledDuringCooldown(t *testing.T) {
	metrics.Init()

	ctx, cancel := context.WithCancel(context.Background())
	fetcher := &scriptedFetcher{pages: []Page{
		{StatusCode: 429},
		{StatusCode: 200},
	}}
	pauser := &recordingPauser{cancel: cancel}
	prober := NewProber(testProbeConfig(), fetcher, NewGovernor(0, 1), pauser, zap.NewNop())

	outcome, err := prober.Probe(ctx, "https://cards.example.com/pikachu-V1-SVI007")
	require.Equal(t, Inconclusive, outcome)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, fetcher.calls)
}

func TestProbeClassifiesSoftNotFound(t *testing.T) {
	metrics.Init()

	fetcher := &scriptedFetcher{pages: []Page{
		{StatusCode: 200, Body: []byte("<html>Invalid product</html>")},
	}}
	prober := NewProber(testProbeConfig(), fetcher, NewGovernor(0, 1), &recordingPauser{}, zap.NewNop())

	outcome, err := prober.Probe(context.Background(), "https://cards.example.com/pikachu-V9-SVI007")
	require.NoError(t, err)
	require.Equal(t, NotFound, outcome)
}
