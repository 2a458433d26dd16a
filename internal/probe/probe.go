// Package probe answers one question per URL: does this product page exist?
// It owns the HTTP transport, the response classification heuristics, and
// the cooldown behavior for remote pushback, so callers only ever see a
// tri-state outcome.
package probe

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Outcome is the tri-state verdict of a probe.
type Outcome int

const (
	// Inconclusive means the remote kept pushing back until the attempt
	// budget ran out; the page may or may not exist.
	Inconclusive Outcome = iota
	// Exists means the page is live.
	Exists
	// NotFound means the site has no such page.
	NotFound
)

func (o Outcome) String() string {
	switch o {
	case Exists:
		return "exists"
	case NotFound:
		return "not_found"
	default:
		return "inconclusive"
	}
}

// ErrUnavailable marks probes that failed outright (network, DNS, transport)
// rather than being answered by the site.
var ErrUnavailable = errors.New("remote unavailable")

// Signal names the transient pushback a response carried.
type Signal string

const (
	// SignalRateLimited is the polite slow-down response.
	SignalRateLimited Signal = "rate_limited"
	// SignalBlocked is the stronger go-away response.
	SignalBlocked Signal = "blocked"
)

// Page is a fetched response, before classification.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Fetcher retrieves a single page.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Page, error)
}

// Pauser abstracts how the prober sleeps so tests can skip real waits.
type Pauser interface {
	Pause(ctx context.Context, delay time.Duration)
}

// TimerPauser waits on a real timer and returns early when ctx is canceled.
type TimerPauser struct{}

// Pause blocks for delay or until ctx is done.
func (TimerPauser) Pause(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Config carries the prober knobs. The zero value is not usable; callers
// populate it from the application config.
type Config struct {
	UserAgent         string
	Timeout           time.Duration
	MaxAttempts       int
	RateLimitCooldown time.Duration
	BlockedCooldown   time.Duration
	MaxCooldown       time.Duration
	InvalidMarker     string
	RequestsPerSecond float64
	Burst             int
	RespectRobots     bool
}
