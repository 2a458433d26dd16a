package probe

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// Governor is a shared per-host token bucket. Every probe waits on it before
// touching the network, so the total request rate stays honest even if more
// than one caller ever holds a prober.
type Governor struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

// NewGovernor builds a Governor allowing rps requests per second per host.
func NewGovernor(rps float64, burst int) *Governor {
	r := rate.Limit(rps)
	if rps <= 0 {
		r = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &Governor{
		limiters: make(map[string]*rate.Limiter),
		rate:     r,
		burst:    burst,
	}
}

// Wait blocks until a token is available for rawURL's host, respecting ctx.
func (g *Governor) Wait(ctx context.Context, rawURL string) error {
	host := "unknown"
	if u, err := url.Parse(rawURL); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}

	g.mu.Lock()
	limiter, ok := g.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(g.rate, g.burst)
		g.limiters[host] = limiter
	}
	g.mu.Unlock()

	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}
