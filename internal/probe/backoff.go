package probe

import (
	"crypto/rand"
	"math/big"
	"time"
)

// BackoffPolicy computes jittered cooldowns for transient remote signals.
// Growth is exponential per attempt and capped, so a stubborn block never
// turns into an unbounded stall.
type BackoffPolicy struct {
	maxAttempts   int
	rateLimitBase time.Duration
	blockedBase   time.Duration
	maxCooldown   time.Duration
}

// NewBackoffPolicy builds a policy from the prober config.
func NewBackoffPolicy(cfg Config) BackoffPolicy {
	return BackoffPolicy{
		maxAttempts:   cfg.MaxAttempts,
		rateLimitBase: cfg.RateLimitCooldown,
		blockedBase:   cfg.BlockedCooldown,
		maxCooldown:   cfg.MaxCooldown,
	}
}

// ShouldRetry reports whether attempt (1-based) may be followed by another.
func (p BackoffPolicy) ShouldRetry(attempt int) bool {
	return attempt < p.maxAttempts
}

// Cooldown returns the wait before the retry that follows attempt. Blocked
// responses start from a higher base than rate limiting; both double per
// attempt up to the cap, plus random jitter so repeated waits never line up.
func (p BackoffPolicy) Cooldown(signal Signal, attempt int) time.Duration {
	base := p.rateLimitBase
	if signal == SignalBlocked {
		base = p.blockedBase
	}
	if attempt < 1 {
		attempt = 1
	}
	delay := base << (attempt - 1)
	if delay > p.maxCooldown || delay < base {
		delay = p.maxCooldown
	}
	return delay + randomJitter(delay/4)
}

// randomJitter returns a crypto-random duration in [0, limit).
func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	bound := big.NewInt(int64(limit))
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}

// JitterBetween returns a crypto-random duration in [min, max). Callers use
// it to avoid a fixed request-rate signature between probes.
func JitterBetween(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + randomJitter(max-min)
}
