package probe

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/metrics"
)

// Prober fetches candidate pages and classifies them, absorbing transient
// pushback with bounded cooldowns. A Probe call returns once the site gives
// a terminal answer, the attempt budget runs out, or the fetch itself fails.
type Prober struct {
	fetcher  Fetcher
	governor *Governor
	backoff  BackoffPolicy
	classify classifier
	pauser   Pauser
	logger   *zap.Logger
}

// NewProber wires a Prober from config and collaborators. A nil pauser gets
// the real timer-backed one.
func NewProber(cfg Config, fetcher Fetcher, governor *Governor, pauser Pauser, logger *zap.Logger) *Prober {
	if pauser == nil {
		pauser = TimerPauser{}
	}
	return &Prober{
		fetcher:  fetcher,
		governor: governor,
		backoff:  NewBackoffPolicy(cfg),
		classify: newClassifier(cfg.InvalidMarker),
		pauser:   pauser,
		logger:   logger,
	}
}

// Probe answers whether the page at rawURL exists.
//
// Rate-limited and blocked responses are retried after a growing cooldown;
// when the attempt budget is exhausted the result is Inconclusive with no
// error, since the page's existence is genuinely unknown. Transport-level
// failures return an error wrapping ErrUnavailable.
func (p *Prober) Probe(ctx context.Context, rawURL string) (Outcome, error) {
	start := time.Now()
	for attempt := 1; ; attempt++ {
		if err := p.governor.Wait(ctx, rawURL); err != nil {
			return Inconclusive, err
		}

		page, err := p.fetcher.Fetch(ctx, rawURL)
		if err != nil {
			metrics.ObserveProbe("error", time.Since(start))
			return Inconclusive, fmt.Errorf("fetch %s: %w: %w", rawURL, ErrUnavailable, err)
		}

		v := p.classify.classify(page)
		if !v.isTransient() {
			metrics.ObserveProbe(v.outcome.String(), time.Since(start))
			p.logger.Debug("probe settled",
				zap.String("url", rawURL),
				zap.Int("status", page.StatusCode),
				zap.String("outcome", v.outcome.String()),
				zap.Int("attempt", attempt))
			return v.outcome, nil
		}

		if !p.backoff.ShouldRetry(attempt) {
			metrics.ObserveProbe(Inconclusive.String(), time.Since(start))
			p.logger.Warn("probe gave up after repeated pushback",
				zap.String("url", rawURL),
				zap.String("signal", string(v.transient)),
				zap.Int("attempts", attempt))
			return Inconclusive, nil
		}

		cooldown := p.backoff.Cooldown(v.transient, attempt)
		metrics.ObserveRetry(string(v.transient), cooldown)
		p.logger.Info("remote pushback, cooling down",
			zap.String("url", rawURL),
			zap.String("signal", string(v.transient)),
			zap.Duration("cooldown", cooldown),
			zap.Int("attempt", attempt))

		p.pauser.Pause(ctx, cooldown)
		if err := ctx.Err(); err != nil {
			return Inconclusive, err
		}
	}
}
