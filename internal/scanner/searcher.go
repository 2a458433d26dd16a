package scanner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/catalog"
	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/checkpoint"
	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/probe"
)

// Version sweep bounds. The main scan covers V1 through V5; the extended pass
// picks up V6 through V9 for cards that already reached V5.
const (
	maxMainVersion     = 5
	firstExtendVersion = 6
	maxExtendVersion   = 9
)

// ErrUndetermined marks items whose existence the prober could not settle
// within its attempt budget. The orchestrator records these as errors so an
// error-only rescan picks them up.
var ErrUndetermined = errors.New("page existence undetermined")

// Prober answers whether a single page exists.
type Prober interface {
	Probe(ctx context.Context, rawURL string) (probe.Outcome, error)
}

// SearchConfig holds the settings for the per-item search. This struct is
// decoupled from Viper so the Searcher stays testable on its own.
type SearchConfig struct {
	BaseURL   string
	DelayMin  time.Duration
	DelayMax  time.Duration
	BaseCheck bool
}

// SearchResult is the outcome of one card's variant search. Variants is
// populated only when V1Exists, always starts with the V1 URL, and is in
// ascending version order.
type SearchResult struct {
	V1Exists    bool
	BaseChecked bool
	BaseExists  bool
	Variants    []string
}

// Searcher settles one card at a time: does its V1 page exist, and if so,
// which sibling versions are live. Probes run strictly one at a time with a
// randomized courtesy delay before every probe past the first, so the scan
// never shows a fixed request-rate signature.
type Searcher struct {
	cfg    SearchConfig
	prober Prober
	pauser probe.Pauser
	logger *zap.Logger
}

// NewSearcher wires a Searcher. A nil pauser gets the real timer-backed one.
func NewSearcher(cfg SearchConfig, prober Prober, pauser probe.Pauser, logger *zap.Logger) *Searcher {
	if pauser == nil {
		pauser = probe.TimerPauser{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Searcher{cfg: cfg, prober: prober, pauser: pauser, logger: logger}
}

// FindVariants probes the card's V1 page and, when it exists, sweeps V2..V5.
// NotFound gaps never stop the sweep; a missing V3 still leaves V4 and V5 to
// be probed. When V1 does not exist and base checking is enabled, the bare
// slug page is probed once so the caller can tell a variantless card from a
// catalog entry the site does not know at all. Any probe error or
// undetermined answer mid-search aborts the whole item.
func (s *Searcher) FindVariants(ctx context.Context, card catalog.Card) (SearchResult, error) {
	v1 := card.VariantURL(s.cfg.BaseURL, 1)
	outcome, err := s.probeCandidate(ctx, v1, false)
	if err != nil {
		return SearchResult{}, err
	}

	if outcome == probe.NotFound {
		return s.checkBase(ctx, card)
	}

	res := SearchResult{V1Exists: true, Variants: []string{v1}}
	for n := 2; n <= maxMainVersion; n++ {
		candidate := card.VariantURL(s.cfg.BaseURL, n)
		outcome, err := s.probeCandidate(ctx, candidate, true)
		if err != nil {
			return SearchResult{}, err
		}
		if outcome == probe.Exists {
			res.Variants = append(res.Variants, candidate)
		}
	}
	s.logger.Debug("variant search settled",
		zap.String("slug", card.Slug),
		zap.Int("variants", len(res.Variants)))
	return res, nil
}

// checkBase distinguishes a card without variants from a card the site does
// not list at all. Skipped entirely when base checking is off.
func (s *Searcher) checkBase(ctx context.Context, card catalog.Card) (SearchResult, error) {
	if !s.cfg.BaseCheck {
		return SearchResult{}, nil
	}
	base := card.URL(s.cfg.BaseURL)
	outcome, err := s.probeCandidate(ctx, base, true)
	if err != nil {
		return SearchResult{}, err
	}
	return SearchResult{BaseChecked: true, BaseExists: outcome == probe.Exists}, nil
}

// ExtendRecord probes the V6..V9 candidates for an ok record whose variants
// already include V5, inserting any finds in ascending order. Records that
// never reached V5 are returned untouched, so re-running the pass against an
// unchanged store mutates nothing. The input record is not modified.
func (s *Searcher) ExtendRecord(ctx context.Context, rec checkpoint.Record) (checkpoint.Record, bool, error) {
	if rec.Status != checkpoint.StatusOK {
		return rec, false, nil
	}
	present := make(map[int]bool, len(rec.Variants))
	template := ""
	for _, u := range rec.Variants {
		v, ok := catalog.Version(u)
		if !ok {
			continue
		}
		present[v] = true
		if v == maxMainVersion {
			template = u
		}
	}
	if template == "" {
		return rec, false, nil
	}

	var found []string
	for n := firstExtendVersion; n <= maxExtendVersion; n++ {
		if present[n] {
			continue
		}
		candidate, err := catalog.WithVersion(template, n)
		if err != nil {
			return rec, false, fmt.Errorf("build extended candidate: %w", err)
		}
		outcome, err := s.probeCandidate(ctx, candidate, true)
		if err != nil {
			return rec, false, err
		}
		if outcome == probe.Exists {
			found = append(found, candidate)
		}
	}
	if len(found) == 0 {
		return rec, false, nil
	}

	merged := append(append([]string(nil), rec.Variants...), found...)
	sort.Slice(merged, func(i, j int) bool {
		vi, _ := catalog.Version(merged[i])
		vj, _ := catalog.Version(merged[j])
		return vi < vj
	})
	updated := rec
	updated.Variants = merged
	return updated, true, nil
}

// probeCandidate runs one probe, optionally after the courtesy delay, and
// folds the undetermined case into an error so callers see a clean tri-state:
// exists, not found, or abort.
func (s *Searcher) probeCandidate(ctx context.Context, rawURL string, delayFirst bool) (probe.Outcome, error) {
	if delayFirst {
		s.pauser.Pause(ctx, probe.JitterBetween(s.cfg.DelayMin, s.cfg.DelayMax))
	}
	outcome, err := s.prober.Probe(ctx, rawURL)
	if err != nil {
		return outcome, fmt.Errorf("probe %s: %w", rawURL, err)
	}
	if outcome == probe.Inconclusive {
		return outcome, fmt.Errorf("probe %s: %w", rawURL, ErrUndetermined)
	}
	return outcome, nil
}
