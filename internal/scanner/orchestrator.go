package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/catalog"
	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/checkpoint"
	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/metrics"
	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/progress"
)

// Mode selects how the orchestrator treats records already in the store.
type Mode string

const (
	// ModeScan keeps the checkpoint cache; settled items are skipped.
	ModeScan Mode = "scan"
	// ModeRetryErrors keeps the cache but reprocesses error records.
	ModeRetryErrors Mode = "retry-errors"
	// ModeFresh wipes the store first and scans everything.
	ModeFresh Mode = "fresh"
)

// Finder runs the per-item variant search; Searcher is the production
// implementation.
type Finder interface {
	FindVariants(ctx context.Context, card catalog.Card) (SearchResult, error)
	ExtendRecord(ctx context.Context, rec checkpoint.Record) (checkpoint.Record, bool, error)
}

// ReportSink receives the freshly derived variant report after every item, so
// the on-disk report never trails the store by more than one item.
type ReportSink interface {
	WriteReport(entries []checkpoint.ReportEntry) error
}

// Summary totals one run's item outcomes.
type Summary struct {
	OK         int
	NoVariants int
	Errors     int
	Skipped    int
	Malformed  int
	Extended   int
}

// Orchestrator walks catalog sets through the Finder strictly sequentially,
// one probe in flight, flushing the checkpoint store after every item so an
// interrupted scan resumes where it stopped.
type Orchestrator struct {
	sets    []catalog.Set
	finder  Finder
	store   checkpoint.Store
	reports ReportSink
	emitter progress.Emitter
	logger  *zap.Logger
}

// NewOrchestrator wires an Orchestrator. The report sink and emitter may be
// nil when the caller has no use for them.
func NewOrchestrator(
	sets []catalog.Set,
	finder Finder,
	store checkpoint.Store,
	reports ReportSink,
	emitter progress.Emitter,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		sets:    sets,
		finder:  finder,
		store:   store,
		reports: reports,
		emitter: emitter,
		logger:  logger,
	}
}

type runState struct {
	id          uuid.UUID
	logger      *zap.Logger
	ledger      checkpoint.Ledger
	retryErrors bool
	sum         Summary
}

// Run executes one full scan pass over every configured set, in config order,
// each set's catalog in file order. Items already settled in the store are
// skipped per mode. Returns the run summary; the error is non-nil only for
// faults that must stop the run, such as an unwritable store.
func (o *Orchestrator) Run(ctx context.Context, mode Mode) (Summary, error) {
	run := &runState{
		id:          uuid.New(),
		retryErrors: mode == ModeRetryErrors,
	}
	run.logger = o.logger.With(zap.String("run_id", run.id.String()))

	if mode == ModeFresh {
		if err := o.store.Wipe(ctx); err != nil {
			return run.sum, fmt.Errorf("wipe checkpoint store: %w", err)
		}
		run.logger.Info("checkpoint store wiped for fresh scan")
	}

	ledger, err := o.store.Load(ctx)
	if err != nil {
		return run.sum, fmt.Errorf("load checkpoint store: %w", err)
	}
	run.ledger = ledger

	start := time.Now()
	metrics.SetScanRunning(true)
	defer metrics.SetScanRunning(false)
	o.emit(progress.Event{RunID: run.id, TS: start.UTC(), Stage: progress.StageRunStart})
	run.logger.Info("scan starting",
		zap.String("mode", string(mode)),
		zap.Int("sets", len(o.sets)),
		zap.Int("checkpointed", len(ledger)))

	for _, set := range o.sets {
		entries, err := catalog.LoadEntries(set)
		if err != nil {
			o.finishRun(run, start, err)
			return run.sum, err
		}
		run.logger.Info("set loaded",
			zap.String("set", set.Name),
			zap.Int("entries", len(entries)))
		for _, entry := range entries {
			if err := ctx.Err(); err != nil {
				o.finishRun(run, start, err)
				return run.sum, err
			}
			if err := o.processEntry(ctx, run, entry); err != nil {
				o.finishRun(run, start, err)
				return run.sum, err
			}
		}
	}

	o.finishRun(run, start, nil)
	return run.sum, nil
}

// processEntry settles one catalog line end to end: normalize, skip check,
// search, classify, persist, report. The returned error is fatal for the run;
// per-item faults become error records and the scan moves on.
func (o *Orchestrator) processEntry(ctx context.Context, run *runState, entry catalog.Entry) error {
	card, err := catalog.Normalize(entry.Set, entry.Line)
	if err != nil {
		run.sum.Malformed++
		run.logger.Warn("skipping malformed catalog line",
			zap.String("file", entry.Set.File),
			zap.Int("line", entry.LineNo),
			zap.Error(err))
		return nil
	}

	if run.ledger.Skip(card.Slug, run.retryErrors) {
		run.sum.Skipped++
		o.emit(progress.Event{
			RunID:      run.id,
			TS:         time.Now().UTC(),
			Stage:      progress.StageItemSkipped,
			Slug:       card.Slug,
			Collection: card.Set.Name,
			Note:       "already checkpointed",
		})
		return nil
	}

	itemStart := time.Now()
	res, searchErr := o.searchItem(ctx, card)
	if searchErr != nil && ctx.Err() != nil {
		// Interrupted mid-item: leave no record, the next run redoes it.
		return ctx.Err()
	}

	rec := classify(res, card.Set, searchErr)
	note := ""
	if searchErr != nil {
		note = searchErr.Error()
		run.logger.Warn("item could not be settled",
			zap.String("slug", card.Slug),
			zap.Error(searchErr))
	}

	run.ledger[card.Slug] = rec
	if err := o.store.Save(ctx, run.ledger, card.Slug); err != nil {
		return fmt.Errorf("save checkpoint after %s: %w", card.Slug, err)
	}
	o.writeReport(run)

	o.countItem(run, rec)
	o.emit(progress.Event{
		RunID:      run.id,
		TS:         time.Now().UTC(),
		Stage:      progress.StageItemDone,
		Slug:       card.Slug,
		Collection: card.Set.Name,
		Status:     string(rec.Status),
		Variants:   len(rec.Variants),
		Dur:        time.Since(itemStart),
		Note:       note,
	})
	return nil
}

// searchItem shields the run from a panicking search; the item is recorded as
// an error instead of taking the whole scan down.
func (o *Orchestrator) searchItem(ctx context.Context, card catalog.Card) (res SearchResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = SearchResult{}
			err = fmt.Errorf("variant search panicked: %v", r)
		}
	}()
	return o.finder.FindVariants(ctx, card)
}

// classify maps a search result onto the terminal record for the item.
// When the base page was checked and is also missing, the catalog entry and
// the site disagree, which is an error worth retrying, not a clean miss.
func classify(res SearchResult, set catalog.Set, searchErr error) checkpoint.Record {
	rec := checkpoint.Record{Collection: set.Name}
	switch {
	case searchErr != nil:
		rec.Status = checkpoint.StatusError
	case res.V1Exists:
		rec.Status = checkpoint.StatusOK
		rec.Variants = res.Variants
	case res.BaseChecked && !res.BaseExists:
		rec.Status = checkpoint.StatusError
	default:
		rec.Status = checkpoint.StatusNoVariants
	}
	return rec
}

func (o *Orchestrator) countItem(run *runState, rec checkpoint.Record) {
	switch rec.Status {
	case checkpoint.StatusOK:
		run.sum.OK++
	case checkpoint.StatusNoVariants:
		run.sum.NoVariants++
	case checkpoint.StatusError:
		run.sum.Errors++
	}
	metrics.ObserveItem(string(rec.Status))
	metrics.AddVariantsFound(len(rec.Variants))
}

// writeReport rewrites the derived report. The report is a projection the
// next Save regenerates, so a write failure is logged, not fatal.
func (o *Orchestrator) writeReport(run *runState) {
	if o.reports == nil {
		return
	}
	if err := o.reports.WriteReport(checkpoint.DeriveReport(run.ledger)); err != nil {
		run.logger.Warn("variant report rewrite failed", zap.Error(err))
	}
}

func (o *Orchestrator) finishRun(run *runState, start time.Time, runErr error) {
	evt := progress.Event{
		RunID: run.id,
		TS:    time.Now().UTC(),
		Stage: progress.StageRunDone,
		Dur:   time.Since(start),
	}
	if runErr != nil {
		evt.Stage = progress.StageRunError
		evt.Note = runErr.Error()
	}
	o.emit(evt)

	fields := []zap.Field{
		zap.Int("ok", run.sum.OK),
		zap.Int("no_variants", run.sum.NoVariants),
		zap.Int("errors", run.sum.Errors),
		zap.Int("skipped", run.sum.Skipped),
		zap.Int("malformed", run.sum.Malformed),
		zap.Duration("elapsed", time.Since(start)),
	}
	if run.sum.Extended > 0 {
		fields = append(fields, zap.Int("extended", run.sum.Extended))
	}
	if runErr != nil {
		run.logger.Error("scan aborted", append(fields, zap.Error(runErr))...)
		return
	}
	run.logger.Info("scan finished", fields...)
}

func (o *Orchestrator) emit(evt progress.Event) {
	if o.emitter == nil {
		return
	}
	o.emitter.Emit(evt)
}
