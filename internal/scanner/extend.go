package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/metrics"
	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/progress"
)

// RunExtend sweeps the store for ok records that already reached V5 and
// probes their V6..V9 candidates. Records are visited in slug order; only
// records that gained a variant are re-persisted, so running the pass twice
// against an unchanged site mutates nothing the second time.
func (o *Orchestrator) RunExtend(ctx context.Context) (Summary, error) {
	run := &runState{id: uuid.New()}
	run.logger = o.logger.With(zap.String("run_id", run.id.String()))

	ledger, err := o.store.Load(ctx)
	if err != nil {
		return run.sum, fmt.Errorf("load checkpoint store: %w", err)
	}
	run.ledger = ledger

	start := time.Now()
	metrics.SetScanRunning(true)
	defer metrics.SetScanRunning(false)
	o.emit(progress.Event{RunID: run.id, TS: start.UTC(), Stage: progress.StageRunStart})
	run.logger.Info("extended sweep starting", zap.Int("checkpointed", len(ledger)))

	for _, slug := range ledger.Slugs() {
		if err := ctx.Err(); err != nil {
			o.finishRun(run, start, err)
			return run.sum, err
		}
		rec := ledger[slug]
		updated, changed, err := o.finder.ExtendRecord(ctx, rec)
		if err != nil {
			if ctx.Err() != nil {
				o.finishRun(run, start, ctx.Err())
				return run.sum, ctx.Err()
			}
			run.sum.Errors++
			run.logger.Warn("extended sweep left record unchanged",
				zap.String("slug", slug),
				zap.Error(err))
			continue
		}
		if !changed {
			continue
		}

		added := len(updated.Variants) - len(rec.Variants)
		ledger[slug] = updated
		if err := o.store.Save(ctx, ledger, slug); err != nil {
			err = fmt.Errorf("save checkpoint after %s: %w", slug, err)
			o.finishRun(run, start, err)
			return run.sum, err
		}
		o.writeReport(run)

		metrics.AddVariantsFound(added)
		run.sum.Extended++
		o.emit(progress.Event{
			RunID:      run.id,
			TS:         time.Now().UTC(),
			Stage:      progress.StageItemDone,
			Slug:       slug,
			Collection: updated.Collection,
			Status:     string(updated.Status),
			Variants:   added,
		})
		run.logger.Info("extended variants found",
			zap.String("slug", slug),
			zap.Int("added", added))
	}

	o.finishRun(run, start, nil)
	return run.sum, nil
}
