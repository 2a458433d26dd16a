// Package cmd defines and implements the CLI commands for the cardscan executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/catalog"
	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/checkpoint"
	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/config"
	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/probe"
	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/report"
	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/scanner"
)

// newScanCmd creates and configures the 'scan' subcommand. It walks the
// configured card lists, probes the shop for variant pages and checkpoints
// every result as it goes.
func newScanCmd() *cobra.Command {
	var fresh, retryErrors bool
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scans the card lists for variant print pages",
		Long: `Walks every card list named in the configuration and probes the shop for
variant print pages. Results are checkpointed after every card, so an
interrupted scan resumes where it stopped.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			mode := scanner.ModeScan
			if fresh {
				mode = scanner.ModeFresh
			}
			if retryErrors {
				mode = scanner.ModeRetryErrors
			}
			return runScanCommand(cmd.Context(), mode)
		},
	}
	cmd.Flags().BoolVar(&fresh, "fresh", false, "wipe the checkpoint and scan every card again")
	cmd.Flags().BoolVar(&retryErrors, "retry-errors", false, "re-probe cards whose last scan ended in an error")
	cmd.MarkFlagsMutuallyExclusive("fresh", "retry-errors")
	return cmd
}

func runScanCommand(ctx context.Context, mode scanner.Mode) error {
	appInstance, err := resolveApp(ctx)
	if err != nil {
		return err
	}
	logger := appInstance.GetLogger()

	orch, jsonWriter, err := buildOrchestrator(appInstance)
	if err != nil {
		return err
	}

	summary, runErr := runWithServer(ctx, appInstance, func(ctx context.Context) (scanner.Summary, error) {
		return orch.Run(ctx, mode)
	})
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("run scan: %w", runErr)
	}

	if err := rewriteReadme(appInstance); err != nil {
		logger.Warn("readme update failed", zap.Error(err))
	}

	logger.Info("scan command finished",
		zap.Int("ok", summary.OK),
		zap.Int("no_variants", summary.NoVariants),
		zap.Int("errors", summary.Errors),
		zap.Int("skipped", summary.Skipped),
		zap.Int("malformed", summary.Malformed),
		zap.String("report", jsonWriter.Path()),
		zap.String("readme", appInstance.GetConfig().Report.Readme),
	)
	return nil
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// runWithServer runs fn under signal-driven cancellation, with the status
// server serving alongside when it is enabled.
func runWithServer(
	ctx context.Context,
	appInstance App,
	fn func(context.Context) (scanner.Summary, error),
) (scanner.Summary, error) {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if srv := appInstance.GetServer(); srv != nil {
		go func() {
			if err := srv.Start(ctx); err != nil {
				appInstance.GetLogger().Error("status server failed", zap.Error(err))
			}
		}()
	}

	return fn(ctx)
}

func buildOrchestrator(appInstance App) (*scanner.Orchestrator, *report.JSONWriter, error) {
	cfg := appInstance.GetConfig()
	logger := appInstance.GetLogger()

	searcher, err := buildSearcher(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	jsonWriter := report.NewJSONWriter(cfg.Report.JSON)
	orch := scanner.NewOrchestrator(
		buildSets(cfg),
		searcher,
		appInstance.GetStore(),
		jsonWriter,
		appInstance.GetRecorder(),
		logger.Named("scanner"),
	)
	return orch, jsonWriter, nil
}

func buildSearcher(cfg config.Config, logger *zap.Logger) (*scanner.Searcher, error) {
	probeCfg := probe.Config{
		UserAgent:         cfg.Probe.UserAgent,
		Timeout:           cfg.Probe.Timeout,
		MaxAttempts:       cfg.Probe.MaxAttempts,
		RateLimitCooldown: cfg.Probe.RateLimitCooldown,
		BlockedCooldown:   cfg.Probe.BlockedCooldown,
		MaxCooldown:       cfg.Probe.MaxCooldown,
		InvalidMarker:     cfg.Probe.InvalidMarker,
		RequestsPerSecond: cfg.Probe.RequestsPerSecond,
		Burst:             cfg.Probe.Burst,
		RespectRobots:     cfg.Probe.RespectRobots,
	}

	fetcher, err := probe.NewCollyFetcher(probeCfg, logger.Named("fetch"))
	if err != nil {
		return nil, fmt.Errorf("init fetcher: %w", err)
	}
	governor := probe.NewGovernor(probeCfg.RequestsPerSecond, probeCfg.Burst)
	prober := probe.NewProber(probeCfg, fetcher, governor, nil, logger.Named("probe"))

	searchCfg := scanner.SearchConfig{
		BaseURL:   cfg.Catalog.BaseURL,
		DelayMin:  cfg.Scan.DelayMin,
		DelayMax:  cfg.Scan.DelayMax,
		BaseCheck: cfg.Scan.BaseCheck,
	}
	return scanner.NewSearcher(searchCfg, prober, nil, logger.Named("search")), nil
}

func buildSets(cfg config.Config) []catalog.Set {
	sets := make([]catalog.Set, 0, len(cfg.Catalog.Sets))
	for _, s := range cfg.Catalog.Sets {
		sets = append(sets, catalog.Set{
			Name: s.Name,
			Code: s.Code,
			File: s.File,
			Path: s.Path,
		})
	}
	return sets
}

// rewriteReadme splices the rendered variant section into the README from the
// persisted ledger. It runs on a fresh context so the rewrite still lands
// after an interrupt.
func rewriteReadme(appInstance App) error {
	cfg := appInstance.GetConfig()
	ledger, err := appInstance.GetStore().Load(context.Background())
	if err != nil {
		return fmt.Errorf("load checkpoint: %w", err)
	}
	entries := checkpoint.DeriveReport(ledger)
	section := report.RenderSection(entries)
	if err := report.SpliceReadme(cfg.Report.Readme, section); err != nil {
		return fmt.Errorf("splice readme: %w", err)
	}
	return nil
}
