package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/checkpoint"
	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/report"
)

// newReportCmd creates and configures the 'report' subcommand. It rebuilds
// the report outputs from the checkpoint without touching the network.
func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Rebuilds the variant report from the checkpoint",
		Long: `Derives the variant report from the persisted checkpoint and rewrites the
JSON report and the README section. No pages are probed.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReportCommand(cmd.Context())
		},
	}
	return cmd
}

func runReportCommand(ctx context.Context) error {
	appInstance, err := resolveApp(ctx)
	if err != nil {
		return err
	}
	logger := appInstance.GetLogger()
	cfg := appInstance.GetConfig()

	ledger, err := appInstance.GetStore().Load(ctx)
	if err != nil {
		return fmt.Errorf("load checkpoint: %w", err)
	}
	entries := checkpoint.DeriveReport(ledger)

	jsonWriter := report.NewJSONWriter(cfg.Report.JSON)
	if err := jsonWriter.WriteReport(entries); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	section := report.RenderSection(entries)
	if err := report.SpliceReadme(cfg.Report.Readme, section); err != nil {
		return fmt.Errorf("splice readme: %w", err)
	}

	logger.Info("report rebuilt",
		zap.Int("cards_with_variants", len(entries)),
		zap.String("report", jsonWriter.Path()),
		zap.String("readme", cfg.Report.Readme),
	)
	return nil
}
