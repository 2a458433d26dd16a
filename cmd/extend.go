package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newExtendCmd creates and configures the 'extend' subcommand. It revisits
// cards already confirmed up to V5 and probes the higher versions.
func newExtendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extend",
		Short: "Probes confirmed cards for variant prints beyond V5",
		Long: `Revisits every checkpointed card whose variants reached V5 and probes the
shop for V6 through V9. Newly found variants are merged into the checkpoint
and the report.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExtendCommand(cmd.Context())
		},
	}
	return cmd
}

func runExtendCommand(ctx context.Context) error {
	appInstance, err := resolveApp(ctx)
	if err != nil {
		return err
	}
	logger := appInstance.GetLogger()

	orch, jsonWriter, err := buildOrchestrator(appInstance)
	if err != nil {
		return err
	}

	summary, runErr := runWithServer(ctx, appInstance, orch.RunExtend)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("run extend: %w", runErr)
	}

	if err := rewriteReadme(appInstance); err != nil {
		logger.Warn("readme update failed", zap.Error(err))
	}

	logger.Info("extend command finished",
		zap.Int("extended", summary.Extended),
		zap.Int("errors", summary.Errors),
		zap.String("report", jsonWriter.Path()),
		zap.String("readme", appInstance.GetConfig().Report.Readme),
	)
	return nil
}
