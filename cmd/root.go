package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/api"
	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/app"
	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/checkpoint"
	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/config"
	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/logging"
	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/progress"
)

var cfgFile string

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App defines the application interface that commands use. This allows us to
// inject a mock app during tests.
type App interface {
	Close()
	GetConfig() config.Config
	GetLogger() *zap.Logger
	GetStore() checkpoint.Store
	GetRecorder() *progress.Recorder
	GetServer() *api.Server
}

// newApp is the application factory. It's a variable so we can replace it
// with a mock factory in our tests.
var newApp func(ctx context.Context) (App, error) = func(ctx context.Context) (App, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return app.New(ctx, cfg, logger)
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cardscan",
		Short: "Finds variant print pages for Pokemon trading cards.",
		Long: `cardscan walks the card lists named in its configuration and probes the
shop for variant print pages (V2, V3, ...). Every result is checkpointed, so
a multi-hour scan can be interrupted and resumed without losing work.`,

		// This hook runs AFTER flags are parsed but BEFORE the subcommand's
		// RunE, so every command sees a fully built application.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}

			// Store the app instance in the context for subcommands to use.
			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			cmd.SetContext(ctx)
			return nil
		},

		// This hook ensures services are shut down gracefully.
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./cardscan.yaml)")

	cmd.AddCommand(newScanCmd())
	cmd.AddCommand(newExtendCmd())
	cmd.AddCommand(newReportCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
