package cmd

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/api"
	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/checkpoint"
	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/config"
	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/progress"
)

type stubApp struct {
	cfg      config.Config
	logger   *zap.Logger
	store    checkpoint.Store
	recorder *progress.Recorder
	closed   bool
}

func (s *stubApp) Close() { s.closed = true }

func (s *stubApp) GetConfig() config.Config { return s.cfg }

func (s *stubApp) GetLogger() *zap.Logger { return s.logger }

func (s *stubApp) GetStore() checkpoint.Store { return s.store }

func (s *stubApp) GetRecorder() *progress.Recorder { return s.recorder }

func (s *stubApp) GetServer() *api.Server { return nil }

// withAppFactory swaps the application factory for the duration of a test.
func withAppFactory(t *testing.T, factory func(ctx context.Context) (App, error)) {
	t.Helper()
	restore := newApp
	newApp = factory
	t.Cleanup(func() { newApp = restore })
}

func TestReportCommand_RebuildsOutputs(t *testing.T) {
	dir := t.TempDir()
	readme := filepath.Join(dir, "README.md")
	seed := "# Cards\n\n<!-- cardvariants:start -->\nstale section\n<!-- cardvariants:end -->\n"
	require.NoError(t, os.WriteFile(readme, []byte(seed), 0o600))

	store, err := checkpoint.NewFileStore(filepath.Join(dir, "checkpoint.json"), zap.NewNop())
	require.NoError(t, err)
	ledger := checkpoint.Ledger{
		"pikachu-TST039": {
			Status:     checkpoint.StatusOK,
			Collection: "Test",
			Variants: []string{
				"https://cards.test/Test/pikachu-TST039",
				"https://cards.test/Test/pikachu-TST039-V2-TST039",
			},
		},
	}
	require.NoError(t, store.Save(context.Background(), ledger, "pikachu-TST039"))

	stub := &stubApp{
		cfg: config.Config{
			Report: config.ReportConfig{
				Readme: readme,
				JSON:   filepath.Join(dir, "report.json"),
			},
		},
		logger:   zap.NewNop(),
		store:    store,
		recorder: progress.NewRecorder(progress.Config{}),
	}
	withAppFactory(t, func(context.Context) (App, error) { return stub, nil })

	root := newRootCmd()
	root.SetArgs([]string{"report"})
	require.NoError(t, root.Execute())

	content, err := os.ReadFile(readme)
	require.NoError(t, err)
	require.Contains(t, string(content), "pikachu-TST039-V2-TST039")
	require.NotContains(t, string(content), "stale section")

	data, err := os.ReadFile(stub.cfg.Report.JSON)
	require.NoError(t, err)
	require.Contains(t, string(data), "pikachu-TST039")

	require.True(t, stub.closed)
}

func TestRootCommand_InitFailure(t *testing.T) {
	withAppFactory(t, func(context.Context) (App, error) {
		return nil, errors.New("boom")
	})

	root := newRootCmd()
	root.SetArgs([]string{"report"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	err := root.Execute()
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to initialize application services")
}

func TestScanCommand_RejectsConflictingFlags(t *testing.T) {
	withAppFactory(t, func(context.Context) (App, error) {
		return &stubApp{
			logger:   zap.NewNop(),
			recorder: progress.NewRecorder(progress.Config{}),
		}, nil
	})

	root := newRootCmd()
	root.SetArgs([]string{"scan", "--fresh", "--retry-errors"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	err := root.Execute()
	require.Error(t, err)
	require.Contains(t, err.Error(), "retry-errors")
}
