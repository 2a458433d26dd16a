package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/checkpoint"
)

// JSONWriter rewrites the variant report file wholesale on every call. The
// file is a pure projection of the checkpoint store, so a lost write is
// regenerated by the next one.
type JSONWriter struct {
	path string
}

// NewJSONWriter returns a writer bound to path.
func NewJSONWriter(path string) *JSONWriter {
	return &JSONWriter{path: path}
}

// Path reports where the writer puts the file.
func (w *JSONWriter) Path() string {
	return w.path
}

// WriteReport marshals the entries and replaces the report file. A nil or
// empty slice still writes a valid empty JSON array so consumers never see a
// stale report.
func (w *JSONWriter) WriteReport(entries []checkpoint.ReportEntry) error {
	if entries == nil {
		entries = []checkpoint.ReportEntry{}
	}
	payload, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal variant report: %w", err)
	}
	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	if err := os.WriteFile(w.path, append(payload, '\n'), 0o600); err != nil {
		return fmt.Errorf("write variant report: %w", err)
	}
	return nil
}
