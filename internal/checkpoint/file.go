package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// FileStore keeps the ledger in a single JSON file, rewritten wholesale on
// every save. The write goes to a sibling temp file first and is renamed into
// place, so a crash mid-save leaves the previous checkpoint intact.
type FileStore struct {
	path   string
	logger *zap.Logger
}

// NewFileStore prepares a FileStore at path, creating parent directories.
func NewFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create checkpoint dir for %s: %w", path, err)
	}
	return &FileStore{path: path, logger: logger}, nil
}

// Load reads the checkpoint file. A missing file is a normal first run; an
// unreadable or corrupt file is logged and recovered as an empty ledger so a
// broken checkpoint never blocks scanning.
func (s *FileStore) Load(_ context.Context) (Ledger, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("checkpoint unreadable, starting empty",
				zap.String("path", s.path), zap.Error(err))
		}
		return Ledger{}, nil
	}
	var ledger Ledger
	if err := json.Unmarshal(data, &ledger); err != nil {
		s.logger.Warn("checkpoint corrupt, starting empty",
			zap.String("path", s.path), zap.Error(err))
		return Ledger{}, nil
	}
	if ledger == nil {
		ledger = Ledger{}
	}
	return ledger, nil
}

// Save rewrites the whole checkpoint file. The changed keys are ignored; the
// file format is a single mapping and is always replaced as a unit.
func (s *FileStore) Save(_ context.Context, ledger Ledger, _ ...string) error {
	payload, err := json.MarshalIndent(ledger, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o600); err != nil {
		return fmt.Errorf("write checkpoint %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace checkpoint %s: %w", s.path, err)
	}
	return nil
}

// Wipe deletes the checkpoint file if it exists.
func (s *FileStore) Wipe(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("wipe checkpoint %s: %w", s.path, err)
	}
	return nil
}

// Close implements Store; the file store holds no open resources.
func (s *FileStore) Close() error {
	return nil
}
