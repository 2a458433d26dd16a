package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore keeps the ledger in a local SQLite database. Saves upsert only
// the changed records, so an interrupted run leaves every completed card's
// row behind.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS card_records (
	slug TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	collection TEXT NOT NULL DEFAULT '',
	variants TEXT NOT NULL DEFAULT '[]'
);
`

// OpenSQLite opens or creates the checkpoint database at path.
// The pool is capped at one connection: SQLite supports a single writer, and
// the scanner is the only client.
func OpenSQLite(path string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create checkpoint dir for %s: %w", path, err)
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("open checkpoint db %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL on %s: %w", path, err)
	}
	if _, err := db.ExecContext(context.Background(), sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create checkpoint schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path, logger: logger}, nil
}

// Load reads every persisted record. Rows whose variant payload no longer
// parses are dropped with a warning rather than failing the run.
func (s *SQLiteStore) Load(ctx context.Context) (Ledger, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT slug, status, collection, variants FROM card_records")
	if err != nil {
		s.logger.Warn("checkpoint query failed, starting empty",
			zap.String("path", s.path), zap.Error(err))
		return Ledger{}, nil
	}
	defer rows.Close()

	ledger := Ledger{}
	for rows.Next() {
		var slug, status, collection, variantsJSON string
		if err := rows.Scan(&slug, &status, &collection, &variantsJSON); err != nil {
			s.logger.Warn("checkpoint row unreadable, starting empty",
				zap.String("path", s.path), zap.Error(err))
			return Ledger{}, nil
		}
		var variants []string
		if err := json.Unmarshal([]byte(variantsJSON), &variants); err != nil {
			s.logger.Warn("dropping checkpoint row with corrupt variants",
				zap.String("slug", slug), zap.Error(err))
			continue
		}
		ledger[slug] = Record{Status: Status(status), Variants: variants, Collection: collection}
	}
	if err := rows.Err(); err != nil {
		s.logger.Warn("checkpoint read interrupted, starting empty",
			zap.String("path", s.path), zap.Error(err))
		return Ledger{}, nil
	}
	return ledger, nil
}

// Save upserts the changed records in one transaction. With no changed keys
// named, every ledger entry is written. A changed key missing from the ledger
// is deleted, keeping the table an exact mirror of the mapping.
func (s *SQLiteStore) Save(ctx context.Context, ledger Ledger, changed ...string) error {
	if len(changed) == 0 {
		changed = ledger.Slugs()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin checkpoint save: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const upsert = `
INSERT INTO card_records (slug, status, collection, variants)
VALUES (?, ?, ?, ?)
ON CONFLICT(slug) DO UPDATE SET
	status = excluded.status,
	collection = excluded.collection,
	variants = excluded.variants
`
	for _, slug := range changed {
		rec, ok := ledger[slug]
		if !ok {
			if _, err := tx.ExecContext(ctx, "DELETE FROM card_records WHERE slug = ?", slug); err != nil {
				return fmt.Errorf("delete checkpoint row %s: %w", slug, err)
			}
			continue
		}
		variantsJSON, err := json.Marshal(sliceOrEmpty(rec.Variants))
		if err != nil {
			return fmt.Errorf("marshal variants for %s: %w", slug, err)
		}
		if _, err := tx.ExecContext(ctx, upsert, slug, string(rec.Status), rec.Collection, string(variantsJSON)); err != nil {
			return fmt.Errorf("upsert checkpoint row %s: %w", slug, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit checkpoint save: %w", err)
	}
	return nil
}

// Wipe deletes every persisted record.
func (s *SQLiteStore) Wipe(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM card_records"); err != nil {
		return fmt.Errorf("wipe checkpoint db: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close checkpoint db: %w", err)
	}
	return nil
}

func sliceOrEmpty(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
