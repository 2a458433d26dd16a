package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostgresConfig controls the connection pool behind the Postgres store.
type PostgresConfig struct {
	DSN      string
	Table    string
	MaxConns int32
}

type pgPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// PostgresStore keeps the ledger in a Postgres table, one row per card,
// upserted per changed key on save.
type PostgresStore struct {
	pool   pgPool
	table  string
	logger *zap.Logger
}

// NewPostgresStore connects a pool from cfg and ensures the schema exists.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig, logger *zap.Logger) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	store, err := NewPostgresStoreWithPool(pool, cfg.Table, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	schema := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	slug TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	collection TEXT NOT NULL DEFAULT '',
	variants JSONB NOT NULL DEFAULT '[]'::jsonb
)`, store.table)
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create checkpoint table %s: %w", store.table, err)
	}
	return store, nil
}

// NewPostgresStoreWithPool constructs a store from an existing pool
// (primarily for testing). No schema management is performed.
func NewPostgresStoreWithPool(pool pgPool, table string, logger *zap.Logger) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "card_records"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresStore{pool: pool, table: table, logger: logger}, nil
}

// Load reads every persisted record. Query failures are logged and recovered
// as an empty ledger; the first Save will fail loudly if the database is
// genuinely down.
func (s *PostgresStore) Load(ctx context.Context) (Ledger, error) {
	query := fmt.Sprintf("SELECT slug, status, collection, variants FROM %s", s.table)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		s.logger.Warn("checkpoint query failed, starting empty",
			zap.String("table", s.table), zap.Error(err))
		return Ledger{}, nil
	}
	defer rows.Close()

	ledger := Ledger{}
	for rows.Next() {
		var slug, status, collection string
		var variantsJSON []byte
		if err := rows.Scan(&slug, &status, &collection, &variantsJSON); err != nil {
			s.logger.Warn("checkpoint row unreadable, starting empty",
				zap.String("table", s.table), zap.Error(err))
			return Ledger{}, nil
		}
		var variants []string
		if err := json.Unmarshal(variantsJSON, &variants); err != nil {
			s.logger.Warn("dropping checkpoint row with corrupt variants",
				zap.String("slug", slug), zap.Error(err))
			continue
		}
		ledger[slug] = Record{Status: Status(status), Variants: variants, Collection: collection}
	}
	if err := rows.Err(); err != nil {
		s.logger.Warn("checkpoint read interrupted, starting empty",
			zap.String("table", s.table), zap.Error(err))
		return Ledger{}, nil
	}
	return ledger, nil
}

// Save upserts the changed records. With no changed keys named, every ledger
// entry is written. A changed key missing from the ledger is deleted.
func (s *PostgresStore) Save(ctx context.Context, ledger Ledger, changed ...string) error {
	if len(changed) == 0 {
		changed = ledger.Slugs()
	}

	upsert := fmt.Sprintf(`
INSERT INTO %s (slug, status, collection, variants)
VALUES ($1, $2, $3, $4)
ON CONFLICT (slug) DO UPDATE SET
	status = EXCLUDED.status,
	collection = EXCLUDED.collection,
	variants = EXCLUDED.variants`, s.table)
	del := fmt.Sprintf("DELETE FROM %s WHERE slug = $1", s.table)

	for _, slug := range changed {
		rec, ok := ledger[slug]
		if !ok {
			if _, err := s.pool.Exec(ctx, del, slug); err != nil {
				return fmt.Errorf("delete checkpoint row %s: %w", slug, err)
			}
			continue
		}
		variantsJSON, err := json.Marshal(sliceOrEmpty(rec.Variants))
		if err != nil {
			return fmt.Errorf("marshal variants for %s: %w", slug, err)
		}
		if _, err := s.pool.Exec(ctx, upsert, slug, string(rec.Status), rec.Collection, variantsJSON); err != nil {
			return fmt.Errorf("upsert checkpoint row %s: %w", slug, err)
		}
	}
	return nil
}

// Wipe deletes every persisted record.
func (s *PostgresStore) Wipe(ctx context.Context) error {
	query := fmt.Sprintf("DELETE FROM %s", s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("wipe checkpoint table %s: %w", s.table, err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *PostgresStore) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}
