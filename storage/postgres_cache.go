package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"yard-sniper/models"
	"yard-sniper/utils"
)

// PostgresCacheStore persists comparable entries to PostgreSQL.
type PostgresCacheStore struct {
	db *sql.DB
}

const cacheSchema = `
	CREATE TABLE IF NOT EXISTS comp_cache (
		query_key    TEXT             PRIMARY KEY,
		avg_price    DOUBLE PRECISION NOT NULL DEFAULT 0,
		sample_count INTEGER          NOT NULL DEFAULT 0,
		fetched_at   TIMESTAMPTZ      NOT NULL DEFAULT NOW()
	);

	ALTER TABLE comp_cache ALTER COLUMN avg_price TYPE DOUBLE PRECISION;

	CREATE INDEX IF NOT EXISTS idx_comp_cache_fetched_at ON comp_cache(fetched_at);
`

const defaultPingAttempts = 10

// pingRetry is the readiness policy for the initial connection.
// maxAttempts below 1 selects the default.
func pingRetry(maxAttempts int, logger *utils.Logger) utils.RetryConfig {
	if maxAttempts < 1 {
		maxAttempts = defaultPingAttempts
	}
	return utils.RetryConfig{MaxAttempts: maxAttempts, BaseDelay: 500 * time.Millisecond, Logger: logger}
}

// NewPostgresCacheStore opens a connection to PostgreSQL, waits up to
// maxAttempts pings for it to accept connections, runs schema migrations and
// returns a ready store.
func NewPostgresCacheStore(dsn string, maxAttempts int, logger *utils.Logger) (*PostgresCacheStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := pingRetry(maxAttempts, logger)
	if err := retry.Do("postgres ping", db.Ping); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	ps := &PostgresCacheStore{db: db}
	if err := ps.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return ps, nil
}

// migrate is idempotent; the ALTER converts tables created with a NUMERIC
// price column.
func (ps *PostgresCacheStore) migrate() error {
	_, err := ps.db.Exec(cacheSchema)
	return err
}

// Load retrieves every cached entry.
func (ps *PostgresCacheStore) Load() (map[string]models.ComparableCacheEntry, error) {
	rows, err := ps.db.Query(`
		SELECT query_key, avg_price, sample_count, fetched_at
		FROM comp_cache
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: load: %w", err)
	}
	defer rows.Close()

	out := make(map[string]models.ComparableCacheEntry)
	for rows.Next() {
		var e models.ComparableCacheEntry
		if err := rows.Scan(&e.QueryKey, &e.AvgPrice, &e.SampleCount, &e.FetchedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		out[e.QueryKey] = e
	}
	return out, rows.Err()
}

// Save replaces the table contents with entries in one transaction.
func (ps *PostgresCacheStore) Save(entries map[string]models.ComparableCacheEntry) error {
	tx, err := ps.db.Begin()
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM comp_cache"); err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}

	batch := make([]models.ComparableCacheEntry, 0, len(entries))
	for _, e := range entries {
		batch = append(batch, e)
	}

	const batchSize = 50
	for i := 0; i < len(batch); i += batchSize {
		end := i + batchSize
		if end > len(batch) {
			end = len(batch)
		}
		if err := insertBatch(tx, batch[i:end]); err != nil {
			return fmt.Errorf("postgres: insert: %w", err)
		}
	}
	return tx.Commit()
}

func insertBatch(tx *sql.Tx, batch []models.ComparableCacheEntry) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*4)

	for idx, e := range batch {
		base := idx * 4
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d)", base+1, base+2, base+3, base+4))
		valueArgs = append(valueArgs, e.QueryKey, e.AvgPrice, e.SampleCount, e.FetchedAt)
	}

	query := fmt.Sprintf(`
		INSERT INTO comp_cache (query_key, avg_price, sample_count, fetched_at)
		VALUES %s
		ON CONFLICT (query_key) DO NOTHING
	`, strings.Join(valueStrings, ","))

	_, err := tx.Exec(query, valueArgs...)
	return err
}

func (ps *PostgresCacheStore) Close() error {
	return ps.db.Close()
}
