package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/glamapp/product-recs/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "cache: sqlite open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "cache: sqlite exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS enrichment_cache (
	key          TEXT PRIMARY KEY,
	value        TEXT NOT NULL,
	retrieved_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_enrichment_cache_retrieved_at ON enrichment_cache(retrieved_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "cache: sqlite migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// timestamps are stored as RFC 3339 UTC strings so lexicographic
// comparison in SQL matches chronological order.
func formatTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

func (s *SQLiteStore) Get(ctx context.Context, key string, maxAgeDays int) (*model.EnrichedProduct, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT value, retrieved_at FROM enrichment_cache WHERE key = ?`,
		key,
	)

	var valueJSON, retrievedAt string
	err := row.Scan(&valueJSON, &retrievedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "cache: sqlite get")
	}

	ts, err := time.Parse(time.RFC3339, retrievedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "cache: sqlite parse retrieved_at for %s", key)
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -normalizeMaxAge(maxAgeDays))
	if ts.Before(cutoff) {
		return nil, nil
	}

	var p model.EnrichedProduct
	if err := json.Unmarshal([]byte(valueJSON), &p); err != nil {
		return nil, eris.Wrap(err, "cache: sqlite unmarshal value")
	}
	return &p, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value *model.EnrichedProduct, retrievedAt time.Time) error {
	if retrievedAt.IsZero() {
		retrievedAt = time.Now()
	}

	valueJSON, err := json.Marshal(value)
	if err != nil {
		return eris.Wrap(err, "cache: sqlite marshal value")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO enrichment_cache (key, value, retrieved_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			retrieved_at = excluded.retrieved_at`,
		key, string(valueJSON), formatTime(retrievedAt),
	)
	return eris.Wrap(err, "cache: sqlite set")
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM enrichment_cache WHERE key = ?`, key)
	return eris.Wrap(err, "cache: sqlite delete")
}

func (s *SQLiteStore) Prune(ctx context.Context, maxAgeDays int) (int, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -normalizeMaxAge(maxAgeDays))
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM enrichment_cache WHERE retrieved_at < ?`,
		formatTime(cutoff),
	)
	if err != nil {
		return 0, eris.Wrap(err, "cache: sqlite prune")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "cache: sqlite prune rows affected")
}
