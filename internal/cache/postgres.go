package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/glamapp/product-recs/internal/model"
)

// Pool is the subset of pgxpool.Pool used by the Postgres cache.
// pgxmock's PgxPoolIface satisfies it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "cache: postgres parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "cache: postgres create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "cache: postgres ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool (used by tests).
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS enrichment_cache (
	key          TEXT PRIMARY KEY,
	value        JSONB NOT NULL,
	retrieved_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_enrichment_cache_retrieved_at ON enrichment_cache(retrieved_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "cache: postgres migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key string, maxAgeDays int) (*model.EnrichedProduct, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT value FROM enrichment_cache
		 WHERE key = $1 AND retrieved_at > now() - make_interval(days => $2)`,
		key, normalizeMaxAge(maxAgeDays),
	)

	var valueJSON []byte
	err := row.Scan(&valueJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "cache: postgres get")
	}

	var p model.EnrichedProduct
	if err := json.Unmarshal(valueJSON, &p); err != nil {
		return nil, eris.Wrap(err, "cache: postgres unmarshal value")
	}
	return &p, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, value *model.EnrichedProduct, retrievedAt time.Time) error {
	if retrievedAt.IsZero() {
		retrievedAt = time.Now()
	}

	valueJSON, err := json.Marshal(value)
	if err != nil {
		return eris.Wrap(err, "cache: postgres marshal value")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO enrichment_cache (key, value, retrieved_at) VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			retrieved_at = EXCLUDED.retrieved_at`,
		key, valueJSON, retrievedAt.UTC(),
	)
	return eris.Wrap(err, "cache: postgres set")
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM enrichment_cache WHERE key = $1`, key)
	return eris.Wrap(err, "cache: postgres delete")
}

func (s *PostgresStore) Prune(ctx context.Context, maxAgeDays int) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM enrichment_cache WHERE retrieved_at < now() - make_interval(days => $1)`,
		normalizeMaxAge(maxAgeDays),
	)
	if err != nil {
		return 0, eris.Wrap(err, "cache: postgres prune")
	}
	return int(tag.RowsAffected()), nil
}
