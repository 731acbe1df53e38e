package progress

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool used by PostgresStore. pgxmock pools
// satisfy it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	if poolCfg != nil && poolCfg.MaxConns > 0 {
		maxConns = poolCfg.MaxConns
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS sweep_progress (
	sweep_id             TEXT PRIMARY KEY,
	last_processed_index INTEGER NOT NULL DEFAULT 0,
	total_tiles          INTEGER NOT NULL DEFAULT 0,
	record               JSONB NOT NULL,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_sweep_progress_updated_at ON sweep_progress(updated_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, id string) (*Record, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT record FROM sweep_progress WHERE sweep_id = $1`, id,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: load %s", id)
	}
	return decodeRecord(raw, id)
}

func (s *PostgresStore) Save(ctx context.Context, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal record")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO sweep_progress (sweep_id, last_processed_index, total_tiles, record, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (sweep_id) DO UPDATE SET
		   last_processed_index = EXCLUDED.last_processed_index,
		   total_tiles = EXCLUDED.total_tiles,
		   record = EXCLUDED.record,
		   updated_at = EXCLUDED.updated_at`,
		rec.SweepID, rec.LastProcessedIndex, rec.TotalTiles, data, rec.CreatedAt, rec.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: save %s", rec.SweepID)
}

func (s *PostgresStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.pool.Query(ctx, `SELECT sweep_id, record FROM sweep_progress ORDER BY updated_at DESC, sweep_id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list")
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		rec, err := decodeRecord(raw, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: list rows")
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sweep_progress WHERE sweep_id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "sweep %s", id)
	}
	return nil
}
