package progress

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=FULL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS sweep_progress (
	sweep_id             TEXT PRIMARY KEY,
	last_processed_index INTEGER NOT NULL DEFAULT 0,
	total_tiles          INTEGER NOT NULL DEFAULT 0,
	record               TEXT NOT NULL,
	created_at           DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at           DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_sweep_progress_updated_at ON sweep_progress(updated_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Load(ctx context.Context, id string) (*Record, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM sweep_progress WHERE sweep_id = ?`, id,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: load %s", id)
	}
	return decodeRecord([]byte(raw), id)
}

func (s *SQLiteStore) Save(ctx context.Context, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal record")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sweep_progress (sweep_id, last_processed_index, total_tiles, record, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(sweep_id) DO UPDATE SET
		   last_processed_index = excluded.last_processed_index,
		   total_tiles = excluded.total_tiles,
		   record = excluded.record,
		   updated_at = excluded.updated_at`,
		rec.SweepID, rec.LastProcessedIndex, rec.TotalTiles, string(data), rec.CreatedAt, rec.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: save %s", rec.SweepID)
}

func (s *SQLiteStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT sweep_id, record FROM sweep_progress`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list")
	}
	defer rows.Close() //nolint:errcheck

	var out []Record
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		rec, err := decodeRecord([]byte(raw), id)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: list rows")
	}
	sortRecords(out)
	return out, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sweep_progress WHERE sweep_id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "sweep %s", id)
	}
	return nil
}

func decodeRecord(data []byte, id string) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, eris.Wrapf(err, "progress: decode %s", id)
	}
	return &rec, nil
}
