package progress

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/tilesweep/internal/config"
)

// ErrNotFound is returned by Delete for an unknown sweep id.
var ErrNotFound = eris.New("progress: record not found")

// Store persists one Record per sweep id.
type Store interface {
	Migrate(ctx context.Context) error
	// Load returns the record for id, or nil with no error when none exists.
	Load(ctx context.Context, id string) (*Record, error)
	// Save overwrites the record for rec.SweepID.
	Save(ctx context.Context, rec *Record) error
	// List returns all records, most recently updated first.
	List(ctx context.Context) ([]Record, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// Drivers accepted by Open.
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open creates and migrates the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.ProgressConfig) (Store, error) {
	var (
		st  Store
		err error
	)
	switch strings.ToLower(cfg.Driver) {
	case "", DriverFile:
		st, err = NewFileStore(cfg.Dir)
	case DriverSQLite:
		st, err = NewSQLite(filepath.Join(cfg.Dir, "progress.db"))
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, eris.Wrap(config.ErrConfig, "progress: postgres driver requires progress.database_url")
		}
		st, err = NewPostgres(ctx, cfg.DatabaseURL, &PoolConfig{MaxConns: cfg.MaxConns})
	default:
		return nil, eris.Wrapf(config.ErrConfig, "progress: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}
