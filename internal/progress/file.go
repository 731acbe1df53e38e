package progress

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
)

const recordExt = ".json"

// FileStore keeps one JSON file per sweep in a directory. Writes go to a
// temporary file that is synced and renamed over the old record, so a crash
// leaves either the previous or the new record on disk.
type FileStore struct {
	dir string
}

// NewFileStore creates a store rooted at dir.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, eris.New("progress: file store needs a directory")
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+recordExt)
}

func (s *FileStore) Migrate(_ context.Context) error {
	return eris.Wrap(os.MkdirAll(s.dir, 0o755), "progress: create store dir")
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) Load(_ context.Context, id string) (*Record, error) {
	data, err := os.ReadFile(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "progress: read %s", id)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, eris.Wrapf(err, "progress: decode %s", id)
	}
	return &rec, nil
}

func (s *FileStore) Save(_ context.Context, rec *Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return eris.Wrap(err, "progress: encode record")
	}
	return eris.Wrapf(WriteFileAtomic(s.path(rec.SweepID), data, 0o644), "progress: save %s", rec.SweepID)
}

func (s *FileStore) List(ctx context.Context) ([]Record, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "progress: list")
	}

	var out []Record
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), recordExt) {
			continue
		}
		rec, err := s.Load(ctx, strings.TrimSuffix(e.Name(), recordExt))
		if err != nil {
			return nil, err
		}
		if rec != nil {
			out = append(out, *rec)
		}
	}
	sortRecords(out)
	return out, nil
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	err := os.Remove(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return eris.Wrapf(ErrNotFound, "sweep %s", id)
	}
	return eris.Wrapf(err, "progress: delete %s", id)
}

// WriteFileAtomic writes data to path through a synced temporary file in the
// same directory followed by a rename.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { os.Remove(tmpName) } //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	if d, err := os.Open(dir); err == nil {
		d.Sync()  //nolint:errcheck
		d.Close() //nolint:errcheck
	}
	return nil
}

func sortRecords(recs []Record) {
	slices.SortFunc(recs, func(a, b Record) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.SweepID, b.SweepID)
	})
}
