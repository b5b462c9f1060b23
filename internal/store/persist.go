package store

import (
	"bytes"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Clark-Hu/movie-catalog/internal/codec"
)

// renameFunc is swapped in tests to simulate a failing filesystem.
var renameFunc = os.Rename

// Save rewrites the catalog file with a header and one line per movie.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	var buf bytes.Buffer
	buf.WriteString(codec.Header)
	buf.WriteByte('\n')
	for _, m := range s.movies {
		buf.WriteString(codec.Format(m))
		buf.WriteByte('\n')
	}

	if err := writeFileAtomic(s.path, buf.Bytes(), 0o644); err != nil {
		s.logger.Error("store: save catalog failed", zap.String("path", s.path), zap.Error(err))
		return &PersistError{Path: s.path, Err: err}
	}
	if st, err := statFile(s.path); err == nil {
		s.stamp = st
	}
	s.logger.Debug("store: catalog saved", zap.String("path", s.path), zap.Int("movies", len(s.movies)))
	return nil
}

// writeFileAtomic writes data to a temp file beside path and renames it into place,
// so readers only ever see the old or the new catalog.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return renameFunc(tmpName, path)
}
