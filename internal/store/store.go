package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
)

// Options controls store behaviour.
type Options struct {
	Logger *zap.Logger
}

// Store keeps the ordered movie list in memory and mirrors it to one CSV file.
// Every successful mutation rewrites the whole file.
type Store struct {
	mu     sync.Mutex
	path   string
	movies []domain.Movie
	stamp  fileStamp
	logger *zap.Logger
}

// LoadReport summarises one pass over the backing file.
type LoadReport struct {
	Loaded  int
	Skipped []string
}

// fileStamp identifies the on-disk version last loaded or written by the store.
type fileStamp struct {
	exists  bool
	size    int64
	modTime time.Time
}

// New binds a store to path and loads it. A missing file yields an empty store;
// read failures are logged and also yield an empty store.
func New(path string, opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{path: path, logger: logger}

	report, err := s.Reload()
	if err == nil {
		logger.Debug("store: catalog loaded",
			zap.String("path", path),
			zap.Int("movies", report.Loaded),
			zap.Int("skipped", len(report.Skipped)))
	}
	return s
}

// Path returns the bound catalog file.
func (s *Store) Path() string {
	return s.path
}

// Reload discards the in-memory list and reads the backing file again.
// Invalid lines are skipped and reported; an I/O error leaves the store empty.
func (s *Store) Reload() (LoadReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// ReloadIfChanged reloads only when the file differs from the version the store
// last read or wrote, so the store's own saves are not read back.
func (s *Store) ReloadIfChanged() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := statFile(s.path)
	if err != nil {
		return false, fmt.Errorf("stat catalog: %w", err)
	}
	if current.equal(s.stamp) {
		return false, nil
	}
	if _, err := s.loadLocked(); err != nil {
		return true, err
	}
	return true, nil
}

func (s *Store) loadLocked() (LoadReport, error) {
	s.movies = nil
	s.stamp = fileStamp{}

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return LoadReport{}, nil
		}
		s.logger.Error("store: read catalog failed", zap.String("path", s.path), zap.Error(err))
		return LoadReport{}, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	var (
		loaded []domain.Movie
		report LoadReport
	)
	err = scanRecords(f, func(lineNum int, m domain.Movie, parseErr error) {
		if parseErr != nil {
			msg := fmt.Sprintf("Line %d: %v", lineNum, parseErr)
			report.Skipped = append(report.Skipped, msg)
			s.logger.Warn("store: skipping invalid line",
				zap.String("path", s.path),
				zap.Int("line", lineNum),
				zap.Error(parseErr))
			return
		}
		loaded = append(loaded, m)
	})
	if err != nil {
		s.logger.Error("store: read catalog failed", zap.String("path", s.path), zap.Error(err))
		return LoadReport{}, fmt.Errorf("read catalog: %w", err)
	}

	s.movies = loaded
	report.Loaded = len(loaded)
	if st, err := statFile(s.path); err == nil {
		s.stamp = st
	}
	return report, nil
}

// All returns a copy of the movies in catalog order.
func (s *Store) All() []domain.Movie {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Movie, len(s.movies))
	copy(out, s.movies)
	return out
}

// Len returns the number of movies.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.movies)
}

// Get returns the movie at the zero-based index.
func (s *Store) Get(index int) (domain.Movie, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.movies) {
		return domain.Movie{}, false
	}
	return s.movies[index], true
}

// Add appends a validated movie, saves the catalog and returns the movie's index.
// A *domain.FormatError is returned for an invalid movie; a *PersistError when the
// file could not be written (the movie stays in memory and the index is still valid).
func (s *Store) Add(m domain.Movie) (int, error) {
	if err := m.Validate(); err != nil {
		return -1, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.movies = append(s.movies, m)
	return len(s.movies) - 1, s.saveLocked()
}

// RemoveAt deletes the movie at index. Out-of-range indexes return false and
// leave the catalog untouched.
func (s *Store) RemoveAt(index int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.removeLocked(index) {
		return false, nil
	}
	return true, s.saveLocked()
}

// Edit replaces the movie at index with m and returns the replacement's new index.
// The replacement is appended to the end of the catalog, the way the interactive
// shell has always ordered edited entries.
func (s *Store) Edit(index int, m domain.Movie) (int, bool, error) {
	if err := m.Validate(); err != nil {
		return -1, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.removeLocked(index) {
		return -1, false, nil
	}
	s.movies = append(s.movies, m)
	return len(s.movies) - 1, true, s.saveLocked()
}

func (s *Store) removeLocked(index int) bool {
	if index < 0 || index >= len(s.movies) {
		return false
	}
	s.movies = append(s.movies[:index:index], s.movies[index+1:]...)
	return true
}

func (a fileStamp) equal(b fileStamp) bool {
	return a.exists == b.exists && a.size == b.size && a.modTime.Equal(b.modTime)
}

func statFile(path string) (fileStamp, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fileStamp{}, nil
		}
		return fileStamp{}, err
	}
	return fileStamp{exists: true, size: fi.Size(), modTime: fi.ModTime()}, nil
}
