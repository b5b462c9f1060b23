package store

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/Clark-Hu/movie-catalog/internal/codec"
	"github.com/Clark-Hu/movie-catalog/internal/domain"
)

const maxLineBytes = 1 << 20

// ImportReport is the outcome of a bulk import. Errors keeps file order.
type ImportReport struct {
	Inserted int      `json:"inserted"`
	Errors   []string `json:"errors"`
}

// BulkImport appends every valid line of the CSV at path. Bad lines are reported
// as "Line <n>: <detail>" and skipped. The catalog is saved once at the end when at
// least one movie was inserted; a save failure is returned as a *PersistError.
func (s *Store) BulkImport(path string) (ImportReport, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ImportReport{Errors: []string{"File not found: " + path}}, nil
		}
		return ImportReport{Errors: []string{"I/O error while reading the file: " + err.Error()}}, nil
	}
	defer f.Close()

	return s.Import(f)
}

// Import runs the bulk import pipeline over r.
func (s *Store) Import(r io.Reader) (ImportReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := ImportReport{Errors: []string{}}
	err := scanRecords(r, func(lineNum int, m domain.Movie, parseErr error) {
		if parseErr != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("Line %d: %v", lineNum, parseErr))
			return
		}
		s.movies = append(s.movies, m)
		report.Inserted++
	})
	if err != nil {
		report.Errors = append(report.Errors, "I/O error while reading the file: "+err.Error())
	}

	s.logger.Info("store: bulk import finished",
		zap.Int("inserted", report.Inserted),
		zap.Int("errors", len(report.Errors)))

	if report.Inserted == 0 {
		return report, nil
	}
	return report, s.saveLocked()
}

// scanRecords feeds every record line of r to fn with its 1-based line number.
// Blank lines are skipped, and so is a first line that looks like a header. A line
// longer than maxLineBytes is reported to fn as a FormatError and reading goes on.
func scanRecords(r io.Reader, fn func(lineNum int, m domain.Movie, err error)) error {
	br := bufio.NewReaderSize(r, 64*1024)

	lineNum := 0
	for {
		raw, tooLong, err := readLine(br)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		lineNum++
		if tooLong {
			fn(lineNum, domain.Movie{}, &domain.FormatError{
				Field:  "line",
				Value:  preview(raw),
				Reason: fmt.Sprintf("is longer than %d bytes", maxLineBytes),
			})
			continue
		}

		line := strings.TrimSpace(string(raw))
		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if line == "" {
			continue
		}
		if lineNum == 1 && codec.IsHeader(line) {
			continue
		}
		m, err := codec.Parse(line)
		fn(lineNum, m, err)
	}
}

// readLine returns the next line without its terminator. Once a line passes
// maxLineBytes the rest of it is discarded and tooLong is set. io.EOF is only
// returned when no line was started.
func readLine(br *bufio.Reader) (line []byte, tooLong bool, err error) {
	started := false
	for {
		chunk, isPrefix, err := br.ReadLine()
		if err != nil {
			if started && errors.Is(err, io.EOF) {
				return line, tooLong, nil
			}
			return nil, false, err
		}
		started = true
		if !tooLong {
			if len(line)+len(chunk) > maxLineBytes {
				tooLong = true
			} else {
				line = append(line, chunk...)
			}
		}
		if !isPrefix {
			return line, tooLong, nil
		}
	}
}

func preview(raw []byte) string {
	const n = 40
	if len(raw) > n {
		return string(raw[:n]) + "..."
	}
	return string(raw)
}
