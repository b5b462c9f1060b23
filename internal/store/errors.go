package store

import (
	"errors"
	"fmt"
)

// ErrPersist matches every *PersistError via errors.Is.
var ErrPersist = errors.New("store: catalog not saved")

// PersistError reports that a mutation was applied in memory but the catalog file
// could not be rewritten. Memory is ahead of disk until the next successful save.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("store: save %q: %v", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

func (e *PersistError) Is(target error) bool { return target == ErrPersist }
