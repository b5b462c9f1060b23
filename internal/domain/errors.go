package domain

import (
	"errors"
	"fmt"
)

// FormatError reports the first field of a record that failed validation.
type FormatError struct {
	Field  string
	Value  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s %s: %q", e.Field, e.Reason, e.Value)
}

// IsFormatError reports whether err carries a *FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}
