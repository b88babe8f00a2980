package okr

import (
	"errors"
	"fmt"
)

var errNotFinite = errors.New("value is not a finite number")

// FormatError reports a cell whose text does not reduce to a number once the
// known symbols and separators are removed. It is recovered per record.
type FormatError struct {
	Field string // record field, e.g. "current_value"; empty for bare values
	Value string
	Err   error
}

func (e *FormatError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: cannot read %q as a number", e.Field, e.Value)
	}
	return fmt.Sprintf("cannot read %q as a number", e.Value)
}

func (e *FormatError) Unwrap() error { return e.Err }

// EmptyDataError reports a tab that returned no rows at all.
type EmptyDataError struct {
	Tab string
}

func (e *EmptyDataError) Error() string {
	return fmt.Sprintf("no data found in tab %q", e.Tab)
}
