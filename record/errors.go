package record

import (
	"errors"
	"fmt"
)

var (
	// ErrFieldCount is returned when a line does not hold len(Fields) fields.
	ErrFieldCount = errors.New("wrong number of fields")

	// ErrEmptyID is returned when the id field is blank.
	ErrEmptyID = errors.New("id is required")
)

// MalformedRecordError is returned when a line cannot be decoded into a
// Record. Line is the 1-based line number in the input, or 0 when the line
// was decoded outside of a reader.
type MalformedRecordError struct {
	Line int64
	Text string
	Err  error
}

func (e *MalformedRecordError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed record at line %d %q: %v", e.Line, e.Text, e.Err)
	}
	return fmt.Sprintf("malformed record %q: %v", e.Text, e.Err)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}
