package sink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/MasterOfBinary/flatbatch/record"
)

// Mode selects how File treats an existing output file.
type Mode int

const (
	// ModeAppend adds to the end of an existing file, creating it if needed.
	// Running twice over the same input therefore duplicates the output.
	ModeAppend Mode = iota
	// ModeTruncate empties an existing file when it is opened.
	ModeTruncate
)

var (
	// ErrNotOpen is returned when File is written before Open.
	ErrNotOpen = errors.New("writer is not open")

	// ErrAlreadyOpen is returned when Open is called twice.
	ErrAlreadyOpen = errors.New("writer is already open")
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeAppend:
		return "append"
	case ModeTruncate:
		return "truncate"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "append" or "truncate". The empty string is ModeAppend.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "append":
		return ModeAppend, nil
	case "truncate":
		return ModeTruncate, nil
	default:
		return ModeAppend, fmt.Errorf("unknown write mode %q (want append or truncate)", s)
	}
}

// AppendFunc appends the encoded form of item, including its line
// terminator, to buf and returns the extended buffer.
type AppendFunc[T any] func(buf []byte, item T) []byte

// CheckFunc rejects an item that cannot be written as a single line.
type CheckFunc[T any] func(item T) error

// File writes items to a text file, one line per item.
type File[T any] struct {
	path       string
	appendLine AppendFunc[T]
	check      CheckFunc[T]
	mode       Mode
	sync       bool

	file *os.File
	buf  []byte
}

// NewFile returns a File writing to path in ModeAppend.
func NewFile[T any](path string, appendLine AppendFunc[T]) *File[T] {
	return &File[T]{
		path:       path,
		appendLine: appendLine,
	}
}

// NewRecordFile returns a File encoding record.Records with codec. Records
// that codec.Check rejects fail the chunk they belong to.
func NewRecordFile(path string, codec *record.Codec) *File[record.Record] {
	return NewFile(path, codec.AppendLine).WithCheck(codec.Check)
}

// WithCheck makes Write validate every item of a chunk before writing any
// of it.
func (f *File[T]) WithCheck(check CheckFunc[T]) *File[T] {
	f.check = check
	return f
}

// WithMode sets the open mode. It has no effect once the file is open.
func (f *File[T]) WithMode(mode Mode) *File[T] {
	f.mode = mode
	return f
}

// WithSync makes every chunk write wait for the data to reach stable storage.
func (f *File[T]) WithSync(sync bool) *File[T] {
	f.sync = sync
	return f
}

// Open implements batch.Writer.
func (f *File[T]) Open(_ context.Context) error {
	if f.file != nil {
		return ErrAlreadyOpen
	}
	if f.appendLine == nil {
		return errors.New("append function cannot be nil")
	}

	flags := os.O_WRONLY | os.O_CREATE
	switch f.mode {
	case ModeAppend:
		flags |= os.O_APPEND
	case ModeTruncate:
		flags |= os.O_TRUNC
	default:
		return fmt.Errorf("unknown write mode %v", f.mode)
	}

	file, err := os.OpenFile(f.path, flags, 0o644)
	if err != nil {
		return err
	}
	f.file = file
	return nil
}

// Write implements batch.Writer. The chunk is encoded into one buffer and
// written with a single call. A chunk with an item rejected by the check
// function is not written at all.
func (f *File[T]) Write(_ context.Context, chunk []T) error {
	if f.file == nil {
		return ErrNotOpen
	}
	if len(chunk) == 0 {
		return nil
	}

	if f.check != nil {
		for i, item := range chunk {
			if err := f.check(item); err != nil {
				return fmt.Errorf("item %d of %d: %w", i+1, len(chunk), err)
			}
		}
	}

	f.buf = f.buf[:0]
	for _, item := range chunk {
		f.buf = f.appendLine(f.buf, item)
	}

	if _, err := f.file.Write(f.buf); err != nil {
		return fmt.Errorf("write %d items to %s: %w", len(chunk), f.path, err)
	}
	if f.sync {
		if err := f.file.Sync(); err != nil {
			return fmt.Errorf("sync %s: %w", f.path, err)
		}
	}
	return nil
}

// Close implements batch.Writer. It is safe to call Close more than once
// and on a File whose Open failed.
func (f *File[T]) Close() error {
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	f.buf = nil
	return err
}
