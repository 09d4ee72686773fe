package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/MasterOfBinary/flatbatch/record"
)

// MaxLineLength is the longest line File accepts.
const MaxLineLength = 1 << 20

var (
	// ErrNotOpen is returned when File is read before Open.
	ErrNotOpen = errors.New("reader is not open")

	// ErrAlreadyOpen is returned when Open is called twice.
	ErrAlreadyOpen = errors.New("reader is already open")
)

// DecodeFunc converts one line of text, without its line terminator, into
// an item.
type DecodeFunc[T any] func(line string) (T, error)

// File reads items from a text file, one item per line. Blank lines are
// consumed and counted in the offset but produce no item.
//
// A decode failure is returned as a *record.MalformedRecordError carrying
// the 1-based line number.
type File[T any] struct {
	path   string
	decode DecodeFunc[T]

	file    *os.File
	scanner *bufio.Scanner
	offset  int64
}

// NewFile returns a File reading path and decoding lines with decode.
func NewFile[T any](path string, decode DecodeFunc[T]) *File[T] {
	return &File[T]{
		path:   path,
		decode: decode,
	}
}

// NewRecordFile returns a File decoding record.Records with codec.
func NewRecordFile(path string, codec *record.Codec) *File[record.Record] {
	return NewFile(path, codec.Decode)
}

// Open implements batch.Reader. It fails if the file cannot be opened for reading.
func (f *File[T]) Open(_ context.Context) error {
	if f.file != nil {
		return ErrAlreadyOpen
	}
	if f.decode == nil {
		return errors.New("decode function cannot be nil")
	}

	file, err := os.Open(f.path)
	if err != nil {
		return err
	}

	f.file = file
	f.scanner = bufio.NewScanner(file)
	f.scanner.Buffer(make([]byte, 0, 64*1024), MaxLineLength)
	f.offset = 0
	return nil
}

// Read implements batch.Reader. It returns io.EOF at the end of the file.
func (f *File[T]) Read(_ context.Context) (T, error) {
	var zero T

	line, err := f.nextLine()
	if err != nil {
		return zero, err
	}

	item, err := f.decode(line)
	if err != nil {
		var malformed *record.MalformedRecordError
		if errors.As(err, &malformed) {
			malformed.Line = f.offset
			return zero, err
		}
		return zero, &record.MalformedRecordError{Line: f.offset, Text: line, Err: err}
	}
	return item, nil
}

// nextLine returns the next non-blank line.
func (f *File[T]) nextLine() (string, error) {
	if f.scanner == nil {
		return "", ErrNotOpen
	}

	for f.scanner.Scan() {
		f.offset++
		line := f.scanner.Text()
		if strings.TrimRight(line, "\r") == "" {
			continue
		}
		return line, nil
	}

	if err := f.scanner.Err(); err != nil {
		return "", fmt.Errorf("read %s after line %d: %w", f.path, f.offset, err)
	}
	return "", io.EOF
}

// Offset implements batch.Reader. It returns the number of lines consumed,
// blank lines included.
func (f *File[T]) Offset() int64 {
	return f.offset
}

// SkipTo implements batch.Seeker by consuming lines, without decoding them,
// until offset lines have been consumed.
func (f *File[T]) SkipTo(_ context.Context, offset int64) error {
	if f.scanner == nil {
		return ErrNotOpen
	}
	if offset < f.offset {
		return fmt.Errorf("cannot skip back from line %d to line %d", f.offset, offset)
	}

	for f.offset < offset {
		if !f.scanner.Scan() {
			if err := f.scanner.Err(); err != nil {
				return fmt.Errorf("skip %s after line %d: %w", f.path, f.offset, err)
			}
			return fmt.Errorf("offset %d is beyond the end of %s (%d lines)", offset, f.path, f.offset)
		}
		f.offset++
	}
	return nil
}

// Close implements batch.Reader. It is safe to call Close more than once
// and on a File whose Open failed.
func (f *File[T]) Close() error {
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	f.scanner = nil
	return err
}
