package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

const fileSuffix = ".ckpt"

// File is a Store that keeps one msgpack-encoded file per run id in a
// directory. Saves write a temporary file and rename it over the previous
// checkpoint, so a crash never leaves a half-written checkpoint behind.
type File struct {
	dir string
}

// NewFile returns a File store rooted at dir, creating dir if needed.
func NewFile(dir string) (*File, error) {
	if dir == "" {
		return nil, errors.New("checkpoint directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create checkpoint directory: %w", err)
	}
	return &File{dir: dir}, nil
}

func (f *File) path(runID string) string {
	return filepath.Join(f.dir, runID+fileSuffix)
}

// Load implements Store.
func (f *File) Load(_ context.Context, runID string) (Checkpoint, error) {
	data, err := os.ReadFile(f.path(runID))
	if errors.Is(err, fs.ErrNotExist) {
		return Checkpoint{}, ErrNotFound
	}
	if err != nil {
		return Checkpoint{}, fmt.Errorf("read checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := msgpack.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, fmt.Errorf("decode checkpoint: %w", err)
	}
	return cp, nil
}

// Save implements Store.
func (f *File) Save(_ context.Context, cp Checkpoint) error {
	data, err := msgpack.Marshal(&cp)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}

	tmp, err := os.CreateTemp(f.dir, cp.RunID+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create checkpoint: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close checkpoint: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path(cp.RunID)); err != nil {
		return fmt.Errorf("commit checkpoint: %w", err)
	}
	return nil
}

// Clear implements Store.
func (f *File) Clear(_ context.Context, runID string) error {
	err := os.Remove(f.path(runID))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove checkpoint: %w", err)
	}
	return nil
}
