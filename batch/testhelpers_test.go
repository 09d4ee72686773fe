package batch_test

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/MasterOfBinary/flatbatch/batch"
	"github.com/MasterOfBinary/flatbatch/checkpoint"
)

// testReader returns Items in order and records how it was used.
type testReader struct {
	Items    []int
	OpenErr  error
	CloseErr error

	// FailAt makes Read fail with FailErr once FailAt items were returned.
	FailAt  int
	FailErr error

	Opened bool
	Closed int

	pos int
}

func (r *testReader) Open(context.Context) error {
	r.Opened = true
	return r.OpenErr
}

func (r *testReader) Read(context.Context) (int, error) {
	if r.FailErr != nil && r.pos == r.FailAt {
		r.pos++
		return 0, r.FailErr
	}
	if r.pos >= len(r.Items) {
		return 0, io.EOF
	}
	item := r.Items[r.pos]
	r.pos++
	return item, nil
}

func (r *testReader) Offset() int64 {
	return int64(r.pos)
}

func (r *testReader) Close() error {
	r.Closed++
	return r.CloseErr
}

// seekableReader is a testReader that can resume from an offset.
type seekableReader struct {
	testReader
	SkippedTo int64
}

func (r *seekableReader) SkipTo(_ context.Context, offset int64) error {
	if offset > int64(len(r.Items)) {
		return fmt.Errorf("offset %d out of range", offset)
	}
	r.SkippedTo = offset
	r.pos = int(offset)
	return nil
}

// testWriter keeps committed chunks and can fail on a given chunk.
type testWriter struct {
	OpenErr  error
	CloseErr error

	// FailOn makes the FailOn-th call to Write (0-based) fail with FailErr.
	FailOn  int
	FailErr error

	Opened bool
	Closed int

	mu     sync.Mutex
	calls  int
	chunks [][]int
}

func (w *testWriter) Open(context.Context) error {
	w.Opened = true
	return w.OpenErr
}

func (w *testWriter) Write(_ context.Context, chunk []int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	call := w.calls
	w.calls++
	if w.FailErr != nil && call == w.FailOn {
		return w.FailErr
	}
	w.chunks = append(w.chunks, append([]int(nil), chunk...))
	return nil
}

func (w *testWriter) Close() error {
	w.Closed++
	return w.CloseErr
}

func (w *testWriter) Chunks() [][]int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.chunks
}

func (w *testWriter) Items() []int {
	var out []int
	for _, c := range w.Chunks() {
		out = append(out, c...)
	}
	return out
}

// failingStore is a checkpoint.Store whose operations fail on demand.
type failingStore struct {
	checkpoint.Store
	LoadErr  error
	SaveErr  error
	ClearErr error
}

func (s *failingStore) Load(ctx context.Context, runID string) (checkpoint.Checkpoint, error) {
	if s.LoadErr != nil {
		return checkpoint.Checkpoint{}, s.LoadErr
	}
	return s.Store.Load(ctx, runID)
}

func (s *failingStore) Save(ctx context.Context, cp checkpoint.Checkpoint) error {
	if s.SaveErr != nil {
		return s.SaveErr
	}
	return s.Store.Save(ctx, cp)
}

func (s *failingStore) Clear(ctx context.Context, runID string) error {
	if s.ClearErr != nil {
		return s.ClearErr
	}
	return s.Store.Clear(ctx, runID)
}

// ctxStore is a checkpoint.Store that fails once its context is done, like
// the network-backed stores.
type ctxStore struct {
	checkpoint.Store
}

func (s *ctxStore) Load(ctx context.Context, runID string) (checkpoint.Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return checkpoint.Checkpoint{}, err
	}
	return s.Store.Load(ctx, runID)
}

func (s *ctxStore) Save(ctx context.Context, cp checkpoint.Checkpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Store.Save(ctx, cp)
}

func (s *ctxStore) Clear(ctx context.Context, runID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Store.Clear(ctx, runID)
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func double() batch.Processor[int] {
	return batch.ProcessorFunc[int](func(_ context.Context, n int) (int, error) {
		return n * 2, nil
	})
}

func newStep(chunkSize int) *batch.Step[int] {
	return batch.New[int](batch.NewConstantConfig(&batch.ConfigValues{ChunkSize: chunkSize}))
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
