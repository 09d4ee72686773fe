package batch_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/MasterOfBinary/flatbatch/batch"
	"github.com/MasterOfBinary/flatbatch/processor"
	"github.com/MasterOfBinary/flatbatch/source"
)

func TestStep_Run(t *testing.T) {
	t.Run("chunks items in order", func(t *testing.T) {
		// Setup
		r := &testReader{Items: seq(5)}
		w := &testWriter{}
		step := newStep(2)

		// Execute
		res := step.Run(context.Background(), r, w, double())

		// Verify
		if res.Err != nil {
			t.Fatalf("unexpected error: %v", res.Err)
		}
		if res.Status != batch.StatusCompleted {
			t.Errorf("status = %v, want completed", res.Status)
		}
		want := [][]int{{2, 4}, {6, 8}, {10}}
		got := w.Chunks()
		if len(got) != len(want) {
			t.Fatalf("got %d chunks, want %d: %v", len(got), len(want), got)
		}
		for i := range want {
			if !equalInts(got[i], want[i]) {
				t.Errorf("chunk %d = %v, want %v", i, got[i], want[i])
			}
		}
		if res.RecordsRead != 5 || res.RecordsWritten != 5 || res.ChunksWritten != 3 || res.Offset != 5 {
			t.Errorf("unexpected counters %+v", res.RunState)
		}
		if !r.Opened || r.Closed != 1 || !w.Opened || w.Closed != 1 {
			t.Errorf("reader opened=%v closed=%d, writer opened=%v closed=%d", r.Opened, r.Closed, w.Opened, w.Closed)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		w := &testWriter{}
		res := newStep(3).Run(context.Background(), &testReader{}, w)

		if res.Err != nil || res.Status != batch.StatusCompleted {
			t.Fatalf("result = %+v", res)
		}
		if len(w.Chunks()) != 0 {
			t.Errorf("writer received %v", w.Chunks())
		}
	})

	t.Run("no processors", func(t *testing.T) {
		w := &testWriter{}
		res := newStep(10).Run(context.Background(), &testReader{Items: seq(3)}, w, nil)

		if res.Err != nil {
			t.Fatalf("unexpected error: %v", res.Err)
		}
		if !equalInts(w.Items(), []int{1, 2, 3}) {
			t.Errorf("items = %v", w.Items())
		}
	})

	t.Run("processors run in order", func(t *testing.T) {
		addOne := batch.ProcessorFunc[int](func(_ context.Context, n int) (int, error) { return n + 1, nil })
		w := &testWriter{}

		res := newStep(2).Run(context.Background(), &testReader{Items: []int{1, 2}}, w, addOne, double())

		if res.Err != nil {
			t.Fatalf("unexpected error: %v", res.Err)
		}
		if !equalInts(w.Items(), []int{4, 6}) {
			t.Errorf("items = %v, want [4 6]", w.Items())
		}
	})
}

func TestStep_Run_ChunkSizeIndependence(t *testing.T) {
	for _, size := range []int{1, 2, 3, 7, 8, 100} {
		for _, pipelined := range []bool{false, true} {
			t.Run(fmt.Sprintf("size %d pipelined %v", size, pipelined), func(t *testing.T) {
				step := batch.New[int](batch.NewConstantConfig(&batch.ConfigValues{
					ChunkSize: size,
					Pipelined: pipelined,
				}))
				w := &testWriter{}

				res := step.Run(context.Background(), &testReader{Items: seq(7)}, w, double())

				if res.Err != nil {
					t.Fatalf("unexpected error: %v", res.Err)
				}
				if !equalInts(w.Items(), []int{2, 4, 6, 8, 10, 12, 14}) {
					t.Errorf("items = %v", w.Items())
				}
				wantChunks := (7 + size - 1) / size
				if len(w.Chunks()) != wantChunks || res.ChunksWritten != uint64(wantChunks) {
					t.Errorf("chunks = %d (result %d), want %d", len(w.Chunks()), res.ChunksWritten, wantChunks)
				}
				for i, c := range w.Chunks() {
					if len(c) > size {
						t.Errorf("chunk %d has %d items, more than %d", i, len(c), size)
					}
				}
			})
		}
	}
}

func TestStep_Run_Skip(t *testing.T) {
	odd := &processor.Filter[int]{Predicate: func(n int) bool { return n%2 == 1 }}

	t.Run("skipped items are not written", func(t *testing.T) {
		w := &testWriter{}
		res := newStep(2).Run(context.Background(), &testReader{Items: seq(5)}, w, odd)

		if res.Err != nil {
			t.Fatalf("unexpected error: %v", res.Err)
		}
		if !equalInts(w.Items(), []int{1, 3, 5}) {
			t.Errorf("items = %v, want [1 3 5]", w.Items())
		}
		if res.RecordsRead != 5 || res.RecordsSkipped != 2 || res.RecordsWritten != 3 {
			t.Errorf("unexpected counters %+v", res.RunState)
		}
	})

	t.Run("fully skipped chunk is not written", func(t *testing.T) {
		w := &testWriter{}
		res := newStep(1).Run(context.Background(), &testReader{Items: []int{1, 2, 3}}, w, odd)

		if res.Err != nil {
			t.Fatalf("unexpected error: %v", res.Err)
		}
		if len(w.Chunks()) != 2 || res.ChunksWritten != 2 {
			t.Errorf("chunks = %v (result %d), want 2", w.Chunks(), res.ChunksWritten)
		}
	})

	t.Run("skip at any stage drops the item", func(t *testing.T) {
		calls := 0
		counter := batch.ProcessorFunc[int](func(_ context.Context, n int) (int, error) {
			calls++
			return n, nil
		})
		w := &testWriter{}

		res := newStep(5).Run(context.Background(), &testReader{Items: seq(4)}, w, odd, counter)

		if res.Err != nil {
			t.Fatalf("unexpected error: %v", res.Err)
		}
		if calls != 2 {
			t.Errorf("second processor called %d times, want 2", calls)
		}
	})

	t.Run("skip limit", func(t *testing.T) {
		step := batch.New[int](batch.NewConstantConfig(&batch.ConfigValues{ChunkSize: 2, SkipLimit: 1}))
		w := &testWriter{}

		res := step.Run(context.Background(), &testReader{Items: seq(6)}, w, odd)

		var procErr *batch.ProcessorError
		if !errors.As(res.Err, &procErr) || !errors.Is(res.Err, batch.ErrSkipLimitExceeded) {
			t.Fatalf("error = %v, want ProcessorError wrapping ErrSkipLimitExceeded", res.Err)
		}
		if procErr.Chunk != 1 || procErr.Offset != 4 {
			t.Errorf("failure at chunk %d offset %d, want chunk 1 offset 4", procErr.Chunk, procErr.Offset)
		}
		if !equalInts(w.Items(), []int{1}) {
			t.Errorf("items = %v, want [1]", w.Items())
		}
	})
}

func TestStep_Run_Errors(t *testing.T) {
	errBoom := errors.New("boom")

	t.Run("nil config", func(t *testing.T) {
		res := batch.New[int](nil).Run(context.Background(), &testReader{}, &testWriter{})
		var cfgErr *batch.ConfigError
		if !errors.As(res.Err, &cfgErr) || res.Status != batch.StatusFailed {
			t.Errorf("result = %+v, want failed with ConfigError", res)
		}
	})

	t.Run("invalid chunk size opens nothing", func(t *testing.T) {
		for _, size := range []int{0, -1} {
			r := &testReader{Items: seq(2)}
			w := &testWriter{}

			res := newStep(size).Run(context.Background(), r, w)

			var cfgErr *batch.ConfigError
			if !errors.As(res.Err, &cfgErr) {
				t.Errorf("size %d: error = %v, want ConfigError", size, res.Err)
			}
			if r.Opened || w.Opened {
				t.Errorf("size %d: reader or writer was opened", size)
			}
		}
	})

	t.Run("nil reader or writer", func(t *testing.T) {
		var cfgErr *batch.ConfigError
		if res := newStep(1).Run(context.Background(), nil, &testWriter{}); !errors.As(res.Err, &cfgErr) {
			t.Errorf("nil reader: error = %v", res.Err)
		}
		if res := newStep(1).Run(context.Background(), &testReader{}, nil); !errors.As(res.Err, &cfgErr) {
			t.Errorf("nil writer: error = %v", res.Err)
		}
	})

	t.Run("reader open failure", func(t *testing.T) {
		r := &testReader{OpenErr: errBoom}
		w := &testWriter{}

		res := newStep(1).Run(context.Background(), r, w)

		var cfgErr *batch.ConfigError
		if !errors.As(res.Err, &cfgErr) || !errors.Is(res.Err, errBoom) {
			t.Errorf("error = %v, want ConfigError wrapping boom", res.Err)
		}
		if r.Closed != 1 || w.Opened {
			t.Errorf("reader closed %d times, writer opened %v", r.Closed, w.Opened)
		}
	})

	t.Run("writer open failure", func(t *testing.T) {
		r := &testReader{Items: seq(1)}
		w := &testWriter{OpenErr: errBoom}

		res := newStep(1).Run(context.Background(), r, w)

		var cfgErr *batch.ConfigError
		if !errors.As(res.Err, &cfgErr) {
			t.Errorf("error = %v, want ConfigError", res.Err)
		}
		if r.Closed != 1 || w.Closed != 1 {
			t.Errorf("reader closed %d, writer closed %d, want 1 and 1", r.Closed, w.Closed)
		}
	})

	t.Run("read failure", func(t *testing.T) {
		r := &testReader{Items: seq(5), FailAt: 3, FailErr: errBoom}
		w := &testWriter{}

		res := newStep(2).Run(context.Background(), r, w)

		var readErr *batch.ReaderError
		if !errors.As(res.Err, &readErr) || !errors.Is(res.Err, errBoom) {
			t.Fatalf("error = %v, want ReaderError wrapping boom", res.Err)
		}
		if readErr.Chunk != 1 || readErr.Offset != 4 {
			t.Errorf("failure at chunk %d offset %d, want chunk 1 offset 4", readErr.Chunk, readErr.Offset)
		}
		if !equalInts(w.Items(), []int{1, 2}) {
			t.Errorf("items = %v, want [1 2]", w.Items())
		}
		if r.Closed != 1 || w.Closed != 1 {
			t.Errorf("reader closed %d, writer closed %d", r.Closed, w.Closed)
		}
	})

	t.Run("processor failure", func(t *testing.T) {
		w := &testWriter{}
		failing := &processor.Error[int]{Err: errBoom, After: 2}

		res := newStep(2).Run(context.Background(), &testReader{Items: seq(4)}, w, failing)

		var procErr *batch.ProcessorError
		if !errors.As(res.Err, &procErr) {
			t.Fatalf("error = %v, want ProcessorError", res.Err)
		}
		if procErr.Chunk != 1 || procErr.Offset != 3 {
			t.Errorf("failure at chunk %d offset %d, want chunk 1 offset 3", procErr.Chunk, procErr.Offset)
		}
		if !equalInts(w.Items(), []int{1, 2}) {
			t.Errorf("items = %v, want [1 2]", w.Items())
		}
		if res.RecordsWritten != 2 || res.ChunksWritten != 1 {
			t.Errorf("unexpected counters %+v", res.RunState)
		}
	})

	t.Run("write failure", func(t *testing.T) {
		w := &testWriter{FailOn: 1, FailErr: errBoom}

		res := newStep(2).Run(context.Background(), &testReader{Items: seq(6)}, w)

		var writeErr *batch.WriterError
		if !errors.As(res.Err, &writeErr) {
			t.Fatalf("error = %v, want WriterError", res.Err)
		}
		if writeErr.Chunk != 1 {
			t.Errorf("failure at chunk %d, want 1", writeErr.Chunk)
		}
		if !equalInts(w.Items(), []int{1, 2}) {
			t.Errorf("items = %v, want [1 2]", w.Items())
		}
	})

	t.Run("close failure after success", func(t *testing.T) {
		r := &testReader{Items: seq(1), CloseErr: errBoom}

		res := newStep(1).Run(context.Background(), r, &testWriter{})

		var readErr *batch.ReaderError
		if !errors.As(res.Err, &readErr) || res.Status != batch.StatusFailed {
			t.Errorf("result = %+v, want failed with ReaderError", res)
		}
	})

	t.Run("close failure keeps first error", func(t *testing.T) {
		w := &testWriter{FailOn: 0, FailErr: errBoom, CloseErr: errors.New("close")}

		res := newStep(1).Run(context.Background(), &testReader{Items: seq(1)}, w)

		if !errors.Is(res.Err, errBoom) {
			t.Errorf("error = %v, want the write failure", res.Err)
		}
	})
}

func TestStep_Run_Cancellation(t *testing.T) {
	for _, pipelined := range []bool{false, true} {
		t.Run(fmt.Sprintf("pipelined %v", pipelined), func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			cancelOnSecond := batch.ProcessorFunc[int](func(_ context.Context, n int) (int, error) {
				if n == 2 {
					cancel()
				}
				return n, nil
			})
			step := batch.New[int](batch.NewConstantConfig(&batch.ConfigValues{ChunkSize: 2, Pipelined: pipelined}))
			w := &testWriter{}

			res := step.Run(ctx, &testReader{Items: seq(6)}, w, cancelOnSecond)

			var canceled *batch.CanceledError
			if !errors.As(res.Err, &canceled) || !errors.Is(res.Err, context.Canceled) {
				t.Fatalf("error = %v, want CanceledError", res.Err)
			}
			if canceled.Chunk != 1 {
				t.Errorf("canceled before chunk %d, want 1", canceled.Chunk)
			}
			if !equalInts(w.Items(), []int{1, 2}) {
				t.Errorf("items = %v, want [1 2]", w.Items())
			}
			if res.Status != batch.StatusFailed {
				t.Errorf("status = %v, want failed", res.Status)
			}
		})
	}
}

func TestStep_Run_Concurrent(t *testing.T) {
	// Setup: the first run blocks on an empty channel.
	in := make(chan int)
	step := newStep(1)
	done := make(chan batch.Result)
	go func() {
		done <- step.Run(context.Background(), &source.Channel[int]{Input: in}, &testWriter{})
	}()

	deadline := time.Now().Add(time.Second)
	for step.State().Status != batch.StatusRunning {
		if time.Now().After(deadline) {
			t.Fatal("first run did not start")
		}
		time.Sleep(time.Millisecond)
	}

	// Execute
	res := step.Run(context.Background(), &testReader{}, &testWriter{})

	// Verify
	if !errors.Is(res.Err, batch.ErrConcurrentRun) {
		t.Errorf("error = %v, want ErrConcurrentRun", res.Err)
	}

	close(in)
	if first := <-done; first.Err != nil {
		t.Errorf("first run error = %v", first.Err)
	}

	// A finished step can run again.
	if again := step.Run(context.Background(), &testReader{Items: seq(1)}, &testWriter{}); again.Err != nil {
		t.Errorf("second run error = %v", again.Err)
	}
}

func TestStep_BuilderPanicsWhileRunning(t *testing.T) {
	in := make(chan int)
	step := newStep(1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		step.Run(context.Background(), &source.Channel[int]{Input: in}, &testWriter{})
	}()
	for step.State().Status != batch.StatusRunning {
		time.Sleep(time.Millisecond)
	}
	defer func() {
		close(in)
		<-done
	}()

	tests := []struct {
		name string
		fn   func()
	}{
		{"WithLogger", func() { step.WithLogger(&batch.NoOpLogger{}) }},
		{"WithStats", func() { step.WithStats(&batch.NoOpStatsCollector{}) }},
		{"WithCheckpoint", func() { step.WithCheckpoint(nil, "") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("%s did not panic", tt.name)
				}
			}()
			tt.fn()
		})
	}
}

func TestStep_Run_DynamicChunkSize(t *testing.T) {
	cfg := batch.NewDynamicConfig(&batch.ConfigValues{ChunkSize: 2})
	resize := batch.ProcessorFunc[int](func(_ context.Context, n int) (int, error) {
		switch n {
		case 1:
			cfg.UpdateChunkSize(4)
		case 3:
			cfg.UpdateChunkSize(0)
		}
		return n, nil
	})
	w := &testWriter{}

	res := batch.New[int](cfg).Run(context.Background(), &testReader{Items: seq(10)}, w, resize)

	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	// 2 before the update, then 4; the invalid size keeps 4.
	var sizes []int
	for _, c := range w.Chunks() {
		sizes = append(sizes, len(c))
	}
	if !equalInts(sizes, []int{2, 4, 4}) {
		t.Errorf("chunk sizes = %v, want [2 4 4]", sizes)
	}
}

func TestStep_WithStats(t *testing.T) {
	stats := batch.NewBasicStatsCollector()
	odd := &processor.Filter[int]{Predicate: func(n int) bool { return n%2 == 1 }}

	res := newStep(2).WithStats(stats).Run(context.Background(), &testReader{Items: seq(5)}, &testWriter{}, odd)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}

	s := stats.GetStats()
	if s.ItemsRead != 5 || s.ItemsProcessed != 3 || s.ItemsSkipped != 2 || s.ItemsWritten != 3 {
		t.Errorf("unexpected item stats %+v", s)
	}
	if s.ChunksStarted != 3 || s.ChunksCompleted != 3 {
		t.Errorf("chunks started/completed = %d/%d, want 3/3", s.ChunksStarted, s.ChunksCompleted)
	}
	if s.MaxChunkSize != 2 || s.MinChunkSize != 1 {
		t.Errorf("chunk sizes min/max = %d/%d, want 1/2", s.MinChunkSize, s.MaxChunkSize)
	}
}

func TestNewWithOptions(t *testing.T) {
	stats := batch.NewBasicStatsCollector()
	step := batch.NewWithOptions[int](&batch.Options{
		Config: batch.NewConstantConfig(&batch.ConfigValues{ChunkSize: 3}),
		Logger: &batch.NoOpLogger{},
		Stats:  stats,
	})

	res := step.Run(context.Background(), &testReader{Items: seq(4)}, &testWriter{})

	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if stats.GetStats().ChunksCompleted != 2 {
		t.Errorf("chunks completed = %d, want 2", stats.GetStats().ChunksCompleted)
	}

	if res := batch.NewWithOptions[int](nil).Run(context.Background(), &testReader{}, &testWriter{}); res.Err == nil {
		t.Error("nil options should fail with a ConfigError")
	}
}

func TestStep_State(t *testing.T) {
	step := newStep(2)
	if step.State().Status != batch.StatusIdle {
		t.Errorf("initial status = %v, want idle", step.State().Status)
	}

	res := step.Run(context.Background(), &testReader{Items: seq(3)}, &testWriter{})

	if st := step.State(); st != res.RunState {
		t.Errorf("State() = %+v, want %+v", st, res.RunState)
	}
}
