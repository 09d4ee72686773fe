package batch

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// runPipelined overlaps the read side (read + process) of chunk N+1 with
// the write side of chunk N:
//
//	reader -> processors -> handoff (cap 1) -> writer
//
// The handoff is single-producer/single-consumer, so chunks reach the
// writer in input order. Every chunk the read side hands off is committed
// unless the write side has already failed, so a read failure or a
// cancellation leaves the same output as in sequential mode. When the write
// side fails, the read side stops and its in-flight chunk is dropped.
func (s *Step[T]) runPipelined(ctx context.Context, r Reader[T], w Writer[T], procs []Processor[T], config ConfigValues) error {
	handoff := make(chan chunk[T], 1)
	writerDone := make(chan struct{})
	g, gctx := errgroup.WithContext(ctx)

	// Read side.
	g.Go(func() error {
		defer close(handoff)

		chunkSize := config.ChunkSize
		for index := s.State().Chunk; ; index++ {
			if err := ctx.Err(); err != nil {
				return &CanceledError{Chunk: index, Offset: r.Offset(), Err: err}
			}
			// The parent is still live, so the write side failed.
			if gctx.Err() != nil {
				return nil
			}

			chunkSize = s.chunkSize(chunkSize)
			c, err := s.nextChunk(gctx, index, r, procs, chunkSize, config.SkipLimit)
			if err != nil {
				return err
			}

			if c.read > 0 {
				select {
				case handoff <- c:
				case <-writerDone:
					return nil
				}
			}
			if c.exhausted {
				return nil
			}
		}
	})

	// Write side. It drains the handoff even after the read side failed so
	// that every chunk read before the failure is committed.
	g.Go(func() error {
		defer close(writerDone)

		for c := range handoff {
			if err := s.commit(ctx, w, c); err != nil {
				return err
			}
		}
		return nil
	})

	return g.Wait()
}
