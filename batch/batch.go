package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/MasterOfBinary/flatbatch/checkpoint"
)

// checkpointTimeout bounds a checkpoint save or clear once the chunk it
// records has been written.
const checkpointTimeout = 10 * time.Second

// Step reads items from a Reader, passes each one through a chain of
// Processors, and commits the results to a Writer in chunks of
// ConfigValues.ChunkSize items.
//
// To create a new Step, call New:
//
//	step := batch.New[record.Record](batch.NewConstantConfig(&batch.ConfigValues{
//		ChunkSize: 100,
//	}))
//
// Run executes one run synchronously and always returns a Result, whether
// the run completed or failed:
//
//	res := step.Run(ctx, reader, writer, processor)
//	if res.Err != nil {
//		log.Printf("run failed after %d records: %v", res.RecordsWritten, res.Err)
//	}
//
// Chunks are strictly ordered: chunk N is written before chunk N+1 is read,
// unless ConfigValues.Pipelined is set, in which case the next chunk is read
// while the current one is written. Either way, a failure stops the run
// without writing the chunk it occurred in, and chunks committed earlier are
// kept.
type Step[T any] struct {
	config Config
	logger Logger
	stats  StatsCollector
	store  checkpoint.Store
	runID  string

	mu      sync.Mutex
	running bool
	state   RunState
}

// New creates a new Step using the provided config. A nil config is
// rejected when Run is called.
func New[T any](config Config) *Step[T] {
	return &Step[T]{
		config: config,
	}
}

// WithLogger sets a custom logger for the Step.
// If not set, no logging occurs (uses NoOpLogger internally).
//
// Panics if called while Run is in progress.
func (s *Step[T]) WithLogger(logger Logger) *Step[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		panic("batch: WithLogger cannot be called while Run is in progress")
	}

	s.logger = logger
	return s
}

// WithStats sets a custom stats collector for the Step.
// If not set, no statistics are collected (uses NoOpStatsCollector internally).
//
// Panics if called while Run is in progress.
func (s *Step[T]) WithStats(stats StatsCollector) *Step[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		panic("batch: WithStats cannot be called while Run is in progress")
	}

	s.stats = stats
	return s
}

// WithCheckpoint makes the Step save a checkpoint for runID after every
// committed chunk. If a checkpoint for runID already exists when Run starts,
// the reader is fast-forwarded to its offset and the counters resume from
// it; this requires the Reader to implement Seeker. The checkpoint is
// cleared when a run completes.
//
// Panics if called while Run is in progress.
func (s *Step[T]) WithCheckpoint(store checkpoint.Store, runID string) *Step[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		panic("batch: WithCheckpoint cannot be called while Run is in progress")
	}

	s.store = store
	s.runID = runID
	return s
}

// State returns a snapshot of the current run state. It is safe to call
// from any goroutine while Run is in progress.
func (s *Step[T]) State() RunState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Run executes one run: it opens r and w, moves every item of r through
// procs into w chunk by chunk, and closes r and w before returning.
//
// Each item passes through procs in order. A processor returning ErrSkip
// drops the item; any other processor error fails the run. Nil processors
// are ignored.
//
// The context is checked at chunk boundaries. Once it is done, Run fails
// with a CanceledError without writing the chunk in flight.
//
// Run must not be called again until it returns; a concurrent call fails
// immediately with ErrConcurrentRun.
func (s *Step[T]) Run(ctx context.Context, r Reader[T], w Writer[T], procs ...Processor[T]) Result {
	if !s.start() {
		return Result{RunState: RunState{Status: StatusFailed}, Err: ErrConcurrentRun}
	}

	err := s.run(ctx, r, w, procs)
	return s.finish(err)
}

// start moves the Step from idle (or a previous terminal state) to running.
func (s *Step[T]) start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return false
	}

	if s.logger == nil {
		s.logger = &NoOpLogger{}
	}
	if s.stats == nil {
		s.stats = &NoOpStatsCollector{}
	}

	s.running = true
	s.state = RunState{Status: StatusIdle}
	return true
}

// finish records the terminal status and builds the Result.
func (s *Step[T]) finish(err error) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.state.Status = StatusFailed
		s.logger.Error("Run failed after %d chunk(s), %d record(s) written: %v",
			s.state.ChunksWritten, s.state.RecordsWritten, err)
	} else {
		s.state.Status = StatusCompleted
		s.logger.Info("Run completed: %d record(s) read, %d skipped, %d written in %d chunk(s)",
			s.state.RecordsRead, s.state.RecordsSkipped, s.state.RecordsWritten, s.state.ChunksWritten)
	}
	s.running = false

	return Result{RunState: s.state, Err: err}
}

func (s *Step[T]) update(fn func(st *RunState)) {
	s.mu.Lock()
	fn(&s.state)
	s.mu.Unlock()
}

func (s *Step[T]) run(ctx context.Context, r Reader[T], w Writer[T], procs []Processor[T]) (err error) {
	if s.config == nil {
		return &ConfigError{Err: errors.New("config cannot be nil")}
	}
	config := s.config.Get()
	if err := validateConfig(config); err != nil {
		return err
	}
	if r == nil {
		return &ConfigError{Err: errors.New("reader cannot be nil")}
	}
	if w == nil {
		return &ConfigError{Err: errors.New("writer cannot be nil")}
	}

	// Filter out nil processors
	chain := make([]Processor[T], 0, len(procs))
	for _, p := range procs {
		if p != nil {
			chain = append(chain, p)
		}
	}

	s.update(func(st *RunState) { st.Status = StatusRunning })
	s.logger.Info("Starting run with chunk size %d and %d processor(s)", config.ChunkSize, len(chain))

	// Both resources are released on every exit path. A close failure only
	// becomes the run's error when nothing else failed first.
	defer func() {
		if cerr := r.Close(); cerr != nil {
			if err == nil {
				s.stats.RecordReaderError()
				err = &ReaderError{Chunk: s.State().Chunk, Offset: r.Offset(), Err: fmt.Errorf("close reader: %w", cerr)}
			} else {
				s.logger.Warn("Closing reader: %v", cerr)
			}
		}
	}()
	if err := r.Open(ctx); err != nil {
		return &ConfigError{Err: fmt.Errorf("open reader: %w", err)}
	}

	defer func() {
		if cerr := w.Close(); cerr != nil {
			if err == nil {
				s.stats.RecordWriterError()
				err = &WriterError{Chunk: s.State().Chunk, Offset: r.Offset(), Err: fmt.Errorf("close writer: %w", cerr)}
			} else {
				s.logger.Warn("Closing writer: %v", cerr)
			}
		}
	}()
	if err := w.Open(ctx); err != nil {
		return &ConfigError{Err: fmt.Errorf("open writer: %w", err)}
	}

	if err := s.resume(ctx, r); err != nil {
		return err
	}

	if config.Pipelined {
		err = s.runPipelined(ctx, r, w, chain, config)
	} else {
		err = s.runSequential(ctx, r, w, chain, config)
	}
	if err != nil {
		return err
	}

	if s.store != nil {
		clearCtx, cancel := storeContext(ctx)
		defer cancel()
		if err := s.store.Clear(clearCtx, s.runID); err != nil {
			st := s.State()
			return &CheckpointError{Chunk: st.Chunk, Offset: st.Offset, Err: fmt.Errorf("clear checkpoint: %w", err)}
		}
	}
	return nil
}

// storeContext detaches a checkpoint write from the cancellation of ctx,
// keeping its values, and bounds it with checkpointTimeout.
func storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), checkpointTimeout)
}

// resume restores the run state from a checkpoint, if one exists.
func (s *Step[T]) resume(ctx context.Context, r Reader[T]) error {
	if s.store == nil {
		return nil
	}

	cp, err := s.store.Load(ctx, s.runID)
	if errors.Is(err, checkpoint.ErrNotFound) {
		return nil
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return &CanceledError{Offset: r.Offset(), Err: ctxErr}
		}
		return &CheckpointError{Err: fmt.Errorf("load checkpoint: %w", err)}
	}

	seeker, ok := r.(Seeker)
	if !ok {
		return &ConfigError{Err: ErrNotSeekable}
	}
	if err := seeker.SkipTo(ctx, cp.Offset); err != nil {
		s.stats.RecordReaderError()
		return &ReaderError{Chunk: cp.Chunk, Offset: r.Offset(), Err: fmt.Errorf("resume: %w", err)}
	}

	s.update(func(st *RunState) {
		st.Offset = cp.Offset
		st.Chunk = cp.Chunk
		st.ChunksWritten = cp.ChunksWritten
		st.RecordsRead = cp.RecordsRead
		st.RecordsSkipped = cp.RecordsSkipped
		st.RecordsWritten = cp.RecordsWritten
	})
	s.logger.Info("Resuming run %s at chunk %d, offset %d", s.runID, cp.Chunk, cp.Offset)
	return nil
}

// runSequential is the default loop: read, process and write one chunk at a time.
func (s *Step[T]) runSequential(ctx context.Context, r Reader[T], w Writer[T], procs []Processor[T], config ConfigValues) error {
	chunkSize := config.ChunkSize
	for index := s.State().Chunk; ; index++ {
		if err := ctx.Err(); err != nil {
			return &CanceledError{Chunk: index, Offset: r.Offset(), Err: err}
		}

		chunkSize = s.chunkSize(chunkSize)
		c, err := s.nextChunk(ctx, index, r, procs, chunkSize, config.SkipLimit)
		if err != nil {
			return err
		}

		if c.read > 0 {
			if err := s.commit(ctx, w, c); err != nil {
				return err
			}
		}
		if c.exhausted {
			return nil
		}
	}
}

// chunkSize reloads the chunk size, keeping the previous one when the
// reloaded value is invalid.
func (s *Step[T]) chunkSize(previous int) int {
	size := s.config.Get().ChunkSize
	if size <= 0 {
		if size != previous {
			s.logger.Warn("Ignoring invalid chunk size %d, keeping %d", size, previous)
		}
		return previous
	}
	return size
}

// chunk is one bounded group of items moving from the read side to the
// write side of a run.
type chunk[T any] struct {
	index     uint64
	items     []T
	read      int
	offset    int64
	exhausted bool
	started   time.Time

	// Run totals once the chunk was read, saved with its checkpoint.
	totalRead    uint64
	totalSkipped uint64
}

// nextChunk reads up to size items and passes each through procs in input
// order. It returns a ReaderError or ProcessorError without a chunk when
// any item fails.
func (s *Step[T]) nextChunk(ctx context.Context, index uint64, r Reader[T], procs []Processor[T], size int, skipLimit uint64) (chunk[T], error) {
	c := chunk[T]{
		index:   index,
		items:   make([]T, 0, size),
		started: time.Now(),
	}
	s.update(func(st *RunState) { st.Chunk = index })

	for c.read < size {
		item, err := r.Read(ctx)
		if errors.Is(err, io.EOF) {
			c.exhausted = true
			break
		}
		s.update(func(st *RunState) { st.Offset = r.Offset() })
		if err != nil {
			s.stats.RecordReaderError()
			return c, &ReaderError{Chunk: index, Offset: r.Offset(), Err: err}
		}

		c.read++
		s.stats.RecordItemRead()
		s.update(func(st *RunState) { st.RecordsRead++ })

		item, keep, err := s.process(ctx, item, procs)
		if err != nil {
			s.stats.RecordProcessorError()
			return c, &ProcessorError{Chunk: index, Offset: r.Offset(), Err: err}
		}
		if !keep {
			s.stats.RecordItemSkipped()
			var skipped uint64
			s.update(func(st *RunState) {
				st.RecordsSkipped++
				skipped = st.RecordsSkipped
			})
			if skipLimit > 0 && skipped > skipLimit {
				s.stats.RecordProcessorError()
				return c, &ProcessorError{Chunk: index, Offset: r.Offset(),
					Err: fmt.Errorf("%w: %d item(s) skipped, limit is %d", ErrSkipLimitExceeded, skipped, skipLimit)}
			}
			continue
		}

		s.stats.RecordItemProcessed()
		c.items = append(c.items, item)
	}

	c.offset = r.Offset()
	s.update(func(st *RunState) {
		st.Offset = c.offset
		c.totalRead = st.RecordsRead
		c.totalSkipped = st.RecordsSkipped
	})
	if c.read > 0 {
		s.stats.RecordChunkStart(c.read)
		s.logger.Debug("Chunk %d: read %d item(s), %d kept, offset %d", index, c.read, len(c.items), c.offset)
	}
	return c, nil
}

// process runs item through every processor. keep is false when a
// processor skipped it.
func (s *Step[T]) process(ctx context.Context, item T, procs []Processor[T]) (result T, keep bool, err error) {
	for _, p := range procs {
		item, err = p.Process(ctx, item)
		if errors.Is(err, ErrSkip) {
			return item, false, nil
		}
		if err != nil {
			return item, false, err
		}
	}
	return item, true, nil
}

// commit writes a chunk as one unit, advances the run state and saves the
// checkpoint. Fully skipped chunks are not written but still advance the
// checkpoint.
func (s *Step[T]) commit(ctx context.Context, w Writer[T], c chunk[T]) error {
	if len(c.items) > 0 {
		if err := w.Write(ctx, c.items); err != nil {
			s.stats.RecordWriterError()
			return &WriterError{Chunk: c.index, Offset: c.offset, Err: err}
		}
		s.stats.RecordItemsWritten(len(c.items))
	}

	var st RunState
	s.update(func(rs *RunState) {
		if len(c.items) > 0 {
			rs.ChunksWritten++
			rs.RecordsWritten += uint64(len(c.items))
		}
		st = *rs
	})

	duration := time.Since(c.started)
	s.stats.RecordChunkComplete(len(c.items), duration)
	s.logger.Debug("Chunk %d committed: %d item(s) written in %v", c.index, len(c.items), duration)

	if s.store == nil {
		return nil
	}
	// The chunk is already written, so its checkpoint is saved even when
	// ctx was canceled meanwhile. The position comes from the chunk, not the
	// run state: in pipelined mode the reader may already be past this chunk.
	saveCtx, cancel := storeContext(ctx)
	defer cancel()
	err := s.store.Save(saveCtx, checkpoint.Checkpoint{
		RunID:          s.runID,
		Offset:         c.offset,
		Chunk:          c.index + 1,
		ChunksWritten:  st.ChunksWritten,
		RecordsRead:    c.totalRead,
		RecordsSkipped: c.totalSkipped,
		RecordsWritten: st.RecordsWritten,
		UpdatedAt:      time.Now(),
	})
	if err != nil {
		return &CheckpointError{Chunk: c.index, Offset: c.offset, Err: fmt.Errorf("save checkpoint: %w", err)}
	}
	return nil
}
