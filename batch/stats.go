package batch

import (
	"sync"
	"sync/atomic"
	"time"
)

// StatsCollector defines the interface for collecting metrics during a run.
// Implementations can store metrics in memory, send to monitoring systems, or export to various formats.
// The StatsCollector is optional - if not provided, no statistics are collected.
//
// In pipelined mode the read and write sides call the collector from
// different goroutines, so implementations must be safe for concurrent use.
type StatsCollector interface {
	// RecordChunkStart is called once a chunk has been read, before it is processed.
	RecordChunkStart(chunkSize int)

	// RecordChunkComplete is called when a chunk has been committed.
	// duration is the time from RecordChunkStart to the end of the write.
	RecordChunkComplete(chunkSize int, duration time.Duration)

	// RecordItemRead is called for each item returned by the reader.
	RecordItemRead()

	// RecordItemProcessed is called for each item that passed all processors.
	RecordItemProcessed()

	// RecordItemSkipped is called for each item dropped with ErrSkip.
	RecordItemSkipped()

	// RecordItemsWritten is called with the number of items in each committed chunk.
	RecordItemsWritten(n int)

	// RecordReaderError is called when the reader fails.
	RecordReaderError()

	// RecordProcessorError is called when a processor fails.
	RecordProcessorError()

	// RecordWriterError is called when the writer fails.
	RecordWriterError()

	// GetStats returns a snapshot of the current statistics.
	GetStats() Stats
}

// Stats holds aggregated statistics about chunk processing.
type Stats struct {
	// ChunksStarted is the total number of chunks that have been read.
	ChunksStarted uint64

	// ChunksCompleted is the total number of chunks that have been committed.
	ChunksCompleted uint64

	// ItemsRead is the total number of items returned by the reader.
	ItemsRead uint64

	// ItemsProcessed is the total number of items that passed all processors.
	ItemsProcessed uint64

	// ItemsSkipped is the total number of items dropped by processors.
	ItemsSkipped uint64

	// ItemsWritten is the total number of items committed by the writer.
	ItemsWritten uint64

	// ReaderErrors is the total number of reader failures.
	ReaderErrors uint64

	// ProcessorErrors is the total number of processor failures.
	ProcessorErrors uint64

	// WriterErrors is the total number of writer failures.
	WriterErrors uint64

	// TotalProcessingTime is the cumulative time spent on committed chunks.
	TotalProcessingTime time.Duration

	// MinChunkTime is the minimum time taken by a committed chunk.
	MinChunkTime time.Duration

	// MaxChunkTime is the maximum time taken by a committed chunk.
	MaxChunkTime time.Duration

	// MinChunkSize is the smallest chunk read.
	MinChunkSize int

	// MaxChunkSize is the largest chunk read.
	MaxChunkSize int

	// StartTime is when statistics collection began.
	StartTime time.Time

	// LastUpdateTime is when statistics were last updated.
	LastUpdateTime time.Time
}

// NoOpStatsCollector is a stats collector that discards all metrics.
// This is the default stats collector when none is specified.
type NoOpStatsCollector struct{}

// RecordChunkStart implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordChunkStart(chunkSize int) {}

// RecordChunkComplete implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordChunkComplete(chunkSize int, duration time.Duration) {}

// RecordItemRead implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordItemRead() {}

// RecordItemProcessed implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordItemProcessed() {}

// RecordItemSkipped implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordItemSkipped() {}

// RecordItemsWritten implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordItemsWritten(int) {}

// RecordReaderError implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordReaderError() {}

// RecordProcessorError implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordProcessorError() {}

// RecordWriterError implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordWriterError() {}

// GetStats implements the StatsCollector interface.
func (n *NoOpStatsCollector) GetStats() Stats {
	return Stats{}
}

// BasicStatsCollector is a simple in-memory implementation of StatsCollector.
// It maintains counters and timing information about chunk processing.
// All operations are thread-safe.
type BasicStatsCollector struct {
	mu    sync.RWMutex
	stats Stats

	// Atomic counters for lock-free updates
	chunksStarted   uint64
	chunksCompleted uint64
	itemsRead       uint64
	itemsProcessed  uint64
	itemsSkipped    uint64
	itemsWritten    uint64
	readerErrors    uint64
	processorErrors uint64
	writerErrors    uint64
}

// NewBasicStatsCollector creates a new BasicStatsCollector.
func NewBasicStatsCollector() *BasicStatsCollector {
	now := time.Now()
	return &BasicStatsCollector{
		stats: Stats{
			StartTime:      now,
			LastUpdateTime: now,
			MinChunkTime:   time.Duration(1<<63 - 1), // Max duration as initial value
		},
	}
}

// RecordChunkStart implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordChunkStart(chunkSize int) {
	atomic.AddUint64(&b.chunksStarted, 1)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.stats.LastUpdateTime = time.Now()

	if chunkSize < b.stats.MinChunkSize || b.stats.MinChunkSize == 0 {
		b.stats.MinChunkSize = chunkSize
	}
	if chunkSize > b.stats.MaxChunkSize {
		b.stats.MaxChunkSize = chunkSize
	}
}

// RecordChunkComplete implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordChunkComplete(chunkSize int, duration time.Duration) {
	atomic.AddUint64(&b.chunksCompleted, 1)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.stats.LastUpdateTime = time.Now()
	b.stats.TotalProcessingTime += duration

	if duration < b.stats.MinChunkTime {
		b.stats.MinChunkTime = duration
	}
	if duration > b.stats.MaxChunkTime {
		b.stats.MaxChunkTime = duration
	}
}

// RecordItemRead implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordItemRead() {
	atomic.AddUint64(&b.itemsRead, 1)
}

// RecordItemProcessed implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordItemProcessed() {
	atomic.AddUint64(&b.itemsProcessed, 1)
}

// RecordItemSkipped implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordItemSkipped() {
	atomic.AddUint64(&b.itemsSkipped, 1)
}

// RecordItemsWritten implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordItemsWritten(n int) {
	if n > 0 {
		atomic.AddUint64(&b.itemsWritten, uint64(n))
	}
}

// RecordReaderError implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordReaderError() {
	atomic.AddUint64(&b.readerErrors, 1)
}

// RecordProcessorError implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordProcessorError() {
	atomic.AddUint64(&b.processorErrors, 1)
}

// RecordWriterError implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordWriterError() {
	atomic.AddUint64(&b.writerErrors, 1)
}

// GetStats implements the StatsCollector interface.
// It returns a snapshot of the current statistics.
func (b *BasicStatsCollector) GetStats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	stats := b.stats
	stats.ChunksStarted = atomic.LoadUint64(&b.chunksStarted)
	stats.ChunksCompleted = atomic.LoadUint64(&b.chunksCompleted)
	stats.ItemsRead = atomic.LoadUint64(&b.itemsRead)
	stats.ItemsProcessed = atomic.LoadUint64(&b.itemsProcessed)
	stats.ItemsSkipped = atomic.LoadUint64(&b.itemsSkipped)
	stats.ItemsWritten = atomic.LoadUint64(&b.itemsWritten)
	stats.ReaderErrors = atomic.LoadUint64(&b.readerErrors)
	stats.ProcessorErrors = atomic.LoadUint64(&b.processorErrors)
	stats.WriterErrors = atomic.LoadUint64(&b.writerErrors)

	// Fix min chunk time if no chunks completed
	if stats.ChunksCompleted == 0 {
		stats.MinChunkTime = 0
	}

	return stats
}

// AverageChunkTime returns the average time taken to commit a chunk.
// Returns 0 if no chunks have been completed.
func (s *Stats) AverageChunkTime() time.Duration {
	if s.ChunksCompleted == 0 {
		return 0
	}
	return s.TotalProcessingTime / time.Duration(s.ChunksCompleted)
}

// AverageChunkSize returns the average number of items written per chunk.
// Returns 0 if no chunks have been completed.
func (s *Stats) AverageChunkSize() float64 {
	if s.ChunksCompleted == 0 {
		return 0
	}
	return float64(s.ItemsWritten) / float64(s.ChunksCompleted)
}

// SkipRate returns the percentage of read items that were skipped.
// Returns 0 if no items have been read.
func (s *Stats) SkipRate() float64 {
	if s.ItemsRead == 0 {
		return 0
	}
	return float64(s.ItemsSkipped) / float64(s.ItemsRead) * 100
}

// Duration returns the total duration since statistics collection started.
func (s *Stats) Duration() time.Duration {
	return s.LastUpdateTime.Sub(s.StartTime)
}
