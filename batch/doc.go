// Package batch contains the chunk-oriented processing step. The main type
// is Step, which can be created using New. It pulls items from a Reader,
// runs each one through a chain of Processors and hands the results to a
// Writer in chunks. Reader, Processor and Writer implementations are
// provided in the source, processor and sink packages, or you can create
// your own.
//
// A run moves through these states:
//
//	Idle -> Running -> Completed
//	                -> Failed
//
// Each iteration of a run:
//
//  1. checks the context (a done context fails the run with CanceledError),
//  2. reads up to ChunkSize items, stopping early when the Reader returns io.EOF,
//  3. passes every item through the Processors in input order,
//  4. writes the surviving items with a single Writer.Write call,
//  5. saves a checkpoint if a checkpoint.Store is configured.
//
// A chunk is the unit of failure: when reading, processing or writing fails,
// the chunk is not written and the run stops. Chunks written before the
// failure stay written; there is no rollback.
//
// Processors can be chained together. Each processor receives the output of
// the previous one, and returning ErrSkip from any of them drops the item:
//
//	step.Run(ctx, reader, writer, processor1, processor2, processor3)
//
// The chunk size is reloaded from Config before each chunk is read, which
// allows a DynamicConfig to change it while a run is in progress.
package batch
