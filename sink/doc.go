// Package sink contains implementations of the batch.Writer interface,
// including:
//
// - File: For writing delimited text files, one flush per chunk
// - Collect: For gathering committed chunks in memory
// - Error: For simulating writers that fail
//
// A Writer receives whole chunks. File encodes a chunk into a single buffer
// and hands it to the operating system in one write, so a chunk is either
// fully written or the run fails on it.
package sink
