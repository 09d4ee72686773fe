// Package flatbatch runs chunk-oriented batch jobs over delimited flat files.
//
// A run reads records of the form id,name,price from an input file, passes
// each through a chain of processors, and appends the results to an output
// file one chunk at a time. RunOnce wires every component from a
// config.Config:
//
//	cfg, err := config.Load("flatbatch.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res := flatbatch.RunOnce(ctx, cfg)
//	if res.Err != nil {
//	    log.Fatalf("run %s: %v", res.Status, res.Err)
//	}
//
// The building blocks live in subpackages: batch holds the chunk loop,
// source and sink the file reader and writer, processor the record
// processors, record the data model and codec, checkpoint the restart
// stores, and metrics the Prometheus statistics collector.
package flatbatch
