// Package source contains several implementations of the batch.Reader
// interface, including:
//
// - File: For reading delimited text files line by line
// - Slice: For reading items held in memory
// - Channel: For using existing channels as readers
// - Error: For simulating readers that fail after some items
//
// File is the reader used by flatbatch runs. It decodes one line at a time,
// never reads ahead of the item it returns, and reports the line number of
// any line it cannot decode.
//
// Basic usage of the File reader:
//
//	r := source.NewRecordFile("input/products.csv", record.NewCodec(","))
//	if err := r.Open(ctx); err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	for {
//	    rec, err := r.Read(ctx)
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(rec.ID, rec.Price)
//	}
package source
