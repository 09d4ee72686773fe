// Package record contains the Record type processed by flatbatch and the
// Codec that converts records to and from flat delimited text lines.
//
// A line holds exactly three fields in the order declared by Fields:
//
//	id,name,price
//
// There is no header row and no quoting or escaping. The price is parsed as
// an exact decimal, so arithmetic on it never drifts the way binary floating
// point does.
//
// Basic usage:
//
//	codec := record.NewCodec(",")
//	r, err := codec.Decode("1,Widget,10.00")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(codec.Encode(r))
//
// Output:
//
//	1,Widget,10.00
package record
