package record

import "github.com/shopspring/decimal"

// Field names a column of a delimited line.
type Field string

const (
	FieldID    Field = "id"
	FieldName  Field = "name"
	FieldPrice Field = "price"
)

// Fields is the declared column order shared by Decode and Encode.
var Fields = []Field{FieldID, FieldName, FieldPrice}

// Record is a single product line. It is a value type: copying a Record
// never shares state with the line it was decoded from.
type Record struct {
	// ID identifies the record. Uniqueness is not enforced.
	ID string

	// Name is free text.
	Name string

	// Price is an exact decimal quantity.
	Price decimal.Decimal
}

// Equal reports whether r and other hold the same ID, Name and numeric Price.
// Prices are compared by value, so 10.0 and 10.00 are equal.
func (r Record) Equal(other Record) bool {
	return r.ID == other.ID && r.Name == other.Name && r.Price.Equal(other.Price)
}

// Get returns the text of the named field as Encode would render it with
// the scale preserved.
func (r Record) Get(f Field) string {
	switch f {
	case FieldID:
		return r.ID
	case FieldName:
		return r.Name
	case FieldPrice:
		return formatPrice(r.Price, -1)
	default:
		return ""
	}
}
