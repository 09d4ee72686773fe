package record

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultDelimiter separates fields when NewCodec is given an empty delimiter.
const DefaultDelimiter = ","

// Codec decodes and encodes Records as delimited lines using the column
// order in Fields. A Codec is immutable and safe for concurrent use.
type Codec struct {
	delimiter string
	scale     int32
}

// NewCodec returns a Codec splitting and joining fields on delimiter. An
// empty delimiter selects DefaultDelimiter.
//
// Prices are encoded with the scale they carry, so a price decoded as 10.00
// is written back as 10.00 and not 10.
func NewCodec(delimiter string) *Codec {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	return &Codec{
		delimiter: delimiter,
		scale:     -1,
	}
}

// WithScale returns a copy of the Codec that always encodes prices with
// exactly scale fraction digits, rounding half away from zero. A negative
// scale restores the default scale-preserving rendering.
func (c *Codec) WithScale(scale int32) *Codec {
	newCodec := *c
	if scale < 0 {
		scale = -1
	}
	newCodec.scale = scale
	return &newCodec
}

// Delimiter returns the field separator.
func (c *Codec) Delimiter() string {
	return c.delimiter
}

// Decode parses one line into a Record. A trailing carriage return is
// ignored. It returns a *MalformedRecordError when the field count is wrong,
// the id is empty, or the price is not a decimal literal.
func (c *Codec) Decode(line string) (Record, error) {
	line = strings.TrimSuffix(line, "\r")

	parts := strings.Split(line, c.delimiter)
	if len(parts) != len(Fields) {
		return Record{}, &MalformedRecordError{
			Text: line,
			Err:  fmt.Errorf("%w: expected %d, got %d", ErrFieldCount, len(Fields), len(parts)),
		}
	}

	var r Record
	for i, f := range Fields {
		value := parts[i]
		switch f {
		case FieldID:
			if strings.TrimSpace(value) == "" {
				return Record{}, &MalformedRecordError{Text: line, Err: ErrEmptyID}
			}
			r.ID = value
		case FieldName:
			r.Name = value
		case FieldPrice:
			price, err := decimal.NewFromString(strings.TrimSpace(value))
			if err != nil {
				return Record{}, &MalformedRecordError{
					Text: line,
					Err:  fmt.Errorf("invalid price %q: %w", value, err),
				}
			}
			r.Price = price
		}
	}

	return r, nil
}

// Check reports whether r can be encoded as a line that Decode turns back
// into r. It returns a *MalformedRecordError wrapping ErrEmptyID when the id
// is blank, or ErrFieldCount when a text field holds the delimiter or a line
// break.
func (c *Codec) Check(r Record) error {
	if strings.TrimSpace(r.ID) == "" {
		return &MalformedRecordError{Text: c.Encode(r), Err: ErrEmptyID}
	}
	for _, f := range Fields {
		if f == FieldPrice {
			continue
		}
		v := r.Get(f)
		if strings.Contains(v, c.delimiter) || strings.ContainsAny(v, "\r\n") {
			return &MalformedRecordError{
				Text: c.Encode(r),
				Err:  fmt.Errorf("%w: %s contains the delimiter or a line break", ErrFieldCount, f),
			}
		}
	}
	return nil
}

// Encode renders r as one line without a trailing newline. Encode does not
// escape anything; use Check to find records that would not decode again.
func (c *Codec) Encode(r Record) string {
	var sb strings.Builder
	c.encodeTo(&sb, r)
	return sb.String()
}

// AppendLine appends the encoded record and a newline to buf and returns the
// extended buffer. Writers use it to build a whole chunk in one allocation.
func (c *Codec) AppendLine(buf []byte, r Record) []byte {
	for i, f := range Fields {
		if i > 0 {
			buf = append(buf, c.delimiter...)
		}
		buf = append(buf, c.field(r, f)...)
	}
	return append(buf, '\n')
}

func (c *Codec) encodeTo(sb *strings.Builder, r Record) {
	for i, f := range Fields {
		if i > 0 {
			sb.WriteString(c.delimiter)
		}
		sb.WriteString(c.field(r, f))
	}
}

func (c *Codec) field(r Record, f Field) string {
	if f == FieldPrice {
		return formatPrice(r.Price, c.scale)
	}
	return r.Get(f)
}

// formatPrice renders d keeping its own scale when scale is negative.
func formatPrice(d decimal.Decimal, scale int32) string {
	if scale >= 0 {
		return d.StringFixed(scale)
	}
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}
