package engine

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind discriminates the scalar carried by a Value.
type Kind int

// Value kinds returned by the embedded engines.
const (
	KindNull Kind = iota
	KindNumber
	KindText
	KindBlob
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindBlob:
		return "blob"
	default:
		return "unknown"
	}
}

// Value is a single result cell.
// Exactly one of the payload fields is meaningful, selected by Kind.
type Value struct {
	Kind   Kind
	Number float64
	Text   string
	Blob   []byte
}

// Null returns the NULL value.
func Null() Value { return Value{Kind: KindNull} }

// Number wraps a numeric cell.
func Number(f float64) Value { return Value{Kind: KindNumber, Number: f} }

// Text wraps a textual cell.
func Text(s string) Value { return Value{Kind: KindText, Text: s} }

// Blob wraps a binary cell.
func Blob(b []byte) Value { return Value{Kind: KindBlob, Blob: b} }

// String renders the value in its natural form: numbers in plain decimal
// (1, not 1.0 or 1e+00), text verbatim, NULL as "NULL" and blobs as a
// SQL hex literal.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return formatNumber(v.Number)
	case KindText:
		return v.Text
	case KindBlob:
		return "x'" + strings.ToUpper(hex.EncodeToString(v.Blob)) + "'"
	default:
		return "NULL"
	}
}

// Interface returns the payload as a plain Go value for encoders.
func (v Value) Interface() any {
	switch v.Kind {
	case KindNumber:
		return v.Number
	case KindText:
		return v.Text
	case KindBlob:
		return v.String()
	default:
		return nil
	}
}

func formatNumber(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case math.IsNaN(f):
		return "NaN"
	case math.Abs(f) >= 1e21:
		return strconv.FormatFloat(f, 'g', -1, 64)
	default:
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
}

// valueOf converts a value scanned from database/sql into a Value.
func valueOf(src any) Value {
	switch x := src.(type) {
	case nil:
		return Null()
	case int64:
		return Number(float64(x))
	case int32:
		return Number(float64(x))
	case int:
		return Number(float64(x))
	case int16:
		return Number(float64(x))
	case int8:
		return Number(float64(x))
	case uint64:
		return Number(float64(x))
	case uint32:
		return Number(float64(x))
	case uint16:
		return Number(float64(x))
	case uint8:
		return Number(float64(x))
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case bool:
		if x {
			return Number(1)
		}
		return Number(0)
	case string:
		return Text(x)
	case []byte:
		b := make([]byte, len(x))
		copy(b, x)
		return Blob(b)
	case interface{ String() string }:
		return Text(x.String())
	default:
		return Text(fmt.Sprint(x))
	}
}
