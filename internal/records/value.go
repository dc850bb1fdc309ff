package records

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ValueKind discriminates the three cell states.
type ValueKind uint8

const (
	CellNull ValueKind = iota
	CellText
	CellNumber
)

// Value is a single table cell: null, text, or an exact decimal number.
// The zero Value is null.
type Value struct {
	kind ValueKind
	text string
	num  decimal.Decimal
}

// Null returns the null cell.
func Null() Value { return Value{} }

// Text returns a text cell. The empty string is still a text cell; use
// ParseCell for raw input where blanks mean null.
func Text(s string) Value { return Value{kind: CellText, text: s} }

// Number returns a numeric cell.
func Number(d decimal.Decimal) Value { return Value{kind: CellNumber, num: d} }

// ParseCell converts raw textual input into a cell. Blank input is null;
// everything else is text until column inference decides otherwise.
func ParseCell(s string) Value {
	if strings.TrimSpace(s) == "" {
		return Null()
	}
	return Text(s)
}

// ValueOf converts a Go value into a cell. Supported inputs are nil, Value,
// string, the integer and float kinds, decimal.Decimal, decimal.NullDecimal,
// and time.Time (kept as RFC 3339 text; callers that need local dates convert
// before building). NaN and ±Inf become null.
func ValueOf(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case string:
		return ParseCell(x)
	case decimal.Decimal:
		return Number(x)
	case decimal.NullDecimal:
		if !x.Valid {
			return Null()
		}
		return Number(x.Decimal)
	case int:
		return Number(decimal.NewFromInt(int64(x)))
	case int16:
		return Number(decimal.NewFromInt(int64(x)))
	case int32:
		return Number(decimal.NewFromInt32(x))
	case int64:
		return Number(decimal.NewFromInt(x))
	case float32:
		return ValueOf(float64(x))
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return Null()
		}
		return Number(decimal.NewFromFloat(x))
	case bool:
		return Text(fmt.Sprint(x))
	case time.Time:
		if x.IsZero() {
			return Null()
		}
		return Text(x.Format(time.RFC3339))
	case fmt.Stringer:
		return ParseCell(x.String())
	default:
		return ParseCell(fmt.Sprint(x))
	}
}

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsNull() bool    { return v.kind == CellNull }
func (v Value) IsNumber() bool  { return v.kind == CellNumber }

// String renders text cells verbatim and numbers in their canonical decimal
// form. Null renders as "".
func (v Value) String() string {
	switch v.kind {
	case CellText:
		return v.text
	case CellNumber:
		return v.num.String()
	default:
		return ""
	}
}

// Decimal coerces the cell to a number. Text cells are parsed; anything that
// does not parse yields an invalid NullDecimal rather than an error.
func (v Value) Decimal() decimal.NullDecimal {
	switch v.kind {
	case CellNumber:
		return decimal.NewNullDecimal(v.num)
	case CellText:
		d, ok := parseNumber(v.text)
		if !ok {
			return decimal.NullDecimal{}
		}
		return decimal.NewNullDecimal(d)
	default:
		return decimal.NullDecimal{}
	}
}

// Interface returns the cell as a plain JSON-friendly Go value: nil, string
// or float64.
func (v Value) Interface() any {
	switch v.kind {
	case CellText:
		return v.text
	case CellNumber:
		return v.num.InexactFloat64()
	default:
		return nil
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case CellText:
		return json.Marshal(v.text)
	case CellNumber:
		return []byte(v.num.String()), nil
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*v = Null()
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = Text(s)
	default:
		d, err := decimal.NewFromString(string(b))
		if err != nil {
			return fmt.Errorf("decode cell %s: %w", b, err)
		}
		*v = Number(d)
	}
	return nil
}

func parseNumber(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func marshalIDLabel(id, label string) ([]byte, error) {
	return json.Marshal(struct {
		ID    string `json:"id"`
		Label string `json:"label"`
	}{id, label})
}

func trimHeader(h string) string {
	return strings.TrimSpace(strings.ReplaceAll(h, "\u00a0", " "))
}
