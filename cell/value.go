package cell

import "github.com/gocells/spreadsheet/formula"

// Kind discriminates the four Value variants from spec.md §3.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindNumber
	KindText
	KindError
)

// Value is the sum type spec.md §3 describes: exactly one of Empty, Number,
// Text or Error is meaningful, selected by Kind.
type Value struct {
	Kind   Kind
	Number float64
	Text   string
	Err    *formula.Error
}

// EmptyValue, NumberValue, TextValue and ErrorValue build a Value of the
// matching variant.
func EmptyValue() Value                 { return Value{Kind: KindEmpty} }
func NumberValue(v float64) Value       { return Value{Kind: KindNumber, Number: v} }
func TextValue(s string) Value          { return Value{Kind: KindText, Text: s} }
func ErrorValue(e *formula.Error) Value { return Value{Kind: KindError, Err: e} }

// String renders the display form from spec.md §6.3: empty string for
// Empty, the host's default double-to-string for Number, the raw string for
// Text, and the canonical error token for Error.
func (v Value) String() string {
	switch v.Kind {
	case KindEmpty:
		return ""
	case KindNumber:
		return formula.FormatNumber(v.Number)
	case KindText:
		return v.Text
	case KindError:
		return v.Err.String()
	default:
		return ""
	}
}
