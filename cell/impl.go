package cell

import (
	"strconv"

	"github.com/gocells/spreadsheet/formula"
	"github.com/gocells/spreadsheet/position"
)

// impl is the closed sum of cell bodies described in spec.md §9 as a
// "capability set": GetValue, GetText, GetReferencedCells, IsCacheValid and
// InvalidateCache. Only the formula body has non-trivial cache behavior —
// the others' cache operations are no-ops.
type impl interface {
	Value() Value
	Text() string
	ReferencedCells() []position.Position
	IsCacheValid() bool
	InvalidateCache()
}

type emptyImpl struct{}

func (emptyImpl) Value() Value                        { return EmptyValue() }
func (emptyImpl) Text() string                        { return "" }
func (emptyImpl) ReferencedCells() []position.Position { return nil }
func (emptyImpl) IsCacheValid() bool                  { return true }
func (emptyImpl) InvalidateCache()                    {}

// textImpl holds raw, non-empty text. A leading EscapeSign suppresses
// formula interpretation and is stripped from the displayed value, but kept
// in the raw text returned by Text().
type textImpl struct {
	raw string
}

func (t *textImpl) Value() Value {
	if len(t.raw) > 0 && t.raw[0] == EscapeSign {
		return TextValue(t.raw[1:])
	}
	return TextValue(t.raw)
}

func (t *textImpl) Text() string                         { return t.raw }
func (t *textImpl) ReferencedCells() []position.Position { return nil }
func (t *textImpl) IsCacheValid() bool                   { return true }
func (t *textImpl) InvalidateCache()                     {}

// formulaImpl wraps a parsed formula.Formula and memoizes its evaluated
// Value. Per spec.md §4.2/§9, the cache is populated on first read and
// returned verbatim on subsequent reads until invalidated — a deliberate
// mutation through a read, confined to the cache field.
type formulaImpl struct {
	formula *formula.Formula
	resolve formula.Resolver
	cache   *Value
}

func (f *formulaImpl) Value() Value {
	if f.cache == nil {
		v := f.evaluate()
		f.cache = &v
	}
	return *f.cache
}

func (f *formulaImpl) evaluate() Value {
	result, err := f.formula.Evaluate(f.resolve)
	if err != nil {
		return ErrorValue(err)
	}
	return NumberValue(result)
}

func (f *formulaImpl) Text() string {
	return string(FormulaSign) + f.formula.String()
}

func (f *formulaImpl) ReferencedCells() []position.Position {
	return f.formula.ReferencedCells()
}

func (f *formulaImpl) IsCacheValid() bool { return f.cache != nil }
func (f *formulaImpl) InvalidateCache()   { f.cache = nil }

// valueAsNumber implements spec.md §7's text/empty-to-number coercion used
// when a formula resolves a reference: an empty cell counts as zero, a
// non-numeric non-empty text cell is a Value error, and an error-valued
// cell's error propagates unchanged.
func valueAsNumber(v Value) (float64, *formula.Error) {
	switch v.Kind {
	case KindNumber:
		return v.Number, nil
	case KindEmpty:
		return 0, nil
	case KindText:
		if v.Text == "" {
			return 0, nil
		}
		n, err := strconv.ParseFloat(v.Text, 64)
		if err != nil {
			return 0, formula.ValueError()
		}
		return n, nil
	case KindError:
		return 0, v.Err
	default:
		return 0, nil
	}
}
