// Package formula implements spec.md §4.1: parsing arithmetic expressions
// over numeric literals and cell references into an AST, evaluating that AST
// against a cell resolver, enumerating referenced positions, and reprinting
// a canonical, parenthesis-minimal form.
package formula

import (
	"strings"

	"github.com/gocells/spreadsheet/position"
)

// Formula is a parsed formula: an AST plus its cached reference list and
// reprint, both computed once at construction since the AST never mutates.
type Formula struct {
	root       node
	references []position.Position
	text       string
}

// Parse builds a Formula from an expression string that has already had its
// leading formula sign stripped (spec.md §4.1's Construction). It fails with
// a *ParseError when the expression does not conform to the grammar in
// spec.md §6.2, including a syntactically malformed cell reference. A
// reference that parses but falls outside engine bounds is accepted here and
// only surfaces as a Ref error at Evaluate time.
func Parse(expression string) (*Formula, error) {
	root, err := parse(expression)
	if err != nil {
		return nil, err
	}

	seen := make(map[position.Position]bool)
	var refs []position.Position
	root.collectRefs(seen, &refs)

	var sb strings.Builder
	root.print(&sb)

	return &Formula{root: root, references: refs, text: sb.String()}, nil
}

// Evaluate walks the AST with ordinary left-to-right arithmetic, resolving
// cell references through resolve. The first *Error encountered — in
// left-to-right operand order — becomes the result, per spec.md §4.1/§7.
func (f *Formula) Evaluate(resolve Resolver) (float64, *Error) {
	return f.root.eval(resolve)
}

// ReferencedCells returns the positions this formula references directly,
// in order of first occurrence during a left-to-right traversal, with
// stable deduplication. Invalid (out-of-bounds) positions are omitted.
func (f *Formula) ReferencedCells() []position.Position {
	out := make([]position.Position, len(f.references))
	copy(out, f.references)
	return out
}

// String returns the canonical reprint: redundant parentheses removed per
// precedence and left-associativity, and any leading unary + dropped. It is
// a fixed point: Parse(f.String()).String() == f.String().
func (f *Formula) String() string {
	return f.text
}

// FormatNumber renders a float64 using the host's default double-to-string
// form, exposed for callers (the cell package) that print a formula's
// numeric result. Number literals are not printed through it: String
// reprints them with their original source text.
func FormatNumber(v float64) string {
	return formatNumber(v)
}
