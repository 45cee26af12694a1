// Package cell implements spec.md §3/§4.2: the discriminated cell value
// (empty, text or formula), its incoming/outgoing dependency edges, cycle
// prevention at edit time, and cascading cache invalidation.
package cell

import (
	"errors"

	"github.com/gocells/spreadsheet/formula"
	"github.com/gocells/spreadsheet/position"
)

// FormulaSign marks a cell's text as a formula; EscapeSign suppresses that
// interpretation for a text cell whose content would otherwise start with
// FormulaSign. Named constants per spec.md §6.4.
const (
	FormulaSign = '='
	EscapeSign  = '\''
)

// ErrCircularDependency is returned by Set when installing the candidate
// content would close a cycle in the outgoing-reference graph.
var ErrCircularDependency = errors.New("cell: circular dependency")

// Store is the slice of Sheet a Cell needs: looking up or lazily creating
// the cell at a position. Per spec.md §9, edges are sets of positions, not
// direct handles — a Cell only ever dereferences another cell by asking its
// Store, and never outlives it.
type Store interface {
	Get(position.Position) *Cell
	GetOrCreate(position.Position) *Cell
}

// Cell is one grid position's content plus its edge bookkeeping. The zero
// value is not usable; construct with New.
type Cell struct {
	pos   position.Position
	store Store

	impl impl

	outgoing map[position.Position]struct{} // positions this cell's formula references
	incoming map[position.Position]struct{} // cells whose formulas reference this one
}

// New creates an empty cell at pos, backed by store for resolving its
// outgoing references. Only a Sheet should call this — Cells are owned
// exclusively by their Sheet (spec.md §3's Ownership).
func New(pos position.Position, store Store) *Cell {
	return &Cell{
		pos:      pos,
		store:    store,
		impl:     emptyImpl{},
		outgoing: make(map[position.Position]struct{}),
		incoming: make(map[position.Position]struct{}),
	}
}

// Pos returns this cell's position.
func (c *Cell) Pos() position.Position { return c.pos }

// IsReferenced reports whether any other cell's formula references this
// one — the condition under which an empty cell must be preserved rather
// than garbage collected (spec.md §3, §4.3).
func (c *Cell) IsReferenced() bool { return len(c.incoming) > 0 }

// IsEmpty reports whether this cell currently holds the empty variant.
func (c *Cell) IsEmpty() bool {
	_, ok := c.impl.(emptyImpl)
	return ok
}

// GetValue returns the cell's current value, possibly served from a
// formula's memoization cache.
func (c *Cell) GetValue() Value { return c.impl.Value() }

// GetText returns the cell's textual representation per spec.md §6.3.
func (c *Cell) GetText() string { return c.impl.Text() }

// GetReferencedCells returns the deduplicated, first-occurrence-ordered
// list of valid positions this cell's formula directly references. Empty
// for non-formula cells.
func (c *Cell) GetReferencedCells() []position.Position {
	return c.impl.ReferencedCells()
}

// Set replaces the cell's content per spec.md §4.2:
//
//   - empty text              -> empty variant
//   - FormulaSign + non-empty -> formula variant (parse failure: *formula.ParseError)
//   - anything else           -> text variant (EscapeSign stripped only from the displayed value)
//
// Installing a formula whose references would close a cycle fails with
// ErrCircularDependency and leaves the cell's content, edges and cache
// exactly as they were.
func (c *Cell) Set(text string) error {
	next, err := c.build(text)
	if err != nil {
		return err
	}

	refs := next.ReferencedCells()
	if c.wouldIntroduceCycle(refs) {
		return ErrCircularDependency
	}

	oldOutgoing := c.outgoing
	c.impl = next

	for p := range oldOutgoing {
		if target := c.store.Get(p); target != nil {
			delete(target.incoming, c.pos)
		}
	}

	c.outgoing = make(map[position.Position]struct{}, len(refs))
	for _, p := range refs {
		target := c.store.GetOrCreate(p)
		c.outgoing[p] = struct{}{}
		target.incoming[c.pos] = struct{}{}
	}

	c.invalidateCacheRecursive(true)
	return nil
}

// Clear is equivalent to Set("").
func (c *Cell) Clear() error {
	return c.Set("")
}

// build constructs the candidate implementation for text without mutating c.
func (c *Cell) build(text string) (impl, error) {
	switch {
	case text == "":
		return emptyImpl{}, nil
	case len(text) > 1 && text[0] == FormulaSign:
		f, err := formula.Parse(text[1:])
		if err != nil {
			return nil, err
		}
		return &formulaImpl{formula: f, resolve: c.resolver()}, nil
	default:
		return &textImpl{raw: text}, nil
	}
}

// resolver binds a formula.Resolver to this cell's store, implementing the
// text/empty-to-number coercion and Ref-error handling from spec.md §7.
func (c *Cell) resolver() formula.Resolver {
	return func(p position.Position) (float64, *formula.Error) {
		if !p.IsValid() {
			return 0, formula.RefError()
		}
		target := c.store.Get(p)
		if target == nil {
			return 0, nil // unset cell: empty, counts as zero
		}
		return valueAsNumber(target.GetValue())
	}
}

// wouldIntroduceCycle implements spec.md §4.2's cycle check: build the set
// of positions the candidate would reference, then walk backwards from self
// along incoming edges. Encountering any referenced position means self
// would end up transitively depending on itself.
func (c *Cell) wouldIntroduceCycle(candidateRefs []position.Position) bool {
	if len(candidateRefs) == 0 {
		return false
	}

	referenced := make(map[position.Position]struct{}, len(candidateRefs))
	for _, p := range candidateRefs {
		referenced[p] = struct{}{}
	}

	visited := make(map[position.Position]struct{})
	stack := []position.Position{c.pos}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, seen := visited[p]; seen {
			continue
		}
		visited[p] = struct{}{}

		if _, hit := referenced[p]; hit {
			return true
		}

		current := c.store.Get(p)
		if current == nil {
			continue
		}
		for in := range current.incoming {
			if _, seen := visited[in]; !seen {
				stack = append(stack, in)
			}
		}
	}

	return false
}

// invalidateCacheRecursive drops self's memoized value, then recursively
// invalidates along incoming edges, short-circuiting at any cell whose
// cache is already invalid. force bypasses that short-circuit at the
// initiating cell only, matching spec.md §4.2 — without it, editing a cell
// whose own cache happens to already be invalid (e.g. it was never read)
// would wrongly skip invalidating its dependents.
func (c *Cell) invalidateCacheRecursive(force bool) {
	if !c.impl.IsCacheValid() && !force {
		return
	}
	c.impl.InvalidateCache()
	for p := range c.incoming {
		if next := c.store.Get(p); next != nil {
			next.invalidateCacheRecursive(false)
		}
	}
}
