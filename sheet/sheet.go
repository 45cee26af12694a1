// Package sheet implements spec.md §4.3: the sparse position-to-cell
// mapping, the sole mutator of cells and the dependency graph, lazy
// materialization of referenced-but-unset cells, and the tab-separated
// print forms from spec.md §6.3.
package sheet

import (
	"errors"
	"io"

	"github.com/gocells/spreadsheet/cell"
	"github.com/gocells/spreadsheet/position"
)

// ErrInvalidPosition is returned by SetCell, GetCell and ClearCell when pos
// falls outside engine bounds. Get and GetOrCreate do not check bounds.
var ErrInvalidPosition = errors.New("sheet: invalid position")

// Sheet is a sparse mapping from position to cell. It exclusively owns all
// Cells (spec.md §3's Ownership) and is the only thing that mutates a
// cell's content or edges.
type Sheet struct {
	cells map[position.Position]*cell.Cell
}

// New returns an empty Sheet.
func New() *Sheet {
	return &Sheet{cells: make(map[position.Position]*cell.Cell)}
}

// Get implements cell.Store: a non-owning lookup, nil if absent.
func (s *Sheet) Get(pos position.Position) *cell.Cell {
	return s.cells[pos]
}

// GetOrCreate implements cell.Store: lazily materializes an empty cell to
// back a formula reference, per spec.md §4.2's edge-rewiring step 3.
func (s *Sheet) GetOrCreate(pos position.Position) *cell.Cell {
	if c, ok := s.cells[pos]; ok {
		return c
	}
	c := cell.New(pos, s)
	s.cells[pos] = c
	return c
}

// SetCell validates pos, creates the target cell if absent, and delegates
// to Cell.Set. cell.ErrCircularDependency and *formula.ParseError propagate
// unchanged.
func (s *Sheet) SetCell(pos position.Position, text string) error {
	if !pos.IsValid() {
		return ErrInvalidPosition
	}
	return s.GetOrCreate(pos).Set(text)
}

// GetCell validates pos and returns a non-owning handle, or nil if the
// position has no cell.
func (s *Sheet) GetCell(pos position.Position) (*cell.Cell, error) {
	if !pos.IsValid() {
		return nil, ErrInvalidPosition
	}
	return s.cells[pos], nil
}

// ClearCell validates pos; if a cell is present, clears its content. A
// cleared cell with no incoming edges is destroyed outright; one that is
// still referenced is retained as an empty placeholder so back-edges stay
// consistent (spec.md §4.3, §9).
func (s *Sheet) ClearCell(pos position.Position) error {
	if !pos.IsValid() {
		return ErrInvalidPosition
	}
	c, ok := s.cells[pos]
	if !ok {
		return nil
	}
	if err := c.Clear(); err != nil {
		return err
	}
	if !c.IsReferenced() {
		delete(s.cells, pos)
	}
	return nil
}

// GetPrintableSize returns the tight bounding box over cells with
// non-empty GetText(): (maxRow+1, maxCol+1), or the zero Size if none.
func (s *Sheet) GetPrintableSize() position.Size {
	maxRow, maxCol := -1, -1
	for pos, c := range s.cells {
		if c.GetText() == "" {
			continue
		}
		if pos.Row > maxRow {
			maxRow = pos.Row
		}
		if pos.Col > maxCol {
			maxCol = pos.Col
		}
	}
	if maxRow < 0 {
		return position.Size{}
	}
	return position.Size{RowCount: maxRow + 1, ColCount: maxCol + 1}
}

// PrintValues writes the printable rectangle's display values, tab
// separated, one newline-terminated row at a time (spec.md §6.3).
func (s *Sheet) PrintValues(w io.Writer) error {
	return s.print(w, func(c *cell.Cell) string {
		if c == nil {
			return ""
		}
		return c.GetValue().String()
	})
}

// PrintTexts writes the printable rectangle's raw texts in the same layout
// as PrintValues.
func (s *Sheet) PrintTexts(w io.Writer) error {
	return s.print(w, func(c *cell.Cell) string {
		if c == nil {
			return ""
		}
		return c.GetText()
	})
}

func (s *Sheet) print(w io.Writer, extract func(*cell.Cell) string) error {
	size := s.GetPrintableSize()
	for row := 0; row < size.RowCount; row++ {
		for col := 0; col < size.ColCount; col++ {
			if col > 0 {
				if _, err := io.WriteString(w, "\t"); err != nil {
					return err
				}
			}
			c := s.cells[position.Position{Row: row, Col: col}]
			if _, err := io.WriteString(w, extract(c)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}
