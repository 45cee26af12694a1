package sheet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gocells/spreadsheet/position"
)

func TestSetAndGetCell(t *testing.T) {
	sh := New()

	pos := position.MustParse("B2")
	assert.NoError(t, sh.SetCell(pos, "=1+2"))

	c, err := sh.GetCell(pos)
	assert.NoError(t, err)
	assert.Equal(t, "3", c.GetValue().String())
}

func TestGetCellOnUnsetPosition(t *testing.T) {
	sh := New()
	c, err := sh.GetCell(position.MustParse("A1"))
	assert.NoError(t, err)
	assert.Nil(t, c)
}

func TestInvalidPositionRejected(t *testing.T) {
	sh := New()
	invalid := position.Position{Row: -1, Col: 0}

	assert.ErrorIs(t, sh.SetCell(invalid, "1"), ErrInvalidPosition)

	_, err := sh.GetCell(invalid)
	assert.ErrorIs(t, err, ErrInvalidPosition)

	assert.ErrorIs(t, sh.ClearCell(invalid), ErrInvalidPosition)
}

func TestClearCellDestroysUnreferencedCell(t *testing.T) {
	sh := New()
	pos := position.MustParse("A1")
	assert.NoError(t, sh.SetCell(pos, "hello"))

	assert.NoError(t, sh.ClearCell(pos))

	c, err := sh.GetCell(pos)
	assert.NoError(t, err)
	assert.Nil(t, c)
}

func TestClearCellRetainsReferencedPlaceholder(t *testing.T) {
	sh := New()
	a1 := position.MustParse("A1")
	a2 := position.MustParse("A2")

	assert.NoError(t, sh.SetCell(a1, "5"))
	assert.NoError(t, sh.SetCell(a2, "=A1+1"))

	assert.NoError(t, sh.ClearCell(a1))

	c, err := sh.GetCell(a1)
	assert.NoError(t, err)
	assert.NotNil(t, c)
	assert.True(t, c.IsEmpty())

	// A2 should now see A1 as empty (zero), not as a dangling reference.
	c2, _ := sh.GetCell(a2)
	assert.Equal(t, "1", c2.GetValue().String())
}

func TestSetCellRejectsCycle(t *testing.T) {
	sh := New()
	a1 := position.MustParse("A1")
	a2 := position.MustParse("A2")

	assert.NoError(t, sh.SetCell(a1, "=A2+1"))
	assert.Error(t, sh.SetCell(a2, "=A1+1"))
}

func TestGetPrintableSize(t *testing.T) {
	sh := New()
	assert.Equal(t, position.Size{}, sh.GetPrintableSize())

	assert.NoError(t, sh.SetCell(position.MustParse("C3"), "x"))
	assert.Equal(t, position.Size{RowCount: 3, ColCount: 3}, sh.GetPrintableSize())
}

func TestPrintValuesEndToEnd(t *testing.T) {
	sh := New()
	assert.NoError(t, sh.SetCell(position.MustParse("A1"), "1"))
	assert.NoError(t, sh.SetCell(position.MustParse("B1"), "2"))
	assert.NoError(t, sh.SetCell(position.MustParse("A2"), "=A1+B1"))

	var sb strings.Builder
	assert.NoError(t, sh.PrintValues(&sb))

	assert.Equal(t, "1\t2\n3\t\n", sb.String())
}

func TestPrintTextsEndToEnd(t *testing.T) {
	sh := New()
	assert.NoError(t, sh.SetCell(position.MustParse("A1"), "1"))
	assert.NoError(t, sh.SetCell(position.MustParse("A2"), "=A1+1"))

	var sb strings.Builder
	assert.NoError(t, sh.PrintTexts(&sb))

	assert.Equal(t, "1\n=A1+1\n", sb.String())
}

func TestClearedCellThatBecomesUnreferencedLater(t *testing.T) {
	sh := New()
	a1 := position.MustParse("A1")
	a2 := position.MustParse("A2")

	assert.NoError(t, sh.SetCell(a1, "5"))
	assert.NoError(t, sh.SetCell(a2, "=A1+1"))
	assert.NoError(t, sh.ClearCell(a1))

	c, _ := sh.GetCell(a1)
	assert.NotNil(t, c)

	// removing the only referencing formula should allow a later clear to
	// fully destroy the placeholder
	assert.NoError(t, sh.ClearCell(a2))
	assert.NoError(t, sh.ClearCell(a1))

	c, _ = sh.GetCell(a1)
	assert.Nil(t, c)
}
