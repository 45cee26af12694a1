package store

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.etcd.io/bbolt"

	"github.com/gocells/spreadsheet/position"
	"github.com/gocells/spreadsheet/sheet"
)

func openTestDB(t *testing.T) *bbolt.DB {
	f, err := os.CreateTemp("", "store_test_*.db")
	assert.NoError(t, err)
	assert.NoError(t, f.Close())
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := bbolt.Open(f.Name(), 0600, nil)
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	db := openTestDB(t)

	sh := sheet.New()
	assert.NoError(t, sh.SetCell(position.MustParse("A1"), "10"))
	assert.NoError(t, sh.SetCell(position.MustParse("B1"), "=A1*2"))
	assert.NoError(t, sh.SetCell(position.MustParse("C3"), "hello"))

	assert.NoError(t, Save(db, "sheet1", sh))

	loaded, err := Load(db, "sheet1")
	assert.NoError(t, err)

	a1, _ := loaded.GetCell(position.MustParse("A1"))
	assert.Equal(t, "20", mustGetValue(t, loaded, "B1"))
	assert.Equal(t, "10", a1.GetValue().String())
	assert.Equal(t, "hello", mustGetValue(t, loaded, "C3"))
}

func mustGetValue(t *testing.T, sh *sheet.Sheet, cellID string) string {
	c, err := sh.GetCell(position.MustParse(cellID))
	assert.NoError(t, err)
	assert.NotNil(t, c)
	return c.GetValue().String()
}

func TestLoadMissingSheetReturnsEmpty(t *testing.T) {
	db := openTestDB(t)

	sh, err := Load(db, "does-not-exist")
	assert.NoError(t, err)
	assert.Equal(t, position.Size{}, sh.GetPrintableSize())
}

func TestSaveOverwritesPreviousSnapshot(t *testing.T) {
	db := openTestDB(t)

	sh := sheet.New()
	assert.NoError(t, sh.SetCell(position.MustParse("A1"), "1"))
	assert.NoError(t, Save(db, "sheet1", sh))

	sh2 := sheet.New()
	assert.NoError(t, sh2.SetCell(position.MustParse("A1"), "2"))
	assert.NoError(t, Save(db, "sheet1", sh2))

	loaded, err := Load(db, "sheet1")
	assert.NoError(t, err)
	assert.Equal(t, "2", mustGetValue(t, loaded, "A1"))
}

func TestSaveSkipsEmptyCells(t *testing.T) {
	db := openTestDB(t)

	sh := sheet.New()
	assert.NoError(t, sh.SetCell(position.MustParse("A1"), "1"))
	assert.NoError(t, sh.SetCell(position.MustParse("A2"), "2"))
	assert.NoError(t, sh.ClearCell(position.MustParse("A2")))

	assert.NoError(t, Save(db, "sheet1", sh))

	loaded, err := Load(db, "sheet1")
	assert.NoError(t, err)

	c, err := loaded.GetCell(position.MustParse("A2"))
	assert.NoError(t, err)
	assert.Nil(t, c)
}
