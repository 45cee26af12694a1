// Package store adapts a sheet.Sheet to go.etcd.io/bbolt for the durability
// spec.md's §1 scopes out of the core ("file persistence ... specify their
// interface, not their internals"): one bucket per sheet, one key/value pair
// per non-empty cell, following the bucket-per-sheet, key-per-cell layout
// SheetRepository.go uses for its own bbolt-backed storage.
//
// This is a snapshot format private to this engine, not an attempt at
// compatibility with any external spreadsheet product's file format — the
// Non-goal that rules persistence-format compatibility out of scope.
package store

import (
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/gocells/spreadsheet/position"
	"github.com/gocells/spreadsheet/sheet"
)

// Save snapshots every non-empty cell's text into a bucket named sheetID,
// keyed by the cell's canonical position text. It overwrites any bucket
// already present under that name.
func Save(db *bbolt.DB, sheetID string, sh *sheet.Sheet) error {
	size := sh.GetPrintableSize()

	return db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(sheetID)); err != nil && err != bbolt.ErrBucketNotFound {
			return err
		}
		bucket, err := tx.CreateBucket([]byte(sheetID))
		if err != nil {
			return err
		}

		for row := 0; row < size.RowCount; row++ {
			for col := 0; col < size.ColCount; col++ {
				pos := position.Position{Row: row, Col: col}
				c, err := sh.GetCell(pos)
				if err != nil {
					return err
				}
				if c == nil {
					continue
				}
				text := c.GetText()
				if text == "" {
					continue
				}
				if err := bucket.Put([]byte(pos.String()), []byte(text)); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Load rebuilds a Sheet from a previously Saved bucket. Entries are applied
// in the bucket's natural key order; the order never matters for
// correctness here, because the stored graph was acyclic when it was saved
// and every prefix of a DAG's edge set is itself acyclic — so no replay
// order can trip the cycle check Set performs.
func Load(db *bbolt.DB, sheetID string) (*sheet.Sheet, error) {
	sh := sheet.New()

	err := db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sheetID))
		if bucket == nil {
			return nil
		}
		c := bucket.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			pos, ok := position.Parse(string(k))
			if !ok {
				return fmt.Errorf("store: corrupt key %q in bucket %q", k, sheetID)
			}
			if err := sh.SetCell(pos, string(v)); err != nil {
				return fmt.Errorf("store: restoring %s: %w", pos, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sh, nil
}
