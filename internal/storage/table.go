// Package storage layers tables with multi-column byte records and unique
// secondary indexes on top of the pager's B+Tree, and owns the database
// lifecycle: heap file, buffer pool, system catalog, and flush scheduling.
package storage

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/SimonWaldherr/tinyKV/internal/storage/pager"
	"github.com/SimonWaldherr/tinyKV/internal/storage/tuple"
)

// ErrUniqueViolation is returned when an insert would duplicate a
// secondary-index key.
var ErrUniqueViolation = errors.New("unique constraint violation")

// Table stores records whose leftmost NumKeyElems columns form the
// primary key. Key and value columns are packed with the tuple codec, so
// the table B+Tree iterates records in primary-key order.
type Table struct {
	MetaPageID    pager.PageID
	NumKeyElems   int
	UniqueIndexes []*UniqueIndex
}

// Create allocates the table's B+Tree and those of its unique indexes.
func (t *Table) Create(bufmgr *pager.BufferPoolManager) error {
	tree, err := pager.CreateBTree(bufmgr)
	if err != nil {
		return fmt.Errorf("create table tree: %w", err)
	}
	t.MetaPageID = tree.MetaPageID
	for _, ix := range t.UniqueIndexes {
		if err := ix.Create(bufmgr); err != nil {
			return err
		}
	}
	return nil
}

// Insert stores one record. The primary key must be new
// (pager.ErrDuplicateKey otherwise) and every unique index key unused
// (ErrUniqueViolation).
func (t *Table) Insert(bufmgr *pager.BufferPoolManager, record [][]byte) error {
	if len(record) < t.NumKeyElems {
		return fmt.Errorf("record has %d columns, need at least %d key columns", len(record), t.NumKeyElems)
	}
	key := tuple.Encode(record[:t.NumKeyElems], nil)
	value := tuple.Encode(record[t.NumKeyElems:], nil)

	for _, ix := range t.UniqueIndexes {
		taken, err := ix.Taken(bufmgr, record)
		if err != nil {
			return err
		}
		if taken {
			return ErrUniqueViolation
		}
	}

	tree := pager.NewBTree(t.MetaPageID)
	if err := tree.Insert(bufmgr, key, value); err != nil {
		return err
	}
	for _, ix := range t.UniqueIndexes {
		if err := ix.Insert(bufmgr, key, record); err != nil {
			return err
		}
	}
	return nil
}

// UniqueIndex maps a secondary key built from the SKey column indices to
// the encoded primary key of the owning record.
type UniqueIndex struct {
	MetaPageID pager.PageID
	SKey       []int
}

// Create allocates the index B+Tree.
func (ix *UniqueIndex) Create(bufmgr *pager.BufferPoolManager) error {
	tree, err := pager.CreateBTree(bufmgr)
	if err != nil {
		return fmt.Errorf("create index tree: %w", err)
	}
	ix.MetaPageID = tree.MetaPageID
	return nil
}

// secondaryKey packs the indexed columns of record.
func (ix *UniqueIndex) secondaryKey(record [][]byte) []byte {
	elems := make([][]byte, len(ix.SKey))
	for i, col := range ix.SKey {
		elems[i] = record[col]
	}
	return tuple.Encode(elems, nil)
}

// Insert stores the secondary key of record pointing at pkey.
func (ix *UniqueIndex) Insert(bufmgr *pager.BufferPoolManager, pkey []byte, record [][]byte) error {
	tree := pager.NewBTree(ix.MetaPageID)
	return tree.Insert(bufmgr, ix.secondaryKey(record), pkey)
}

// Taken reports whether record's secondary key is already present.
func (ix *UniqueIndex) Taken(bufmgr *pager.BufferPoolManager, record [][]byte) (bool, error) {
	skey := ix.secondaryKey(record)
	it, err := ix.Search(bufmgr, skey)
	if err != nil {
		return false, err
	}
	defer it.Close(bufmgr)
	k, _, ok, err := it.Next(bufmgr)
	if err != nil {
		return false, err
	}
	return ok && bytes.Equal(k, skey), nil
}

// Search positions an iterator at the first index entry >= skey.
func (ix *UniqueIndex) Search(bufmgr *pager.BufferPoolManager, skey []byte) (*pager.Iter, error) {
	tree := pager.NewBTree(ix.MetaPageID)
	return tree.Search(bufmgr, pager.SearchModeKey(skey))
}
