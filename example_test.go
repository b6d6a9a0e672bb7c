package tinykv_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	tinykv "github.com/SimonWaldherr/tinyKV"
)

// ExampleBTree shows raw B+Tree usage: insert a few city records and look
// one up, then range-scan from a key that is not present.
func ExampleBTree() {
	dir, _ := os.MkdirTemp("", "tinykv_example_*")
	defer os.RemoveAll(dir)

	db, _ := tinykv.Open(filepath.Join(dir, "btree.btr"), tinykv.Options{PoolSize: 10})
	defer db.Close()
	bufmgr := db.Bufmgr()

	tree, _ := tinykv.CreateBTree(bufmgr)
	tree.Insert(bufmgr, []byte("seoul"), []byte("jungu"))
	tree.Insert(bufmgr, []byte("pusan"), []byte("yunjegu"))
	tree.Insert(bufmgr, []byte("daegu"), []byte("jungu"))
	tree.Insert(bufmgr, []byte("incheon"), []byte("namdongu"))
	tree.Insert(bufmgr, []byte("gwangju"), []byte("seogu"))
	db.Flush()

	it, _ := tree.Search(bufmgr, tinykv.SearchModeKey([]byte("daegu")))
	k, v, _, _ := it.Next(bufmgr)
	fmt.Printf("%s: %s\n", k, v)
	it.Close(bufmgr)

	// Keys at or past "jeju", in order.
	it, _ = tree.Search(bufmgr, tinykv.SearchModeKey([]byte("jeju")))
	for {
		k, _, ok, _ := it.Next(bufmgr)
		if !ok {
			break
		}
		fmt.Println(string(k))
	}
	it.Close(bufmgr)

	// Output:
	// daegu: jungu
	// pusan
	// seoul
}

// ExampleDB_CreateTable builds a table with a unique index and scans it
// through the query layer.
func ExampleDB_CreateTable() {
	dir, _ := os.MkdirTemp("", "tinykv_example_*")
	defer os.RemoveAll(dir)

	db, _ := tinykv.Open(filepath.Join(dir, "table.tbl"), tinykv.Options{})
	defer db.Close()

	db.CreateTable("people", 1, map[string][]int{"by_name": {1, 2}})
	db.Insert("people", tinykv.Record("a", "Charlie", "MUNGER"))
	db.Insert("people", tinykv.Record("b", "Brian", "LEE"))
	db.Insert("people", tinykv.Record("c", "Alice", "SMITH"))
	db.Insert("people", tinykv.Record("d", "John", "BAKERY"))
	db.Flush()

	// SELECT * WHERE id >= 'a' AND id < 'c'
	tbl, _ := db.Table("people")
	plan := &tinykv.SeqScan{
		TableMetaPageID: tbl.MetaPageID,
		SearchMode:      tinykv.ScanKey([]byte("a")),
		WhileCond: func(pk tinykv.Tuple) bool {
			return bytes.Compare(pk[0], []byte("c")) < 0
		},
	}
	exec, _ := plan.Start(db.Bufmgr())
	defer exec.Close(db.Bufmgr())
	for {
		rec, ok, _ := exec.Next(db.Bufmgr())
		if !ok {
			break
		}
		fmt.Println(tinykv.PrettyTuple(rec))
	}

	// Output:
	// ("a", "Charlie", "MUNGER")
	// ("b", "Brian", "LEE")
}

// ExampleIndexScan resolves records through a unique secondary index.
func ExampleIndexScan() {
	dir, _ := os.MkdirTemp("", "tinykv_example_*")
	defer os.RemoveAll(dir)

	db, _ := tinykv.Open(filepath.Join(dir, "table.tbl"), tinykv.Options{})
	defer db.Close()

	db.CreateTable("people", 1, map[string][]int{"by_name": {1}})
	db.Insert("people", tinykv.Record("a", "Charlie"))
	db.Insert("people", tinykv.Record("b", "Alice"))
	db.Insert("people", tinykv.Record("c", "Brian"))

	tbl, _ := db.Table("people")
	plan := &tinykv.IndexScan{
		TableMetaPageID: tbl.MetaPageID,
		IndexMetaPageID: tbl.UniqueIndexes[0].MetaPageID,
		SearchMode:      tinykv.ScanStart(),
		WhileCond:       func(tinykv.Tuple) bool { return true },
	}
	exec, _ := plan.Start(db.Bufmgr())
	defer exec.Close(db.Bufmgr())
	for {
		rec, ok, _ := exec.Next(db.Bufmgr())
		if !ok {
			break
		}
		fmt.Println(tinykv.PrettyTuple(rec))
	}

	// Output:
	// ("b", "Alice")
	// ("c", "Brian")
	// ("a", "Charlie")
}
