// Package tinykv provides a lightweight, embeddable key/value storage
// engine for Go applications.
//
// TinyKV is an educational storage engine that demonstrates core database
// concepts including:
//   - A heap file of fixed 4 KiB pages with a buffer pool (LRU, pinning,
//     dirty tracking)
//   - A B+Tree over slotted pages: split-insert, sibling-linked leaves,
//     range iteration
//   - A memcmp-preserving tuple codec for multi-column keys
//   - Tables with unique secondary indexes and a plan-driven query layer
//
// # Basic Usage
//
// Open a database, create a table, insert and scan:
//
//	db, _ := tinykv.Open("data.db", tinykv.Options{})
//	defer db.Close()
//
//	db.CreateTable("cities", 1, nil)
//	db.Insert("cities", tinykv.Record("seoul", "jungu"))
//	db.Insert("cities", tinykv.Record("pusan", "yunjegu"))
//
//	tbl, _ := db.Table("cities")
//	plan := &tinykv.SeqScan{
//		TableMetaPageID: tbl.MetaPageID,
//		SearchMode:      tinykv.ScanStart(),
//		WhileCond:       func(tinykv.Tuple) bool { return true },
//	}
//	exec, _ := plan.Start(db.Bufmgr())
//	defer exec.Close(db.Bufmgr())
//	for {
//		rec, ok, _ := exec.Next(db.Bufmgr())
//		if !ok {
//			break
//		}
//		fmt.Println(string(rec[0]), string(rec[1]))
//	}
//
// # Raw B+Tree access
//
// The underlying tree is usable without the table layer:
//
//	bufmgr := db.Bufmgr()
//	tree, _ := tinykv.CreateBTree(bufmgr)
//	tree.Insert(bufmgr, []byte("key"), []byte("value"))
//	it, _ := tree.Search(bufmgr, tinykv.SearchModeKey([]byte("key")))
//	defer it.Close(bufmgr)
//
// For more examples, see the example_test.go file in the repository.
package tinykv

import (
	"github.com/SimonWaldherr/tinyKV/internal/query"
	"github.com/SimonWaldherr/tinyKV/internal/storage"
	"github.com/SimonWaldherr/tinyKV/internal/storage/pager"
	"github.com/SimonWaldherr/tinyKV/internal/storage/tuple"
)

// Storage types.
type (
	DB          = storage.DB
	Options     = storage.Options
	Table       = storage.Table
	UniqueIndex = storage.UniqueIndex
	TableInfo   = storage.TableInfo
	IndexInfo   = storage.IndexInfo

	PageID            = pager.PageID
	BTree             = pager.BTree
	BufferPoolManager = pager.BufferPoolManager
	DiskManager       = pager.DiskManager
	Iter              = pager.Iter
	SearchMode        = pager.SearchMode
)

// Query types.
type (
	Tuple           = query.Tuple
	Condition       = query.Condition
	Executor        = query.Executor
	PlanNode        = query.PlanNode
	SeqScan         = query.SeqScan
	Filter          = query.Filter
	IndexScan       = query.IndexScan
	TupleSearchMode = query.TupleSearchMode
)

// Errors.
var (
	ErrDuplicateKey    = pager.ErrDuplicateKey
	ErrNoFreeBuffer    = pager.ErrNoFreeBuffer
	ErrUniqueViolation = storage.ErrUniqueViolation
	ErrTableNotFound   = storage.ErrTableNotFound
	ErrTableExists     = storage.ErrTableExists
)

// Open opens or creates a database file.
func Open(path string, opts Options) (*DB, error) { return storage.Open(path, opts) }

// CreateBTree allocates a new tree through the buffer pool.
func CreateBTree(bufmgr *BufferPoolManager) (*BTree, error) { return pager.CreateBTree(bufmgr) }

// NewBTree returns a handle to an existing tree by its meta page ID.
func NewBTree(metaPageID PageID) *BTree { return pager.NewBTree(metaPageID) }

// SearchModeStart positions a tree cursor on the smallest key.
func SearchModeStart() SearchMode { return pager.SearchModeStart() }

// SearchModeKey positions a tree cursor on the smallest key >= key.
func SearchModeKey(key []byte) SearchMode { return pager.SearchModeKey(key) }

// ScanStart scans a table from its first record.
func ScanStart() TupleSearchMode { return query.ScanStart() }

// ScanKey seeks a table scan to the given key columns.
func ScanKey(key ...[]byte) TupleSearchMode { return query.ScanKey(key...) }

// Record builds a record from string columns.
func Record(cols ...string) [][]byte {
	r := make([][]byte, len(cols))
	for i, c := range cols {
		r[i] = []byte(c)
	}
	return r
}

// EncodeTuple packs columns with the order-preserving tuple codec.
func EncodeTuple(elems [][]byte) []byte { return tuple.Encode(elems, nil) }

// DecodeTuple unpacks a tuple-encoded byte string.
func DecodeTuple(data []byte) ([][]byte, error) { return tuple.Decode(data, nil) }

// PrettyTuple renders a decoded tuple for human eyes.
func PrettyTuple(elems [][]byte) string { return tuple.Pretty(elems) }
