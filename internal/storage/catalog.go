package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/SimonWaldherr/tinyKV/internal/storage/pager"
)

// ───────────────────────────────────────────────────────────────────────────
// System catalog
// ───────────────────────────────────────────────────────────────────────────
//
// The catalog is itself a B+Tree whose
//   key   = table name
//   value = JSON-encoded TableInfo
//
// It is the first tree created in a fresh heap file, so its meta page ID
// is always 0 and no file header is needed to find it.

// CatalogMetaPageID is the fixed meta page of the catalog tree.
const CatalogMetaPageID pager.PageID = 0

// ErrTableNotFound is returned when a catalog lookup misses.
var ErrTableNotFound = errors.New("table not found")

// ErrTableExists is returned when creating a table whose name is taken.
var ErrTableExists = errors.New("table already exists")

// IndexInfo describes one unique secondary index in the catalog.
type IndexInfo struct {
	Name       string `json:"name"`
	MetaPageID uint64 `json:"meta_page_id"`
	SKey       []int  `json:"skey"`
}

// TableInfo is the value stored in the system catalog.
type TableInfo struct {
	ID          string      `json:"id"` // UUID assigned at creation
	Name        string      `json:"name"`
	MetaPageID  uint64      `json:"meta_page_id"`
	NumKeyElems int         `json:"num_key_elems"`
	Indexes     []IndexInfo `json:"indexes,omitempty"`
}

// Catalog manages the system catalog tree.
type Catalog struct {
	tree *pager.BTree
}

// CreateCatalog creates the catalog tree in a fresh heap file. It must be
// the very first allocation so its meta page lands on page 0.
func CreateCatalog(bufmgr *pager.BufferPoolManager) (*Catalog, error) {
	tree, err := pager.CreateBTree(bufmgr)
	if err != nil {
		return nil, fmt.Errorf("create catalog tree: %w", err)
	}
	if tree.MetaPageID != CatalogMetaPageID {
		panic(fmt.Sprintf("catalog tree landed on meta page %d, must be %d", tree.MetaPageID, CatalogMetaPageID))
	}
	return &Catalog{tree: tree}, nil
}

// OpenCatalog returns a handle to the catalog of an existing file.
func OpenCatalog() *Catalog {
	return &Catalog{tree: pager.NewBTree(CatalogMetaPageID)}
}

// CreateTable allocates the trees for a new table and records it.
// indexes maps index name to the indexed column positions.
func (c *Catalog) CreateTable(bufmgr *pager.BufferPoolManager, name string, numKeyElems int, indexes map[string][]int) (*Table, error) {
	if numKeyElems < 1 {
		return nil, fmt.Errorf("table %q needs at least one key column", name)
	}
	if _, err := c.lookup(bufmgr, name); err == nil {
		return nil, fmt.Errorf("%w: %q", ErrTableExists, name)
	} else if !errors.Is(err, ErrTableNotFound) {
		return nil, err
	}

	tbl := &Table{NumKeyElems: numKeyElems}
	info := TableInfo{
		ID:          uuid.NewString(),
		Name:        name,
		NumKeyElems: numKeyElems,
	}
	for ixName, skey := range indexes {
		tbl.UniqueIndexes = append(tbl.UniqueIndexes, &UniqueIndex{SKey: skey})
		info.Indexes = append(info.Indexes, IndexInfo{Name: ixName, SKey: skey})
	}
	if err := tbl.Create(bufmgr); err != nil {
		return nil, err
	}
	info.MetaPageID = uint64(tbl.MetaPageID)
	for i, ix := range tbl.UniqueIndexes {
		info.Indexes[i].MetaPageID = uint64(ix.MetaPageID)
	}

	entry, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("encode catalog entry: %w", err)
	}
	if err := c.tree.Insert(bufmgr, []byte(name), entry); err != nil {
		return nil, fmt.Errorf("record table %q: %w", name, err)
	}
	return tbl, nil
}

// GetTable looks a table up by name.
func (c *Catalog) GetTable(bufmgr *pager.BufferPoolManager, name string) (*Table, *TableInfo, error) {
	info, err := c.lookup(bufmgr, name)
	if err != nil {
		return nil, nil, err
	}
	tbl := &Table{
		MetaPageID:  pager.PageID(info.MetaPageID),
		NumKeyElems: info.NumKeyElems,
	}
	for _, ix := range info.Indexes {
		tbl.UniqueIndexes = append(tbl.UniqueIndexes, &UniqueIndex{
			MetaPageID: pager.PageID(ix.MetaPageID),
			SKey:       ix.SKey,
		})
	}
	return tbl, info, nil
}

// ListTables returns every catalog entry in name order.
func (c *Catalog) ListTables(bufmgr *pager.BufferPoolManager) ([]TableInfo, error) {
	it, err := c.tree.Search(bufmgr, pager.SearchModeStart())
	if err != nil {
		return nil, err
	}
	defer it.Close(bufmgr)

	var infos []TableInfo
	for {
		_, v, ok, err := it.Next(bufmgr)
		if err != nil {
			return nil, err
		}
		if !ok {
			return infos, nil
		}
		var info TableInfo
		if err := json.Unmarshal(v, &info); err != nil {
			return nil, fmt.Errorf("decode catalog entry: %w", err)
		}
		infos = append(infos, info)
	}
}

func (c *Catalog) lookup(bufmgr *pager.BufferPoolManager, name string) (*TableInfo, error) {
	it, err := c.tree.Search(bufmgr, pager.SearchModeKey([]byte(name)))
	if err != nil {
		return nil, err
	}
	defer it.Close(bufmgr)

	k, v, ok, err := it.Next(bufmgr)
	if err != nil {
		return nil, err
	}
	if !ok || string(k) != name {
		return nil, fmt.Errorf("%w: %q", ErrTableNotFound, name)
	}
	var info TableInfo
	if err := json.Unmarshal(v, &info); err != nil {
		return nil, fmt.Errorf("decode catalog entry: %w", err)
	}
	return &info, nil
}
