package query

import (
	"github.com/SimonWaldherr/tinyKV/internal/storage/pager"
	"github.com/SimonWaldherr/tinyKV/internal/storage/tuple"
)

// TupleSearchMode selects the scan start position in column terms.
type TupleSearchMode struct {
	key   [][]byte
	start bool
}

// ScanStart scans from the first record.
func ScanStart() TupleSearchMode { return TupleSearchMode{start: true} }

// ScanKey seeks to the first record whose key columns are >= key.
func ScanKey(key ...[]byte) TupleSearchMode { return TupleSearchMode{key: key} }

// searchMode compiles the tuple mode into a B+Tree search mode.
func (m TupleSearchMode) searchMode() pager.SearchMode {
	if m.start {
		return pager.SearchModeStart()
	}
	return pager.SearchModeKey(tuple.Encode(m.key, nil))
}

// PlanNode compiles into an executor pipeline.
type PlanNode interface {
	Start(bufmgr *pager.BufferPoolManager) (Executor, error)
}

// SeqScan scans a table from SearchMode while WhileCond holds on the
// primary key.
type SeqScan struct {
	TableMetaPageID pager.PageID
	SearchMode      TupleSearchMode
	WhileCond       Condition
}

func (p *SeqScan) Start(bufmgr *pager.BufferPoolManager) (Executor, error) {
	tree := pager.NewBTree(p.TableMetaPageID)
	it, err := tree.Search(bufmgr, p.SearchMode.searchMode())
	if err != nil {
		return nil, err
	}
	return NewExecSeqScan(it, p.WhileCond), nil
}

// Filter applies Cond to the tuples of InnerPlan.
type Filter struct {
	InnerPlan PlanNode
	Cond      Condition
}

func (p *Filter) Start(bufmgr *pager.BufferPoolManager) (Executor, error) {
	inner, err := p.InnerPlan.Start(bufmgr)
	if err != nil {
		return nil, err
	}
	return NewExecFilter(inner, p.Cond), nil
}

// IndexScan scans a unique index from SearchMode while WhileCond holds on
// the secondary key, yielding the full table records.
type IndexScan struct {
	TableMetaPageID pager.PageID
	IndexMetaPageID pager.PageID
	SearchMode      TupleSearchMode
	WhileCond       Condition
}

func (p *IndexScan) Start(bufmgr *pager.BufferPoolManager) (Executor, error) {
	tableTree := pager.NewBTree(p.TableMetaPageID)
	indexTree := pager.NewBTree(p.IndexMetaPageID)
	it, err := indexTree.Search(bufmgr, p.SearchMode.searchMode())
	if err != nil {
		return nil, err
	}
	return NewExecIndexScan(tableTree, it, p.WhileCond), nil
}
