// Package query provides plan-driven execution over tinyKV tables:
// sequential scans, predicate filters, and secondary-index scans that
// resolve back into table records. Plans are composed by nesting plan
// nodes; Start compiles a plan into an executor pipeline.
package query

import (
	"fmt"

	"github.com/SimonWaldherr/tinyKV/internal/storage/pager"
	"github.com/SimonWaldherr/tinyKV/internal/storage/tuple"
)

// Tuple is one decoded record: a column slice.
type Tuple [][]byte

// Condition evaluates a predicate over a (partial) tuple.
type Condition func(Tuple) bool

// Executor produces tuples one at a time. ok is false at end-of-stream.
// Close releases any pinned pages; it is safe to call more than once.
type Executor interface {
	Next(bufmgr *pager.BufferPoolManager) (tup Tuple, ok bool, err error)
	Close(bufmgr *pager.BufferPoolManager)
}

// ── Sequential scan ───────────────────────────────────────────────────────

// ExecSeqScan walks a table tree in primary-key order. whileCond is
// evaluated on the decoded primary key; the scan ends when it turns false.
type ExecSeqScan struct {
	tableIter *pager.Iter
	whileCond Condition
	done      bool
}

// NewExecSeqScan wraps a positioned table iterator.
func NewExecSeqScan(tableIter *pager.Iter, whileCond Condition) *ExecSeqScan {
	return &ExecSeqScan{tableIter: tableIter, whileCond: whileCond}
}

func (e *ExecSeqScan) Next(bufmgr *pager.BufferPoolManager) (Tuple, bool, error) {
	if e.done {
		return nil, false, nil
	}
	pkBytes, valueBytes, ok, err := e.tableIter.Next(bufmgr)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		e.done = true
		return nil, false, nil
	}
	pk, err := tuple.Decode(pkBytes, nil)
	if err != nil {
		return nil, false, fmt.Errorf("decode primary key: %w", err)
	}
	if !e.whileCond(pk) {
		e.done = true
		return nil, false, nil
	}
	row, err := tuple.Decode(valueBytes, pk)
	if err != nil {
		return nil, false, fmt.Errorf("decode record: %w", err)
	}
	return row, true, nil
}

func (e *ExecSeqScan) Close(bufmgr *pager.BufferPoolManager) {
	e.tableIter.Close(bufmgr)
}

// ── Filter ────────────────────────────────────────────────────────────────

// ExecFilter yields the inner executor's tuples that satisfy cond.
type ExecFilter struct {
	inner Executor
	cond  Condition
}

// NewExecFilter wraps inner with a predicate.
func NewExecFilter(inner Executor, cond Condition) *ExecFilter {
	return &ExecFilter{inner: inner, cond: cond}
}

func (e *ExecFilter) Next(bufmgr *pager.BufferPoolManager) (Tuple, bool, error) {
	for {
		tup, ok, err := e.inner.Next(bufmgr)
		if err != nil || !ok {
			return nil, false, err
		}
		if e.cond(tup) {
			return tup, true, nil
		}
	}
}

func (e *ExecFilter) Close(bufmgr *pager.BufferPoolManager) { e.inner.Close(bufmgr) }

// ── Index scan ────────────────────────────────────────────────────────────

// ExecIndexScan walks a unique index in secondary-key order and resolves
// each entry to its table record by the stored primary key. whileCond is
// evaluated on the decoded secondary key.
type ExecIndexScan struct {
	tableTree *pager.BTree
	indexIter *pager.Iter
	whileCond Condition
	done      bool
}

// NewExecIndexScan wraps a positioned index iterator over tableTree.
func NewExecIndexScan(tableTree *pager.BTree, indexIter *pager.Iter, whileCond Condition) *ExecIndexScan {
	return &ExecIndexScan{tableTree: tableTree, indexIter: indexIter, whileCond: whileCond}
}

func (e *ExecIndexScan) Next(bufmgr *pager.BufferPoolManager) (Tuple, bool, error) {
	if e.done {
		return nil, false, nil
	}
	skeyBytes, pkeyBytes, ok, err := e.indexIter.Next(bufmgr)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		e.done = true
		return nil, false, nil
	}
	skey, err := tuple.Decode(skeyBytes, nil)
	if err != nil {
		return nil, false, fmt.Errorf("decode index key: %w", err)
	}
	if !e.whileCond(skey) {
		e.done = true
		return nil, false, nil
	}

	tableIter, err := e.tableTree.Search(bufmgr, pager.SearchModeKey(pkeyBytes))
	if err != nil {
		return nil, false, err
	}
	pk, valueBytes, ok, err := tableIter.Next(bufmgr)
	tableIter.Close(bufmgr)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, fmt.Errorf("index entry points past the table: key %x", pkeyBytes)
	}
	row, err := tuple.Decode(pk, nil)
	if err != nil {
		return nil, false, fmt.Errorf("decode primary key: %w", err)
	}
	row, err = tuple.Decode(valueBytes, row)
	if err != nil {
		return nil, false, fmt.Errorf("decode record: %w", err)
	}
	return row, true, nil
}

func (e *ExecIndexScan) Close(bufmgr *pager.BufferPoolManager) { e.indexIter.Close(bufmgr) }
