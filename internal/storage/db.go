package storage

import (
	"fmt"
	"sync"

	"github.com/SimonWaldherr/tinyKV/internal/storage/pager"
)

// DB bundles the heap file, the buffer pool, and the system catalog into
// one embedded database handle.
type DB struct {
	mu      sync.Mutex
	bufmgr  *pager.BufferPoolManager
	catalog *Catalog
	sched   *FlushScheduler
}

// Options configures Open.
type Options struct {
	// PoolSize is the buffer pool frame count (default pager.DefaultPoolSize).
	PoolSize int
	// FlushSpec, when set, starts a background flush on a cron spec
	// understood by robfig/cron with seconds, e.g. "@every 30s".
	FlushSpec string
}

// Open opens or creates the database at path. A fresh file gets a system
// catalog on page 0; an existing file must carry one.
func Open(path string, opts Options) (*DB, error) {
	disk, err := pager.OpenDiskManager(path)
	if err != nil {
		return nil, err
	}
	bufmgr := pager.NewBufferPoolManager(disk, opts.PoolSize)

	db := &DB{bufmgr: bufmgr}
	if disk.PageCount() == 0 {
		cat, err := CreateCatalog(bufmgr)
		if err != nil {
			bufmgr.Close()
			return nil, err
		}
		db.catalog = cat
		if err := bufmgr.Flush(); err != nil {
			bufmgr.Close()
			return nil, err
		}
	} else {
		db.catalog = OpenCatalog()
	}

	if opts.FlushSpec != "" {
		sched, err := NewFlushScheduler(db, opts.FlushSpec)
		if err != nil {
			bufmgr.Close()
			return nil, err
		}
		db.sched = sched
		db.sched.Start()
	}
	return db, nil
}

// Bufmgr exposes the buffer pool for query-layer callers. The returned
// manager is shared; hold db-level operations and direct pool usage on
// one goroutine.
func (db *DB) Bufmgr() *pager.BufferPoolManager { return db.bufmgr }

// Catalog returns the system catalog.
func (db *DB) Catalog() *Catalog { return db.catalog }

// CreateTable creates a table plus its unique indexes and records them in
// the catalog.
func (db *DB) CreateTable(name string, numKeyElems int, indexes map[string][]int) (*Table, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.catalog.CreateTable(db.bufmgr, name, numKeyElems, indexes)
}

// Table opens an existing table by name.
func (db *DB) Table(name string) (*Table, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	tbl, _, err := db.catalog.GetTable(db.bufmgr, name)
	return tbl, err
}

// Insert stores one record in the named table.
func (db *DB) Insert(name string, record [][]byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	tbl, _, err := db.catalog.GetTable(db.bufmgr, name)
	if err != nil {
		return err
	}
	return tbl.Insert(db.bufmgr, record)
}

// Flush writes every dirty page back and syncs the heap file.
func (db *DB) Flush() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.bufmgr.Flush()
}

// Close stops the flush scheduler, flushes, and closes the heap file.
func (db *DB) Close() error {
	if db.sched != nil {
		db.sched.Stop()
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.bufmgr.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
