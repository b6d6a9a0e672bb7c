// Package pager implements the page-based storage core of tinyKV: a heap
// file of fixed 4 KiB pages, a buffer pool with LRU eviction and pin
// counting, and a B+Tree whose nodes live in slotted pages.
//
// The on-disk format is a flat sequence of pages at byte offsets
// pageID*4096. There is no file header; callers address a tree by the
// page ID of its meta page. All multi-byte integers are little-endian.
package pager

import (
	"fmt"
	"os"
)

// ───────────────────────────────────────────────────────────────────────────
// Disk manager
// ───────────────────────────────────────────────────────────────────────────

const (
	// PageSize is the fixed page size in bytes.
	PageSize = 4096
)

// PageID is a 64-bit page identifier. IDs are dense and assigned
// monotonically from zero.
type PageID uint64

// InvalidPageID is the "absent" sentinel. It is never allocated.
const InvalidPageID = ^PageID(0)

// Valid reports whether the ID is a real page.
func (id PageID) Valid() bool { return id != InvalidPageID }

// DiskManager performs positional page I/O against a single heap file.
type DiskManager struct {
	heapFile   *os.File
	nextPageID PageID
}

// NewDiskManager wraps an already opened heap file. The next page ID is
// derived from the current file size.
func NewDiskManager(heapFile *os.File) (*DiskManager, error) {
	st, err := heapFile.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat heap file: %w", err)
	}
	return &DiskManager{
		heapFile:   heapFile,
		nextPageID: PageID(st.Size() / PageSize),
	}, nil
}

// OpenDiskManager opens or creates the heap file at path.
func OpenDiskManager(path string) (*DiskManager, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open heap file: %w", err)
	}
	dm, err := NewDiskManager(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return dm, nil
}

// AllocatePage hands out the next page ID. The page is materialized
// lazily by the first WritePage.
func (d *DiskManager) AllocatePage() PageID {
	id := d.nextPageID
	d.nextPageID++
	return id
}

// PageCount returns the number of pages allocated so far.
func (d *DiskManager) PageCount() uint64 { return uint64(d.nextPageID) }

// ReadPage reads the full page into buf. buf must be PageSize bytes.
// Reading a page at or past the end of the file fails; a page inside the
// file that was never written is not detected and reads back as zeros.
func (d *DiskManager) ReadPage(id PageID, buf []byte) error {
	if len(buf) != PageSize {
		panic(fmt.Sprintf("page buffer must be %d bytes, got %d", PageSize, len(buf)))
	}
	off := int64(id) * PageSize
	if _, err := d.heapFile.ReadAt(buf, off); err != nil {
		return fmt.Errorf("read page %d: %w", id, err)
	}
	return nil
}

// WritePage writes the full page from buf. buf must be PageSize bytes.
func (d *DiskManager) WritePage(id PageID, buf []byte) error {
	if len(buf) != PageSize {
		panic(fmt.Sprintf("page buffer must be %d bytes, got %d", PageSize, len(buf)))
	}
	off := int64(id) * PageSize
	if _, err := d.heapFile.WriteAt(buf, off); err != nil {
		return fmt.Errorf("write page %d: %w", id, err)
	}
	return nil
}

// Sync flushes user-space buffers and forces the file to stable storage.
func (d *DiskManager) Sync() error {
	if err := d.heapFile.Sync(); err != nil {
		return fmt.Errorf("sync heap file: %w", err)
	}
	return nil
}

// Close closes the underlying file without flushing dirty pool pages;
// callers flush through the buffer pool first.
func (d *DiskManager) Close() error { return d.heapFile.Close() }
