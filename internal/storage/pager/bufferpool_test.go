package pager

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
)

func newTestPool(t *testing.T, poolSize int) *BufferPoolManager {
	t.Helper()
	disk, err := OpenDiskManager(filepath.Join(t.TempDir(), "heap.db"))
	if err != nil {
		t.Fatal(err)
	}
	m := NewBufferPoolManager(disk, poolSize)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestBufferPool_CreateFetch(t *testing.T) {
	m := newTestPool(t, 4)

	b, err := m.CreatePage()
	if err != nil {
		t.Fatal(err)
	}
	copy(b.Page, "hello")
	b.MarkDirty()
	id := b.PageID
	m.UnpinPage(id)

	got, err := m.FetchPage(id)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(got.Page, []byte("hello")) {
		t.Errorf("fetched page content = %q...", got.Page[:8])
	}
	m.UnpinPage(id)
}

func TestBufferPool_EvictionWritesBack(t *testing.T) {
	m := newTestPool(t, 2)

	var ids []PageID
	for i := 0; i < 4; i++ {
		b, err := m.CreatePage()
		if err != nil {
			t.Fatal(err)
		}
		b.Page[0] = byte('a' + i)
		b.MarkDirty()
		ids = append(ids, b.PageID)
		m.UnpinPage(b.PageID)
	}

	// The first pages were evicted to make room; they must read back.
	for i, id := range ids {
		b, err := m.FetchPage(id)
		if err != nil {
			t.Fatalf("fetch page %d: %v", id, err)
		}
		if b.Page[0] != byte('a'+i) {
			t.Errorf("page %d content = %c, want %c", id, b.Page[0], 'a'+i)
		}
		m.UnpinPage(id)
	}
}

func TestBufferPool_AllPinnedFails(t *testing.T) {
	m := newTestPool(t, 2)

	for i := 0; i < 2; i++ {
		if _, err := m.CreatePage(); err != nil { // left pinned
			t.Fatal(err)
		}
	}
	if _, err := m.CreatePage(); !errors.Is(err, ErrNoFreeBuffer) {
		t.Fatalf("err = %v, want ErrNoFreeBuffer", err)
	}
}

func TestBufferPool_FlushPersists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "heap.db")
	disk, err := OpenDiskManager(path)
	if err != nil {
		t.Fatal(err)
	}
	m := NewBufferPoolManager(disk, 4)

	b, err := m.CreatePage()
	if err != nil {
		t.Fatal(err)
	}
	copy(b.Page, "persist me")
	b.MarkDirty()
	id := b.PageID
	m.UnpinPage(id)
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}

	disk2, err := OpenDiskManager(path)
	if err != nil {
		t.Fatal(err)
	}
	m2 := NewBufferPoolManager(disk2, 4)
	defer m2.Close()

	got, err := m2.FetchPage(id)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(got.Page, []byte("persist me")) {
		t.Errorf("page did not survive reopen: %q...", got.Page[:16])
	}
	m2.UnpinPage(id)
}
