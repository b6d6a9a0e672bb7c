package pager

import (
	"bytes"
	"path/filepath"
	"testing"
)

func TestDiskManager_ReadBackAfterReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap.db")
	disk, err := OpenDiskManager(path)
	if err != nil {
		t.Fatal(err)
	}

	hello := make([]byte, PageSize)
	copy(hello, "hello")
	helloID := disk.AllocatePage()
	if err := disk.WritePage(helloID, hello); err != nil {
		t.Fatal(err)
	}

	world := make([]byte, PageSize)
	copy(world, "world")
	worldID := disk.AllocatePage()
	if err := disk.WritePage(worldID, world); err != nil {
		t.Fatal(err)
	}

	if err := disk.Sync(); err != nil {
		t.Fatal(err)
	}
	if err := disk.Close(); err != nil {
		t.Fatal(err)
	}

	disk2, err := OpenDiskManager(path)
	if err != nil {
		t.Fatal(err)
	}
	defer disk2.Close()

	if got := disk2.PageCount(); got != 2 {
		t.Fatalf("page count after reopen: got %d, want 2", got)
	}

	buf := make([]byte, PageSize)
	if err := disk2.ReadPage(helloID, buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf, hello) {
		t.Error("hello page did not read back byte-for-byte")
	}
	if err := disk2.ReadPage(worldID, buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf, world) {
		t.Error("world page did not read back byte-for-byte")
	}
}

func TestDiskManager_DenseAllocation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap.db")
	disk, err := OpenDiskManager(path)
	if err != nil {
		t.Fatal(err)
	}
	defer disk.Close()

	for want := PageID(0); want < 5; want++ {
		if got := disk.AllocatePage(); got != want {
			t.Fatalf("AllocatePage = %d, want %d", got, want)
		}
	}
}

func TestDiskManager_ReadUnwrittenPageFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap.db")
	disk, err := OpenDiskManager(path)
	if err != nil {
		t.Fatal(err)
	}
	defer disk.Close()

	id := disk.AllocatePage() // never written
	buf := make([]byte, PageSize)
	if err := disk.ReadPage(id, buf); err == nil {
		t.Fatal("expected error reading a page that was never written")
	}
}
