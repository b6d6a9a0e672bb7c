package pager

import (
	"bytes"
	"testing"
)

// newTestLeaf returns an initialized leaf over a body of the given size.
func newTestLeaf(size int) *Leaf {
	l := NewLeaf(make([]byte, size))
	l.Initialize()
	return l
}

func TestLeaf_InsertKeepsOrder(t *testing.T) {
	leaf := newTestLeaf(200)

	id, found := leaf.SearchSlotID([]byte("deadbeef"))
	if found || id != 0 {
		t.Fatalf("SearchSlotID = (%d, %v), want (0, false)", id, found)
	}
	if !leaf.Insert(id, []byte("deadbeef"), []byte("world")) {
		t.Fatal("insert failed")
	}

	id, found = leaf.SearchSlotID([]byte("facebook"))
	if found || id != 1 {
		t.Fatalf("SearchSlotID = (%d, %v), want (1, false)", id, found)
	}
	if !leaf.Insert(id, []byte("facebook"), []byte("!")) {
		t.Fatal("insert failed")
	}

	id, found = leaf.SearchSlotID([]byte("beefdead"))
	if found || id != 0 {
		t.Fatalf("SearchSlotID = (%d, %v), want (0, false)", id, found)
	}
	if !leaf.Insert(id, []byte("beefdead"), []byte("hello")) {
		t.Fatal("insert failed")
	}

	wantKeys := []string{"beefdead", "deadbeef", "facebook"}
	wantValues := []string{"hello", "world", "!"}
	if leaf.NumPairs() != len(wantKeys) {
		t.Fatalf("NumPairs = %d, want %d", leaf.NumPairs(), len(wantKeys))
	}
	for i := range wantKeys {
		p := leaf.PairAt(i)
		if string(p.Key) != wantKeys[i] || string(p.Value) != wantValues[i] {
			t.Errorf("pair %d = (%q, %q), want (%q, %q)", i, p.Key, p.Value, wantKeys[i], wantValues[i])
		}
		if j := i + 1; j < leaf.NumPairs() {
			if bytes.Compare(leaf.PairAt(i).Key, leaf.PairAt(j).Key) >= 0 {
				t.Errorf("keys not strictly increasing at %d", i)
			}
		}
	}
}

func TestLeaf_SplitInsert(t *testing.T) {
	// Sized so two pairs fit and the third does not:
	// each pair encodes to 16+8+len(value) bytes plus a 4-byte pointer.
	leaf := NewLeaf(make([]byte, leafHeaderSize+slottedHeaderSize+72))
	leaf.Initialize()

	id, _ := leaf.SearchSlotID([]byte("deadbeef"))
	if !leaf.Insert(id, []byte("deadbeef"), []byte("world")) {
		t.Fatal("insert deadbeef failed")
	}
	id, _ = leaf.SearchSlotID([]byte("facebook"))
	if !leaf.Insert(id, []byte("facebook"), []byte("!")) {
		t.Fatal("insert facebook failed")
	}
	id, _ = leaf.SearchSlotID([]byte("beefdead"))
	if leaf.Insert(id, []byte("beefdead"), []byte("hello")) {
		t.Fatal("third insert should run out of space")
	}

	newLeaf := NewLeaf(make([]byte, leafHeaderSize+slottedHeaderSize+72))
	newLeaf.Initialize()

	splitKey := leaf.SplitInsert(newLeaf, []byte("beefdead"), []byte("hello"))
	if string(splitKey) != "facebook" {
		t.Fatalf("split key = %q, want %q", splitKey, "facebook")
	}

	if newLeaf.NumPairs() != 2 {
		t.Fatalf("new leaf NumPairs = %d, want 2", newLeaf.NumPairs())
	}
	if i, found := newLeaf.SearchSlotID([]byte("beefdead")); !found || i != 0 {
		t.Errorf("beefdead in new leaf: (%d, %v)", i, found)
	}
	if i, found := newLeaf.SearchSlotID([]byte("deadbeef")); !found || i != 1 {
		t.Errorf("deadbeef in new leaf: (%d, %v)", i, found)
	}

	if leaf.NumPairs() != 1 {
		t.Fatalf("old leaf NumPairs = %d, want 1", leaf.NumPairs())
	}
	if i, found := leaf.SearchSlotID([]byte("facebook")); !found || i != 0 {
		t.Errorf("facebook in old leaf: (%d, %v)", i, found)
	}

	// Both sides at least half full, smaller keys on the new side.
	if newLeaf.body.FreeSpace()*2 >= newLeaf.body.Capacity() {
		t.Error("new leaf is less than half full after split")
	}
	if bytes.Compare(newLeaf.PairAt(newLeaf.NumPairs()-1).Key, splitKey) >= 0 {
		t.Error("separator must be greater than every key in the new leaf")
	}
}

func TestLeaf_SiblingLinks(t *testing.T) {
	leaf := newTestLeaf(200)
	if leaf.PrevPageID().Valid() || leaf.NextPageID().Valid() {
		t.Fatal("fresh leaf must have no siblings")
	}
	leaf.SetPrevPageID(3)
	leaf.SetNextPageID(7)
	if leaf.PrevPageID() != 3 || leaf.NextPageID() != 7 {
		t.Fatalf("siblings = (%d, %d), want (3, 7)", leaf.PrevPageID(), leaf.NextPageID())
	}
}

func TestLeaf_Transfer(t *testing.T) {
	src := newTestLeaf(200)
	dst := newTestLeaf(200)
	src.Insert(0, []byte("a"), []byte("1"))
	src.Insert(1, []byte("b"), []byte("2"))

	src.Transfer(dst)

	if src.NumPairs() != 1 || dst.NumPairs() != 1 {
		t.Fatalf("NumPairs after transfer: src=%d dst=%d", src.NumPairs(), dst.NumPairs())
	}
	if string(src.PairAt(0).Key) != "b" || string(dst.PairAt(0).Key) != "a" {
		t.Errorf("transfer moved wrong pair: src=%q dst=%q", src.PairAt(0).Key, dst.PairAt(0).Key)
	}
}
