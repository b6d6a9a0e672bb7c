package pager

import (
	"bytes"
	"testing"
)

func slottedInsert(t *testing.T, s *Slotted, index int, data []byte) {
	t.Helper()
	if !s.Insert(index, len(data)) {
		t.Fatalf("insert of %d bytes at slot %d failed", len(data), index)
	}
	copy(s.Data(index), data)
}

func slottedPush(t *testing.T, s *Slotted, data []byte) {
	t.Helper()
	slottedInsert(t, s, s.NumSlots(), data)
}

func TestSlotted_InsertAndShift(t *testing.T) {
	region := make([]byte, 128)
	s := NewSlotted(region)
	s.Initialize()

	slottedPush(t, s, []byte("hello"))
	slottedPush(t, s, []byte("world"))
	if !bytes.Equal(s.Data(0), []byte("hello")) || !bytes.Equal(s.Data(1), []byte("world")) {
		t.Fatalf("unexpected contents: %q %q", s.Data(0), s.Data(1))
	}

	slottedInsert(t, s, 1, []byte(", "))
	slottedPush(t, s, []byte("."))

	want := [][]byte{[]byte("hello"), []byte(", "), []byte("world"), []byte(".")}
	if s.NumSlots() != len(want) {
		t.Fatalf("NumSlots = %d, want %d", s.NumSlots(), len(want))
	}
	for i, w := range want {
		if !bytes.Equal(s.Data(i), w) {
			t.Errorf("slot %d = %q, want %q", i, s.Data(i), w)
		}
	}
}

func TestSlotted_Remove(t *testing.T) {
	region := make([]byte, 128)
	s := NewSlotted(region)
	s.Initialize()

	slottedPush(t, s, []byte("aaa"))
	slottedPush(t, s, []byte("bbbb"))
	slottedPush(t, s, []byte("cc"))
	free := s.FreeSpace()

	s.Remove(1)

	if s.NumSlots() != 2 {
		t.Fatalf("NumSlots = %d, want 2", s.NumSlots())
	}
	if !bytes.Equal(s.Data(0), []byte("aaa")) || !bytes.Equal(s.Data(1), []byte("cc")) {
		t.Errorf("after remove: %q %q", s.Data(0), s.Data(1))
	}
	// Removing reclaims the cell and its pointer.
	if got, want := s.FreeSpace(), free+4+pointerSize; got != want {
		t.Errorf("FreeSpace = %d, want %d", got, want)
	}
}

func TestSlotted_Invariants(t *testing.T) {
	region := make([]byte, 128)
	s := NewSlotted(region)
	s.Initialize()

	check := func() {
		t.Helper()
		if got, want := s.pointersSize()+s.FreeSpace(), s.freeSpaceOffset(); got != want {
			t.Fatalf("pointers+free = %d, want free_space_offset %d", got, want)
		}
		type span struct{ lo, hi int }
		var spans []span
		for i := 0; i < s.NumSlots(); i++ {
			p := s.pointerAt(i)
			lo, hi := int(p.offset), int(p.offset)+int(p.length)
			if lo < s.freeSpaceOffset() || hi > s.Capacity() {
				t.Fatalf("slot %d range [%d,%d) outside heap [%d,%d)", i, lo, hi, s.freeSpaceOffset(), s.Capacity())
			}
			for _, sp := range spans {
				if lo < sp.hi && sp.lo < hi {
					t.Fatalf("slot ranges overlap: [%d,%d) and [%d,%d)", lo, hi, sp.lo, sp.hi)
				}
			}
			spans = append(spans, span{lo, hi})
		}
	}

	payloads := [][]byte{[]byte("one"), []byte("twotwo"), []byte("three"), []byte("4"), []byte("fivefive")}
	for _, p := range payloads {
		slottedPush(t, s, p)
		check()
	}
	s.Remove(2)
	check()
	s.Remove(0)
	check()
	slottedInsert(t, s, 1, []byte("mid"))
	check()
}

func TestSlotted_InsertFailsWhenFull(t *testing.T) {
	region := make([]byte, 8+24) // room for two 8-byte cells plus pointers
	s := NewSlotted(region)
	s.Initialize()

	if !s.Insert(0, 8) {
		t.Fatal("first insert should fit")
	}
	if !s.Insert(1, 8) {
		t.Fatal("second insert should fit")
	}
	if s.Insert(2, 1) {
		t.Fatal("insert into a full page should fail")
	}
	if s.NumSlots() != 2 {
		t.Fatalf("failed insert must not change NumSlots: %d", s.NumSlots())
	}
}
