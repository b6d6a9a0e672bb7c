package pager

import (
	"encoding/binary"
)

// ───────────────────────────────────────────────────────────────────────────
// Slotted page
// ───────────────────────────────────────────────────────────────────────────
//
// A slotted region stores variable-length cells inside one page body:
//
//   [0:2]   NumSlots        (uint16)
//   [2:4]   FreeSpaceOffset (uint16) — lowest payload byte in use
//   [4:8]   reserved (zero)
//   [8:...] payload: pointer array (4 bytes per slot) growing up,
//           packed data heap growing down from the top.
//
// FreeSpaceOffset and pointer offsets are relative to the payload region.
// The gap between the pointer array and the data heap is the free space.
// The heap is kept gap-free: remove and resize shift the low part of the
// heap and fix up every affected pointer.

const (
	slottedHeaderSize = 8
	pointerSize       = 4
)

type slotPointer struct {
	offset uint16
	length uint16
}

// Slotted interprets a byte region as a slotted page.
type Slotted struct {
	header  []byte // slottedHeaderSize bytes
	payload []byte
}

// NewSlotted wraps body, which must be at least slottedHeaderSize bytes.
func NewSlotted(body []byte) *Slotted {
	return &Slotted{header: body[:slottedHeaderSize], payload: body[slottedHeaderSize:]}
}

// Initialize resets the region to zero slots with a fully free heap.
func (s *Slotted) Initialize() {
	s.setNumSlots(0)
	s.setFreeSpaceOffset(len(s.payload))
	binary.LittleEndian.PutUint32(s.header[4:8], 0)
}

// Capacity is the payload size in bytes.
func (s *Slotted) Capacity() int { return len(s.payload) }

// NumSlots returns the number of live slots.
func (s *Slotted) NumSlots() int {
	return int(binary.LittleEndian.Uint16(s.header[0:2]))
}

func (s *Slotted) setNumSlots(n int) {
	binary.LittleEndian.PutUint16(s.header[0:2], uint16(n))
}

func (s *Slotted) freeSpaceOffset() int {
	return int(binary.LittleEndian.Uint16(s.header[2:4]))
}

func (s *Slotted) setFreeSpaceOffset(off int) {
	binary.LittleEndian.PutUint16(s.header[2:4], uint16(off))
}

// FreeSpace is the byte count available for new cells and their pointers.
func (s *Slotted) FreeSpace() int {
	return s.freeSpaceOffset() - s.pointersSize()
}

func (s *Slotted) pointersSize() int { return pointerSize * s.NumSlots() }

func (s *Slotted) pointerAt(i int) slotPointer {
	off := pointerSize * i
	return slotPointer{
		offset: binary.LittleEndian.Uint16(s.payload[off:]),
		length: binary.LittleEndian.Uint16(s.payload[off+2:]),
	}
}

func (s *Slotted) setPointerAt(i int, p slotPointer) {
	off := pointerSize * i
	binary.LittleEndian.PutUint16(s.payload[off:], p.offset)
	binary.LittleEndian.PutUint16(s.payload[off+2:], p.length)
}

// Data returns the cell bytes at slot i. The slice aliases the page.
func (s *Slotted) Data(i int) []byte {
	p := s.pointerAt(i)
	return s.payload[p.offset : int(p.offset)+int(p.length)]
}

// Insert reserves a cell of size length at slot index, shifting slots
// [index, NumSlots) up by one. It reports false when the region cannot
// hold the cell plus its pointer. The caller fills the cell via Data.
func (s *Slotted) Insert(index, length int) bool {
	if s.FreeSpace() < pointerSize+length {
		return false
	}
	numSlotsOrig := s.NumSlots()
	s.setNumSlots(numSlotsOrig + 1)
	fso := s.freeSpaceOffset() - length
	s.setFreeSpaceOffset(fso)
	// Shift pointers [index, numSlotsOrig) up by one entry.
	copy(s.payload[(index+1)*pointerSize:(numSlotsOrig+1)*pointerSize],
		s.payload[index*pointerSize:numSlotsOrig*pointerSize])
	s.setPointerAt(index, slotPointer{offset: uint16(fso), length: uint16(length)})
	return true
}

// Remove deletes slot index, compacting the data heap and shifting
// higher slots down by one.
func (s *Slotted) Remove(index int) {
	numSlots := s.NumSlots()
	s.resize(index, 0)
	copy(s.payload[index*pointerSize:(numSlots-1)*pointerSize],
		s.payload[(index+1)*pointerSize:numSlots*pointerSize])
	s.setNumSlots(numSlots - 1)
}

// resize grows or shrinks the cell at slot index in place, preserving the
// gap-free heap by shifting every byte below the cell. Reports false when
// the growth exceeds the free space.
func (s *Slotted) resize(index, lenNew int) bool {
	ptr := s.pointerAt(index)
	lenIncr := lenNew - int(ptr.length)
	if lenIncr == 0 {
		return true
	}
	if lenIncr > s.FreeSpace() {
		return false
	}
	fso := s.freeSpaceOffset()
	offsetOrig := int(ptr.offset)
	// Move the heap segment below the cell; copy handles the overlap.
	copy(s.payload[fso-lenIncr:offsetOrig-lenIncr], s.payload[fso:offsetOrig])
	fsoNew := fso - lenIncr
	s.setFreeSpaceOffset(fsoNew)
	for i := 0; i < s.NumSlots(); i++ {
		p := s.pointerAt(i)
		if int(p.offset) <= offsetOrig {
			p.offset = uint16(int(p.offset) - lenIncr)
			s.setPointerAt(i, p)
		}
	}
	p := s.pointerAt(index)
	p.length = uint16(lenNew)
	if lenNew == 0 {
		p.offset = uint16(fsoNew)
	}
	s.setPointerAt(index, p)
	return true
}
