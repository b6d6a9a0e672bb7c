package pager

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// ───────────────────────────────────────────────────────────────────────────
// Leaf nodes
// ───────────────────────────────────────────────────────────────────────────
//
// Leaf body layout (after the node tag):
//
//   [0:8]   PrevPageID (uint64 LE, InvalidPageID when absent)
//   [8:16]  NextPageID (uint64 LE, InvalidPageID when absent)
//   [16:..] slotted region of encoded pairs, keys strictly increasing
//
// Prev/next form a doubly linked list across all leaves in key order; the
// invalid sentinel terminates both ends.

const leafHeaderSize = 16

// Leaf wraps a node body as a leaf.
type Leaf struct {
	header []byte
	body   *Slotted
}

// NewLeaf interprets bytes as a leaf body.
func NewLeaf(bytes []byte) *Leaf {
	return &Leaf{
		header: bytes[:leafHeaderSize],
		body:   NewSlotted(bytes[leafHeaderSize:]),
	}
}

// Initialize resets the leaf to empty with no siblings.
func (l *Leaf) Initialize() {
	l.SetPrevPageID(InvalidPageID)
	l.SetNextPageID(InvalidPageID)
	l.body.Initialize()
}

// PrevPageID returns the left sibling, or InvalidPageID.
func (l *Leaf) PrevPageID() PageID {
	return PageID(binary.LittleEndian.Uint64(l.header[0:8]))
}

// NextPageID returns the right sibling, or InvalidPageID.
func (l *Leaf) NextPageID() PageID {
	return PageID(binary.LittleEndian.Uint64(l.header[8:16]))
}

func (l *Leaf) SetPrevPageID(id PageID) {
	binary.LittleEndian.PutUint64(l.header[0:8], uint64(id))
}

func (l *Leaf) SetNextPageID(id PageID) {
	binary.LittleEndian.PutUint64(l.header[8:16], uint64(id))
}

// NumPairs returns the number of stored pairs.
func (l *Leaf) NumPairs() int { return l.body.NumSlots() }

// PairAt decodes the pair at slot i. The slices alias the page.
func (l *Leaf) PairAt(i int) Pair { return PairFromBytes(l.body.Data(i)) }

// SearchSlotID binary-searches for key. It returns (i, true) on an exact
// match and (insertion point, false) otherwise.
func (l *Leaf) SearchSlotID(key []byte) (int, bool) {
	return binarySearchBy(l.NumPairs(), func(i int) int {
		return bytes.Compare(l.PairAt(i).Key, key)
	})
}

// MaxPairSize is the largest encoded pair a leaf accepts. Capping pairs at
// half the slotted capacity guarantees a split always makes progress.
func (l *Leaf) MaxPairSize() int { return l.body.Capacity()/2 - pointerSize }

// Insert places (key, value) at slot i. It reports false when the pair
// does not fit in the free space.
func (l *Leaf) Insert(i int, key, value []byte) bool {
	pair := Pair{Key: key, Value: value}.Bytes()
	if len(pair) > l.MaxPairSize() {
		panic(fmt.Sprintf("pair of %d bytes exceeds leaf maximum %d", len(pair), l.MaxPairSize()))
	}
	if !l.body.Insert(i, len(pair)) {
		return false
	}
	copy(l.body.Data(i), pair)
	return true
}

// isHalfFull reports whether more than half of the capacity is in use.
func (l *Leaf) isHalfFull() bool {
	return l.body.FreeSpace()*2 < l.body.Capacity()
}

// SplitInsert redistributes pairs into the freshly initialized newLeaf
// (which receives the smaller keys) until it is at least half full,
// inserting (newKey, newValue) on whichever side it belongs. It returns
// the first key remaining in l, the separator to publish to the parent.
func (l *Leaf) SplitInsert(newLeaf *Leaf, newKey, newValue []byte) []byte {
	for {
		if newLeaf.isHalfFull() {
			i, found := l.SearchSlotID(newKey)
			if found {
				panic("split key must be unique")
			}
			if !l.Insert(i, newKey, newValue) {
				panic("old leaf must have space after split")
			}
			break
		}
		if bytes.Compare(l.PairAt(0).Key, newKey) < 0 {
			l.Transfer(newLeaf)
		} else {
			if !newLeaf.Insert(newLeaf.NumPairs(), newKey, newValue) {
				panic("new leaf must have space")
			}
			for !newLeaf.isHalfFull() {
				l.Transfer(newLeaf)
			}
			break
		}
	}
	return append([]byte(nil), l.PairAt(0).Key...)
}

// Transfer moves the leftmost pair of l to the end of dest.
func (l *Leaf) Transfer(dest *Leaf) {
	p := l.PairAt(0)
	if !dest.Insert(dest.NumPairs(), p.Key, p.Value) {
		panic("transfer destination must have space")
	}
	l.body.Remove(0)
}
