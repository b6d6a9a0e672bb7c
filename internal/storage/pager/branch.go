package pager

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// ───────────────────────────────────────────────────────────────────────────
// Branch nodes
// ───────────────────────────────────────────────────────────────────────────
//
// Branch body layout (after the node tag):
//
//   [0:8]  RightChildPageID (uint64 LE)
//   [8:..] slotted region of (separator key, left child page ID) pairs
//
// A branch with n slots represents n+1 children c0..cn and n separator
// keys k1 < ... < kn: slot i holds (k(i+1), c(i)) and the trailing cn
// lives in the header. Child ci covers keys in [ki, k(i+1)).

const branchHeaderSize = 8

// Branch wraps a node body as a branch.
type Branch struct {
	header []byte
	body   *Slotted
}

// NewBranch interprets bytes as a branch body.
func NewBranch(bytes []byte) *Branch {
	return &Branch{
		header: bytes[:branchHeaderSize],
		body:   NewSlotted(bytes[branchHeaderSize:]),
	}
}

// Initialize bootstraps a two-child branch: keys below key go to left,
// the rest to right. Used when the tree grows in height.
func (b *Branch) Initialize(key []byte, left, right PageID) {
	b.body.Initialize()
	if !b.Insert(0, key, left) {
		panic("fresh branch must accept its first separator")
	}
	b.SetRightChild(right)
}

// RightChild returns the rightmost child page ID.
func (b *Branch) RightChild() PageID {
	return PageID(binary.LittleEndian.Uint64(b.header[0:8]))
}

func (b *Branch) SetRightChild(id PageID) {
	binary.LittleEndian.PutUint64(b.header[0:8], uint64(id))
}

// NumPairs returns the number of separator slots (children minus one).
func (b *Branch) NumPairs() int { return b.body.NumSlots() }

// PairAt decodes the (separator, child) pair at slot i.
func (b *Branch) PairAt(i int) Pair { return PairFromBytes(b.body.Data(i)) }

func (b *Branch) searchSlotID(key []byte) (int, bool) {
	return binarySearchBy(b.NumPairs(), func(i int) int {
		return bytes.Compare(b.PairAt(i).Key, key)
	})
}

// SearchChildIdx returns the index of the child covering key, in
// [0, NumPairs]. An exact separator match descends to the right of the
// separator, since a child holds keys greater than or equal to its
// left bound.
func (b *Branch) SearchChildIdx(key []byte) int {
	if i, found := b.searchSlotID(key); found {
		return i + 1
	} else {
		return i
	}
}

// ChildAt returns child ci: slot values for i < NumPairs, the header for
// the trailing child.
func (b *Branch) ChildAt(i int) PageID {
	if i == b.NumPairs() {
		return b.RightChild()
	}
	return PageID(binary.LittleEndian.Uint64(b.PairAt(i).Value))
}

// SearchChild returns the child page covering key.
func (b *Branch) SearchChild(key []byte) PageID {
	return b.ChildAt(b.SearchChildIdx(key))
}

// MaxPairSize mirrors the leaf bound so splits always make progress.
func (b *Branch) MaxPairSize() int { return b.body.Capacity()/2 - pointerSize }

// Insert places (key, child) at slot i: the new child becomes ci with key
// as its right bound, and the previous occupant shifts up. It reports
// false when the pair does not fit.
func (b *Branch) Insert(i int, key []byte, child PageID) bool {
	var value [8]byte
	binary.LittleEndian.PutUint64(value[:], uint64(child))
	pair := Pair{Key: key, Value: value[:]}.Bytes()
	if len(pair) > b.MaxPairSize() {
		panic(fmt.Sprintf("pair of %d bytes exceeds branch maximum %d", len(pair), b.MaxPairSize()))
	}
	if !b.body.Insert(i, len(pair)) {
		return false
	}
	copy(b.body.Data(i), pair)
	return true
}

func (b *Branch) isHalfFull() bool {
	return b.body.FreeSpace()*2 < b.body.Capacity()
}

// SplitInsert mirrors the leaf split but promotes a separator instead of
// duplicating it: after redistribution the leftmost pair of b is removed,
// its child becomes newBranch's right child, and its key is returned to
// the caller for publication in the parent.
func (b *Branch) SplitInsert(newBranch *Branch, newKey []byte, newChild PageID) []byte {
	newBranch.body.Initialize()
	for {
		if newBranch.isHalfFull() {
			i, found := b.searchSlotID(newKey)
			if found {
				panic("split key must be unique")
			}
			if !b.Insert(i, newKey, newChild) {
				panic("old branch must have space after split")
			}
			break
		}
		if bytes.Compare(b.PairAt(0).Key, newKey) < 0 {
			b.Transfer(newBranch)
		} else {
			if !newBranch.Insert(newBranch.NumPairs(), newKey, newChild) {
				panic("new branch must have space")
			}
			for !newBranch.isHalfFull() {
				b.Transfer(newBranch)
			}
			break
		}
	}
	promoted := b.PairAt(0)
	splitKey := append([]byte(nil), promoted.Key...)
	newBranch.SetRightChild(PageID(binary.LittleEndian.Uint64(promoted.Value)))
	b.body.Remove(0)
	return splitKey
}

// Transfer moves the leftmost pair of b to the end of dest.
func (b *Branch) Transfer(dest *Branch) {
	p := b.PairAt(0)
	if !dest.Insert(dest.NumPairs(), p.Key, PageID(binary.LittleEndian.Uint64(p.Value))) {
		panic("transfer destination must have space")
	}
	b.body.Remove(0)
}
