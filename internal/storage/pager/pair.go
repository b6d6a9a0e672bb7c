package pager

import (
	"encoding/binary"
)

// ───────────────────────────────────────────────────────────────────────────
// Pair cell codec
// ───────────────────────────────────────────────────────────────────────────
//
// A B+Tree cell is two length-prefixed byte fields in declaration order:
//
//   [0:8]  KeyLen   (uint64 LE)
//   [8:..] Key
//   [..:+8] ValueLen (uint64 LE)
//   [..]   Value
//
// Leaves store (key, value); branches store (separator key, child page ID)
// with the child encoded as an 8-byte value.

// Pair is one decoded B+Tree cell.
type Pair struct {
	Key   []byte
	Value []byte
}

// pairSize returns the encoded size of a pair with the given field lengths.
func pairSize(keyLen, valueLen int) int {
	return 8 + keyLen + 8 + valueLen
}

// Bytes encodes the pair into a fresh buffer.
func (p Pair) Bytes() []byte {
	buf := make([]byte, pairSize(len(p.Key), len(p.Value)))
	binary.LittleEndian.PutUint64(buf[0:8], uint64(len(p.Key)))
	off := 8 + copy(buf[8:], p.Key)
	binary.LittleEndian.PutUint64(buf[off:off+8], uint64(len(p.Value)))
	copy(buf[off+8:], p.Value)
	return buf
}

// PairFromBytes decodes a cell. The returned slices alias data.
func PairFromBytes(data []byte) Pair {
	keyLen := binary.LittleEndian.Uint64(data[0:8])
	off := 8 + int(keyLen)
	valueLen := binary.LittleEndian.Uint64(data[off : off+8])
	off += 8
	return Pair{
		Key:   data[8 : 8+keyLen],
		Value: data[off : off+int(valueLen)],
	}
}
