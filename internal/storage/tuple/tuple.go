// Package tuple implements a memcmp-preserving codec for sequences of
// byte strings. The encoding of a sequence compares bytewise exactly like
// the sequence compares element-wise (with shorter-prefix-less-than), so
// multi-column keys can be stored in a single B+Tree key.
//
// Each element is emitted as 9-byte groups: 8 payload bytes followed by a
// trailer. A trailer of 9 marks a continuation; a trailer of 0..8 is the
// count of meaningful payload bytes in the final group, with the unused
// payload zero-padded. A terminal trailer is always smaller than the
// continuation marker, which is what preserves the prefix ordering.
package tuple

import (
	"fmt"
	"strings"
)

const escapeLength = 9

// EncodedSize returns the encoded size of one element of n bytes: one
// 9-byte group per 8 payload bytes, at least one group.
func EncodedSize(n int) int {
	groups := (n + escapeLength - 2) / (escapeLength - 1)
	if groups == 0 {
		groups = 1
	}
	return groups * escapeLength
}

// Encode appends the encoding of elems to dst and returns the result.
func Encode(elems [][]byte, dst []byte) []byte {
	for _, elem := range elems {
		dst = encodeElem(elem, dst)
	}
	return dst
}

func encodeElem(src, dst []byte) []byte {
	for {
		copyLen := escapeLength - 1
		if len(src) < copyLen {
			copyLen = len(src)
		}
		dst = append(dst, src[:copyLen]...)
		src = src[copyLen:]
		if len(src) == 0 {
			for pad := escapeLength - 1 - copyLen; pad > 0; pad-- {
				dst = append(dst, 0)
			}
			dst = append(dst, byte(copyLen))
			return dst
		}
		dst = append(dst, escapeLength)
	}
}

// Decode parses every element out of src, appending them to elems, and
// returns the extended slice. It fails on input that is not a whole
// number of groups or ends inside a continued element.
func Decode(src []byte, elems [][]byte) ([][]byte, error) {
	for len(src) > 0 {
		var elem []byte
		var err error
		elem, src, err = decodeElem(src)
		if err != nil {
			return nil, err
		}
		elems = append(elems, elem)
	}
	return elems, nil
}

func decodeElem(src []byte) (elem, rest []byte, err error) {
	for {
		if len(src) < escapeLength {
			return nil, nil, fmt.Errorf("tuple: truncated group of %d bytes", len(src))
		}
		trailer := src[escapeLength-1]
		n := int(trailer)
		if n > escapeLength-1 {
			n = escapeLength - 1
		}
		elem = append(elem, src[:n]...)
		src = src[escapeLength:]
		if trailer < escapeLength {
			return elem, src, nil
		}
	}
}

// Pretty renders a decoded tuple for human eyes: printable elements as
// quoted strings, the rest as hex.
func Pretty(elems [][]byte) string {
	var sb strings.Builder
	sb.WriteString("(")
	for i, elem := range elems {
		if i > 0 {
			sb.WriteString(", ")
		}
		if isPrintable(elem) {
			fmt.Fprintf(&sb, "%q", elem)
		} else {
			fmt.Fprintf(&sb, "%x", elem)
		}
	}
	sb.WriteString(")")
	return sb.String()
}

func isPrintable(b []byte) bool {
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}
