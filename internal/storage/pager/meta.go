package pager

import "encoding/binary"

// meta interprets a page as a tree's meta page. Its only field is the
// root page ID at offset 0; consumers address a tree exclusively by its
// meta page ID.
type meta struct {
	page []byte
}

func newMeta(page []byte) meta { return meta{page: page} }

func (m meta) rootPageID() PageID {
	return PageID(binary.LittleEndian.Uint64(m.page[0:8]))
}

func (m meta) setRootPageID(id PageID) {
	binary.LittleEndian.PutUint64(m.page[0:8], uint64(id))
}
