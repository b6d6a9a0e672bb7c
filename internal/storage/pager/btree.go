package pager

import (
	"errors"
)

// ───────────────────────────────────────────────────────────────────────────
// B+Tree
// ───────────────────────────────────────────────────────────────────────────
//
// The tree holds only its meta page ID; all other state lives on disk and
// is reached through the buffer pool. Insertion is recursive split-insert;
// search descends to a leaf and returns an iterator that walks the leaf
// sibling chain in key order.

// ErrDuplicateKey is returned by Insert when the key already exists. The
// tree is unchanged.
var ErrDuplicateKey = errors.New("duplicate key")

// BTree is a handle to a tree rooted through its meta page.
type BTree struct {
	MetaPageID PageID
}

// NewBTree returns a handle to an existing tree.
func NewBTree(metaPageID PageID) *BTree { return &BTree{MetaPageID: metaPageID} }

// CreateBTree allocates a meta page and an empty leaf root.
func CreateBTree(bufmgr *BufferPoolManager) (*BTree, error) {
	metaBuf, err := bufmgr.CreatePage()
	if err != nil {
		return nil, err
	}
	defer bufmgr.UnpinPage(metaBuf.PageID)

	rootBuf, err := bufmgr.CreatePage()
	if err != nil {
		return nil, err
	}
	defer bufmgr.UnpinPage(rootBuf.PageID)

	root := newNode(rootBuf.Page)
	root.initializeAsLeaf()
	NewLeaf(root.body).Initialize()

	newMeta(metaBuf.Page).setRootPageID(rootBuf.PageID)
	return NewBTree(metaBuf.PageID), nil
}

// rootPageID copies the root pointer out of the meta page. The meta
// handle is released before any child fetch.
func (t *BTree) rootPageID(bufmgr *BufferPoolManager) (PageID, error) {
	metaBuf, err := bufmgr.FetchPage(t.MetaPageID)
	if err != nil {
		return InvalidPageID, err
	}
	rootID := newMeta(metaBuf.Page).rootPageID()
	bufmgr.UnpinPage(metaBuf.PageID)
	return rootID, nil
}

// ── Search ────────────────────────────────────────────────────────────────

// SearchMode selects where a search positions its cursor.
type SearchMode struct {
	key   []byte
	start bool
}

// SearchModeStart positions the cursor on the smallest key in the tree.
func SearchModeStart() SearchMode { return SearchMode{start: true} }

// SearchModeKey positions the cursor on the smallest key >= key.
func SearchModeKey(key []byte) SearchMode { return SearchMode{key: key} }

func (m SearchMode) childIdx(b *Branch) int {
	if m.start {
		return 0
	}
	return b.SearchChildIdx(m.key)
}

func (m SearchMode) leafSlotID(l *Leaf) int {
	if m.start {
		return 0
	}
	i, _ := l.SearchSlotID(m.key)
	return i
}

// Search descends from the root and returns an iterator positioned per
// mode. The iterator pins its current leaf; call Close when done.
func (t *BTree) Search(bufmgr *BufferPoolManager, mode SearchMode) (*Iter, error) {
	pageID, err := t.rootPageID(bufmgr)
	if err != nil {
		return nil, err
	}
	for {
		buf, err := bufmgr.FetchPage(pageID)
		if err != nil {
			return nil, err
		}
		n := newNode(buf.Page)
		n.mustKind()
		if n.isLeaf() {
			leaf := NewLeaf(n.body)
			slotID := mode.leafSlotID(leaf)
			rightmost := slotID == leaf.NumPairs()
			it := &Iter{buffer: buf, slotID: slotID}
			if rightmost {
				// The cursor fell off the end of this leaf; hop to the
				// next one so Next yields a valid entry or end-of-range.
				if err := it.advance(bufmgr); err != nil {
					it.Close(bufmgr)
					return nil, err
				}
			}
			return it, nil
		}
		branch := NewBranch(n.body)
		child := branch.ChildAt(mode.childIdx(branch))
		bufmgr.UnpinPage(pageID)
		pageID = child
	}
}

// ── Insert ────────────────────────────────────────────────────────────────

// Insert adds (key, value). A key that already exists yields
// ErrDuplicateKey and leaves the tree unchanged.
func (t *BTree) Insert(bufmgr *BufferPoolManager, key, value []byte) error {
	rootID, err := t.rootPageID(bufmgr)
	if err != nil {
		return err
	}
	splitKey, newChildID, split, err := t.insertNode(bufmgr, rootID, key, value)
	if err != nil {
		return err
	}
	if !split {
		return nil
	}

	// The root split: grow the tree by one level and publish the new
	// root through the meta page.
	newRootBuf, err := bufmgr.CreatePage()
	if err != nil {
		return err
	}
	newRoot := newNode(newRootBuf.Page)
	newRoot.initializeAsBranch()
	NewBranch(newRoot.body).Initialize(splitKey, newChildID, rootID)
	bufmgr.UnpinPage(newRootBuf.PageID)

	metaBuf, err := bufmgr.FetchPage(t.MetaPageID)
	if err != nil {
		return err
	}
	newMeta(metaBuf.Page).setRootPageID(newRootBuf.PageID)
	metaBuf.MarkDirty()
	bufmgr.UnpinPage(metaBuf.PageID)
	return nil
}

// insertNode inserts into the subtree rooted at pageID. When the node had
// to split it returns the separator key and the new left sibling's page
// ID for the caller to publish in the parent.
func (t *BTree) insertNode(bufmgr *BufferPoolManager, pageID PageID, key, value []byte) (splitKey []byte, newChildID PageID, split bool, err error) {
	buf, err := bufmgr.FetchPage(pageID)
	if err != nil {
		return nil, InvalidPageID, false, err
	}
	defer bufmgr.UnpinPage(pageID)

	n := newNode(buf.Page)
	n.mustKind()
	if n.isLeaf() {
		return t.insertLeaf(bufmgr, buf, key, value)
	}
	return t.insertBranch(bufmgr, buf, key, value)
}

func (t *BTree) insertLeaf(bufmgr *BufferPoolManager, buf *Buffer, key, value []byte) ([]byte, PageID, bool, error) {
	leaf := NewLeaf(newNode(buf.Page).body)
	slotID, found := leaf.SearchSlotID(key)
	if found {
		return nil, InvalidPageID, false, ErrDuplicateKey
	}
	if leaf.Insert(slotID, key, value) {
		buf.MarkDirty()
		return nil, InvalidPageID, false, nil
	}

	// The leaf is full. The new sibling takes the smaller keys and is
	// stitched in front: prev -> new -> this.
	prevID := leaf.PrevPageID()
	newLeafBuf, err := bufmgr.CreatePage()
	if err != nil {
		return nil, InvalidPageID, false, err
	}
	defer bufmgr.UnpinPage(newLeafBuf.PageID)

	if prevID.Valid() {
		prevBuf, err := bufmgr.FetchPage(prevID)
		if err != nil {
			return nil, InvalidPageID, false, err
		}
		NewLeaf(newNode(prevBuf.Page).body).SetNextPageID(newLeafBuf.PageID)
		prevBuf.MarkDirty()
		bufmgr.UnpinPage(prevID)
	}
	leaf.SetPrevPageID(newLeafBuf.PageID)

	nn := newNode(newLeafBuf.Page)
	nn.initializeAsLeaf()
	newLeaf := NewLeaf(nn.body)
	newLeaf.Initialize()

	splitKey := leaf.SplitInsert(newLeaf, key, value)

	newLeaf.SetNextPageID(buf.PageID)
	newLeaf.SetPrevPageID(prevID)
	newLeafBuf.MarkDirty()
	buf.MarkDirty()

	return splitKey, newLeafBuf.PageID, true, nil
}

func (t *BTree) insertBranch(bufmgr *BufferPoolManager, buf *Buffer, key, value []byte) ([]byte, PageID, bool, error) {
	branch := NewBranch(newNode(buf.Page).body)
	childIdx := branch.SearchChildIdx(key)
	childID := branch.ChildAt(childIdx)

	overflowKey, overflowChildID, childSplit, err := t.insertNode(bufmgr, childID, key, value)
	if err != nil {
		return nil, InvalidPageID, false, err
	}
	if !childSplit {
		return nil, InvalidPageID, false, nil
	}

	if branch.Insert(childIdx, overflowKey, overflowChildID) {
		buf.MarkDirty()
		return nil, InvalidPageID, false, nil
	}

	// The branch is full too; split it and pass the promoted separator up.
	newBranchBuf, err := bufmgr.CreatePage()
	if err != nil {
		return nil, InvalidPageID, false, err
	}
	defer bufmgr.UnpinPage(newBranchBuf.PageID)

	nn := newNode(newBranchBuf.Page)
	nn.initializeAsBranch()
	newBranch := NewBranch(nn.body)

	splitKey := branch.SplitInsert(newBranch, overflowKey, overflowChildID)

	buf.MarkDirty()
	newBranchBuf.MarkDirty()
	return splitKey, newBranchBuf.PageID, true, nil
}

// ── Iterator ──────────────────────────────────────────────────────────────

// Iter is a cursor over the leaf chain. It keeps its current leaf pinned.
type Iter struct {
	buffer *Buffer
	slotID int
	closed bool
}

// Next returns the current pair as owned slices and advances the cursor.
// ok is false at end-of-range.
func (it *Iter) Next(bufmgr *BufferPoolManager) (key, value []byte, ok bool, err error) {
	key, value, ok = it.get()
	if err := it.advance(bufmgr); err != nil {
		return nil, nil, false, err
	}
	return key, value, ok, nil
}

func (it *Iter) get() ([]byte, []byte, bool) {
	if it.closed {
		return nil, nil, false
	}
	leaf := NewLeaf(newNode(it.buffer.Page).body)
	if it.slotID >= leaf.NumPairs() {
		return nil, nil, false
	}
	p := leaf.PairAt(it.slotID)
	return append([]byte(nil), p.Key...), append([]byte(nil), p.Value...), true
}

func (it *Iter) advance(bufmgr *BufferPoolManager) error {
	if it.closed {
		return nil
	}
	it.slotID++
	leaf := NewLeaf(newNode(it.buffer.Page).body)
	if it.slotID < leaf.NumPairs() {
		return nil
	}
	nextID := leaf.NextPageID()
	if !nextID.Valid() {
		return nil
	}
	nextBuf, err := bufmgr.FetchPage(nextID)
	if err != nil {
		return err
	}
	bufmgr.UnpinPage(it.buffer.PageID)
	it.buffer = nextBuf
	it.slotID = 0
	return nil
}

// Close releases the pinned leaf. The iterator must not be used after.
func (it *Iter) Close(bufmgr *BufferPoolManager) {
	if !it.closed {
		bufmgr.UnpinPage(it.buffer.PageID)
		it.closed = true
	}
}
