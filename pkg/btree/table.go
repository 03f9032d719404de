package btree

import (
	"sort"

	"pagedex/pkg/common"
	"pagedex/pkg/monitor"
	"pagedex/pkg/storage"
)

// pathVertex is one step of a materialized root-to-leaf descent: the page
// visited, and (for interior pages) the index of the entry used to reach
// the next page down. The leaf at the end of a path carries idx -1.
// Grounded on btree.h's PathVertex/Path.
type pathVertex[K common.Fixed] struct {
	pg  *page[K]
	idx int
}

// Table is a clustered B-tree index mapping keys of type K to data of
// type D, persisted page by page on a storage.Backend.
type Table[K common.Fixed, D common.Fixed] struct {
	backend storage.Backend
	rootID  storage.PageID
	pages   map[storage.PageID]*page[K]
	size    int
	Stats   *monitor.IndexStats
}

// New creates an empty table backed by backend, whose first page becomes
// the (initially leaf) root.
func New[K common.Fixed, D common.Fixed](backend storage.Backend) (*Table[K, D], error) {
	t := &Table[K, D]{backend: backend, pages: make(map[storage.PageID]*page[K]), Stats: monitor.NewIndexStats()}
	root := t.createPage(0)
	t.rootID = root.ID()
	return t, nil
}

func (t *Table[K, D]) createPage(nodeHeight int) *page[K] {
	id, err := t.backend.CreatePage()
	if err != nil {
		panic("btree: create page: " + err.Error())
	}
	p := newPage[K](id, t.backend.PageSize(), nodeHeight)
	t.pages[id] = p
	t.persist(p)
	return p
}

func (t *Table[K, D]) loadPage(id storage.PageID) *page[K] {
	if p, ok := t.pages[id]; ok {
		return p
	}
	data, err := t.backend.LoadPage(id)
	if err != nil {
		panic("btree: load page: " + err.Error())
	}
	p := &page[K]{}
	if err := p.UnmarshalBinary(data); err != nil {
		panic("btree: decode page: " + err.Error())
	}
	t.pages[id] = p
	return p
}

func (t *Table[K, D]) persist(p *page[K]) {
	data, err := p.MarshalBinary()
	if err != nil {
		panic("btree: encode page: " + err.Error())
	}
	if err := t.backend.UpdatePage(p.ID(), data); err != nil {
		panic("btree: update page: " + err.Error())
	}
}

func (t *Table[K, D]) loadChild(parent *page[K], idx int) *page[K] {
	return t.loadPage(storage.PageID(parent.arr[idx].Value))
}

// lowerBoundLeaf returns the index of the first live leaf entry with Key
// >= key, or the leaf's Size if every entry's key is smaller.
func lowerBoundLeaf[K common.Fixed](pg *page[K], key K) int {
	size := pg.header.Size
	return sort.Search(size, func(i int) bool { return pg.arr[i].Key >= key })
}

// descendIndex returns the index of the interior entry whose subtree may
// contain key: the first entry with Key >= key, clamped to the last live
// entry when key exceeds every separator (the tree's current maximum).
func descendIndex[K common.Fixed](pg *page[K], key K) int {
	size := pg.header.Size
	idx := sort.Search(size, func(i int) bool { return pg.arr[i].Key >= key })
	if idx == size && size > 0 {
		idx = size - 1
	}
	return idx
}

// searchPath materializes the root-to-leaf descent for key. Grounded on
// btree_storage_model.h's BtreePath / GetSearchPath.
func (t *Table[K, D]) searchPath(key K) []pathVertex[K] {
	path := make([]pathVertex[K], 0, 4)
	pg := t.loadPage(t.rootID)
	for !pg.IsLeaf() {
		idx := descendIndex(pg, key)
		path = append(path, pathVertex[K]{pg: pg, idx: idx})
		pg = t.loadChild(pg, idx)
	}
	path = append(path, pathVertex[K]{pg: pg, idx: -1})
	return path
}

// Find locates key and returns a Cursor positioned at it, or ok=false if
// key is absent.
func (t *Table[K, D]) Find(key K) (Cursor[K, D], bool) {
	return findCursor(t, key)
}

// Insert stores data under key, replacing any existing value.
func (t *Table[K, D]) Insert(key K, data D) {
	path := t.prepareInsertPath(key)
	leaf := path[len(path)-1].pg
	idx := lowerBoundLeaf(leaf, key)
	if idx < leaf.header.Size && leaf.arr[idx].Key == key {
		leaf.arr[idx].Value = uint64(data)
		t.persist(leaf)
		return
	}
	// A key above every separator on the way down lands in the last
	// child; raise those separators so each still holds its subtree's max.
	for _, v := range path[:len(path)-1] {
		if v.pg.arr[v.idx].Key < key {
			v.pg.arr[v.idx].Key = key
			t.persist(v.pg)
		}
	}
	leaf.slots.Insert(idx, entry[K]{Key: key, Value: uint64(data)})
	t.persist(leaf)
	t.size++
	t.Stats.RecordInsert()
}

// Erase removes key if present, reporting whether it was found.
func (t *Table[K, D]) Erase(key K) bool {
	path := t.prepareErasePath(key)
	leaf := path[len(path)-1].pg
	idx := lowerBoundLeaf(leaf, key)
	if idx >= leaf.header.Size || leaf.arr[idx].Key != key {
		return false
	}
	leaf.slots.Erase(idx)
	t.persist(leaf)
	t.size--
	t.Stats.RecordErase()
	return true
}

// Len reports the number of live keys.
func (t *Table[K, D]) Len() int { return t.size }

// canInsert reports whether key can be placed along path without first
// splitting: true if the leaf has room, or if key already lives there
// (a pure value overwrite never grows the leaf).
func (t *Table[K, D]) canInsert(path []pathVertex[K], key K) bool {
	leaf := path[len(path)-1].pg
	if !leaf.IsFull() {
		return true
	}
	idx := lowerBoundLeaf(leaf, key)
	return idx < leaf.header.Size && leaf.arr[idx].Key == key
}

// prepareInsertPath proactively splits along the path, bottom-up, until
// the leaf key can safely be inserted. Grounded on
// btree_storage_model.h's PrepareInsertPath/CanInsertKey.
func (t *Table[K, D]) prepareInsertPath(key K) []pathVertex[K] {
	path := t.searchPath(key)
	for !t.canInsert(path, key) {
		splitAt := -1
		for i := len(path) - 1; i >= 0; i-- {
			if !path[i].pg.IsFull() {
				splitAt = i
				break
			}
		}
		if splitAt == -1 {
			t.splitRoot()
		} else {
			parent := path[splitAt].pg
			childIdx := path[splitAt].idx
			child := path[splitAt+1].pg
			t.split(parent, childIdx, child)
		}
		path = t.searchPath(key)
	}
	return path
}

// split moves the trailing half of child's entries into a freshly
// created sibling, and records the new split point in parent at
// childIdx. Grounded on btree.h's SplitBtreeNode.
func (t *Table[K, D]) split(parent *page[K], childIdx int, child *page[K]) {
	sibling := t.createPage(child.nodeHeight)

	n := child.header.Size / 2
	moveLastN(sibling, child, n)

	dup := parent.arr[childIdx]
	parent.slots.Insert(childIdx, dup)
	parent.arr[childIdx].Key = child.arr[child.header.Size-1].Key
	parent.arr[childIdx+1].Value = uint64(sibling.ID())

	t.persist(child)
	t.persist(sibling)
	t.persist(parent)
	t.Stats.RecordSplit()
}

// splitRoot grows the tree by one level: a new interior root is created
// pointing at the old root, which is then split as that root's only
// child.
func (t *Table[K, D]) splitRoot() {
	oldRoot := t.loadPage(t.rootID)
	newRoot := t.createPage(oldRoot.nodeHeight + 1)
	newRoot.slots.PushBack(entry[K]{Key: oldRoot.arr[oldRoot.header.Size-1].Key, Value: uint64(oldRoot.ID())})
	t.persist(newRoot)

	t.split(newRoot, 0, oldRoot)
	t.rootID = newRoot.ID()
}

// moveLastN transplants the trailing n live entries of from onto the
// (empty) to page, adjusting both sizes. Grounded on header_array.h's
// SpliceLastN.
func moveLastN[K common.Fixed](to, from *page[K], n int) {
	start := from.header.Size - n
	copy(to.arr[0:n], from.arr[start:from.header.Size])
	to.header.Size = n
	from.header.Size -= n
}

// merge appends right's entries onto left, updates left's separator key
// in parent to absorb right's former range, and removes right's now
// redundant parent entry. Grounded on btree.h's MergeNode.
func (t *Table[K, D]) merge(parent *page[K], leftIdx int, left, right *page[K]) {
	for i := 0; i < right.header.Size; i++ {
		left.slots.PushBack(right.arr[i])
	}
	right.header.Size = 0

	parent.arr[leftIdx].Key = parent.arr[leftIdx+1].Key
	parent.slots.Erase(leftIdx + 1)

	t.persist(left)
	t.persist(right)
	t.persist(parent)
	t.Stats.RecordMerge()
}

// canErase reports whether key can be removed from path's leaf without
// first merging: true if the leaf stays at or above half capacity after
// the removal, or if key is absent (removal is then a no-op).
func (t *Table[K, D]) canErase(path []pathVertex[K], key K) bool {
	leaf := path[len(path)-1].pg
	if leaf.header.Size > leaf.header.MaxSize/2 {
		return true
	}
	idx := lowerBoundLeaf(leaf, key)
	return idx >= leaf.header.Size || leaf.arr[idx].Key != key
}

// prepareErasePath proactively merges along the path, bottom-up: any
// node at or below half capacity is merged with an adjacent sibling
// through its parent, cascading upward for as long as the merge leaves
// the parent itself at or below half capacity. When the two siblings
// together hold more entries than one page fits, one entry is moved
// across from the sibling instead and the cascade stops. If the root is
// left with a single
// child, that child is promoted to root. Grounded on
// btree_storage_model.h's PrepareErasePath/Merge/MergeRoot, with the
// cascade expressed as an explicit bottom-up loop instead of a
// re-descend-and-retry per merge, and MergeRoot fixed per the corrected
// semantics: it merges the root's two actual children at slots 0 and 1.
func (t *Table[K, D]) prepareErasePath(key K) []pathVertex[K] {
	path := t.searchPath(key)
	if t.canErase(path, key) {
		return path
	}

	for level := len(path) - 1; level > 0; level-- {
		node := path[level].pg
		if node.header.Size > node.header.MaxSize/2 {
			break
		}

		parent := path[level-1].pg
		childIdx := path[level-1].idx
		leftIdx := childIdx
		if childIdx+1 <= parent.header.Size-1 {
			// merge with the right sibling
		} else if childIdx-1 >= 0 {
			leftIdx = childIdx - 1
		} else {
			break
		}

		left := t.loadChild(parent, leftIdx)
		right := t.loadChild(parent, leftIdx+1)
		if left.header.Size+right.header.Size > left.header.MaxSize {
			if node == left {
				left.slots.PushBack(right.arr[0])
				right.slots.Erase(0)
			} else {
				right.slots.Insert(0, left.arr[left.header.Size-1])
				left.slots.Erase(left.header.Size - 1)
			}
			parent.arr[leftIdx].Key = left.arr[left.header.Size-1].Key
			t.persist(left)
			t.persist(right)
			t.persist(parent)
			break
		}
		t.merge(parent, leftIdx, left, right)
	}

	t.promoteRootIfSingleChild()
	return t.searchPath(key)
}

// promoteRootIfSingleChild collapses a chain of interior roots that have
// been reduced to a single child, keeping the tree's height minimal.
func (t *Table[K, D]) promoteRootIfSingleChild() {
	root := t.loadPage(t.rootID)
	for !root.IsLeaf() && root.header.Size == 1 {
		t.rootID = storage.PageID(root.arr[0].Value)
		root = t.loadPage(t.rootID)
	}
}
