package btree

import "pagedex/pkg/common"

// Cursor is a bidirectional iterator over a Table's leaf entries in key
// order. The zero Cursor (and any Cursor advanced past either end) is
// invalid, matching the shared null-pair end state used by every index
// in this module.
type Cursor[K common.Fixed, D common.Fixed] struct {
	table *Table[K, D]
	path  []pathVertex[K]
	pg    *page[K]
	idx   int
}

// Valid reports whether the cursor references a live entry.
func (c *Cursor[K, D]) Valid() bool { return c.pg != nil }

// Key returns the entry's key. Calling Key on an invalid cursor panics.
func (c *Cursor[K, D]) Key() K { return c.pg.arr[c.idx].Key }

// Data returns the entry's value.
func (c *Cursor[K, D]) Data() D { return D(c.pg.arr[c.idx].Value) }

// Begin returns a cursor at the smallest key, or an invalid cursor if
// the table is empty.
func (t *Table[K, D]) Begin() Cursor[K, D] {
	path := make([]pathVertex[K], 0, 4)
	pg := t.loadPage(t.rootID)
	for !pg.IsLeaf() {
		path = append(path, pathVertex[K]{pg: pg, idx: 0})
		pg = t.loadChild(pg, 0)
	}
	path = append(path, pathVertex[K]{pg: pg, idx: -1})
	if pg.header.Size == 0 {
		return t.End()
	}
	return Cursor[K, D]{table: t, path: path, pg: pg, idx: 0}
}

// End returns the invalid past-the-end cursor.
func (t *Table[K, D]) End() Cursor[K, D] { return Cursor[K, D]{table: t} }

func findCursor[K common.Fixed, D common.Fixed](t *Table[K, D], key K) (Cursor[K, D], bool) {
	path := t.searchPath(key)
	leaf := path[len(path)-1].pg
	idx := lowerBoundLeaf(leaf, key)
	if idx < leaf.header.Size && leaf.arr[idx].Key == key {
		return Cursor[K, D]{table: t, path: path, pg: leaf, idx: idx}, true
	}
	return t.End(), false
}

// Next advances the cursor to the following key in ascending order,
// re-descending the tree from the nearest ancestor with an unvisited
// right sibling. Returns false once it passes the last key.
func (c *Cursor[K, D]) Next() bool {
	if c.pg == nil {
		return false
	}
	c.idx++
	if c.idx < c.pg.header.Size {
		return true
	}

	i := len(c.path) - 2
	for i >= 0 && c.path[i].idx+1 >= c.path[i].pg.header.Size {
		i--
	}
	if i < 0 {
		*c = c.table.End()
		return false
	}

	newPath := append([]pathVertex[K]{}, c.path[:i+1]...)
	newPath[i].idx++
	pg := c.table.loadChild(newPath[i].pg, newPath[i].idx)
	for !pg.IsLeaf() {
		newPath = append(newPath, pathVertex[K]{pg: pg, idx: 0})
		pg = c.table.loadChild(pg, 0)
	}
	newPath = append(newPath, pathVertex[K]{pg: pg, idx: -1})

	c.path = newPath
	c.pg = pg
	c.idx = 0
	return true
}

// Prev retreats the cursor to the preceding key in ascending order.
// Returns false once it passes the first key.
func (c *Cursor[K, D]) Prev() bool {
	if c.pg == nil {
		return false
	}
	if c.idx > 0 {
		c.idx--
		return true
	}

	i := len(c.path) - 2
	for i >= 0 && c.path[i].idx == 0 {
		i--
	}
	if i < 0 {
		*c = c.table.End()
		return false
	}

	newPath := append([]pathVertex[K]{}, c.path[:i+1]...)
	newPath[i].idx--
	pg := c.table.loadChild(newPath[i].pg, newPath[i].idx)
	for !pg.IsLeaf() {
		last := pg.header.Size - 1
		newPath = append(newPath, pathVertex[K]{pg: pg, idx: last})
		pg = c.table.loadChild(pg, last)
	}
	newPath = append(newPath, pathVertex[K]{pg: pg, idx: -1})

	c.path = newPath
	c.pg = pg
	c.idx = pg.header.Size - 1
	return true
}
