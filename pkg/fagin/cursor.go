package fagin

import (
	"pagedex/pkg/common"
	"pagedex/pkg/storage"
)

// Cursor is a bidirectional iterator over a Table's entries, walking
// bucket by bucket in directory order. Grounded on fagin.h's
// PageIteratorBase override, using storage.NextUnique to skip directory
// slots that alias a bucket already visited.
type Cursor[K common.Fixed, D common.Fixed] struct {
	table *Table[K, D]
	pg    *page[K]
	idx   int
}

func (c *Cursor[K, D]) Valid() bool { return c.pg != nil }
func (c *Cursor[K, D]) Key() K      { return c.pg.arr[c.idx].Key }
func (c *Cursor[K, D]) Data() D     { return D(c.pg.arr[c.idx].Value) }

// End returns the invalid past-the-end cursor.
func (t *Table[K, D]) End() Cursor[K, D] { return Cursor[K, D]{table: t} }

// Begin returns a cursor at the first entry in directory order, or an
// invalid cursor if the table is empty.
func (t *Table[K, D]) Begin() Cursor[K, D] {
	slot := t.dir.dirBegin()
	for slot < t.dir.dirEnd() {
		p := t.loadPage(t.dir.slots[slot])
		if p.header.Size > 0 {
			return Cursor[K, D]{table: t, pg: p, idx: 0}
		}
		slot = storage.NextUnique(t.dir.slots, t.dir.dirBegin(), t.dir.slots[slot])
	}
	return t.End()
}

func (c *Cursor[K, D]) Next() bool {
	if c.pg == nil {
		return false
	}
	c.idx++
	if c.idx < c.pg.header.Size {
		return true
	}

	dir := c.table.dir
	slot := findSlot(dir, c.pg.ID())
	nextSlot := storage.NextUnique(dir.slots, dir.dirBegin(), dir.slots[slot])
	for nextSlot < dir.dirEnd() {
		p := c.table.loadPage(dir.slots[nextSlot])
		if p.header.Size > 0 {
			c.pg = p
			c.idx = 0
			return true
		}
		nextSlot = storage.NextUnique(dir.slots, dir.dirBegin(), dir.slots[nextSlot])
	}
	c.pg = nil
	return false
}

func (c *Cursor[K, D]) Prev() bool {
	if c.pg == nil {
		return false
	}
	if c.idx > 0 {
		c.idx--
		return true
	}

	dir := c.table.dir
	slot := findSlot(dir, c.pg.ID())
	for i := slot - 1; i >= 0; i-- {
		if findSlot(dir, dir.slots[i]) != i {
			continue
		}
		p := c.table.loadPage(dir.slots[i])
		if p.header.Size > 0 {
			c.pg = p
			c.idx = p.header.Size - 1
			return true
		}
	}
	c.pg = nil
	return false
}

func findSlot(d *directory, id storage.PageID) int {
	for i, s := range d.slots {
		if s == id {
			return i
		}
	}
	return d.dirEnd()
}
