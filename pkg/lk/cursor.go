package lk

import "pagedex/pkg/common"

// Cursor is a bidirectional iterator over a Table's entries, walking
// directory slots in order and each bucket's entries within a slot.
// Grounded on larson_kalja.h's LkTable::PageIterator.
type Cursor[K common.Fixed, D common.Fixed] struct {
	table *Table[K, D]
	pg    *page[K]
	idx   int
	slot  int
}

func (c *Cursor[K, D]) Valid() bool { return c.pg != nil }
func (c *Cursor[K, D]) Key() K      { return c.pg.arr[c.idx].Key }
func (c *Cursor[K, D]) Data() D     { return D(c.pg.arr[c.idx].Value) }

// End returns the invalid past-the-end cursor.
func (t *Table[K, D]) End() Cursor[K, D] { return Cursor[K, D]{table: t, slot: len(t.dir)} }

// Begin returns a cursor at the first entry in directory order, or an
// invalid cursor if the table is empty.
func (t *Table[K, D]) Begin() Cursor[K, D] {
	for slot := 0; slot < len(t.dir); slot++ {
		p := t.loadPage(t.dir[slot].PageID)
		if p.header.Size > 0 {
			return Cursor[K, D]{table: t, pg: p, idx: 0, slot: slot}
		}
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
	for slot := c.slot + 1; slot < len(c.table.dir); slot++ {
		p := c.table.loadPage(c.table.dir[slot].PageID)
		if p.header.Size > 0 {
			c.pg = p
			c.idx = 0
			c.slot = slot
			return true
		}
	}
	c.pg = nil
	c.slot = len(c.table.dir)
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
	for slot := c.slot - 1; slot >= 0; slot-- {
		p := c.table.loadPage(c.table.dir[slot].PageID)
		if p.header.Size > 0 {
			c.pg = p
			c.idx = p.header.Size - 1
			c.slot = slot
			return true
		}
	}
	c.pg = nil
	return false
}
