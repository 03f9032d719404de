// Package lk implements a Larson-Kalja multi-signature hash table: a
// fixed-length directory of (bucket, separator) pairs addressed by a
// growable sequence of (directory-hash, signature-hash) function pairs,
// with page overflow resolved by evicting the highest-signature run into
// a work queue that reinserts each entry one hash level deeper. Grounded
// on original_source/include/larson_kalja.h.
package lk

import (
	"encoding/binary"
	"errors"
	"fmt"

	"pagedex/pkg/common"
	"pagedex/pkg/monitor"
	"pagedex/pkg/storage"
)

// ErrHashExhausted is returned by Insert when the hash sequence has grown
// to its 2^16-pair bound without finding room for an entry. Grounded on
// larson_kalja.h's LkHash::Expand, which aborts past this bound; here it
// is returned as an error instead of a fatal assertion. The table does
// not recover from it: entries evicted during that Insert and still
// waiting in its overflow queue are no longer stored.
var ErrHashExhausted = errors.New("lk: hash sequence exhausted")

const headerSize = 24 // PageID, Size, MaxSize
const entrySize = 24  // Key(8) + Value(8) + HashIndex(8)

type entry[K common.Fixed] struct {
	Key       K
	Value     uint64
	HashIndex int
}

// page is one bucket: entries kept sorted by ascending signature (at
// each entry's own hash index), so the highest-signature entries always
// sit at the tail. Grounded on larson_kalja.h's LkPage.
type page[K common.Fixed] struct {
	header storage.Header
	arr    []entry[K]
	slots  *storage.Slots[entry[K]]
}

func newPage[K common.Fixed](id storage.PageID, pageSize int) *page[K] {
	maxSize := storage.MaxEntries(pageSize, headerSize, entrySize)
	p := &page[K]{
		header: storage.Header{PageID: id, PageSize: pageSize, Size: 0, MaxSize: maxSize},
		arr:    make([]entry[K], maxSize+1),
	}
	p.slots = storage.NewSlots(&p.header, p.arr)
	return p
}

func (p *page[K]) ID() storage.PageID { return p.header.PageID }
func (p *page[K]) Full() bool         { return p.slots.Full() }

func (p *page[K]) String() string { return p.header.String() }

func (p *page[K]) MarshalBinary() ([]byte, error) {
	buf := make([]byte, headerSize+len(p.arr)*entrySize)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(p.header.PageID))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(p.header.Size))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(p.header.MaxSize))

	off := headerSize
	for _, e := range p.arr {
		binary.LittleEndian.PutUint64(buf[off:off+8], uint64(e.Key))
		binary.LittleEndian.PutUint64(buf[off+8:off+16], e.Value)
		binary.LittleEndian.PutUint64(buf[off+16:off+24], uint64(e.HashIndex))
		off += entrySize
	}
	return buf, nil
}

func (p *page[K]) UnmarshalBinary(data []byte, pageSize int) error {
	if len(data) < headerSize {
		return fmt.Errorf("lk: page buffer too small: %d bytes", len(data))
	}
	p.header.PageID = storage.PageID(binary.LittleEndian.Uint64(data[0:8]))
	p.header.PageSize = pageSize
	p.header.Size = int(binary.LittleEndian.Uint64(data[8:16]))
	p.header.MaxSize = int(binary.LittleEndian.Uint64(data[16:24]))

	p.arr = make([]entry[K], p.header.MaxSize+1)
	off := headerSize
	for i := range p.arr {
		p.arr[i].Key = K(binary.LittleEndian.Uint64(data[off : off+8]))
		p.arr[i].Value = binary.LittleEndian.Uint64(data[off+8 : off+16])
		p.arr[i].HashIndex = int(binary.LittleEndian.Uint64(data[off+16 : off+24]))
		off += entrySize
	}
	p.slots = storage.NewSlots(&p.header, p.arr)
	return nil
}

// dirEntry is one directory slot: the bucket it points at, and the
// separator signature below which a lookup at this slot is considered a
// hit. Grounded on larson_kalja.h's LkDirEntry.
type dirEntry struct {
	PageID    storage.PageID
	Separator uint64
}

// Table is a Larson-Kalja hash index mapping keys of type K to data of
// type D, persisted on a storage.Backend.
type Table[K common.Fixed, D common.Fixed] struct {
	backend storage.Backend
	seq     *sequence
	dir     []dirEntry
	pages   map[storage.PageID]*page[K]
	size    int
	Stats   *monitor.IndexStats
}

// New creates a table with numPages fixed directory slots, each backed
// by a fresh empty bucket with an unbounded separator.
func New[K common.Fixed, D common.Fixed](backend storage.Backend, numPages int) (*Table[K, D], error) {
	if numPages <= 0 {
		numPages = 1
	}
	t := &Table[K, D]{
		backend: backend,
		seq:     newSequence(numPages),
		dir:     make([]dirEntry, numPages),
		pages:   make(map[storage.PageID]*page[K]),
		Stats:   monitor.NewIndexStats(),
	}
	for i := range t.dir {
		id, err := backend.CreatePage()
		if err != nil {
			return nil, fmt.Errorf("lk: creating bucket page: %w", err)
		}
		p := newPage[K](id, backend.PageSize())
		t.pages[id] = p
		t.persist(p)
		t.dir[i] = dirEntry{PageID: id, Separator: ^uint64(0)}
	}
	return t, nil
}

func (t *Table[K, D]) loadPage(id storage.PageID) *page[K] {
	if p, ok := t.pages[id]; ok {
		return p
	}
	data, err := t.backend.LoadPage(id)
	if err != nil {
		panic("lk: load page: " + err.Error())
	}
	p := &page[K]{}
	if err := p.UnmarshalBinary(data, t.backend.PageSize()); err != nil {
		panic("lk: decode page: " + err.Error())
	}
	t.pages[id] = p
	return p
}

func (t *Table[K, D]) persist(p *page[K]) {
	data, err := p.MarshalBinary()
	if err != nil {
		panic("lk: encode page: " + err.Error())
	}
	if err := t.backend.UpdatePage(p.ID(), data); err != nil {
		panic("lk: update page: " + err.Error())
	}
}

// Len reports the number of live keys.
func (t *Table[K, D]) Len() int { return t.size }

// Find locates key and returns a Cursor positioned at it, or ok=false if
// key is absent. Grounded on larson_kalja.h's LkTable::find.
func (t *Table[K, D]) Find(key K) (Cursor[K, D], bool) {
	dirIx, ok := t.seq.search(common.AsUint64(key), t.dir)
	if !ok {
		return t.End(), false
	}
	p := t.loadPage(t.dir[dirIx].PageID)
	idx := p.slots.Find(func(e entry[K]) bool { return e.Key == key })
	if idx >= p.header.Size {
		return t.End(), false
	}
	return Cursor[K, D]{table: t, pg: p, idx: idx, slot: dirIx}, true
}

// Erase removes key if present, reporting whether it was found.
func (t *Table[K, D]) Erase(key K) bool {
	dirIx, ok := t.seq.search(common.AsUint64(key), t.dir)
	if !ok {
		return false
	}
	p := t.loadPage(t.dir[dirIx].PageID)
	idx := p.slots.Find(func(e entry[K]) bool { return e.Key == key })
	if idx >= p.header.Size {
		return false
	}
	p.slots.Erase(idx)
	t.persist(p)
	t.size--
	t.Stats.RecordErase()
	return true
}

type workItem[K common.Fixed] struct {
	key       K
	value     uint64
	hashIndex int
}

// Insert stores data under key, replacing any existing value. Overflow
// entries are propagated through a work queue, each retry advancing one
// hash-family level deeper, until every entry lands or the hash sequence
// is exhausted. Grounded on larson_kalja.h's LkTable::insert.
func (t *Table[K, D]) Insert(key K, data D) error {
	queue := []workItem[K]{{key: key, value: uint64(data), hashIndex: 0}}
	firstPlacement := true

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		dirIx, hashIx, err := t.seq.advance(common.AsUint64(cur.key), cur.hashIndex, t.dir)
		if err != nil {
			return err
		}
		p := t.loadPage(t.dir[dirIx].PageID)

		if idx := p.slots.Find(func(e entry[K]) bool { return e.Key == cur.key }); idx < p.header.Size {
			p.arr[idx].Value = cur.value
			t.persist(p)
			continue
		}

		if firstPlacement {
			t.size++
			t.Stats.RecordInsert()
			firstPlacement = false
		}

		e := entry[K]{Key: cur.key, Value: cur.value, HashIndex: hashIx}

		if !p.Full() {
			t.insertSorted(p, e)
			continue
		}

		overflow := t.splitOverflow(p, e)
		t.Stats.RecordSplit()
		t.dir[dirIx].Separator = t.seq.signature(overflow[0].HashIndex, common.AsUint64(overflow[0].Key))
		for _, oe := range overflow {
			queue = append(queue, workItem[K]{key: oe.Key, value: oe.Value, hashIndex: oe.HashIndex + 1})
		}
	}
	return nil
}

// insertSorted places e in ascending-signature order, replacing an
// existing entry with the same key.
func (t *Table[K, D]) insertSorted(p *page[K], e entry[K]) {
	sig := t.seq.signature(e.HashIndex, common.AsUint64(e.Key))
	idx := p.slots.Find(func(x entry[K]) bool {
		return sig <= t.seq.signature(x.HashIndex, common.AsUint64(x.Key))
	})
	if idx < p.header.Size && p.arr[idx].Key == e.Key {
		p.arr[idx] = e
	} else {
		p.slots.Insert(idx, e)
	}
	t.persist(p)
}

// splitOverflow evicts the trailing run of entries sharing the page's
// maximum signature, freeing room; e joins that run if its own signature
// is at least as large, otherwise e is inserted into the now-freed page.
// Grounded on larson_kalja.h's LkTable::PageOverflow.
func (t *Table[K, D]) splitOverflow(p *page[K], e entry[K]) []entry[K] {
	last := p.arr[p.header.Size-1]
	maxSig := t.seq.signature(last.HashIndex, common.AsUint64(last.Key))

	start := p.slots.FindLast(func(x entry[K]) bool {
		return t.seq.signature(x.HashIndex, common.AsUint64(x.Key)) == maxSig
	})

	evicted := append([]entry[K]{}, p.arr[start:p.header.Size]...)
	for i := p.header.Size - 1; i >= start; i-- {
		p.slots.Erase(i)
	}

	eSig := t.seq.signature(e.HashIndex, common.AsUint64(e.Key))
	if eSig >= maxSig {
		evicted = append(evicted, e)
	} else {
		t.insertSorted(p, e)
	}
	t.persist(p)
	return evicted
}
