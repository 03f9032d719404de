// Package fagin implements Fagin's extendible hashing: a power-of-two
// directory of page pointers, doubled on demand, with per-bucket local
// depth driving bucket splits. Grounded on
// original_source/include/fagin.h, reworked from raw-pointer HeaderArray
// reinterpretation into Go generics and a corrected bit-mask directory
// addressing scheme (see directory.go).
package fagin

import (
	"encoding/binary"
	"fmt"

	"pagedex/pkg/common"
	"pagedex/pkg/hash"
	"pagedex/pkg/monitor"
	"pagedex/pkg/storage"
)

const headerSize = 32 // PageID, PageSize, Size, MaxSize, LocalDepth — 8 bytes each minus one shared field
const entrySize = 16  // Key(8) + Value(8)

type entry[K common.Fixed] struct {
	Key   K
	Value uint64
}

// page is one hash bucket: a flat array of entries plus a local depth
// recording how many low bits of the hash this bucket's directory slots
// agree on. Grounded on fagin.h's FaginHeader/FaginPage.
type page[K common.Fixed] struct {
	header     storage.Header
	localDepth int
	arr        []entry[K]
	slots      *storage.Slots[entry[K]]
}

func newPage[K common.Fixed](id storage.PageID, pageSize, localDepth int) *page[K] {
	maxSize := storage.MaxEntries(pageSize, headerSize, entrySize)
	p := &page[K]{
		header:     storage.Header{PageID: id, PageSize: pageSize, Size: 0, MaxSize: maxSize},
		localDepth: localDepth,
		arr:        make([]entry[K], maxSize+1),
	}
	p.slots = storage.NewSlots(&p.header, p.arr)
	return p
}

func (p *page[K]) ID() storage.PageID { return p.header.PageID }
func (p *page[K]) Full() bool         { return p.slots.Full() }

func (p *page[K]) String() string {
	return fmt.Sprintf("%s localDepth=%d", p.header.String(), p.localDepth)
}

// MarshalBinary encodes the bucket header and its scratch-inclusive
// entry array, little-endian, matching the teacher's manual-framing
// style (pkg/storage/wal.go, pkg/storage/sstable/builder.go).
func (p *page[K]) MarshalBinary() ([]byte, error) {
	buf := make([]byte, headerSize+len(p.arr)*entrySize)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(p.header.PageID))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(p.header.Size))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(p.header.MaxSize))
	binary.LittleEndian.PutUint64(buf[24:32], uint64(p.localDepth))

	off := headerSize
	for _, e := range p.arr {
		binary.LittleEndian.PutUint64(buf[off:off+8], uint64(e.Key))
		binary.LittleEndian.PutUint64(buf[off+8:off+16], e.Value)
		off += entrySize
	}
	return buf, nil
}

func (p *page[K]) UnmarshalBinary(data []byte, pageSize int) error {
	if len(data) < headerSize {
		return fmt.Errorf("fagin: page buffer too small: %d bytes", len(data))
	}
	p.header.PageID = storage.PageID(binary.LittleEndian.Uint64(data[0:8]))
	p.header.PageSize = pageSize
	p.header.Size = int(binary.LittleEndian.Uint64(data[8:16]))
	p.header.MaxSize = int(binary.LittleEndian.Uint64(data[16:24]))
	p.localDepth = int(binary.LittleEndian.Uint64(data[24:32]))

	p.arr = make([]entry[K], p.header.MaxSize+1)
	off := headerSize
	for i := range p.arr {
		p.arr[i].Key = K(binary.LittleEndian.Uint64(data[off : off+8]))
		p.arr[i].Value = binary.LittleEndian.Uint64(data[off+8 : off+16])
		off += entrySize
	}
	p.slots = storage.NewSlots(&p.header, p.arr)
	return nil
}

// Table is a Fagin extendible-hash index mapping keys of type K to data
// of type D, persisted on a storage.Backend.
type Table[K common.Fixed, D common.Fixed] struct {
	backend storage.Backend
	family  *hash.Family
	dir     *directory
	pages   map[storage.PageID]*page[K]
	size    int
	Stats   *monitor.IndexStats
}

// New creates a table with an initial directory of n slots (n is rounded
// up to the next power of two; 1 if n <= 0), all pointing at a single
// fresh bucket.
func New[K common.Fixed, D common.Fixed](backend storage.Backend, family *hash.Family, n int) (*Table[K, D], error) {
	t := &Table[K, D]{
		backend: backend,
		family:  family,
		pages:   make(map[storage.PageID]*page[K]),
		Stats:   monitor.NewIndexStats(),
	}
	init := t.createPage(0)
	t.dir = newDirectory(init.ID(), n)
	return t, nil
}

func (t *Table[K, D]) createPage(localDepth int) *page[K] {
	id, err := t.backend.CreatePage()
	if err != nil {
		panic("fagin: create page: " + err.Error())
	}
	p := newPage[K](id, t.backend.PageSize(), localDepth)
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
		panic("fagin: load page: " + err.Error())
	}
	p := &page[K]{}
	if err := p.UnmarshalBinary(data, t.backend.PageSize()); err != nil {
		panic("fagin: decode page: " + err.Error())
	}
	t.pages[id] = p
	return p
}

func (t *Table[K, D]) persist(p *page[K]) {
	data, err := p.MarshalBinary()
	if err != nil {
		panic("fagin: encode page: " + err.Error())
	}
	if err := t.backend.UpdatePage(p.ID(), data); err != nil {
		panic("fagin: update page: " + err.Error())
	}
}

func (t *Table[K, D]) hashOf(key K) uint64 {
	return t.family.Hash64(common.AsUint64(key))
}

// Len reports the number of live keys.
func (t *Table[K, D]) Len() int { return t.size }

// Find locates key and returns a Cursor positioned at it, or ok=false if
// key is absent. Grounded on fagin.h's find.
func (t *Table[K, D]) Find(key K) (Cursor[K, D], bool) {
	bucketID := t.dir.GetPageID(t.hashOf(key))
	p := t.loadPage(bucketID)
	idx := p.slots.Find(func(e entry[K]) bool { return e.Key == key })
	if idx < p.header.Size {
		return Cursor[K, D]{table: t, pg: p, idx: idx}, true
	}
	return t.End(), false
}

// Insert stores data under key, replacing any existing value. Grounded
// on fagin.h's insert.
func (t *Table[K, D]) Insert(key K, data D) {
	bucketID := t.dir.GetPageID(t.hashOf(key))
	p := t.loadPage(bucketID)

	for p.Full() {
		t.splitPage(p, bucketID, key)
		bucketID = t.dir.GetPageID(t.hashOf(key))
		p = t.loadPage(bucketID)
	}

	idx := p.slots.Find(func(e entry[K]) bool { return e.Key == key })
	if idx < p.header.Size {
		p.arr[idx].Value = uint64(data)
		t.persist(p)
		return
	}

	p.slots.Insert(idx, entry[K]{Key: key, Value: uint64(data)})
	t.persist(p)
	t.size++
	t.Stats.RecordInsert()
}

// Erase removes key if present, reporting whether it was found.
func (t *Table[K, D]) Erase(key K) bool {
	bucketID := t.dir.GetPageID(t.hashOf(key))
	p := t.loadPage(bucketID)
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

// splitPage grows a full bucket's local depth, doubling the directory
// first if the bucket's local depth already equals the global depth, then
// redistributes every entry by reinserting it. Grounded on fagin.h's
// SplitPage/ReinsertAllEntries.
func (t *Table[K, D]) splitPage(p *page[K], bucketID storage.PageID, key K) {
	if p.localDepth == t.dir.GlobalDepth() {
		t.dir.Expand()
	}
	p.localDepth++

	sibling := t.createPage(p.localDepth)
	t.dir.SetNewPage(t.hashOf(key), p.localDepth, sibling.ID())

	entries := make([]entry[K], p.header.Size)
	copy(entries, p.arr[:p.header.Size])
	p.header.Size = 0
	t.persist(p)
	t.size -= len(entries)
	t.Stats.RecordSplit()

	for _, e := range entries {
		t.Insert(e.Key, D(e.Value))
	}
}
