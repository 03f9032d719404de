// Package btree implements a clustered, order-preserving B-tree over a
// page-based storage.Backend. Grounded on original_source/include/btree.h
// and btree_storage_model.h, reworked from raw-pointer HeaderArray
// reinterpretation into Go generics and slice indices.
//
// Interior pages store one entry per child, keyed by the maximum key
// present in that child's subtree; Find descends to the first child
// whose key is >= the search key, clamping to the last child when the
// search key exceeds every separator (the tree's current maximum).
package btree

import (
	"encoding/binary"
	"fmt"

	"pagedex/pkg/common"
	"pagedex/pkg/storage"
)

// headerSize is the serialized size, in bytes, of a btree page header:
// PageID, PageSize, Size, MaxSize, NodeHeight, each an 8-byte word.
const headerSize = 40

// entrySize is the serialized size of one entry: an 8-byte key and an
// 8-byte value slot (a leaf's Data or an interior child PageID, both
// always 8 bytes wide under common.Fixed).
const entrySize = 16

// entry is the single representation used for both leaf and interior
// pages: Value holds a leaf's Data or an interior child's PageID,
// reinterpreted by the caller according to the page's node height. This
// mirrors how btree.h's LeafEntry<Key,Data> and InteriorEntry<Key,PageId>
// occupy identical layout when Data and PageId are both 8 bytes wide.
type entry[K common.Fixed] struct {
	Key   K
	Value uint64
}

// page is the decoded, in-memory form of one btree node.
type page[K common.Fixed] struct {
	header     storage.Header
	nodeHeight int
	arr        []entry[K]
	slots      *storage.Slots[entry[K]]
}

func newPage[K common.Fixed](id storage.PageID, pageSize, nodeHeight int) *page[K] {
	maxSize := storage.MaxEntries(pageSize, headerSize, entrySize)
	p := &page[K]{
		header:     storage.Header{PageID: id, PageSize: pageSize, Size: 0, MaxSize: maxSize},
		nodeHeight: nodeHeight,
		arr:        make([]entry[K], maxSize+1),
	}
	p.slots = storage.NewSlots(&p.header, p.arr)
	return p
}

func (p *page[K]) IsLeaf() bool { return p.nodeHeight == 0 }
func (p *page[K]) IsFull() bool { return p.slots.Full() }
func (p *page[K]) IsHalf() bool { return p.header.Size >= p.header.MaxSize/2 }
func (p *page[K]) ID() storage.PageID { return p.header.PageID }

func (p *page[K]) String() string {
	return fmt.Sprintf("%s nodeHeight=%d", p.header.String(), p.nodeHeight)
}

// MarshalBinary encodes the page header and its full scratch-inclusive
// entry array, little-endian, matching the teacher's manual-framing
// style in pkg/storage/wal.go and pkg/storage/sstable/builder.go.
func (p *page[K]) MarshalBinary() ([]byte, error) {
	buf := make([]byte, headerSize+len(p.arr)*entrySize)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(p.header.PageID))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(p.header.PageSize))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(p.header.Size))
	binary.LittleEndian.PutUint64(buf[24:32], uint64(p.header.MaxSize))
	binary.LittleEndian.PutUint64(buf[32:40], uint64(p.nodeHeight))

	off := headerSize
	for _, e := range p.arr {
		binary.LittleEndian.PutUint64(buf[off:off+8], uint64(e.Key))
		binary.LittleEndian.PutUint64(buf[off+8:off+16], e.Value)
		off += entrySize
	}
	return buf, nil
}

// UnmarshalBinary decodes a page previously produced by MarshalBinary.
func (p *page[K]) UnmarshalBinary(data []byte) error {
	if len(data) < headerSize {
		return fmt.Errorf("btree: page buffer too small: %d bytes", len(data))
	}
	p.header.PageID = storage.PageID(binary.LittleEndian.Uint64(data[0:8]))
	p.header.PageSize = int(binary.LittleEndian.Uint64(data[8:16]))
	p.header.Size = int(binary.LittleEndian.Uint64(data[16:24]))
	p.header.MaxSize = int(binary.LittleEndian.Uint64(data[24:32]))
	p.nodeHeight = int(binary.LittleEndian.Uint64(data[32:40]))

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
