package fagin

import (
	"math/bits"

	"pagedex/pkg/storage"
)

// directory is the power-of-two table of bucket PageIDs every Fagin
// lookup indexes into. Grounded on fagin.h's FaginDirectory, with bucket
// addressing corrected to the bit-mask form the original spec names as
// the intended (non-buggy) behavior: a bucket's directory slots are every
// index whose low localDepth bits match the bucket's own hash prefix, not
// every index congruent to the bucket's PageId modulo localDepth.
type directory struct {
	slots []storage.PageID
}

func newDirectory(initial storage.PageID, n int) *directory {
	if n <= 0 {
		n = 1
	}
	n = nextPowerOfTwo(n)
	slots := make([]storage.PageID, n)
	for i := range slots {
		slots[i] = initial
	}
	return &directory{slots: slots}
}

func nextPowerOfTwo(n int) int {
	if n&(n-1) == 0 {
		return n
	}
	return 1 << bits.Len(uint(n))
}

// GlobalDepth is the number of low bits of a hash the directory
// currently distinguishes: log2(len(slots)).
func (d *directory) GlobalDepth() int {
	return bits.TrailingZeros(uint(len(d.slots)))
}

// mask returns the low-bits mask selecting depth bits of a hash.
func mask(depth int) uint64 {
	if depth >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << depth) - 1
}

// GetPageID returns the bucket a key's hash currently maps to: the
// directory slot at the hash's low GlobalDepth bits.
func (d *directory) GetPageID(h uint64) storage.PageID {
	return d.slots[h&mask(d.GlobalDepth())]
}

// Expand doubles the directory, copying the existing mapping into the
// new upper half unchanged (every hash's low bits are unaffected by the
// extra bit until a bucket covering that bit is actually split).
func (d *directory) Expand() {
	old := len(d.slots)
	grown := make([]storage.PageID, old*2)
	copy(grown, d.slots)
	copy(grown[old:], d.slots)
	d.slots = grown
}

// SetNewPage repoints every directory slot in the upper half of the
// just-split bucket's hash range to the new sibling page: every slot
// index i in [0, len(slots)) whose low newLocalDepth-1 bits equal h's low
// newLocalDepth-1 bits, and whose (newLocalDepth-1)th bit is set (the
// "new" half introduced by the split).
// This is the bit-mask addressing fix named in the design notes, in
// place of the source's hash(k) mod localDepth form, which does not
// correctly partition a power-of-two directory.
func (d *directory) SetNewPage(h uint64, newLocalDepth int, pageID storage.PageID) {
	oldMask := mask(newLocalDepth - 1)
	splitBit := uint64(1) << (newLocalDepth - 1)
	prefix := h & oldMask
	for i := range d.slots {
		if uint64(i)&oldMask == prefix && uint64(i)&splitBit != 0 {
			d.slots[i] = pageID
		}
	}
}

// dirBegin/dirEnd expose the slot range for the shared page-visiting
// iterator, grounded on fagin.h's DirBegin/DirEnd/DirRBegin/DirREnd.
func (d *directory) dirBegin() int { return 0 }
func (d *directory) dirEnd() int   { return len(d.slots) }
