package storage

// PinSet is a reference-counted set of pages a caller wants held across
// calls. CachedBackend.ReleasePage does not forward the release of a
// pinned page to the Backend it wraps. Grounded on
// original_source/include/reference_management.h's ReferenceManager,
// simplified from its shared_ptr callback form to plain counted Pin/Unpin
// calls, which is the idiomatic Go shape for the same lifetime contract.
type PinSet struct {
	counts map[PageID]int
}

// NewPinSet returns an empty pin set.
func NewPinSet() *PinSet {
	return &PinSet{counts: make(map[PageID]int)}
}

// Pin increments id's pin count, marking it pinned until a matching
// Unpin.
func (p *PinSet) Pin(id PageID) {
	p.counts[id]++
}

// Unpin decrements id's pin count. Unpinning a page with no outstanding
// pin is a caller defect.
func (p *PinSet) Unpin(id PageID) {
	n, ok := p.counts[id]
	if !ok {
		panic("storage: unpin of non-pinned page")
	}
	if n == 1 {
		delete(p.counts, id)
		return
	}
	p.counts[id] = n - 1
}

// Pinned reports whether id currently has at least one outstanding pin.
func (p *PinSet) Pinned(id PageID) bool {
	return p.counts[id] > 0
}
