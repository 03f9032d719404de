package btree

import (
	"pagedex/pkg/common"
	"pagedex/pkg/storage"
)

// Verify walks every level of the tree and reports whether both
// structural invariants hold: every page at a given depth reports the
// same nodeHeight, and keys appear in strictly increasing order within
// each page and across pages at that level, in iteration order.
// Grounded on btree_storage_model.h's Verify/VerifyHeight/VerifyOrder,
// resolved per the corrected semantics: a bool is returned reflecting
// whether order holds, rather than discarding the accumulated result.
func (t *Table[K, D]) Verify() bool {
	level := []storage.PageID{t.rootID}

	for len(level) > 0 {
		pages := make([]*page[K], 0, len(level))
		for _, id := range level {
			pages = append(pages, t.loadPage(id))
		}

		if !verifyHeight(pages) || !verifyOrder(pages) {
			return false
		}

		level = nextLevel(pages)
	}
	return true
}

func verifyHeight[K common.Fixed](pages []*page[K]) bool {
	if len(pages) == 0 {
		return true
	}
	height := pages[0].nodeHeight
	for _, p := range pages {
		if p.nodeHeight != height {
			return false
		}
	}
	return true
}

func verifyOrder[K common.Fixed](pages []*page[K]) bool {
	first := true
	var prev K
	for _, p := range pages {
		for i := 0; i < p.header.Size; i++ {
			key := p.arr[i].Key
			if !first && !(prev < key) {
				return false
			}
			prev = key
			first = false
		}
	}
	return true
}

func nextLevel[K common.Fixed](pages []*page[K]) []storage.PageID {
	if len(pages) == 0 || pages[0].IsLeaf() {
		return nil
	}
	var next []storage.PageID
	for _, p := range pages {
		for i := 0; i < p.header.Size; i++ {
			next = append(next, storage.PageID(p.arr[i].Value))
		}
	}
	return next
}
