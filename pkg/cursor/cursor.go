// Package cursor holds the bidirectional iterator protocol shared by
// every index's Cursor type: a null/past-the-end state plus Next/Prev
// stepping. Each index (btree, fagin, lk) implements this protocol with
// its own page-walking logic; this package supplies the shared contract
// and small generic helpers built purely on top of it.
package cursor

import "pagedex/pkg/common"

// Cursor is satisfied by every index's Cursor[K, D] type.
type Cursor[K common.Fixed, D common.Fixed] interface {
	Valid() bool
	Key() K
	Data() D
	Next() bool
	Prev() bool
}

// Keys drains c forward from its current position, collecting every key
// it visits. c is left at its past-the-end state.
func Keys[K common.Fixed, D common.Fixed](c Cursor[K, D]) []K {
	var keys []K
	for c.Valid() {
		keys = append(keys, c.Key())
		c.Next()
	}
	return keys
}

// Count drains c forward from its current position, reporting how many
// entries it visits.
func Count[K common.Fixed, D common.Fixed](c Cursor[K, D]) int {
	n := 0
	for c.Valid() {
		n++
		c.Next()
	}
	return n
}
