package btree

import (
	"math/rand"
	"testing"

	"github.com/google/btree"

	"pagedex/pkg/cursor"
	"pagedex/pkg/storage"
)

func newTestTable(t *testing.T, pageSize int) *Table[int64, int64] {
	t.Helper()
	backend := storage.NewMemoryBackend(pageSize)
	table, err := New[int64, int64](backend)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return table
}

func TestInsertFindErase(t *testing.T) {
	table := newTestTable(t, 256)

	table.Insert(5, 50)
	table.Insert(1, 10)
	table.Insert(3, 30)

	if c, ok := table.Find(3); !ok || c.Data() != 30 {
		t.Fatalf("Find(3): ok=%v data=%v", ok, c.Data())
	}
	if !table.Erase(3) {
		t.Fatalf("Erase(3) should report true")
	}
	if _, ok := table.Find(3); ok {
		t.Fatalf("Find(3) should miss after erase")
	}
	if table.Erase(3) {
		t.Fatalf("Erase(3) twice should report false")
	}
}

func TestCursorAscendsInOrder(t *testing.T) {
	table := newTestTable(t, 256)
	keys := []int64{40, 10, 30, 20, 50, 5, 35}
	for _, k := range keys {
		table.Insert(k, k*10)
	}

	var got []int64
	for c := table.Begin(); c.Valid(); c.Next() {
		got = append(got, c.Key())
	}

	for i := 1; i < len(got); i++ {
		if got[i-1] >= got[i] {
			t.Fatalf("cursor not ascending at %d: %v", i, got)
		}
	}
	if len(got) != len(keys) {
		t.Fatalf("cursor visited %d keys, want %d", len(got), len(keys))
	}
}

func TestCursorPackageHelpersAgreeWithManualWalk(t *testing.T) {
	table := newTestTable(t, 256)
	for _, k := range []int64{40, 10, 30, 20, 50, 5, 35} {
		table.Insert(k, k*10)
	}

	begin := table.Begin()
	keys := cursor.Keys[int64, int64](&begin)
	if len(keys) != 7 {
		t.Fatalf("cursor.Keys() returned %d keys, want 7", len(keys))
	}

	begin2 := table.Begin()
	if n := cursor.Count[int64, int64](&begin2); n != len(keys) {
		t.Fatalf("cursor.Count() = %d, want %d", n, len(keys))
	}
}

func TestVerifyHoldsAfterManyInserts(t *testing.T) {
	table := newTestTable(t, 128)
	for i := int64(0); i < 500; i++ {
		table.Insert(i, i)
	}
	if !table.Verify() {
		t.Fatalf("Verify() = false after sequential inserts")
	}
}

func TestVerifyHoldsAfterRandomInsertsAndErases(t *testing.T) {
	table := newTestTable(t, 96)
	rng := rand.New(rand.NewSource(1))

	present := make(map[int64]bool)
	for i := 0; i < 2000; i++ {
		key := int64(rng.Intn(300))
		if rng.Intn(3) == 0 && present[key] {
			table.Erase(key)
			delete(present, key)
		} else {
			table.Insert(key, key*2)
			present[key] = true
		}
	}

	if !table.Verify() {
		t.Fatalf("Verify() = false after random operation sequence")
	}
	for key := range present {
		if _, ok := table.Find(key); !ok {
			t.Fatalf("Find(%d) missing after operation sequence", key)
		}
	}
}

// TestAgainstGoogleBTreeOracle cross-checks this package's hand-rolled
// page-resident B-tree against github.com/google/btree's in-memory
// implementation over the same random operation sequence, verifying
// both report the same live key set.
func TestAgainstGoogleBTreeOracle(t *testing.T) {
	table := newTestTable(t, 192)
	oracle := btree.NewOrderedG[int64](32)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 3000; i++ {
		key := int64(rng.Intn(500))
		if rng.Intn(3) == 0 {
			table.Erase(key)
			oracle.Delete(key)
		} else {
			table.Insert(key, key)
			oracle.ReplaceOrInsert(key)
		}
	}

	oracle.Ascend(func(key int64) bool {
		if _, ok := table.Find(key); !ok {
			t.Fatalf("key %d present in oracle but missing from table", key)
		}
		return true
	})

	count := 0
	for c := table.Begin(); c.Valid(); c.Next() {
		count++
		if !oracle.Has(c.Key()) {
			t.Fatalf("key %d present in table but missing from oracle", c.Key())
		}
	}
	if count != oracle.Len() {
		t.Fatalf("table has %d keys, oracle has %d", count, oracle.Len())
	}
}
