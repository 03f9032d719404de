package fagin

import (
	"math/rand"
	"testing"

	"pagedex/pkg/cursor"
	"pagedex/pkg/hash"
	"pagedex/pkg/storage"
)

func newTestTable(t *testing.T, pageSize int) *Table[int64, int64] {
	t.Helper()
	backend := storage.NewMemoryBackend(pageSize)
	family := hash.New(hash.NewSeededSource(1))
	table, err := New[int64, int64](backend, family, 2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return table
}

func TestFaginInsertFindErase(t *testing.T) {
	table := newTestTable(t, 128)

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
}

func TestFaginSurvivesManyInsertsAcrossSplits(t *testing.T) {
	table := newTestTable(t, 96)
	rng := rand.New(rand.NewSource(11))

	present := make(map[int64]int64)
	for i := 0; i < 1000; i++ {
		key := int64(rng.Intn(400))
		val := key * 3
		table.Insert(key, val)
		present[key] = val
	}

	for key, val := range present {
		c, ok := table.Find(key)
		if !ok {
			t.Fatalf("Find(%d) missing after inserts", key)
		}
		if c.Data() != val {
			t.Fatalf("Find(%d) = %d, want %d", key, c.Data(), val)
		}
	}
	if table.Len() != len(present) {
		t.Fatalf("Len() = %d, want %d", table.Len(), len(present))
	}
}

func TestFaginCursorVisitsEveryKeyOnce(t *testing.T) {
	table := newTestTable(t, 96)
	want := map[int64]bool{}
	for i := int64(0); i < 200; i += 7 {
		table.Insert(i, i)
		want[i] = true
	}

	got := map[int64]bool{}
	for c := table.Begin(); c.Valid(); c.Next() {
		got[c.Key()] = true
	}

	if len(got) != len(want) {
		t.Fatalf("cursor visited %d keys, want %d", len(got), len(want))
	}
	for k := range want {
		if !got[k] {
			t.Fatalf("cursor missed key %d", k)
		}
	}
}

func TestCursorPackageHelperCountsAllKeys(t *testing.T) {
	table := newTestTable(t, 96)
	for i := int64(0); i < 100; i += 3 {
		table.Insert(i, i)
	}

	begin := table.Begin()
	if n := cursor.Count[int64, int64](&begin); n != table.Len() {
		t.Fatalf("cursor.Count() = %d, want %d", n, table.Len())
	}
}
