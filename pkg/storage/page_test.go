package storage

import "testing"

func TestMaxEntries(t *testing.T) {
	const headerSize = 24
	const entrySize = 16
	got := MaxEntries(512, headerSize, entrySize)
	want := (512-headerSize)/entrySize - 1
	if got != want {
		t.Fatalf("MaxEntries() = %d, want %d", got, want)
	}
}

func newTestSlots(t *testing.T, maxSize int) *Slots[int] {
	t.Helper()
	header := &Header{PageID: 1, PageSize: 512, Size: 0, MaxSize: maxSize}
	return NewSlots(header, make([]int, maxSize+1))
}

func TestSlotsInsertPreservesOrder(t *testing.T) {
	s := newTestSlots(t, 4)

	s.Insert(0, 30)
	s.Insert(0, 10)
	s.Insert(1, 20)

	if s.Size() != 3 {
		t.Fatalf("Size() = %d, want 3", s.Size())
	}
	want := []int{10, 20, 30}
	for i, w := range want {
		if got := s.At(i); got != w {
			t.Fatalf("At(%d) = %d, want %d", i, got, w)
		}
	}
}

func TestSlotsEraseShiftsLeft(t *testing.T) {
	s := newTestSlots(t, 4)
	for i, v := range []int{10, 20, 30} {
		s.Insert(i, v)
	}

	s.Erase(1)

	if s.Size() != 2 {
		t.Fatalf("Size() after erase = %d, want 2", s.Size())
	}
	if s.At(0) != 10 || s.At(1) != 30 {
		t.Fatalf("unexpected contents after erase: %d, %d", s.At(0), s.At(1))
	}
}

func TestSlotsFullAndEmpty(t *testing.T) {
	s := newTestSlots(t, 2)
	if !s.Empty() {
		t.Fatalf("expected fresh slots to be empty")
	}
	s.PushBack(1)
	s.PushBack(2)
	if !s.Full() {
		t.Fatalf("expected slots to be full at MaxSize")
	}
}

func TestSlotsFindLastMatchingSuffix(t *testing.T) {
	s := newTestSlots(t, 6)
	for i, v := range []int{1, 2, 10, 11, 12} {
		s.Insert(i, v)
	}

	idx := s.FindLast(func(v int) bool { return v >= 10 })
	if idx != 2 {
		t.Fatalf("FindLast() = %d, want 2", idx)
	}

	idxNone := s.FindLast(func(v int) bool { return v > 1000 })
	if idxNone != s.Size() {
		t.Fatalf("FindLast() with no match = %d, want %d", idxNone, s.Size())
	}
}

func TestNextUnique(t *testing.T) {
	seq := []int{5, 5, 7, 7, 9, 5, 11}
	got := NextUnique(seq, 0, 7)
	if got != 4 {
		t.Fatalf("NextUnique() = %d, want 4", got)
	}

	gotNone := NextUnique([]int{1, 1, 1}, 0, 1)
	if gotNone != 3 {
		t.Fatalf("NextUnique() with no unique successor = %d, want 3", gotNone)
	}
}
