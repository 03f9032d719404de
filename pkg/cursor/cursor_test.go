package cursor

import "testing"

type fakeCursor struct {
	keys []int64
	pos  int
}

func (f *fakeCursor) Valid() bool  { return f.pos < len(f.keys) }
func (f *fakeCursor) Key() int64   { return f.keys[f.pos] }
func (f *fakeCursor) Data() int64  { return f.keys[f.pos] * 10 }
func (f *fakeCursor) Next() bool   { f.pos++; return f.Valid() }
func (f *fakeCursor) Prev() bool   { f.pos--; return f.pos >= 0 }

func TestKeysDrainsForward(t *testing.T) {
	c := &fakeCursor{keys: []int64{1, 2, 3}}
	got := Keys[int64, int64](c)
	want := []int64{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Keys()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
	if c.Valid() {
		t.Fatalf("cursor should be past-the-end after Keys")
	}
}

func TestCountDrainsForward(t *testing.T) {
	c := &fakeCursor{keys: []int64{5, 6, 7, 8}}
	if n := Count[int64, int64](c); n != 4 {
		t.Fatalf("Count() = %d, want 4", n)
	}
}
