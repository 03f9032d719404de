package fagin

import "testing"

func TestDirectoryInitialize(t *testing.T) {
	d := newDirectory(7, 3)
	if len(d.slots) != 4 {
		t.Fatalf("len(slots) = %d, want 4 (next power of two of 3)", len(d.slots))
	}
	for _, s := range d.slots {
		if s != 7 {
			t.Fatalf("expected every slot to start at initial page 7, got %d", s)
		}
	}
}

func TestDirectoryExpandPreservesMapping(t *testing.T) {
	d := newDirectory(1, 4)
	d.slots[2] = 99

	d.Expand()

	if len(d.slots) != 8 {
		t.Fatalf("len(slots) after expand = %d, want 8", len(d.slots))
	}
	if d.slots[2] != 99 || d.slots[6] != 99 {
		t.Fatalf("expected expanded upper half to mirror the lower half, got %v", d.slots)
	}
}

func TestSetNewPageRepointsUpperHalfOnly(t *testing.T) {
	d := newDirectory(1, 4) // globalDepth=2, all slots point to page 1
	// simulate splitting a bucket with localDepth 1 -> 2, for a key whose
	// hash has low bit 0 (so oldMask=1, prefix=0): slots 0 and 2 shared
	// prefix 0 in bit0; the new bucket takes those with bit1 set: slot 2.
	d.SetNewPage(0, 2, 42)

	want := []uint64{1, 1, 42, 1}
	for i, w := range want {
		if uint64(d.slots[i]) != w {
			t.Fatalf("slots[%d] = %d, want %d (full: %v)", i, d.slots[i], w, d.slots)
		}
	}
}
