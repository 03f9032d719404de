package storage

import "testing"

func TestCachedBackendLoadRoundTrip(t *testing.T) {
	mem := NewMemoryBackend(64)
	cached, err := NewCachedBackend(mem, NewPinSet(), 16)
	if err != nil {
		t.Fatalf("NewCachedBackend: %v", err)
	}
	defer cached.Close()

	id, err := cached.CreatePage()
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}

	data := make([]byte, 64)
	data[0] = 0x42
	if err := cached.UpdatePage(id, data); err != nil {
		t.Fatalf("UpdatePage: %v", err)
	}

	got, err := cached.LoadPage(id)
	if err != nil {
		t.Fatalf("LoadPage: %v", err)
	}
	if got[0] != 0x42 {
		t.Fatalf("LoadPage()[0] = %d, want 0x42", got[0])
	}

	// The underlying backend must also have the write: CachedBackend is
	// write-through, not write-back.
	raw, err := mem.LoadPage(id)
	if err != nil {
		t.Fatalf("underlying LoadPage: %v", err)
	}
	if raw[0] != 0x42 {
		t.Fatalf("underlying page[0] = %d, want 0x42 (cache should be write-through)", raw[0])
	}
}

func TestCachedBackendServesFromCacheWithoutTouchingBackend(t *testing.T) {
	mem := NewMemoryBackend(32)
	cached, err := NewCachedBackend(mem, NewPinSet(), 16)
	if err != nil {
		t.Fatalf("NewCachedBackend: %v", err)
	}
	defer cached.Close()

	id, err := cached.CreatePage()
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	data := make([]byte, 32)
	data[1] = 7
	if err := cached.UpdatePage(id, data); err != nil {
		t.Fatalf("UpdatePage: %v", err)
	}

	// Remove the page directly from the underlying backend so only the
	// cache can satisfy the next LoadPage.
	delete(mem.pages, id)

	got, err := cached.LoadPage(id)
	if err != nil {
		t.Fatalf("LoadPage should be served from cache, got error: %v", err)
	}
	if got[1] != 7 {
		t.Fatalf("LoadPage()[1] = %d, want 7", got[1])
	}
}

func TestCachedBackendReleasePageHonorsPinSet(t *testing.T) {
	mem := NewMemoryBackend(32)
	pins := NewPinSet()
	cached, err := NewCachedBackend(mem, pins, 16)
	if err != nil {
		t.Fatalf("NewCachedBackend: %v", err)
	}
	defer cached.Close()

	id, err := cached.CreatePage()
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}

	pins.Pin(id)
	if err := cached.ReleasePage(id); err != nil {
		t.Fatalf("ReleasePage on pinned page: %v", err)
	}

	pins.Unpin(id)
	if err := cached.ReleasePage(id); err != nil {
		t.Fatalf("ReleasePage on unpinned page: %v", err)
	}
}
