package storage

import (
	"bytes"
	"testing"
)

func TestMemoryBackendCreateLoadSave(t *testing.T) {
	b := NewMemoryBackend(64)

	id, err := b.CreatePage()
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}

	data, err := b.LoadPage(id)
	if err != nil {
		t.Fatalf("LoadPage: %v", err)
	}
	if len(data) != 64 {
		t.Fatalf("page size = %d, want 64", len(data))
	}

	copy(data, []byte("hello"))
	if err := b.UpdatePage(id, data); err != nil {
		t.Fatalf("UpdatePage: %v", err)
	}

	got, err := b.LoadPage(id)
	if err != nil {
		t.Fatalf("LoadPage after update: %v", err)
	}
	if !bytes.HasPrefix(got, []byte("hello")) {
		t.Fatalf("unexpected page contents: %q", got[:5])
	}
}

func TestMemoryBackendLoadMissingPage(t *testing.T) {
	b := NewMemoryBackend(16)
	if _, err := b.LoadPage(99); err == nil {
		t.Fatalf("expected error loading missing page")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	b := NewMemoryBackend(8)
	id1, _ := b.CreatePage()
	id2, _ := b.CreatePage()

	p1, _ := b.LoadPage(id1)
	copy(p1, []byte("aaaaaaaa"))
	b.UpdatePage(id1, p1)

	p2, _ := b.LoadPage(id2)
	copy(p2, []byte("bbbbbbbb"))
	b.UpdatePage(id2, p2)

	var buf bytes.Buffer
	if err := SaveSnapshot(&buf, b); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	loaded, err := LoadSnapshot(&buf, 8)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}

	if loaded.PageCount() != 2 {
		t.Fatalf("PageCount() = %d, want 2", loaded.PageCount())
	}
	got1, err := loaded.LoadPage(id1)
	if err != nil {
		t.Fatalf("LoadPage(id1): %v", err)
	}
	if string(got1) != "aaaaaaaa" {
		t.Fatalf("page %d contents = %q, want aaaaaaaa", id1, got1)
	}
}

func TestPinSetBlocksUnpinnedOnlyAssumption(t *testing.T) {
	pins := NewPinSet()
	pins.Pin(1)
	if !pins.Pinned(1) {
		t.Fatalf("expected page 1 to be pinned")
	}
	pins.Unpin(1)
	if pins.Pinned(1) {
		t.Fatalf("expected page 1 to be unpinned")
	}
}
