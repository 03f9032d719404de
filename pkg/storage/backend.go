// Package storage implements the page-based storage layer shared by every
// index in pagedex.
//
// It is responsible for:
//  1. Backend: the narrow create/load/save/release contract a page-based
//     index consumes, with an in-memory default and a file-backed
//     snapshot format.
//  2. Slots: the fixed-capacity, scratch-slotted entry array every page
//     type (B-tree, Fagin, Larson-Kalja) is built from.
//  3. PinSet / CachedBackend: an optional reference-counted pinning layer
//     and buffer-pool cache sitting in front of a Backend.
package storage

import (
	"errors"
	"fmt"
)

// PageID is the backend's opaque handle to a page. Stable for the page's
// lifetime; callers never synthesize one, only receive them from
// CreatePage.
type PageID uint64

var (
	// ErrPageNotFound is returned when a PageID does not name a live page.
	ErrPageNotFound = errors.New("storage: page not found")
	// ErrOutOfRange marks a Slots access outside [begin, arrayEnd) — a
	// defect in the caller, not a recoverable runtime condition.
	ErrOutOfRange = errors.New("storage: slot access outside [begin, end)")
	// ErrBackendFailure wraps an I/O failure surfaced by a Backend.
	ErrBackendFailure = errors.New("storage: backend failure")
)

// Backend is the sole owner of page bytes. An index borrows a page slice
// between a LoadPage call and the next call that might relocate or evict
// it; it never holds two such slices across a call that could invalidate
// either.
type Backend interface {
	// PageSize is constant for the backend's lifetime.
	PageSize() int

	// CreatePage allocates and zero-initializes a new page.
	CreatePage() (PageID, error)

	// LoadPage returns a slice valid until the next call to this backend.
	LoadPage(id PageID) ([]byte, error)

	// SavePage and UpdatePage persist a page's current bytes. SavePage
	// marks a page's first write after creation, UpdatePage every write
	// after that; MemoryBackend treats them identically.
	SavePage(id PageID, data []byte) error
	UpdatePage(id PageID, data []byte) error

	// ReleasePage signals the index is done with a page for now. The
	// backend may evict it from memory but must not change its logical
	// contents.
	ReleasePage(id PageID) error
}

// MemoryBackend is the in-memory reference Backend: every page lives as a
// byte slice in a map for the process's lifetime. Grounded on
// original_source/include/storage_model.h's unsafe_inmemory_storage.
type MemoryBackend struct {
	pageSize int
	pages    map[PageID][]byte
	next     PageID
}

// NewMemoryBackend creates an empty backend serving fixed-size pages.
func NewMemoryBackend(pageSize int) *MemoryBackend {
	return &MemoryBackend{
		pageSize: pageSize,
		pages:    make(map[PageID][]byte),
	}
}

func (m *MemoryBackend) PageSize() int { return m.pageSize }

func (m *MemoryBackend) CreatePage() (PageID, error) {
	id := m.next
	m.next++
	m.pages[id] = make([]byte, m.pageSize)
	return id, nil
}

func (m *MemoryBackend) LoadPage(id PageID) ([]byte, error) {
	page, ok := m.pages[id]
	if !ok {
		return nil, fmt.Errorf("%w: page %d", ErrPageNotFound, id)
	}
	return page, nil
}

func (m *MemoryBackend) SavePage(id PageID, data []byte) error {
	return m.UpdatePage(id, data)
}

func (m *MemoryBackend) UpdatePage(id PageID, data []byte) error {
	page, ok := m.pages[id]
	if !ok {
		return fmt.Errorf("%w: page %d", ErrPageNotFound, id)
	}
	copy(page, data)
	return nil
}

// ReleasePage is a no-op: the unbuffered backend keeps every page
// resident for the process's lifetime. CachedBackend is where release
// actually drives eviction.
func (m *MemoryBackend) ReleasePage(id PageID) error { return nil }

// PageCount reports how many pages the backend currently holds.
func (m *MemoryBackend) PageCount() int { return len(m.pages) }

// PageIDs returns every live PageID in ascending order.
func (m *MemoryBackend) PageIDs() []PageID {
	ids := make([]PageID, 0, len(m.pages))
	for id := range m.pages {
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}
