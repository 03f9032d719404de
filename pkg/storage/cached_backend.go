package storage

import (
	"fmt"

	"github.com/dgraph-io/ristretto/v2"
)

// CachedBackend decorates a Backend with a bounded ristretto cache of
// recently loaded page bytes, so repeated LoadPage calls for hot pages
// avoid re-touching the underlying backend. Writes go through to the
// wrapped Backend, which remains the source of truth, so dropping a page
// from the cache never loses data. Which pages stay cached is decided by
// ristretto's own admission and eviction policy alone; the PinSet does
// not influence it (see ReleasePage).
type CachedBackend struct {
	backend Backend
	pins    *PinSet
	cache   *ristretto.Cache[PageID, []byte]
}

// NewCachedBackend wraps backend with a ristretto cache sized for
// roughly maxPages resident pages.
func NewCachedBackend(backend Backend, pins *PinSet, maxPages int64) (*CachedBackend, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[PageID, []byte]{
		NumCounters: maxPages * 10,
		MaxCost:     maxPages,
		BufferItems: 64,
		// Each page is Set with cost 1; counting ristretto's per-item
		// overhead too would make a single page cost more than MaxCost.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: constructing page cache: %v", ErrBackendFailure, err)
	}
	return &CachedBackend{backend: backend, pins: pins, cache: cache}, nil
}

func (c *CachedBackend) PageSize() int { return c.backend.PageSize() }

func (c *CachedBackend) CreatePage() (PageID, error) {
	return c.backend.CreatePage()
}

func (c *CachedBackend) LoadPage(id PageID) ([]byte, error) {
	if data, ok := c.cache.Get(id); ok {
		return data, nil
	}
	data, err := c.backend.LoadPage(id)
	if err != nil {
		return nil, err
	}
	c.cache.Set(id, data, 1)
	c.cache.Wait()
	return data, nil
}

func (c *CachedBackend) SavePage(id PageID, data []byte) error {
	if err := c.backend.SavePage(id, data); err != nil {
		return err
	}
	c.cache.Set(id, data, 1)
	c.cache.Wait()
	return nil
}

func (c *CachedBackend) UpdatePage(id PageID, data []byte) error {
	if err := c.backend.UpdatePage(id, data); err != nil {
		return err
	}
	c.cache.Set(id, data, 1)
	c.cache.Wait()
	return nil
}

// ReleasePage forwards the release to the wrapped Backend unless id is
// pinned, in which case it does nothing. It does not remove id from the
// cache, and a pin does not keep id in the cache.
func (c *CachedBackend) ReleasePage(id PageID) error {
	if c.pins != nil && c.pins.Pinned(id) {
		return nil
	}
	return c.backend.ReleasePage(id)
}

// Close releases the cache's background resources.
func (c *CachedBackend) Close() {
	c.cache.Close()
}
