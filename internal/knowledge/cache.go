package knowledge

import (
	"context"
	"sync"
)

// IndexSource names where the cache obtains its index: either an index
// built ahead of time, or an on-disk location resolved lazily.
type IndexSource struct {
	preloaded *Index
	builder   *Builder
}

// Preloaded wraps an already-built index.
func Preloaded(index *Index) IndexSource {
	return IndexSource{preloaded: index}
}

// OnDisk defers to the builder, which loads an existing index or builds
// one on first use.
func OnDisk(builder *Builder) IndexSource {
	return IndexSource{builder: builder}
}

// Cache resolves an index exactly once per process. A failed resolution
// is remembered: subsequent calls return the recorded error without
// retrying, so a missing index degrades retrieval instead of hammering
// the embedding API on every request.
type Cache struct {
	source IndexSource

	mu        sync.Mutex
	index     *Index
	attempted bool
	err       error
}

// NewCache creates a Cache over the given source.
func NewCache(source IndexSource) *Cache {
	return &Cache{source: source}
}

// Get returns the cached index, resolving it on first call.
func (c *Cache) Get(ctx context.Context) (*Index, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.index != nil {
		return c.index, nil
	}
	if c.attempted {
		return nil, c.err
	}
	c.attempted = true

	if c.source.preloaded != nil {
		c.index = c.source.preloaded
		return c.index, nil
	}
	if c.source.builder == nil {
		c.err = ErrIndexNotFound
		return nil, c.err
	}

	index, err := c.source.builder.Build(ctx, false)
	if err != nil {
		c.err = err
		return nil, err
	}
	c.index = index
	return index, nil
}

// Reset clears the cached state so the next Get resolves again. Used
// after an explicit rebuild.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = nil
	c.attempted = false
	c.err = nil
}

// Put stores a freshly built index, replacing any cached state.
func (c *Cache) Put(index *Index) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = index
	c.attempted = true
	c.err = nil
}
