package recognize

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultTTL is how long a gallery snapshot is served before it must be
// rebuilt from the store.
const DefaultTTL = 300 * time.Second

// Loader supplies the full set of enrolled descriptors, ordered by
// employee code. Implemented by the Postgres store; stubbed in tests.
type Loader interface {
	LoadDescriptors(ctx context.Context) ([]Entry, error)
}

// Cache is an in-memory snapshot of all enrolled descriptors with a TTL.
// Reads are served concurrently from the snapshot; a reload is serialized
// under the mutex so callers never observe a half-built gallery.
type Cache struct {
	loader Loader
	ttl    time.Duration

	mu       sync.Mutex
	entries  []Entry
	loadedAt time.Time

	now func() time.Time
}

func NewCache(loader Loader, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		loader: loader,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Entries returns a copy of the cached gallery, reloading from the store
// when the snapshot is missing, empty, or older than the TTL.
func (c *Cache) Entries(ctx context.Context) ([]Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	age := c.now().Sub(c.loadedAt)
	if len(c.entries) > 0 && age < c.ttl {
		return c.copyLocked(), nil
	}

	entries, err := c.loader.LoadDescriptors(ctx)
	if err != nil {
		return nil, fmt.Errorf("load gallery: %w", err)
	}
	c.entries = entries
	c.loadedAt = c.now()
	slog.Debug("gallery reloaded", "entries", len(entries))

	return c.copyLocked(), nil
}

// Invalidate forces the next Entries call to reload regardless of age.
// Call after enrollment, re-capture, or employee deletion.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.entries = nil
	c.loadedAt = time.Time{}
	c.mu.Unlock()
	slog.Debug("gallery cache invalidated")
}

func (c *Cache) copyLocked() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}
