package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ppiankov/fddmap/internal/model"
)

// MemoryCache keeps verdicts for the lifetime of a session
type MemoryCache struct {
	verdicts *gocache.Cache
}

// NewMemoryCache creates a memory cache. Entries without their own ttl
// expire after defaultTTL; expired entries are swept every cleanupInterval.
func NewMemoryCache(defaultTTL, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{verdicts: gocache.New(defaultTTL, cleanupInterval)}
}

// Get returns a copy of the stored verdict
func (c *MemoryCache) Get(key string) (*model.VerificationVerdict, bool) {
	raw, found := c.verdicts.Get(key)
	if !found {
		return nil, false
	}
	v, ok := raw.(*model.VerificationVerdict)
	if !ok {
		return nil, false
	}
	return clone(v), true
}

// Put stores a copy of v; a zero ttl uses the cache default
func (c *MemoryCache) Put(key string, v *model.VerificationVerdict, ttl time.Duration) error {
	if v == nil {
		return nil
	}
	c.verdicts.Set(key, clone(v), ttl)
	return nil
}

func (c *MemoryCache) Delete(key string) error {
	c.verdicts.Delete(key)
	return nil
}

func (c *MemoryCache) Clear() error {
	c.verdicts.Flush()
	return nil
}

// Len returns the number of cached verdicts, including expired ones not yet swept
func (c *MemoryCache) Len() int {
	return c.verdicts.ItemCount()
}
