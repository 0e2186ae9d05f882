package cache

import (
	"time"

	"github.com/ppiankov/fddmap/internal/model"
)

// LayeredCache serves verdicts from memory and persists them on disk so a
// later run over the same document reuses them. Disk hits are promoted.
type LayeredCache struct {
	memory *MemoryCache
	disk   *DiskCache
}

// NewLayeredCache creates a layered cache rooted at diskDir
func NewLayeredCache(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *LayeredCache {
	return &LayeredCache{
		memory: NewMemoryCache(memoryTTL, 10*time.Minute),
		disk:   NewDiskCache(diskDir, diskTTL),
	}
}

func (c *LayeredCache) Get(key string) (*model.VerificationVerdict, bool) {
	if v, ok := c.memory.Get(key); ok {
		return v, true
	}
	v, ok := c.disk.Get(key)
	if !ok {
		return nil, false
	}
	_ = c.memory.Put(key, v, 0)
	return v, true
}

// Put writes through to disk; a disk failure leaves the memory entry in place
func (c *LayeredCache) Put(key string, v *model.VerificationVerdict, ttl time.Duration) error {
	_ = c.memory.Put(key, v, ttl)
	return c.disk.Put(key, v, ttl)
}

func (c *LayeredCache) Delete(key string) error {
	_ = c.memory.Delete(key)
	return c.disk.Delete(key)
}

func (c *LayeredCache) Clear() error {
	_ = c.memory.Clear()
	return c.disk.Clear()
}
