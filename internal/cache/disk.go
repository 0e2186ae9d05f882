package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/ppiankov/fddmap/internal/model"
)

// DiskCache persists verdicts as one JSON file per key, sharded by the
// first two hex digits of the key digest
type DiskCache struct {
	dir string
	ttl time.Duration
}

// NewDiskCache creates a disk cache. Entries stored with a zero ttl expire
// after ttl; a zero ttl here means they never expire.
func NewDiskCache(dir string, ttl time.Duration) *DiskCache {
	return &DiskCache{dir: dir, ttl: ttl}
}

type diskEntry struct {
	Verdict   model.VerificationVerdict `json:"verdict"`
	StoredAt  time.Time                 `json:"stored_at"`
	ExpiresAt *time.Time                `json:"expires_at,omitempty"`
}

func (e diskEntry) expired(now time.Time) bool {
	return e.ExpiresAt != nil && now.After(*e.ExpiresAt)
}

// Get reads a verdict; unreadable and expired entries are removed
func (c *DiskCache) Get(key string) (*model.VerificationVerdict, bool) {
	path := c.path(key)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var entry diskEntry
	if err := json.Unmarshal(data, &entry); err != nil || entry.expired(time.Now()) {
		_ = os.Remove(path)
		return nil, false
	}
	return &entry.Verdict, true
}

// Put writes a verdict atomically
func (c *DiskCache) Put(key string, v *model.VerificationVerdict, ttl time.Duration) error {
	if v == nil {
		return nil
	}
	if ttl == 0 {
		ttl = c.ttl
	}

	now := time.Now()
	entry := diskEntry{Verdict: *v, StoredAt: now.UTC()}
	if ttl != 0 {
		exp := now.Add(ttl).UTC()
		entry.ExpiresAt = &exp
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal verdict: %w", err)
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	// Write then rename so concurrent readers never see a partial file
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("commit cache file: %w", err)
	}
	return nil
}

// Delete removes a verdict; a missing key is not an error
func (c *DiskCache) Delete(key string) error {
	if err := os.Remove(c.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Clear removes every stored verdict
func (c *DiskCache) Clear() error {
	return os.RemoveAll(c.dir)
}

func (c *DiskCache) path(key string) string {
	d := keyDigest(key)
	return filepath.Join(c.dir, d[:2], d+".json")
}
