// Package cache stores verification verdicts so that identical questions are
// sent to a backend at most once per session, and optionally across runs.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/fddmap/internal/model"
)

const keyPrefix = "fddmap:v1:"

// Cache holds verdicts keyed by VerdictKey
type Cache interface {
	Get(key string) (*model.VerificationVerdict, bool)
	Put(key string, v *model.VerificationVerdict, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// HashText returns the hex sha256 of text
func HashText(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])
}

// VerdictKey identifies one verification question: a header text on a page
// of a specific document, tested as a given item.
func VerdictKey(fingerprint string, item, page int, header string) string {
	raw := fmt.Sprintf("%s|%d|%d|%s", fingerprint, item, page, HashText(header))
	return keyPrefix + HashText(raw)
}

// keyDigest strips the version prefix; keys built elsewhere are hashed
func keyDigest(key string) string {
	if d := strings.TrimPrefix(key, keyPrefix); d != key && len(d) == sha256.Size*2 {
		return d
	}
	return HashText(key)
}

// New returns a memory cache, layered over disk when dir is set
func New(dir string, ttl time.Duration) Cache {
	if dir == "" {
		return NewMemoryCache(ttl, 10*time.Minute)
	}
	return NewLayeredCache(ttl, dir, ttl)
}

func clone(v *model.VerificationVerdict) *model.VerificationVerdict {
	out := *v
	if v.ResolvedPage != nil {
		page := *v.ResolvedPage
		out.ResolvedPage = &page
	}
	return &out
}
