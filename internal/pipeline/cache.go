package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/maypok86/otter"

	"github.com/mvp-joe/widgetgen/internal/decl"
)

// defaultCacheCapacity bounds the number of memoised extraction results.
const defaultCacheCapacity = 4096

// extractionCache memoises successful extractions by path and content hash.
// An extraction is a pure function of both, so a hit is always valid.
type extractionCache struct {
	sets otter.Cache[string, *decl.Set]
}

func newExtractionCache(capacity int) (*extractionCache, error) {
	if capacity <= 0 {
		capacity = defaultCacheCapacity
	}
	sets, err := otter.MustBuilder[string, *decl.Set](capacity).
		CollectStats().
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create extraction cache: %w", err)
	}
	return &extractionCache{sets: sets}, nil
}

func cacheKey(path string, content []byte) string {
	sum := sha256.Sum256(content)
	return path + "@" + hex.EncodeToString(sum[:])
}

func (c *extractionCache) get(key string) (*decl.Set, bool) {
	return c.sets.Get(key)
}

func (c *extractionCache) set(key string, set *decl.Set) {
	c.sets.Set(key, set)
}

func (c *extractionCache) hits() int64 {
	return c.sets.Stats().Hits()
}

func (c *extractionCache) close() {
	c.sets.Close()
}
