package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the default number of embeddings CachedProvider keeps.
const DefaultCacheSize = 1000

// CachedProvider wraps a Provider with an LRU cache keyed on the text
// and the inner model name, so repeated pushes/queries of the same text
// skip re-embedding.
type CachedProvider struct {
	inner Provider
	cache *lru.Cache[string, []float64]
}

// NewCachedProvider wraps inner with an LRU cache of the given size (or
// DefaultCacheSize if non-positive).
func NewCachedProvider(inner Provider, size int) *CachedProvider {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, _ := lru.New[string, []float64](size)
	return &CachedProvider{inner: inner, cache: c}
}

func (c *CachedProvider) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text + "\x00" + c.inner.Name()))
	return hex.EncodeToString(sum[:])
}

// Encode implements Provider, serving cached entries and batching only
// the cache misses through the inner provider.
func (c *CachedProvider) Encode(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	var missIdx []int
	var missTexts []string

	for i, t := range texts {
		key := c.cacheKey(t)
		if v, ok := c.cache.Get(key); ok {
			out[i] = v
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	fresh, err := c.inner.Encode(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, idx := range missIdx {
		out[idx] = fresh[j]
		c.cache.Add(c.cacheKey(texts[idx]), fresh[j])
	}
	return out, nil
}

// Dimensions implements Provider.
func (c *CachedProvider) Dimensions() int { return c.inner.Dimensions() }

// Name implements Provider.
func (c *CachedProvider) Name() string { return c.inner.Name() }
