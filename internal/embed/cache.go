package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize mirrors the teacher's DefaultEmbeddingCacheSize.
const DefaultCacheSize = 1000

// CachedProvider wraps a Provider with an LRU cache keyed on
// sha256(text || model), avoiding redundant embedding calls when the
// same chunk text recurs across a rebuild. Grounded on the teacher's
// CachedEmbedder (internal/embed/cached.go).
type CachedProvider struct {
	inner Provider
	cache *lru.Cache[string, []float32]
}

// NewCachedProvider wraps inner with an LRU cache of the given size
// (DefaultCacheSize if <= 0).
func NewCachedProvider(inner Provider, size int) *CachedProvider {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, _ := lru.New[string, []float32](size)
	return &CachedProvider{inner: inner, cache: cache}
}

func (c *CachedProvider) Dimension() int    { return c.inner.Dimension() }
func (c *CachedProvider) ModelName() string { return c.inner.ModelName() }

func (c *CachedProvider) key(text string) string {
	h := sha256.Sum256([]byte(text + "\x00" + c.inner.ModelName()))
	return hex.EncodeToString(h[:])
}

// EmbedBatch serves cached vectors where available and only forwards the
// cache misses to the wrapped provider, preserving input order.
func (c *CachedProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int

	for i, t := range texts {
		key := c.key(t)
		if v, ok := c.cache.Get(key); ok {
			out[i] = v
			continue
		}
		missTexts = append(missTexts, t)
		missIdx = append(missIdx, i)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := c.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for i, v := range vecs {
		out[missIdx[i]] = v
		c.cache.Add(c.key(missTexts[i]), v)
	}
	return out, nil
}
