package embedding

import (
	"container/list"
	"sync"

	"docqa/internal/port"
)

// CachingEmbedder wraps another embedder with an LRU cache keyed by
// text. Repeated queries and re-ingested chunks skip the provider
// round trip. Safe for concurrent use.
type CachingEmbedder struct {
	inner    port.Embedder
	capacity int

	mu    sync.Mutex
	cache map[string]*list.Element
	lru   *list.List
}

type cacheEntry struct {
	key    string
	vector []float32
}

// NewCachingEmbedder wraps inner with a cache of the given capacity.
func NewCachingEmbedder(inner port.Embedder, capacity int) *CachingEmbedder {
	if capacity <= 0 {
		capacity = 512
	}
	return &CachingEmbedder{
		inner:    inner,
		capacity: capacity,
		cache:    make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Embed serves cached vectors where possible and forwards only the
// misses to the wrapped embedder, in their original order.
func (c *CachingEmbedder) Embed(texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	var missTexts []string
	var missIdx []int
	c.mu.Lock()
	for i, text := range texts {
		if v, ok := c.get(text); ok {
			out[i] = v
		} else {
			missTexts = append(missTexts, text)
			missIdx = append(missIdx, i)
		}
	}
	c.mu.Unlock()

	if len(missTexts) == 0 {
		return out, nil
	}

	vectors, err := c.inner.Embed(missTexts)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	for j, v := range vectors {
		out[missIdx[j]] = v
		c.put(missTexts[j], v)
	}
	c.mu.Unlock()
	return out, nil
}

// get must be called with the lock held.
func (c *CachingEmbedder) get(key string) ([]float32, bool) {
	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		return elem.Value.(*cacheEntry).vector, true
	}
	return nil, false
}

// put must be called with the lock held.
func (c *CachingEmbedder) put(key string, vector []float32) {
	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry).vector = vector
		return
	}
	c.cache[key] = c.lru.PushFront(&cacheEntry{key: key, vector: vector})

	if c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		if oldest != nil {
			c.lru.Remove(oldest)
			delete(c.cache, oldest.Value.(*cacheEntry).key)
		}
	}
}

// Dimension returns the wrapped embedder's dimension.
func (c *CachingEmbedder) Dimension() int { return c.inner.Dimension() }

// ModelName returns the wrapped embedder's model name.
func (c *CachingEmbedder) ModelName() string { return c.inner.ModelName() }
