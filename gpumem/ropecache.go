package gpumem

import (
	"fmt"
	"log/slog"
	"sync"
)

// ShapeKey identifies one combination of video and text shapes that the
// rotary-embedding frequency cache memoizes against. Using a struct key
// keeps the cache enumerable and droppable as a whole, unlike an LRU
// decorator wrapping an opaque closure.
type ShapeKey struct {
	VideoShape string
	TextShape  string
}

func KeyFor(videoShape, textShape []int) ShapeKey {
	return ShapeKey{VideoShape: fmt.Sprint(videoShape), TextShape: fmt.Sprint(textShape)}
}

// FrequencyEntry is whatever the sampler computed for one shape
// combination; the governor only manages its lifecycle, never its
// contents.
type FrequencyEntry struct {
	Freqs []float32
}

// RoPECache memoizes rotary-embedding frequency tensors keyed by shape,
// avoiding a recomputation (and potential first-call OOM) on every
// sampler step for shapes already seen this run.
type RoPECache struct {
	mu      sync.Mutex
	entries map[ShapeKey]FrequencyEntry
}

func NewRoPECache() *RoPECache {
	return &RoPECache{entries: make(map[ShapeKey]FrequencyEntry)}
}

// Get returns the cached entry for key, if any.
func (c *RoPECache) Get(key ShapeKey) (FrequencyEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e, ok
}

// Put stores an entry, overwriting any previous value for key.
func (c *RoPECache) Put(key ShapeKey, entry FrequencyEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry
}

// Preinitialize eagerly populates entries for a set of commonly used
// shapes via compute, so the first real sampler step never has to pay
// for (and risk OOMing on) cold-cache computation. Any per-shape
// failure is a soft warning: preinitialization is an optimization, not
// a precondition for correctness.
func (c *RoPECache) Preinitialize(keys []ShapeKey, compute func(ShapeKey) (FrequencyEntry, error)) {
	for _, key := range keys {
		entry, err := compute(key)
		if err != nil {
			slog.Warn("RoPE cache preinitialization failed for shape, will compute lazily", "key", key, "error", err)
			continue
		}
		c.Put(key, entry)
	}
}

// ClearCache empties the cache, satisfying CacheHolder. Called on
// teardown or by an explicit sweep.
func (c *RoPECache) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

// Len reports the number of memoized shape combinations, mostly useful
// in tests that assert the cache actually grows and shrinks.
func (c *RoPECache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
