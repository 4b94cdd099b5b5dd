package embedding

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/okian/placement/pkg/metrics"
)

const defaultCacheSize = 10_000

// keySeparator cannot appear in validated skill strings.
const keySeparator = "\x1f"

// CacheOption configures a CachedEmbedder.
type CacheOption func(*CachedEmbedder)

// WithMaxEntries bounds the cache. Zero or negative means unbounded.
func WithMaxEntries(n int) CacheOption {
	return func(c *CachedEmbedder) {
		c.maxSize = n
	}
}

// CachedEmbedder memoizes another Embedder by exact token list. Concurrent
// requests for the same list share one backend call. When bounded, the
// oldest inserted entry is evicted first.
type CachedEmbedder struct {
	next Embedder

	mu      sync.RWMutex
	entries map[string][]float64
	order   []string // ring of keys in insertion order (bounded mode only)
	cursor  int
	maxSize int
	size    atomic.Int64

	group singleflight.Group
}

// NewCachedEmbedder wraps next with a bounded cache.
func NewCachedEmbedder(next Embedder, opts ...CacheOption) *CachedEmbedder {
	c := &CachedEmbedder{
		next:    next,
		maxSize: defaultCacheSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.entries = make(map[string][]float64)
	if c.maxSize > 0 {
		c.order = make([]string, 0, c.maxSize)
	}
	return c
}

// Dimension implements Embedder.
func (c *CachedEmbedder) Dimension() int { return c.next.Dimension() }

// Len returns the number of cached vectors.
func (c *CachedEmbedder) Len() int64 { return c.size.Load() }

// Embed implements Embedder. Returned vectors are copies.
func (c *CachedEmbedder) Embed(ctx context.Context, tokens []string) ([]float64, error) {
	key := strings.Join(tokens, keySeparator)

	c.mu.RLock()
	v, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		metrics.RecordEmbedCacheHit()
		return cloneVector(v), nil
	}
	metrics.RecordEmbedCacheMiss()

	// The flight is shared, so it must not inherit one caller's cancellation.
	// Deadlines come from the wrapped embedder.
	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		vec, err := c.next.Embed(flightCtx, tokens)
		if err != nil {
			return nil, err
		}
		c.store(key, vec)
		return vec, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return cloneVector(res.Val.([]float64)), nil
	}
}

func (c *CachedEmbedder) store(key string, vec []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		return
	}

	if c.maxSize > 0 {
		if len(c.order) < c.maxSize {
			c.order = append(c.order, key)
		} else {
			// overwrite the oldest slot
			delete(c.entries, c.order[c.cursor])
			c.size.Add(-1)
			c.order[c.cursor] = key
			c.cursor = (c.cursor + 1) % c.maxSize
		}
	}
	c.entries[key] = cloneVector(vec)
	c.size.Add(1)
}

func cloneVector(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
