package reportapi

import (
	"container/list"
	"context"
	"sync"

	"github.com/couchcryptid/neighborhood-report-builder/internal/domain"
	"github.com/couchcryptid/neighborhood-report-builder/internal/observability"
)

// Generator is the contract shared by every link source in this package.
type Generator interface {
	Generate(ctx context.Context, q domain.QueryDescriptor) (string, error)
}

// CachedGenerator wraps a Generator with an in-memory cache of recent links
// keyed by the descriptor's canonical form. The least recently used link is
// dropped once maxEntries is exceeded.
type CachedGenerator struct {
	inner   Generator
	cache   *linkCache
	metrics *observability.Metrics
}

// NewCachedGenerator creates a cache decorator around a generator.
func NewCachedGenerator(inner Generator, maxEntries int, metrics *observability.Metrics) *CachedGenerator {
	return &CachedGenerator{
		inner:   inner,
		cache:   newLinkCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedGenerator) Generate(ctx context.Context, q domain.QueryDescriptor) (string, error) {
	key := q.CacheKey()
	if link, ok := c.cache.get(key); ok {
		c.metrics.ReportCache.WithLabelValues("hit").Inc()
		return link, nil
	}
	c.metrics.ReportCache.WithLabelValues("miss").Inc()

	link, err := c.inner.Generate(ctx, q)
	if err != nil {
		// Failures are not cached so a retry reaches the backend.
		return "", err
	}
	c.cache.put(key, link)
	return link, nil
}

// linkCache holds the most recently generated links, bounded by entry count.
type linkCache struct {
	mu    sync.Mutex
	limit int
	order *list.List // front is most recent; values are *cachedLink
	byKey map[string]*list.Element
}

type cachedLink struct {
	key, link string
}

func newLinkCache(limit int) *linkCache {
	return &linkCache{
		limit: max(limit, 1),
		order: list.New(),
		byKey: make(map[string]*list.Element),
	}
}

func (c *linkCache) get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.byKey[key]
	if !ok {
		return "", false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cachedLink).link, true
}

func (c *linkCache) put(key, link string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.byKey[key]; ok {
		el.Value.(*cachedLink).link = link
		c.order.MoveToFront(el)
		return
	}
	c.byKey[key] = c.order.PushFront(&cachedLink{key: key, link: link})
	if c.order.Len() > c.limit {
		oldest := c.order.Remove(c.order.Back()).(*cachedLink)
		delete(c.byKey, oldest.key)
	}
}

func (c *linkCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
