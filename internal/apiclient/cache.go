package apiclient

import (
	"net/url"
	"sort"
	"strings"
	"sync"
)

// responseCache stores raw response bodies keyed by endpoint path plus
// canonical query string. Mutations evict by path prefix, which covers
// every filtered variant of a list endpoint in one sweep.
type responseCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func newResponseCache() *responseCache {
	return &responseCache{entries: make(map[string][]byte)}
}

// cacheKey builds the canonical key for an endpoint and its parameters.
// Parameters are sorted so equivalent requests share a key.
func cacheKey(path string, params url.Values) string {
	if len(params) == 0 {
		return path
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(path)
	b.WriteByte('?')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params.Get(k))
	}
	return b.String()
}

func (c *responseCache) get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, ok := c.entries[key]
	return data, ok
}

func (c *responseCache) set(key string, data []byte) {
	c.mu.Lock()
	c.entries[key] = data
	c.mu.Unlock()
}

// invalidate evicts every key starting with prefix.
func (c *responseCache) invalidate(prefix string) {
	c.mu.Lock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}

func (c *responseCache) clear() {
	c.mu.Lock()
	c.entries = make(map[string][]byte)
	c.mu.Unlock()
}

func (c *responseCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
