package markdown

import (
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// DefaultCacheSize is the number of inputs a Cache keeps when created with a
// non-positive size.
const DefaultCacheSize = 256

// Cache memoises parse results by input and options. It is safe for concurrent
// use. When full it drops everything and starts over.
// 返回的节点切片是共享的，调用方不得修改。
type Cache struct {
	size  int
	group singleflight.Group

	mu      sync.Mutex
	entries map[cacheKey][]Node
}

type cacheKey struct {
	input     string
	maxStyled int
}

// NewCache creates a cache holding at most size inputs.
func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &Cache{size: size, entries: make(map[cacheKey][]Node)}
}

// Parse is ParseWithOptions with memoisation.
func (c *Cache) Parse(input string, opts Options) []Node {
	key := cacheKey{input, opts.MaxStyledInput}
	c.mu.Lock()
	nodes, ok := c.entries[key]
	c.mu.Unlock()
	if ok {
		return nodes
	}
	v, _, _ := c.group.Do(strconv.Itoa(opts.MaxStyledInput)+"|"+input, func() (any, error) {
		nodes := ParseWithOptions(input, opts)
		c.mu.Lock()
		if len(c.entries) >= c.size {
			clear(c.entries)
		}
		c.entries[key] = nodes
		c.mu.Unlock()
		return nodes, nil
	})
	return v.([]Node)
}

// Len reports the number of cached inputs.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
