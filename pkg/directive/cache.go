package directive

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultCacheSize = 1024

type parsed struct {
	tree *Tree
	opts *Options
}

// Cache memoizes Parse results by raw string.
// Cached values are shared between callers and must not be modified; ParseSet
// always hands out fresh copies.
type Cache struct {
	lru    *lru.Cache[string, parsed]
	onHit  func()
	onMiss func()
}

type CacheOption func(*Cache)

// WithHitMissHooks installs callbacks invoked on every lookup.
func WithHitMissHooks(onHit, onMiss func()) CacheOption {
	return func(c *Cache) {
		c.onHit = onHit
		c.onMiss = onMiss
	}
}

func NewCache(size int, opts ...CacheOption) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	l, err := lru.New[string, parsed](size)
	if err != nil {
		return nil, fmt.Errorf("new directive cache: %w", err)
	}
	c := &Cache{lru: l}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Parse behaves like the package-level Parse. A nil Cache parses directly.
func (c *Cache) Parse(raw string) (*Tree, *Options) {
	if c == nil {
		return Parse(raw)
	}
	if v, ok := c.lru.Get(raw); ok {
		if c.onHit != nil {
			c.onHit()
		}
		return v.tree, v.opts
	}
	if c.onMiss != nil {
		c.onMiss()
	}
	tree, opts := Parse(raw)
	c.lru.Add(raw, parsed{tree: tree, opts: opts})
	return tree, opts
}

// ParseSet behaves like the package-level ParseSet using cached parses.
func (c *Cache) ParseSet(include, exclude string) Set {
	inc, incOpts := c.Parse(include)
	exc, excOpts := c.Parse(exclude)
	return Set{
		Includes: inc.clone(),
		Excludes: exc.clone(),
		Options:  incOpts.Merge(excOpts),
	}
}

// Contains reports whether raw is cached, without touching its recency.
func (c *Cache) Contains(raw string) bool {
	if c == nil {
		return false
	}
	return c.lru.Contains(raw)
}

func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

func (c *Cache) Purge() {
	if c == nil {
		return
	}
	c.lru.Purge()
}
