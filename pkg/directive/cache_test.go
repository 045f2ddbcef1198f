package directive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheParse(t *testing.T) {
	var hits, misses int
	c, err := NewCache(2, WithHitMissHooks(func() { hits++ }, func() { misses++ }))
	require.NoError(t, err)

	t1, o1 := c.Parse("comments.author:limit[5]")
	t2, o2 := c.Parse("comments.author:limit[5]")
	assert.Same(t, t1, t2)
	assert.Same(t, o1, o2)
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)

	c.Parse("a")
	c.Parse("b")
	assert.Equal(t, 2, c.Len())
	c.Parse("comments.author:limit[5]")
	assert.Equal(t, 4, misses, "oldest entry should have been evicted")

	c.Purge()
	assert.Zero(t, c.Len())
}

func TestCacheParseSetReturnsCopies(t *testing.T) {
	c, err := NewCache(0)
	require.NoError(t, err)

	s1 := c.ParseSet("comments", "author")
	s2 := c.ParseSet("comments", "author")
	assert.NotSame(t, s1.Includes, s2.Includes)
	assert.True(t, s1.Includes.Equal(s2.Includes))

	want := ParseSet("comments", "author")
	assert.Equal(t, mustJSON(t, want), mustJSON(t, s1))
}

func TestNilCacheParsesDirectly(t *testing.T) {
	var c *Cache
	tree, _ := c.Parse("a.b")
	assert.True(t, tree.Has("a.b"))
	assert.Zero(t, c.Len())
	c.Purge()
}

func TestCacheContains(t *testing.T) {
	c, err := NewCache(0)
	require.NoError(t, err)
	assert.False(t, c.Contains("a"))
	c.Parse("a")
	assert.True(t, c.Contains("a"))

	var nilCache *Cache
	assert.False(t, nilCache.Contains("a"))
}
