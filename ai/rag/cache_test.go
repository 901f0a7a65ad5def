package rag

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUCacheSetGet(t *testing.T) {
	c := newLRUCache[string, int](4, time.Minute)

	c.Set("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestLRUCacheEvictsOldest(t *testing.T) {
	c := newLRUCache[string, int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	// Touch "a" so "b" becomes the eviction candidate.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("c", 3)

	_, ok = c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestLRUCacheExpiresEntries(t *testing.T) {
	c := newLRUCache[string, int](4, 10*time.Millisecond)

	c.Set("a", 1)
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestLRUCacheUpdateRefreshesValue(t *testing.T) {
	c := newLRUCache[string, int](2, time.Minute)

	c.Set("a", 1)
	c.Set("a", 2)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}
