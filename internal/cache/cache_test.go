package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetGet(t *testing.T) {
	t.Parallel()

	c := New(time.Minute)
	c.Set("product:1", "widget")

	v, ok := c.Get("product:1")
	require.True(t, ok)
	require.Equal(t, "widget", v)

	_, ok = c.Get("product:2")
	require.False(t, ok)
}

func TestCache_SetOverwritesAndResetsTimestamp(t *testing.T) {
	t.Parallel()

	c := New(40 * time.Millisecond)
	c.Set("k", 1)
	time.Sleep(25 * time.Millisecond)

	c.Set("k", 2)
	time.Sleep(25 * time.Millisecond)

	// 50ms after the first Set but only 25ms after the second.
	v, ok := c.Get("k")
	require.True(t, ok)
	require.Equal(t, 2, v)
}

func TestCache_Expiry(t *testing.T) {
	t.Parallel()

	c := New(30 * time.Millisecond)
	c.Set("k", "v")
	require.True(t, c.Has("k"))

	time.Sleep(50 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.False(t, c.Has("k"))
	assert.Equal(t, 0, c.Len())
}

func TestCache_HasEvictsStale(t *testing.T) {
	t.Parallel()

	c := New(20 * time.Millisecond)
	c.Set("k", "v")
	time.Sleep(40 * time.Millisecond)

	require.False(t, c.Has("k"))
	require.Equal(t, 0, c.Len())
}

func TestCache_Delete(t *testing.T) {
	t.Parallel()

	c := New(time.Minute)
	c.Set("k", "v")

	require.True(t, c.Delete("k"))
	require.False(t, c.Delete("k"))
	_, ok := c.Get("k")
	require.False(t, ok)
}

func TestCache_DeleteByPrefix(t *testing.T) {
	t.Parallel()

	c := New(time.Minute)
	c.Set(CartKey(5), "cart five")
	c.Set("cart:5:meta", "meta")
	c.Set(CartKey(52), "cart fifty-two")
	c.Set(ProductKey(5), "unrelated")

	removed := c.DeleteByPrefix(CartPrefix(5))
	require.Equal(t, 2, removed)

	_, ok := c.Get(CartKey(5))
	assert.False(t, ok)

	// separator-terminated prefixes must not cross id boundaries
	_, ok = c.Get(CartKey(52))
	assert.True(t, ok)
	_, ok = c.Get(ProductKey(5))
	assert.True(t, ok)
}

func TestCache_Clear(t *testing.T) {
	t.Parallel()

	c := New(time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	require.Equal(t, 2, c.Len())

	c.Clear()
	require.Equal(t, 0, c.Len())
	require.False(t, c.Has("a"))
}

func TestCache_ZeroTTLFallsBackToDefault(t *testing.T) {
	t.Parallel()

	c := New(0)
	c.Set("k", "v")
	require.True(t, c.Has("k"))
	require.Equal(t, DefaultTTL, c.ttl)
}
