package lru

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock[K comparable, V any](c *Cache[K, V], start time.Time) func(time.Duration) {
	now := start
	c.now = func() time.Time { return now }
	return func(d time.Duration) { now = start.Add(d) }
}

func TestCache_GetPut(t *testing.T) {
	c := New[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	v, ok = c.Get("b")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := New[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a")

	k, v, evicted := c.Put("c", 3)
	require.True(t, evicted)
	assert.Equal(t, "b", k)
	assert.Equal(t, 2, v)

	_, ok := c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestCache_UpdateDoesNotEvict(t *testing.T) {
	c := New[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)

	_, _, evicted := c.Put("a", 10)
	assert.False(t, evicted)
	v, _ := c.Get("a")
	assert.Equal(t, 10, v)
	assert.Equal(t, 2, c.Len())
}

func TestCache_DeletePeekKeysClear(t *testing.T) {
	c := New[string, int](3)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	assert.True(t, c.Delete("b"))
	assert.False(t, c.Delete("b"))

	v, ok := c.Peek("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	// Peek leaves "a" least recently used.
	assert.Equal(t, []string{"c", "a"}, c.Keys())

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Keys())
}

func TestCache_InvalidCapacityPanics(t *testing.T) {
	assert.Panics(t, func() { New[string, int](0) })
}

func TestCache_TTLExpiry(t *testing.T) {
	c := New[string, int](10, WithTTL[string, int](100*time.Millisecond))
	advance := fixedClock(c, time.Unix(1000, 0))

	c.Put("a", 1)
	_, ok := c.Get("a")
	assert.True(t, ok)

	advance(200 * time.Millisecond)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, uint64(1), c.Metrics().Expirations)
}

func TestCache_PerEntryTTL(t *testing.T) {
	c := New[string, int](10)
	advance := fixedClock(c, time.Unix(1000, 0))

	c.PutWithTTL("short", 1, 50*time.Millisecond)
	c.PutWithTTL("long", 2, 500*time.Millisecond)
	c.Put("forever", 3)

	advance(100 * time.Millisecond)
	_, ok := c.Peek("short")
	assert.False(t, ok)
	assert.ElementsMatch(t, []string{"long", "forever"}, c.Keys())
}

func TestCache_UpdateResetsTTL(t *testing.T) {
	c := New[string, int](10, WithTTL[string, int](100*time.Millisecond))
	advance := fixedClock(c, time.Unix(1000, 0))

	c.Put("a", 1)
	advance(80 * time.Millisecond)
	c.Put("a", 2)
	advance(150 * time.Millisecond)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestCache_OnEvict(t *testing.T) {
	var evicted []string
	c := New[string, int](2,
		WithTTL[string, int](time.Minute),
		WithOnEvict[string, int](func(k string, _ int) { evicted = append(evicted, k) }),
	)
	advance := fixedClock(c, time.Unix(1000, 0))

	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)
	assert.Equal(t, []string{"a"}, evicted)

	advance(2 * time.Minute)
	c.Get("b")
	assert.Equal(t, []string{"a", "b"}, evicted)
}

func TestCache_Metrics(t *testing.T) {
	c := New[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a")
	c.Get("b")
	c.Get("missing")
	c.Put("c", 3)

	m := c.Metrics()
	assert.Equal(t, uint64(2), m.Hits)
	assert.Equal(t, uint64(1), m.Misses)
	assert.Equal(t, uint64(1), m.Evictions)
	assert.InDelta(t, 2.0/3.0, m.HitRate(), 0.001)
	assert.Zero(t, Metrics{}.HitRate())
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New[int, int](100)
	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				c.Put(offset*1000+i, i)
				c.Get(offset*1000 + i)
			}
		}(g)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 100)
}
