package cache_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/sitterdiff/pkg/cache"
)

func byteLen(s string) int64 { return int64(len(s)) }

func TestCache_GetPut(t *testing.T) {
	t.Parallel()

	c := cache.New[string, string](100, byteLen)

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Put("a", "alpha")

	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "alpha", got)

	c.Put("a", "alphabet")

	got, _ = c.Get("a")
	assert.Equal(t, "alphabet", got)

	stats := c.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, int64(8), stats.CurrentSize)
	assert.InDelta(t, 2.0/3.0, stats.HitRate(), 1e-9)
}

func TestCache_EvictsToFit(t *testing.T) {
	t.Parallel()

	c := cache.New[int, string](10, byteLen)

	for i := range 5 {
		c.Put(i, "xxxx")
	}

	stats := c.Stats()
	assert.LessOrEqual(t, stats.CurrentSize, int64(10))
	assert.Equal(t, 2, stats.Entries)

	_, ok := c.Get(4)
	assert.True(t, ok, "most recent entry survives")
}

func TestCache_PrefersEvictingColdEntries(t *testing.T) {
	t.Parallel()

	c := cache.New[string, string](12, byteLen)

	c.Put("hot", "aaaa")

	for range 3 {
		_, _ = c.Get("hot")
	}

	// "hot" is now the least recently used, but "cold" has never been read.
	c.Put("cold", "bbbb")
	c.Put("new", "cccccc")

	_, ok := c.Get("hot")
	assert.True(t, ok)

	_, ok = c.Get("cold")
	assert.False(t, ok)
}

func TestCache_GrowingUpdateEvictsOthers(t *testing.T) {
	t.Parallel()

	c := cache.New[string, string](10, byteLen)
	c.Put("a", "xxxx")
	c.Put("b", "xxxx")
	c.Put("a", "xxxxxxxx")

	stats := c.Stats()
	assert.LessOrEqual(t, stats.CurrentSize, int64(10))
	assert.Equal(t, 1, stats.Entries)

	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "xxxxxxxx", got)

	_, ok = c.Get("b")
	assert.False(t, ok)
}

func TestCache_ShrinkingUpdateKeepsOthers(t *testing.T) {
	t.Parallel()

	c := cache.New[string, string](10, byteLen)
	c.Put("a", "xxxxxx")
	c.Put("b", "xxxx")
	c.Put("a", "xx")

	stats := c.Stats()
	assert.Equal(t, int64(6), stats.CurrentSize)
	assert.Equal(t, 2, stats.Entries)
}

func TestCache_OversizedValueSkipped(t *testing.T) {
	t.Parallel()

	c := cache.New[string, string](4, byteLen)
	c.Put("big", "too large")

	_, ok := c.Get("big")
	assert.False(t, ok)
	assert.Zero(t, c.Stats().CurrentSize)
}

func TestCache_NilDisabled(t *testing.T) {
	t.Parallel()

	c := cache.New[string, string](0, byteLen)
	assert.Nil(t, c)

	c.Put("a", "b")

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, cache.Stats{}, c.Stats())
}

func TestCache_Concurrent(t *testing.T) {
	t.Parallel()

	c := cache.New[string, string](1<<10, byteLen)

	var wg sync.WaitGroup

	for g := range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range 100 {
				key := fmt.Sprintf("%d-%d", g, i%10)
				c.Put(key, key)
				_, _ = c.Get(key)
			}
		}()
	}

	wg.Wait()

	assert.LessOrEqual(t, c.Stats().CurrentSize, int64(1<<10))
}

func TestSum(t *testing.T) {
	t.Parallel()

	a := cache.Sum([]byte("package p\n"))
	b := cache.Sum([]byte("package q\n"))

	assert.Equal(t, a, cache.Sum([]byte("package p\n")))
	assert.NotEqual(t, a, b)
	assert.Equal(t, 10, a.Len)
}
