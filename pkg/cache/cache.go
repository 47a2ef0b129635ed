// Package cache provides a size-bounded LRU cache with cost-aware eviction,
// used to reuse diff results for repeated requests.
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// evictionSampleSize is the number of entries sampled from the LRU tail when
// choosing a victim.
const evictionSampleSize = 5

// bytesPerKB normalizes entry sizes for the eviction cost.
const bytesPerKB = 1024.0

// Digest identifies a document by content.
type Digest struct {
	Sum uint64
	Len int
}

// Sum digests data.
func Sum(data []byte) Digest {
	return Digest{Sum: xxhash.Sum64(data), Len: len(data)}
}

type entry[K comparable, V any] struct {
	key         K
	value       V
	size        int64
	accessCount int64
}

// cost is higher for entries that are cheap to keep: small and often read.
func (e *entry[K, V]) cost() float64 {
	sizeKB := max(float64(e.size)/bytesPerKB, 1)

	return float64(e.accessCount) / sizeKB
}

// Cache is a thread-safe LRU cache bounded by the total size of its values.
// Values are shared between callers and must not be modified.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	order   *list.List // front is most recently used
	entries map[K]*list.Element
	sizeOf  func(V) int64
	maxSize int64
	curSize int64

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a cache holding at most maxSize bytes as measured by sizeOf.
// It returns nil when maxSize is not positive; a nil cache never hits.
func New[K comparable, V any](maxSize int64, sizeOf func(V) int64) *Cache[K, V] {
	if maxSize <= 0 {
		return nil
	}

	return &Cache[K, V]{
		order:   list.New(),
		entries: make(map[K]*list.Element),
		sizeOf:  sizeOf,
		maxSize: maxSize,
	}
}

// Get returns the value stored for key.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	var zero V

	if c == nil {
		return zero, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)

		return zero, false
	}

	c.hits.Add(1)

	ent := elem.Value.(*entry[K, V]) //nolint:errcheck,forcetypeassert // list only holds entries
	ent.accessCount++
	c.order.MoveToFront(elem)

	return ent.value, true
}

// Put stores value under key. Values larger than the whole cache are skipped.
func (c *Cache[K, V]) Put(key K, value V) {
	if c == nil {
		return
	}

	size := c.sizeOf(value)
	if size > c.maxSize {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		ent := elem.Value.(*entry[K, V]) //nolint:errcheck,forcetypeassert // list only holds entries
		c.curSize += size - ent.size
		ent.value = value
		ent.size = size
		ent.accessCount++
		c.order.MoveToFront(elem)

		for c.curSize > c.maxSize && c.order.Len() > 1 {
			c.evict(elem)
		}

		return
	}

	for c.curSize+size > c.maxSize && c.order.Len() > 0 {
		c.evict(nil)
	}

	c.entries[key] = c.order.PushFront(&entry[K, V]{key: key, value: value, size: size, accessCount: 1})
	c.curSize += size
}

// evict removes the lowest-cost entry among the least recently used few,
// never choosing keep. The list must hold an entry other than keep.
func (c *Cache[K, V]) evict(keep *list.Element) {
	var (
		victim *list.Element
		lowest float64
	)

	elem := c.order.Back()
	for sampled := 0; elem != nil && sampled < evictionSampleSize; elem = elem.Prev() {
		if elem == keep {
			continue
		}

		sampled++

		if cost := elem.Value.(*entry[K, V]).cost(); victim == nil || cost < lowest { //nolint:errcheck,forcetypeassert // list only holds entries
			lowest = cost
			victim = elem
		}
	}

	ent := c.order.Remove(victim).(*entry[K, V]) //nolint:errcheck,forcetypeassert // list only holds entries
	delete(c.entries, ent.key)
	c.curSize -= ent.size
}

// Stats holds cache counters.
type Stats struct {
	Hits        int64
	Misses      int64
	Entries     int
	CurrentSize int64
	MaxSize     int64
}

// HitRate returns the fraction of lookups that hit.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}

	return float64(s.Hits) / float64(total)
}

// Stats returns the current counters. A nil cache reports zeros.
func (c *Cache[K, V]) Stats() Stats {
	if c == nil {
		return Stats{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Entries:     len(c.entries),
		CurrentSize: c.curSize,
		MaxSize:     c.maxSize,
	}
}
