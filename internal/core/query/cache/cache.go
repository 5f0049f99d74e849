// Package cache provides a size-bounded LRU cache. The client uses it to
// reuse compiled template statements.
package cache

import "sync"

// Stats represents cache statistics
type Stats struct {
	Hits      int64
	Misses    int64
	Size      int
	MaxSize   int
	Evictions int64
	HitRate   float64
}

// LRU is a least-recently-used cache safe for concurrent use.
type LRU[K comparable, V any] struct {
	mu      sync.Mutex
	data    map[K]*node[K, V]
	maxSize int
	head    *node[K, V]
	tail    *node[K, V]
	stats   Stats
}

type node[K comparable, V any] struct {
	key   K
	value V
	prev  *node[K, V]
	next  *node[K, V]
}

// NewLRU creates a cache holding at most maxSize entries. maxSize must be
// positive.
func NewLRU[K comparable, V any](maxSize int) *LRU[K, V] {
	if maxSize < 1 {
		maxSize = 1
	}
	return &LRU[K, V]{
		data:    make(map[K]*node[K, V], maxSize),
		maxSize: maxSize,
		stats:   Stats{MaxSize: maxSize},
	}
}

// Get returns the value for key and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.data[key]
	if !ok {
		c.stats.Misses++
		var zero V
		return zero, false
	}
	c.moveToFront(n)
	c.stats.Hits++
	return n.value, true
}

// Put stores value under key, evicting the least recently used entry when
// the cache is full.
func (c *LRU[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.data[key]; ok {
		n.value = value
		c.moveToFront(n)
		return
	}
	if len(c.data) >= c.maxSize {
		c.evict()
	}
	n := &node[K, V]{key: key, value: value}
	c.data[key] = n
	c.addToFront(n)
}

// Remove deletes key.
func (c *LRU[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n, ok := c.data[key]; ok {
		c.unlink(n)
		delete(c.data, key)
	}
}

// Clear removes all entries. Statistics are kept.
func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[K]*node[K, V], c.maxSize)
	c.head, c.tail = nil, nil
}

// Len returns the number of entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// Stats returns cache statistics
func (c *LRU[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Size = len(c.data)
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}

func (c *LRU[K, V]) addToFront(n *node[K, V]) {
	n.prev = nil
	n.next = c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
}

func (c *LRU[K, V]) moveToFront(n *node[K, V]) {
	if c.head == n {
		return
	}
	c.unlink(n)
	c.addToFront(n)
}

func (c *LRU[K, V]) unlink(n *node[K, V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.prev, n.next = nil, nil
}

func (c *LRU[K, V]) evict() {
	if c.tail == nil {
		return
	}
	victim := c.tail
	c.unlink(victim)
	delete(c.data, victim.key)
	c.stats.Evictions++
}
