// ABOUTME: Thread-safe TTL cache keyed by incoming message ids
// ABOUTME: Keeps the bridge manager from relaying duplicate gateway deliveries

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

type entry struct {
	seen    time.Time
	element *list.Element
}

// Cache tracks recently seen message keys with a TTL and a size cap.
// Expired entries are dropped lazily; the oldest entry is evicted when
// the cap is reached.
type Cache struct {
	mu      sync.Mutex
	seen    map[string]*entry
	order   *list.List
	ttl     time.Duration
	maxSize int
}

// New creates a cache holding keys for ttl, capped at maxSize entries.
func New(ttl time.Duration, maxSize int) *Cache {
	return &Cache{
		seen:    make(map[string]*entry),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// CheckAndMark atomically reports whether key was already seen and marks
// it if not. A single call per incoming message avoids the race of a
// separate check-then-mark pair.
func (c *Cache) CheckAndMark(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if e, ok := c.seen[key]; ok && now.Sub(e.seen) < c.ttl {
		return true
	}
	c.mark(key, now)
	return false
}

func (c *Cache) mark(key string, now time.Time) {
	if e, ok := c.seen[key]; ok {
		e.seen = now
		c.order.MoveToBack(e.element)
		return
	}

	if len(c.seen) >= c.maxSize {
		if front := c.order.Front(); front != nil {
			oldest, _ := front.Value.(string)
			c.order.Remove(front)
			delete(c.seen, oldest)
		}
	}

	c.seen[key] = &entry{seen: now, element: c.order.PushBack(key)}
}
