// Package cache implements the time-bounded report cache with per-key
// request coalescing that sits between the service and the upstream client.
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"weather-proxy/internal/weather"
)

// flight is the in-flight fetch record for one key episode. The leader
// closes done after recording the outcome; waiters only read after that.
type flight struct {
	done    chan struct{}
	report  weather.Report
	err     error
	waiters int
}

// entry is a cached report plus its insertion time.
type entry struct {
	key      string
	report   weather.Report
	storedAt time.Time
}

// Cache is a TTL + LRU cache with at-most-one-fetch-in-flight-per-key
// semantics. Concurrent callers for a key during a miss coalesce onto a
// single upstream fetch: the first becomes the leader, the rest wait for
// the leader's outcome, and excess waiters beyond the configured limit are
// rejected immediately.
//
// The mutex guards only the map and list bookkeeping; it is never held
// across the fetch itself, so callers for different keys never block each
// other on network I/O.
type Cache struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	maxWaiters int

	entries  map[string]*list.Element // values are *entry
	order    *list.List               // front = most recently used
	inflight map[string]*flight
}

// New creates a Cache. maxEntries <= 0 means unbounded; maxWaiters <= 0
// disables the admission valve.
func New(ttl time.Duration, maxEntries, maxWaiters int) *Cache {
	return &Cache{
		ttl:        ttl,
		maxEntries: maxEntries,
		maxWaiters: maxWaiters,
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		inflight:   make(map[string]*flight),
	}
}

// GetOrFetch returns the cached report for key if it is still fresh,
// refreshing its recency. On a miss it either becomes the leader and
// invokes fetch, or attaches to the in-flight fetch already running for the
// key. All callers of one episode observe the identical outcome. A failed
// fetch leaves no cache entry, so the next request starts a new episode.
func (c *Cache) GetOrFetch(ctx context.Context, key string, fetch weather.FetchFunc) (weather.Report, error) {
	c.mu.Lock()

	if el, ok := c.entries[key]; ok {
		e := el.Value.(*entry)
		if time.Since(e.storedAt) < c.ttl {
			c.order.MoveToFront(el)
			report := e.report
			c.mu.Unlock()
			return report, nil
		}
		// Expired: drop it and fall through to the miss path.
		c.removeLocked(el)
	}

	if f, ok := c.inflight[key]; ok {
		if c.maxWaiters > 0 && f.waiters >= c.maxWaiters {
			c.mu.Unlock()
			return weather.Report{}, weather.ErrTooManyWaiters
		}
		f.waiters++
		c.mu.Unlock()
		return c.wait(ctx, key, f)
	}

	// No fresh entry and no fetch in flight: become the leader.
	f := &flight{done: make(chan struct{})}
	c.inflight[key] = f
	c.mu.Unlock()

	report, err := fetch(ctx)

	c.mu.Lock()
	f.report = report
	f.err = err
	delete(c.inflight, key)
	if err == nil {
		c.insertLocked(key, report)
	}
	c.mu.Unlock()
	close(f.done)

	return report, err
}

// wait blocks until the leader finishes or the waiter's context is
// cancelled. Abandoning the wait does not disturb the leader's fetch or
// the other waiters.
func (c *Cache) wait(ctx context.Context, key string, f *flight) (weather.Report, error) {
	select {
	case <-f.done:
		c.mu.Lock()
		f.waiters--
		c.mu.Unlock()
		return f.report, f.err
	case <-ctx.Done():
		c.mu.Lock()
		f.waiters--
		c.mu.Unlock()
		return weather.Report{}, ctx.Err()
	}
}

// insertLocked stores a fresh entry, evicting the least-recently-accessed
// one if the table is full. Caller holds c.mu.
func (c *Cache) insertLocked(key string, report weather.Report) {
	if el, ok := c.entries[key]; ok {
		e := el.Value.(*entry)
		e.report = report
		e.storedAt = time.Now()
		c.order.MoveToFront(el)
		return
	}

	if c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		if back := c.order.Back(); back != nil {
			c.removeLocked(back)
		}
	}

	el := c.order.PushFront(&entry{
		key:      key,
		report:   report,
		storedAt: time.Now(),
	})
	c.entries[key] = el
}

// removeLocked drops an entry from the map and the recency list. Caller
// holds c.mu.
func (c *Cache) removeLocked(el *list.Element) {
	e := el.Value.(*entry)
	c.order.Remove(el)
	delete(c.entries, e.key)
}

// Sweep removes entries whose TTL has elapsed and returns how many were
// dropped. Expired entries already read as misses; this only reclaims
// memory between reads.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var removed int
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if time.Since(el.Value.(*entry).storedAt) >= c.ttl {
			c.removeLocked(el)
			removed++
		}
		el = prev
	}
	return removed
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
