package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// ResultCache is a TTL+LRU cache of query responses keyed by the hash of the
// normalized query text. All mutating operations are serialized by one mutex
// so the recency order and size invariants hold under concurrent access.
type ResultCache struct {
	ttl     time.Duration
	maxSize int

	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front = most recently used

	stats         statCounters
	responseTimes []float64
}

// Entry represents a cache entry with metadata
type Entry struct {
	Key       string
	Payload   interface{}
	CreatedAt time.Time
	ExpiresAt time.Time
	Query     string // original query text, kept for pattern invalidation
}

type statCounters struct {
	totalQueries int64
	hits         int64
	misses       int64
	evictions    int64
}

// Stats represents a snapshot of cache statistics
type Stats struct {
	TotalQueries    int64   `json:"total_queries"`
	Hits            int64   `json:"cache_hits"`
	Misses          int64   `json:"cache_misses"`
	HitRate         float64 `json:"hit_rate"`
	Evictions       int64   `json:"evictions"`
	CurrentSize     int     `json:"current_size"`
	MaxSize         int     `json:"max_size"`
	TTLSeconds      int     `json:"ttl_seconds"`
	AvgResponseTime float64 `json:"avg_response_time"`
}

const responseTimeWindow = 100

// New creates a result cache with the given entry TTL and maximum size.
func New(ttl time.Duration, maxSize int) *ResultCache {
	return &ResultCache{
		ttl:     ttl,
		maxSize: maxSize,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

// generateKey hashes the normalized query text. Queries differing only in
// case or surrounding whitespace map to the same entry.
func generateKey(query string) string {
	normalized := strings.TrimSpace(strings.ToLower(query))
	sum := sha256.Sum256([]byte(normalized))

	return hex.EncodeToString(sum[:])
}

// Get retrieves the cached payload for a query. An entry past its expiry is
// removed and counted as a miss. A genuine hit refreshes recency order.
func (c *ResultCache) Get(query string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.totalQueries++
	key := generateKey(query)

	elem, ok := c.entries[key]
	if !ok {
		c.stats.misses++
		return nil, false
	}

	entry := elem.Value.(*Entry)
	if time.Now().After(entry.ExpiresAt) {
		c.removeElement(elem)
		c.stats.misses++

		return nil, false
	}

	c.order.MoveToFront(elem)
	c.stats.hits++

	return entry.Payload, true
}

// Set upserts the payload for a query. Inserting a brand-new key beyond
// maxSize evicts the least recently used entry first. Updates refresh the
// entry's recency and expiry without changing the cache size.
func (c *ResultCache) Set(query string, payload interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := generateKey(query)
	now := time.Now()

	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*Entry)
		entry.Payload = payload
		entry.CreatedAt = now
		entry.ExpiresAt = now.Add(c.ttl)
		entry.Query = query
		c.order.MoveToFront(elem)

		return
	}

	if c.order.Len() >= c.maxSize {
		if oldest := c.order.Back(); oldest != nil {
			c.removeElement(oldest)
			c.stats.evictions++
		}
	}

	entry := &Entry{
		Key:       key,
		Payload:   payload,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
		Query:     query,
	}
	c.entries[key] = c.order.PushFront(entry)
}

// Invalidate removes the entry for an exact query. Returns true if an entry
// was found and removed.
func (c *ResultCache) Invalidate(query string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[generateKey(query)]
	if !ok {
		return false
	}

	c.removeElement(elem)

	return true
}

// InvalidatePattern removes every entry whose original query text contains
// the substring, case-insensitively. Returns the number removed.
func (c *ResultCache) InvalidatePattern(pattern string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	patternLower := strings.ToLower(pattern)

	var toRemove []*list.Element

	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		entry := elem.Value.(*Entry)
		if strings.Contains(strings.ToLower(entry.Query), patternLower) {
			toRemove = append(toRemove, elem)
		}
	}

	for _, elem := range toRemove {
		c.removeElement(elem)
	}

	return len(toRemove)
}

// CleanupExpired sweeps all entries past their expiry, independent of access.
// Returns the number removed.
func (c *ResultCache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()

	var toRemove []*list.Element

	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		if now.After(elem.Value.(*Entry).ExpiresAt) {
			toRemove = append(toRemove, elem)
		}
	}

	for _, elem := range toRemove {
		c.removeElement(elem)
	}

	return len(toRemove)
}

// Clear removes all entries
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

// RecordResponseTime records a response-time sample for the rolling average.
// Only the most recent 100 samples contribute.
func (c *ResultCache) RecordResponseTime(ms float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.responseTimes = append(c.responseTimes, ms)
	if len(c.responseTimes) > responseTimeWindow {
		c.responseTimes = c.responseTimes[len(c.responseTimes)-responseTimeWindow:]
	}
}

// Statistics returns a snapshot of cache statistics
func (c *ResultCache) Statistics() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := Stats{
		TotalQueries: c.stats.totalQueries,
		Hits:         c.stats.hits,
		Misses:       c.stats.misses,
		Evictions:    c.stats.evictions,
		CurrentSize:  c.order.Len(),
		MaxSize:      c.maxSize,
		TTLSeconds:   int(c.ttl.Seconds()),
	}

	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total) * 100
	}

	if len(c.responseTimes) > 0 {
		var sum float64
		for _, t := range c.responseTimes {
			sum += t
		}

		stats.AvgResponseTime = sum / float64(len(c.responseTimes))
	}

	return stats
}

// RecentQueries returns the original query text of up to limit entries,
// most recently used first.
func (c *ResultCache) RecentQueries(limit int) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var queries []string

	for elem := c.order.Front(); elem != nil && len(queries) < limit; elem = elem.Next() {
		queries = append(queries, elem.Value.(*Entry).Query)
	}

	return queries
}

// removeElement must be called with the mutex held.
func (c *ResultCache) removeElement(elem *list.Element) {
	entry := elem.Value.(*Entry)
	delete(c.entries, entry.Key)
	c.order.Remove(elem)
}
