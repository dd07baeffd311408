package cache

import (
	"sync"
	"time"

	"commentlens/internal/core"
	"commentlens/internal/logger"
)

const (
	// DefaultMaxEntries caps the in-memory tier.
	DefaultMaxEntries = 100
	// DefaultTTL bounds the freshness of both tiers.
	DefaultTTL = time.Hour
)

// PersistentTier is the fallback lookup consulted on a memory miss. The
// SQLite store satisfies it.
type PersistentTier interface {
	FindLatestResult(postID string) (*core.AnalysisResult, error)
}

type entry struct {
	result   core.AnalysisResult
	storedAt time.Time
}

// ResultCache is a two-tier cache for analysis results keyed by post ID. The
// hot tier is an in-memory map with capacity-based oldest-first eviction; the
// cold tier is the persistent store, checked against the same TTL using the
// record's own analysis timestamp.
type ResultCache struct {
	mu         sync.Mutex
	entries    map[string]entry
	order      []string // insertion order, oldest first
	maxEntries int
	ttl        time.Duration
	persistent PersistentTier

	hits   int64
	misses int64

	now func() time.Time // test seam
}

// NewResultCache creates a cache; zero values select the defaults. persistent
// may be nil, in which case only the memory tier is consulted.
func NewResultCache(maxEntries int, ttl time.Duration, persistent PersistentTier) *ResultCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ResultCache{
		entries:    make(map[string]entry),
		maxEntries: maxEntries,
		ttl:        ttl,
		persistent: persistent,
		now:        time.Now,
	}
}

// Get returns a fresh cached result for the post, or nil on miss. A memory
// hit past its TTL is treated as a miss and dropped. On a memory miss the
// persistent tier is consulted; a fresh persisted result is promoted into
// memory.
func (c *ResultCache) Get(postID string) *core.AnalysisResult {
	c.mu.Lock()

	if e, ok := c.entries[postID]; ok {
		if c.now().Sub(e.storedAt) <= c.ttl {
			c.hits++
			result := e.result
			c.mu.Unlock()
			return &result
		}
		c.removeLocked(postID)
	}
	c.misses++
	c.mu.Unlock()

	if c.persistent == nil {
		return nil
	}

	result, err := c.persistent.FindLatestResult(postID)
	if err != nil {
		logger.Warn("persistent cache lookup failed", "post_id", postID, "error", err.Error())
		return nil
	}
	if result == nil || c.now().Sub(result.AnalyzedAt) > c.ttl {
		return nil
	}

	c.Put(*result)
	return result
}

// Put stores a result in the memory tier, evicting the oldest entry when the
// capacity is reached. Persisting to the cold tier is the pipeline's job.
func (c *ResultCache) Put(result core.AnalysisResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[result.PostID]; ok {
		c.removeLocked(result.PostID)
	}

	for len(c.entries) >= c.maxEntries && len(c.order) > 0 {
		c.removeLocked(c.order[0])
	}

	c.entries[result.PostID] = entry{result: result, storedAt: c.now()}
	c.order = append(c.order, result.PostID)
}

// Invalidate drops any memory entry for the post.
func (c *ResultCache) Invalidate(postID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(postID)
}

// Clear drops every memory entry. Persisted results are unaffected.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
	c.order = nil
}

// PurgeExpired removes every memory entry past its TTL and returns how many
// were dropped.
func (c *ResultCache) PurgeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	purged := 0
	for postID, e := range c.entries {
		if c.now().Sub(e.storedAt) > c.ttl {
			c.removeLocked(postID)
			purged++
		}
	}
	return purged
}

func (c *ResultCache) removeLocked(postID string) {
	if _, ok := c.entries[postID]; !ok {
		return
	}
	delete(c.entries, postID)
	for i, id := range c.order {
		if id == postID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Stats describes the memory tier and overall lookup effectiveness.
type Stats struct {
	ValidEntries   int     `json:"valid_entries"`
	ExpiredEntries int     `json:"expired_entries"`
	Hits           int64   `json:"hits"`
	Misses         int64   `json:"misses"`
	HitRate        float64 `json:"hit_rate"`
}

// Stats snapshots the cache counters. Expired entries still resident in
// memory are counted separately from valid ones.
func (c *ResultCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := Stats{Hits: c.hits, Misses: c.misses}
	for _, e := range c.entries {
		if c.now().Sub(e.storedAt) > c.ttl {
			stats.ExpiredEntries++
		} else {
			stats.ValidEntries++
		}
	}
	if total := c.hits + c.misses; total > 0 {
		stats.HitRate = float64(c.hits) / float64(total)
	}
	return stats
}
