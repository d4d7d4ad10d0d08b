// Package cache holds the two ephemeral in-memory caches of the recognition
// session: the identity cache (last confirmed verdict per fingerprint) and
// the candidate cache (registry records fetched for a fingerprint chunk).
// Both are bounded, expire entries on a hard TTL, and are scoped to a single
// live session - nothing here survives a restart.
package cache

import (
	"sync"
	"time"

	"github.com/classtrack/faceattend/internal/fingerprint"
)

// Stats is a point-in-time snapshot of a cache's counters.
type Stats struct {
	Size    int     `json:"size"`
	Lookups uint64  `json:"lookups"`
	Hits    uint64  `json:"hits"`
	HitRate float64 `json:"hit_rate"`
}

// IdentityEntry records the verdict of one completed match attempt, keyed by
// the fingerprint observed at that time. Matched entries carry the winning
// sample embedding so later sightings can be re-verified for drift without
// another registry round trip.
type IdentityEntry struct {
	Fingerprint fingerprint.Fingerprint
	Matched     bool
	Label       string
	Reference   []float32
	Distance    float64
	CreatedAt   time.Time
}

// IdentityResult is the verdict returned by a cache hit.
type IdentityResult struct {
	Matched  bool
	Label    string
	Distance float64
}

// IdentityCache maps fingerprints to recent match verdicts. A lookup is a
// linear scan: entry counts are small (bounded by maxSize) and hits are
// decided by chunk-substring collision, not exact key equality.
type IdentityCache struct {
	mu      sync.Mutex
	entries []IdentityEntry

	maxSize   int
	ttl       time.Duration
	threshold float64

	lookups uint64
	hits    uint64

	stop     chan struct{}
	stopOnce sync.Once
}

// NewIdentityCache creates an identity cache. Threshold is the match distance
// used to re-verify cached identities against a live embedding.
func NewIdentityCache(maxSize int, ttl time.Duration, threshold float64) *IdentityCache {
	return &IdentityCache{
		maxSize:   maxSize,
		ttl:       ttl,
		threshold: threshold,
		stop:      make(chan struct{}),
	}
}

// Start launches the background TTL sweep. The sweep interval is half the
// TTL so entries never outlive their expiry by more than TTL/2.
func (c *IdentityCache) Start() {
	go func() {
		ticker := time.NewTicker(c.ttl / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.sweep(time.Now())
			case <-c.stop:
				return
			}
		}
	}()
}

// Stop terminates the background sweep. Safe to call more than once.
func (c *IdentityCache) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Lookup scans for an entry whose stored fingerprint contains any live
// matching chunk of the query fingerprint. The second return value is false
// on a cache miss, which is distinct from a hit with a negative verdict.
//
// When the hit entry recorded a match and both a reference and a current
// embedding are available, the exact distance is recomputed: a cached
// identity is not trusted once the live face has drifted past the threshold,
// even though the coarse fingerprints still collide.
func (c *IdentityCache) Lookup(fp fingerprint.Fingerprint, current []float32) (IdentityResult, bool) {
	chunks := fp.MatchingChunks()
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.lookups++

	// Newest entries first: they reflect the most recent verdicts.
	for i := len(c.entries) - 1; i >= 0; i-- {
		e := &c.entries[i]
		if now.Sub(e.CreatedAt) > c.ttl {
			continue // expired, sweep will collect it
		}
		if !e.Fingerprint.Contains(chunks) {
			continue
		}

		c.hits++

		if e.Matched && len(e.Reference) > 0 && len(current) > 0 {
			dist := fingerprint.EuclideanDistance(current, e.Reference)
			if dist <= c.threshold {
				return IdentityResult{Matched: true, Label: e.Label, Distance: dist}, true
			}
			return IdentityResult{Matched: false, Distance: dist}, true
		}

		return IdentityResult{Matched: e.Matched, Label: e.Label, Distance: e.Distance}, true
	}

	return IdentityResult{}, false
}

// Insert adds an entry, evicting the oldest-created entries once the size
// bound is exceeded.
func (c *IdentityCache) Insert(entry IdentityEntry) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = append(c.entries, entry)
	for c.maxSize > 0 && len(c.entries) > c.maxSize {
		c.evictOldestLocked()
	}
}

// Reset clears all entries and counters. A no-op on an empty cache.
func (c *IdentityCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	c.lookups = 0
	c.hits = 0
}

// Stats returns a snapshot of the cache counters.
func (c *IdentityCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{Size: len(c.entries), Lookups: c.lookups, Hits: c.hits}
	if s.Lookups > 0 {
		s.HitRate = float64(s.Hits) / float64(s.Lookups)
	}
	return s
}

func (c *IdentityCache) sweep(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.entries[:0]
	for _, e := range c.entries {
		if now.Sub(e.CreatedAt) <= c.ttl {
			kept = append(kept, e)
		}
	}
	c.entries = kept
}

func (c *IdentityCache) evictOldestLocked() {
	oldest := 0
	for i := 1; i < len(c.entries); i++ {
		if c.entries[i].CreatedAt.Before(c.entries[oldest].CreatedAt) {
			oldest = i
		}
	}
	c.entries = append(c.entries[:oldest], c.entries[oldest+1:]...)
}
