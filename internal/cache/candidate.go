package cache

import (
	"sync"
	"time"

	"github.com/classtrack/faceattend/internal/fingerprint"
	"github.com/classtrack/faceattend/internal/store"
)

type candidateEntry struct {
	records   []store.RegistryRecord
	createdAt time.Time
}

// CandidateCache keeps registry records previously fetched for a fingerprint
// chunk, so near-duplicate fingerprints within a session skip the remote
// registry query. Candidate lists are larger-granularity entries than single
// identity verdicts, so the cache runs on its own size and time budget.
type CandidateCache struct {
	mu      sync.Mutex
	entries map[string]*candidateEntry

	maxSize int
	ttl     time.Duration

	lookups uint64
	hits    uint64

	stop     chan struct{}
	stopOnce sync.Once
}

// NewCandidateCache creates a candidate cache bounded to maxSize chunk keys.
func NewCandidateCache(maxSize int, ttl time.Duration) *CandidateCache {
	return &CandidateCache{
		entries: make(map[string]*candidateEntry),
		maxSize: maxSize,
		ttl:     ttl,
		stop:    make(chan struct{}),
	}
}

// Start launches the background TTL sweep at half the TTL.
func (c *CandidateCache) Start() {
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
func (c *CandidateCache) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Lookup returns the stored snapshot list of the first supplied chunk that
// was previously used as a storage key. It does not compute distances; the
// caller runs exact matching against the returned candidates.
func (c *CandidateCache) Lookup(chunks []string) ([]store.RegistryRecord, bool) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.lookups++

	for _, chunk := range chunks {
		e, ok := c.entries[chunk]
		if !ok {
			continue
		}
		if now.Sub(e.createdAt) > c.ttl {
			delete(c.entries, chunk)
			continue
		}
		c.hits++
		out := make([]store.RegistryRecord, len(e.records))
		copy(out, e.records)
		return out, true
	}

	return nil, false
}

// Store indexes each record under every matching-size sub-chunk of every
// precomputed chunk of every one of its samples, so a future live query
// matching any of those chunks retrieves it without a remote call. Storing
// under an existing key appends missing records and refreshes the entry's
// creation time.
func (c *CandidateCache) Store(records []store.RegistryRecord) {
	if len(records) == 0 {
		return
	}
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, rec := range records {
		for _, chunk := range storageKeys(rec) {
			e, ok := c.entries[chunk]
			if !ok {
				c.entries[chunk] = &candidateEntry{records: []store.RegistryRecord{rec}, createdAt: now}
				continue
			}
			if !containsRecord(e.records, rec) {
				e.records = append(e.records, rec)
			}
			e.createdAt = now
		}
	}

	for c.maxSize > 0 && len(c.entries) > c.maxSize {
		c.evictOldestLocked()
	}
}

// Reset clears all entries and counters. A no-op on an empty cache.
func (c *CandidateCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*candidateEntry)
	c.lookups = 0
	c.hits = 0
}

// Stats returns a snapshot of the cache counters.
func (c *CandidateCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{Size: len(c.entries), Lookups: c.lookups, Hits: c.hits}
	if s.Lookups > 0 {
		s.HitRate = float64(s.Hits) / float64(s.Lookups)
	}
	return s
}

func (c *CandidateCache) sweep(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for chunk, e := range c.entries {
		if now.Sub(e.createdAt) > c.ttl {
			delete(c.entries, chunk)
		}
	}
}

func (c *CandidateCache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for chunk, e := range c.entries {
		if first || e.createdAt.Before(oldestAt) {
			oldestKey = chunk
			oldestAt = e.createdAt
			first = false
		}
	}
	delete(c.entries, oldestKey)
}

// storageKeys derives the cache keys of a record: the precomputed enrollment
// chunks of each sample, re-split at live-matching width. Enrollment and
// matching chunks tile the same fingerprint at aligned offsets, so the
// sub-chunks line up exactly with the chunks a live query presents.
func storageKeys(rec store.RegistryRecord) []string {
	var keys []string
	for _, s := range rec.Samples {
		for _, chunk := range s.Chunks {
			keys = append(keys, fingerprint.Fingerprint(chunk).Chunks(
				fingerprint.MatchingChunkSize, fingerprint.MatchingMaxChunks)...)
		}
	}
	return keys
}

func containsRecord(records []store.RegistryRecord, rec store.RegistryRecord) bool {
	for _, r := range records {
		if r.ID == rec.ID {
			return true
		}
	}
	return false
}
