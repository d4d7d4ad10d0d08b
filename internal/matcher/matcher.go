// Package matcher orchestrates the three-tier identity lookup evaluated on
// every detection cycle: identity cache, candidate cache, then a single
// remote registry query, followed by exact distance matching against the
// candidate set.
package matcher

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/classtrack/faceattend/internal/cache"
	"github.com/classtrack/faceattend/internal/fingerprint"
	"github.com/classtrack/faceattend/internal/store"
)

// ErrInFlight is returned when a match attempt is already running. The
// caller drops the tick; the next scheduled tick re-attempts naturally.
var ErrInFlight = errors.New("match attempt already in flight")

// Source identifies the lookup tier that resolved a match attempt.
type Source string

const (
	SourceIdentityCache  Source = "identity-cache"
	SourceCandidateCache Source = "candidate-cache"
	SourceRegistry       Source = "registry"
)

// Outcome is the result of one completed match attempt. Distance is the best
// exact distance observed; it is zero when no candidate produced a finite
// distance.
type Outcome struct {
	Matched  bool    `json:"matched"`
	Label    string  `json:"label,omitempty"`
	Distance float64 `json:"distance"`
	Source   Source  `json:"source"`
}

// Matcher runs match attempts against the registry through the two session
// caches. At most one attempt is in flight at a time process-wide.
type Matcher struct {
	registry   store.RegistryReader
	identities *cache.IdentityCache
	candidates *cache.CandidateCache

	threshold float64
	batchID   string
	limit     int

	inFlight atomic.Bool
}

// New creates a matcher. Threshold is the strict upper bound on the match
// distance; batchID optionally scopes registry queries; limit caps remote
// result sizes.
func New(registry store.RegistryReader, identities *cache.IdentityCache, candidates *cache.CandidateCache, threshold float64, batchID string, limit int) *Matcher {
	return &Matcher{
		registry:   registry,
		identities: identities,
		candidates: candidates,
		threshold:  threshold,
		batchID:    batchID,
		limit:      limit,
	}
}

// Match evaluates one detection cycle:
//
//  1. Hash the embedding and derive live-matching chunks.
//  2. Identity cache: a confirmed verdict (match or unknown) short-circuits.
//  3. Candidate cache: a non-empty snapshot list skips the remote call.
//  4. Otherwise one registry query, disjunctively filtered by the chunks and
//     scoped to the batch; results populate the candidate cache.
//  5. Exact best-pair matching across all candidates and samples.
//  6. The verdict is written back to the identity cache either way.
//
// A failed registry query is returned as an error and populates nothing.
func (m *Matcher) Match(ctx context.Context, embedding []float32) (Outcome, error) {
	if !m.inFlight.CompareAndSwap(false, true) {
		return Outcome{}, ErrInFlight
	}
	defer m.inFlight.Store(false)

	fp := fingerprint.Hash(embedding)
	chunks := fp.MatchingChunks()

	if res, ok := m.identities.Lookup(fp, embedding); ok {
		return Outcome{
			Matched:  res.Matched,
			Label:    res.Label,
			Distance: res.Distance,
			Source:   SourceIdentityCache,
		}, nil
	}

	source := SourceCandidateCache
	records, ok := m.candidates.Lookup(chunks)
	if !ok || len(records) == 0 {
		var err error
		records, err = m.registry.FindByChunks(ctx, chunks, m.batchID, m.limit)
		if err != nil {
			return Outcome{}, fmt.Errorf("registry query: %w", err)
		}
		m.candidates.Store(records)
		source = SourceRegistry
	}

	label, reference, best := bestMatch(embedding, records)
	matched := best < m.threshold

	entry := cache.IdentityEntry{Fingerprint: fp, Matched: matched}
	out := Outcome{Source: source}
	if !math.IsInf(best, 1) {
		out.Distance = best
	}
	if matched {
		entry.Label = label
		entry.Reference = reference
		entry.Distance = best
		out.Matched = true
		out.Label = label
	}
	m.identities.Insert(entry)

	return out, nil
}

// bestMatch returns the single lowest-distance (record, sample) pair across
// all candidates. Best is +Inf when the candidate set is empty.
func bestMatch(embedding []float32, records []store.RegistryRecord) (label string, reference []float32, best float64) {
	best = math.Inf(1)
	for _, rec := range records {
		for _, sample := range rec.Samples {
			if d := fingerprint.EuclideanDistance(embedding, sample.Embedding); d < best {
				best = d
				label = rec.Label
				reference = sample.Embedding
			}
		}
	}
	return label, reference, best
}
