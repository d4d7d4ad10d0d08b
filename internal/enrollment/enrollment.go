// Package enrollment collects embedding samples for a new identity and
// persists them to the registry once enough distinct samples are gathered.
// Enrollment runs as an alternate mode, never concurrently with live
// matching.
package enrollment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/classtrack/faceattend/internal/fingerprint"
	"github.com/classtrack/faceattend/internal/store"
)

var (
	// ErrDuplicateSample means the sample is close enough to an already
	// enrolled identity to be the same face.
	ErrDuplicateSample = errors.New("face appears to be enrolled already")
	// ErrSamplesComplete means the sample set already holds the full count.
	ErrSamplesComplete = errors.New("sample set is already complete")
	// ErrNotEnoughSamples rejects a commit before all samples are captured.
	ErrNotEnoughSamples = errors.New("not enough samples to enroll")
	// ErrEmptyLabel rejects a commit without a usable label.
	ErrEmptyLabel = errors.New("identity label must not be empty")
	// ErrLabelTaken rejects a commit under an already enrolled label.
	ErrLabelTaken = errors.New("identity label is already enrolled")
)

// Enroller accumulates samples for a single in-progress enrollment.
type Enroller struct {
	registry  store.Registry
	threshold float64
	batchID   string
	limit     int

	mu      sync.Mutex
	samples []store.Sample
}

// New creates an enroller. Threshold is the exact-distance bound used to
// confirm duplicate rejections; batchID scopes the new identity.
func New(registry store.Registry, threshold float64, batchID string, limit int) *Enroller {
	return &Enroller{
		registry:  registry,
		threshold: threshold,
		batchID:   batchID,
		limit:     limit,
	}
}

// AddSample validates one captured embedding and appends it to the
// in-progress set. The registry is pre-filtered by the precision-favoring
// enrollment chunking; a chunk collision alone is not proof of a duplicate,
// so the rejection is confirmed with an exact distance check before the
// sample is refused.
func (e *Enroller) AddSample(ctx context.Context, embedding []float32) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.samples) >= store.SamplesPerIdentity {
		return ErrSamplesComplete
	}

	fp := fingerprint.Hash(embedding)
	chunks := fp.EnrollmentChunks()

	candidates, err := e.registry.FindByChunks(ctx, chunks, e.batchID, e.limit)
	if err != nil {
		return fmt.Errorf("registry query: %w", err)
	}
	for _, rec := range candidates {
		for _, s := range rec.Samples {
			if fingerprint.EuclideanDistance(embedding, s.Embedding) < e.threshold {
				return fmt.Errorf("%w: matches %q", ErrDuplicateSample, rec.Label)
			}
		}
	}

	e.samples = append(e.samples, store.Sample{
		Index:     len(e.samples),
		Embedding: embedding,
		Chunks:    chunks,
	})
	return nil
}

// Commit persists the accumulated samples under the given label. Requires
// the full sample count and a label not already enrolled (checked by exact
// normalized-label lookup, not by fingerprint). A failed write leaves the
// in-progress samples intact so the operator can retry without recapturing.
func (e *Enroller) Commit(ctx context.Context, label string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	normalized := NormalizeLabel(label)
	if normalized == "" {
		return ErrEmptyLabel
	}
	if len(e.samples) != store.SamplesPerIdentity {
		return fmt.Errorf("%w: have %d of %d", ErrNotEnoughSamples, len(e.samples), store.SamplesPerIdentity)
	}

	existing, err := e.registry.GetByLabel(ctx, normalized)
	if err != nil {
		return fmt.Errorf("label lookup: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("%w: %q", ErrLabelTaken, normalized)
	}

	record := store.RegistryRecord{
		ID:        uuid.New(),
		Label:     normalized,
		BatchID:   e.batchID,
		Samples:   e.samples,
		CreatedAt: time.Now(),
	}
	if err := e.registry.Create(ctx, record); err != nil {
		return fmt.Errorf("registry write: %w", err)
	}

	e.samples = nil
	return nil
}

// Count returns the number of samples captured so far.
func (e *Enroller) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.samples)
}

// Reset discards the in-progress samples.
func (e *Enroller) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.samples = nil
}
