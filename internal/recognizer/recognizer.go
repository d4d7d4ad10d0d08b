// Package recognizer runs the live loop: poll the detector, match the
// embedding against the registry, and feed confirmed identities into the
// attendance tracker.
package recognizer

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/classtrack/faceattend/internal/attendance"
	"github.com/classtrack/faceattend/internal/detector"
	"github.com/classtrack/faceattend/internal/matcher"
)

// FaceSource yields the current frame's detection.
type FaceSource interface {
	Detect(ctx context.Context) (*detector.Detection, error)
}

// Identifier resolves an embedding to a match outcome.
type Identifier interface {
	Match(ctx context.Context, embedding []float32) (matcher.Outcome, error)
}

// Sink records a confirmed sighting.
type Sink interface {
	RecordSighting(ctx context.Context, identity, batchID string, at time.Time) (attendance.Transition, error)
}

// Recognizer polls the detector on a fixed tick and drives matching and
// attendance. The loop body runs serially; a tick that fires while the
// previous body is still working is simply the next iteration, and the
// matcher's own in-flight guard covers any external callers.
type Recognizer struct {
	source  FaceSource
	matcher Identifier
	sink    Sink
	batchID string
	tick    time.Duration
}

// New creates a recognizer loop.
func New(source FaceSource, m Identifier, sink Sink, batchID string, tick time.Duration) *Recognizer {
	return &Recognizer{
		source:  source,
		matcher: m,
		sink:    sink,
		batchID: batchID,
		tick:    tick,
	}
}

// Run blocks until the context is cancelled, processing one frame per tick.
func (r *Recognizer) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.step(ctx)
		}
	}
}

// step processes a single frame. Errors are logged, never fatal: a flaky
// detector or a registry hiccup must not kill the loop.
func (r *Recognizer) step(ctx context.Context) {
	det, err := r.source.Detect(ctx)
	if err != nil {
		log.Printf("detector: %v", err)
		return
	}
	if !det.Present {
		return
	}

	outcome, err := r.matcher.Match(ctx, det.Embedding)
	if err != nil {
		if errors.Is(err, matcher.ErrInFlight) {
			return
		}
		log.Printf("match: %v", err)
		return
	}
	if !outcome.Matched {
		return
	}

	transition, err := r.sink.RecordSighting(ctx, outcome.Label, r.batchID, time.Now())
	if err != nil {
		log.Printf("attendance: %v", err)
		return
	}
	if transition == attendance.TransitionCheckedIn || transition == attendance.TransitionCheckedOut {
		log.Printf("%s: %s (distance %.3f, %s)", outcome.Label, transition, outcome.Distance, outcome.Source)
	}
}
