// Package attendance turns confirmed identity sightings into daily
// attendance transitions. Each (identity, batch, day) moves through at most
// two writable states - no record, then checked in - and closes with a
// check-out; repeated sightings are idempotent no-ops.
package attendance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/classtrack/faceattend/internal/store"
)

// Transition describes what a sighting did to the daily record.
type Transition string

const (
	// TransitionCheckedIn opened a new record for the day.
	TransitionCheckedIn Transition = "checked-in"
	// TransitionCheckedOut closed the record (possibly in the same write
	// that created it, for a first sighting past the cutoff).
	TransitionCheckedOut Transition = "checked-out"
	// TransitionNone means the record already satisfied the sighting.
	TransitionNone Transition = "no-change"
	// TransitionSkipped means another sighting of the same identity holds
	// the write guard; nothing was read or written.
	TransitionSkipped Transition = "skipped"
)

// Tracker is the attendance state machine. A per-identity guard set
// serializes the read-decide-write sequence, so overlapping sightings of one
// identity can never both issue writes.
type Tracker struct {
	ledger store.AttendanceLedger

	cutoffHour   int
	cutoffMinute int

	mu         sync.Mutex
	inProgress map[string]struct{}
}

// New creates a tracker. Sightings at or after the cutoff wall-clock time
// close the day's record instead of opening it.
func New(ledger store.AttendanceLedger, cutoffHour, cutoffMinute int) *Tracker {
	return &Tracker{
		ledger:       ledger,
		cutoffHour:   cutoffHour,
		cutoffMinute: cutoffMinute,
		inProgress:   make(map[string]struct{}),
	}
}

// RecordSighting applies one confirmed sighting at time at:
//
//   - no record yet: create it with check-in=at; when at is past the cutoff,
//     check-out is set to at in the same write (a single late sighting still
//     counts as present but immediately closes the day)
//   - open record, past cutoff: set check-out=at
//   - anything else: no write
//
// A failed ledger call is returned to the caller with the record left in its
// pre-attempt state; the guard is released on every exit path.
func (t *Tracker) RecordSighting(ctx context.Context, identity, batchID string, at time.Time) (Transition, error) {
	if !t.acquire(identity) {
		return TransitionSkipped, nil
	}
	defer t.release(identity)

	day := store.DayKey(at)
	rec, err := t.ledger.Get(ctx, identity, batchID, day)
	if err != nil {
		return TransitionNone, fmt.Errorf("ledger read: %w", err)
	}

	pastCutoff := t.pastCutoff(at)

	switch {
	case rec == nil:
		newRec := store.AttendanceRecord{
			ID:       uuid.NewString(),
			Identity: identity,
			BatchID:  batchID,
			Day:      day,
			Status:   store.StatusPresent,
			CheckIn:  at,
		}
		if pastCutoff {
			out := at
			newRec.CheckOut = &out
		}
		if err := t.ledger.Create(ctx, newRec); err != nil {
			return TransitionNone, fmt.Errorf("ledger create: %w", err)
		}
		if pastCutoff {
			return TransitionCheckedOut, nil
		}
		return TransitionCheckedIn, nil

	case rec.CheckedOut():
		// Terminal for the day.
		return TransitionNone, nil

	case pastCutoff:
		if err := t.ledger.SetCheckOut(ctx, rec.ID, at); err != nil {
			return TransitionNone, fmt.Errorf("ledger check-out: %w", err)
		}
		return TransitionCheckedOut, nil

	default:
		// Checked in, before cutoff: already satisfied.
		return TransitionNone, nil
	}
}

func (t *Tracker) pastCutoff(at time.Time) bool {
	cutoff := time.Date(at.Year(), at.Month(), at.Day(), t.cutoffHour, t.cutoffMinute, 0, 0, at.Location())
	return !at.Before(cutoff)
}

// acquire inserts the identity into the guard set, reporting false when a
// sighting of the same identity is already being processed.
func (t *Tracker) acquire(identity string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, held := t.inProgress[identity]; held {
		return false
	}
	t.inProgress[identity] = struct{}{}
	return true
}

func (t *Tracker) release(identity string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.inProgress, identity)
}
