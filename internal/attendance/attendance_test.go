package attendance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/classtrack/faceattend/internal/store"
	"github.com/classtrack/faceattend/internal/store/mock"
)

func at(hour, minute int) time.Time {
	return time.Date(2025, 3, 10, hour, minute, 0, 0, time.UTC)
}

func newTracker(ledger store.AttendanceLedger) *Tracker {
	return New(ledger, 13, 0) // 13:00 cutoff
}

func TestRecordSighting_MorningCheckIn(t *testing.T) {
	ledger := mock.NewMockLedger()
	tracker := newTracker(ledger)

	tr, err := tracker.RecordSighting(context.Background(), "alice", "b1", at(9, 0))
	if err != nil {
		t.Fatal(err)
	}
	if tr != TransitionCheckedIn {
		t.Fatalf("got %s, want checked-in", tr)
	}

	rec, _ := ledger.Get(context.Background(), "alice", "b1", store.DayKey(at(9, 0)))
	if rec == nil {
		t.Fatal("expected a record")
	}
	if rec.Status != store.StatusPresent {
		t.Errorf("status %s, want present", rec.Status)
	}
	if !rec.CheckIn.Equal(at(9, 0)) || rec.CheckOut != nil {
		t.Errorf("got check-in=%v check-out=%v, want 09:00/nil", rec.CheckIn, rec.CheckOut)
	}
}

func TestRecordSighting_IdempotentCheckIn(t *testing.T) {
	ledger := mock.NewMockLedger()
	tracker := newTracker(ledger)

	if _, err := tracker.RecordSighting(context.Background(), "alice", "b1", at(9, 0)); err != nil {
		t.Fatal(err)
	}

	// Repeated pre-cutoff sightings leave the record untouched.
	for i := range 5 {
		tr, err := tracker.RecordSighting(context.Background(), "alice", "b1", at(9, 5+i))
		if err != nil {
			t.Fatal(err)
		}
		if tr != TransitionNone {
			t.Fatalf("sighting %d: got %s, want no-change", i, tr)
		}
	}

	if ledger.CreateCalls != 1 {
		t.Errorf("%d creates, want exactly 1", ledger.CreateCalls)
	}
	rec, _ := ledger.Get(context.Background(), "alice", "b1", store.DayKey(at(9, 0)))
	if !rec.CheckIn.Equal(at(9, 0)) {
		t.Errorf("check-in time changed to %v", rec.CheckIn)
	}
}

func TestRecordSighting_CheckOutAfterCutoff(t *testing.T) {
	ledger := mock.NewMockLedger()
	tracker := newTracker(ledger)

	tracker.RecordSighting(context.Background(), "alice", "b1", at(9, 0))

	tr, err := tracker.RecordSighting(context.Background(), "alice", "b1", at(13, 30))
	if err != nil {
		t.Fatal(err)
	}
	if tr != TransitionCheckedOut {
		t.Fatalf("got %s, want checked-out", tr)
	}

	rec, _ := ledger.Get(context.Background(), "alice", "b1", store.DayKey(at(9, 0)))
	if rec.CheckOut == nil || !rec.CheckOut.Equal(at(13, 30)) {
		t.Errorf("check-out = %v, want 13:30", rec.CheckOut)
	}
}

func TestRecordSighting_SingleCheckOut(t *testing.T) {
	ledger := mock.NewMockLedger()
	tracker := newTracker(ledger)

	tracker.RecordSighting(context.Background(), "alice", "b1", at(9, 0))
	tracker.RecordSighting(context.Background(), "alice", "b1", at(13, 30))

	// Later sightings must not move the check-out time.
	for i := range 4 {
		tr, err := tracker.RecordSighting(context.Background(), "alice", "b1", at(14, i*10))
		if err != nil {
			t.Fatal(err)
		}
		if tr != TransitionNone {
			t.Fatalf("got %s after close, want no-change", tr)
		}
	}

	if ledger.CheckOutCalls != 1 {
		t.Errorf("%d check-out writes, want exactly 1", ledger.CheckOutCalls)
	}
	rec, _ := ledger.Get(context.Background(), "alice", "b1", store.DayKey(at(9, 0)))
	if !rec.CheckOut.Equal(at(13, 30)) {
		t.Errorf("check-out moved to %v, want first post-cutoff time 13:30", rec.CheckOut)
	}
}

func TestRecordSighting_LateFirstSightingClosesDayInOneWrite(t *testing.T) {
	ledger := mock.NewMockLedger()
	tracker := newTracker(ledger)

	tr, err := tracker.RecordSighting(context.Background(), "alice", "b1", at(14, 0))
	if err != nil {
		t.Fatal(err)
	}
	if tr != TransitionCheckedOut {
		t.Fatalf("got %s, want checked-out", tr)
	}

	rec, _ := ledger.Get(context.Background(), "alice", "b1", store.DayKey(at(14, 0)))
	if !rec.CheckIn.Equal(at(14, 0)) || rec.CheckOut == nil || !rec.CheckOut.Equal(at(14, 0)) {
		t.Errorf("got check-in=%v check-out=%v, want both 14:00", rec.CheckIn, rec.CheckOut)
	}
	if rec.Status != store.StatusPresent {
		t.Errorf("a late sighting still counts as present, got %s", rec.Status)
	}
	if ledger.CreateCalls != 1 || ledger.CheckOutCalls != 0 {
		t.Errorf("got %d creates / %d check-outs, want a single atomic create",
			ledger.CreateCalls, ledger.CheckOutCalls)
	}
}

func TestRecordSighting_ExactlyAtCutoff(t *testing.T) {
	ledger := mock.NewMockLedger()
	tracker := newTracker(ledger)

	tracker.RecordSighting(context.Background(), "alice", "b1", at(9, 0))

	tr, err := tracker.RecordSighting(context.Background(), "alice", "b1", at(13, 0))
	if err != nil {
		t.Fatal(err)
	}
	if tr != TransitionCheckedOut {
		t.Errorf("a sighting exactly at the cutoff counts as past it, got %s", tr)
	}
}

func TestRecordSighting_SeparateBatchesAndDays(t *testing.T) {
	ledger := mock.NewMockLedger()
	tracker := newTracker(ledger)

	tracker.RecordSighting(context.Background(), "alice", "b1", at(9, 0))
	tracker.RecordSighting(context.Background(), "alice", "b2", at(9, 0))
	nextDay := at(9, 0).AddDate(0, 0, 1)
	tracker.RecordSighting(context.Background(), "alice", "b1", nextDay)

	if ledger.CreateCalls != 3 {
		t.Errorf("%d creates, want 3 (one per identity/batch/day)", ledger.CreateCalls)
	}
}

func TestRecordSighting_GuardExclusivity(t *testing.T) {
	ledger := mock.NewMockLedger()
	ledger.WriteDelay = 20 * time.Millisecond
	tracker := newTracker(ledger)

	const attempts = 8
	var wg sync.WaitGroup
	transitions := make([]Transition, attempts)

	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr, err := tracker.RecordSighting(context.Background(), "alice", "b1", at(9, 0))
			if err != nil {
				t.Errorf("concurrent sighting failed: %v", err)
			}
			transitions[i] = tr
		}()
	}
	wg.Wait()

	if ledger.CreateCalls != 1 {
		t.Errorf("%d writes from concurrent sightings, want exactly 1", ledger.CreateCalls)
	}

	var checkedIn, skipped int
	for _, tr := range transitions {
		switch tr {
		case TransitionCheckedIn:
			checkedIn++
		case TransitionSkipped:
			skipped++
		}
	}
	if checkedIn != 1 {
		t.Errorf("%d attempts checked in, want exactly 1", checkedIn)
	}
	if checkedIn+skipped != attempts {
		// Attempts that ran after the winner finished see the record and no-op.
		t.Logf("%d attempts resolved as no-change after the write", attempts-checkedIn-skipped)
	}
}

func TestRecordSighting_FailedWriteReleasesGuard(t *testing.T) {
	ledger := mock.NewMockLedger()
	ledger.CreateError = errors.New("ledger down")
	tracker := newTracker(ledger)

	if _, err := tracker.RecordSighting(context.Background(), "alice", "b1", at(9, 0)); err == nil {
		t.Fatal("expected error from failed write")
	}

	// Guard released: a retry can proceed once the ledger recovers.
	ledger.CreateError = nil
	tr, err := tracker.RecordSighting(context.Background(), "alice", "b1", at(9, 0))
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if tr != TransitionCheckedIn {
		t.Errorf("retry got %s, want checked-in", tr)
	}
}

func TestRecordSighting_FailedReadSurfaces(t *testing.T) {
	ledger := mock.NewMockLedger()
	ledger.GetError = errors.New("ledger unreachable")
	tracker := newTracker(ledger)

	if _, err := tracker.RecordSighting(context.Background(), "alice", "b1", at(9, 0)); err == nil {
		t.Fatal("expected error from failed read")
	}
	if ledger.CreateCalls != 0 {
		t.Error("failed read must not lead to a write")
	}
}
