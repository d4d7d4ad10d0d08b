package store

import (
	"time"

	"github.com/google/uuid"
)

// SamplesPerIdentity is the fixed number of embedding samples captured for
// every enrolled identity.
const SamplesPerIdentity = 5

// Sample is one captured embedding of an enrolled identity, together with the
// fingerprint chunks precomputed at enrollment time.
type Sample struct {
	Index     int
	Embedding []float32
	Chunks    []string
}

// RegistryRecord is an enrolled identity as stored in the registry: a unique
// label, its sample embeddings, and their precomputed fingerprint chunks.
// Records are read-mostly; the engine only writes them during enrollment.
type RegistryRecord struct {
	ID        uuid.UUID
	Label     string
	BatchID   string
	Samples   []Sample
	CreatedAt time.Time
}

// AllChunks returns the union of the precomputed chunks across all samples of
// the record.
func (r *RegistryRecord) AllChunks() []string {
	var chunks []string
	for _, s := range r.Samples {
		chunks = append(chunks, s.Chunks...)
	}
	return chunks
}

// StatusPresent is the only attendance status the sighting loop writes; the
// Status column stays free-form so reporting tools can record others.
const StatusPresent = "present"

// AttendanceRecord is one daily attendance entry. At most one record exists
// per (identity, batch, day) - the ledger enforces this with a unique key and
// the state machine never issues a second create.
type AttendanceRecord struct {
	ID       string
	Identity string
	BatchID  string
	Day      string // calendar day, formatted with DayKey
	Status   string
	CheckIn  time.Time
	CheckOut *time.Time
}

// CheckedOut reports whether the record is closed for the day.
func (r *AttendanceRecord) CheckedOut() bool {
	return r.CheckOut != nil
}

// DayKey formats a timestamp as the calendar-day key used by the ledger.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
