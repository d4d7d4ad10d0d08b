// Package mock provides in-memory implementations of the store interfaces
// for testing.
package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/classtrack/faceattend/internal/store"
)

// MockRegistry is an in-memory implementation of store.Registry.
type MockRegistry struct {
	mu      sync.RWMutex
	records []store.RegistryRecord

	// Error injection
	FindError   error
	GetError    error
	ListError   error
	CreateError error

	// FindCalls counts remote chunk queries, letting tests assert which
	// lookup tier resolved a match.
	FindCalls int
}

// NewMockRegistry creates an empty mock registry.
func NewMockRegistry() *MockRegistry {
	return &MockRegistry{}
}

// Add seeds the registry with a record, bypassing validation.
func (m *MockRegistry) Add(rec store.RegistryRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
}

// FindByChunks returns records where any precomputed chunk contains any of
// the supplied chunks as a substring.
func (m *MockRegistry) FindByChunks(ctx context.Context, chunks []string, batchID string, limit int) ([]store.RegistryRecord, error) {
	m.mu.Lock()
	m.FindCalls++
	m.mu.Unlock()

	if m.FindError != nil {
		return nil, m.FindError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []store.RegistryRecord
	for _, rec := range m.records {
		if batchID != "" && rec.BatchID != batchID {
			continue
		}
		if chunksOverlap(rec, chunks) {
			out = append(out, rec)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func chunksOverlap(rec store.RegistryRecord, chunks []string) bool {
	for _, stored := range rec.AllChunks() {
		for _, q := range chunks {
			if q != "" && strings.Contains(stored, q) {
				return true
			}
		}
	}
	return false
}

// GetByLabel returns the record with the exact label, or nil.
func (m *MockRegistry) GetByLabel(ctx context.Context, label string) (*store.RegistryRecord, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.records {
		if m.records[i].Label == label {
			rec := m.records[i]
			return &rec, nil
		}
	}
	return nil, nil
}

// List returns all records, optionally scoped to a batch.
func (m *MockRegistry) List(ctx context.Context, batchID string) ([]store.RegistryRecord, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []store.RegistryRecord
	for _, rec := range m.records {
		if batchID == "" || rec.BatchID == batchID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Create appends a record, rejecting duplicate labels.
func (m *MockRegistry) Create(ctx context.Context, record store.RegistryRecord) error {
	if m.CreateError != nil {
		return m.CreateError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range m.records {
		if rec.Label == record.Label {
			return fmt.Errorf("label %q already exists", record.Label)
		}
	}
	m.records = append(m.records, record)
	return nil
}

// MockLedger is an in-memory implementation of store.AttendanceLedger.
type MockLedger struct {
	mu      sync.RWMutex
	records map[string]*store.AttendanceRecord

	// Error injection
	GetError         error
	CreateError      error
	SetCheckOutError error
	ListError        error

	// Write counters for idempotency and guard assertions.
	CreateCalls   int
	CheckOutCalls int

	// WriteDelay widens the read-decide-write window in concurrency tests.
	WriteDelay time.Duration
}

// NewMockLedger creates an empty mock ledger.
func NewMockLedger() *MockLedger {
	return &MockLedger{records: make(map[string]*store.AttendanceRecord)}
}

func ledgerKey(identity, batchID, day string) string {
	return identity + "|" + batchID + "|" + day
}

// Get returns the record for (identity, batch, day), or nil.
func (m *MockLedger) Get(ctx context.Context, identity, batchID, day string) (*store.AttendanceRecord, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[ledgerKey(identity, batchID, day)]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

// Create inserts a new record, enforcing the (identity, batch, day) unique
// key the durable ledger would.
func (m *MockLedger) Create(ctx context.Context, record store.AttendanceRecord) error {
	if m.WriteDelay > 0 {
		time.Sleep(m.WriteDelay)
	}
	if m.CreateError != nil {
		return m.CreateError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.records == nil {
		m.records = make(map[string]*store.AttendanceRecord)
	}

	key := ledgerKey(record.Identity, record.BatchID, record.Day)
	if _, ok := m.records[key]; ok {
		return fmt.Errorf("attendance record already exists for %s", key)
	}
	cp := record
	m.records[key] = &cp
	m.CreateCalls++
	return nil
}

// SetCheckOut closes the record with the given id.
func (m *MockLedger) SetCheckOut(ctx context.Context, id string, at time.Time) error {
	if m.WriteDelay > 0 {
		time.Sleep(m.WriteDelay)
	}
	if m.SetCheckOutError != nil {
		return m.SetCheckOutError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range m.records {
		if rec.ID == id {
			t := at
			rec.CheckOut = &t
			m.CheckOutCalls++
			return nil
		}
	}
	return fmt.Errorf("attendance record %s not found", id)
}

// ListByDay returns all records for a batch and day.
func (m *MockLedger) ListByDay(ctx context.Context, batchID, day string) ([]store.AttendanceRecord, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []store.AttendanceRecord
	for _, rec := range m.records {
		if rec.BatchID == batchID && rec.Day == day {
			out = append(out, *rec)
		}
	}
	return out, nil
}
