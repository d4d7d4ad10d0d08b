// Package store defines the durable collaborators of the recognition engine:
// the identity registry and the attendance ledger. Concrete backends live in
// the postgres and mariadb subpackages; the mock subpackage provides
// in-memory implementations for tests.
package store

import (
	"context"
	"time"
)

// RegistryReader reads enrolled identities.
type RegistryReader interface {
	// FindByChunks returns records where any precomputed sample chunk
	// contains any of the given chunks as a substring (disjunctive filter:
	// any chunk may match). Enrollment chunks are wider than live-matching
	// chunks, so containment rather than equality is what lines the two
	// policies up. An empty batchID disables batch scoping. Limit caps the
	// result size; 0 means no cap.
	FindByChunks(ctx context.Context, chunks []string, batchID string, limit int) ([]RegistryRecord, error)

	// GetByLabel returns the record enrolled under the exact label, or nil
	// when the label is unknown.
	GetByLabel(ctx context.Context, label string) (*RegistryRecord, error)

	// List returns all enrolled records, optionally scoped to a batch.
	List(ctx context.Context, batchID string) ([]RegistryRecord, error)
}

// RegistryWriter persists newly enrolled identities.
type RegistryWriter interface {
	Create(ctx context.Context, record RegistryRecord) error
}

// Registry combines both sides of the registry collaborator.
type Registry interface {
	RegistryReader
	RegistryWriter
}

// AttendanceLedger is the durable daily attendance store. Get returns nil
// (not an error) when no record exists for the key.
type AttendanceLedger interface {
	Get(ctx context.Context, identity, batchID, day string) (*AttendanceRecord, error)
	Create(ctx context.Context, record AttendanceRecord) error
	SetCheckOut(ctx context.Context, id string, at time.Time) error
	ListByDay(ctx context.Context, batchID, day string) ([]AttendanceRecord, error)
}
