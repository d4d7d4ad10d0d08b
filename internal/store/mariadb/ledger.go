package mariadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/classtrack/faceattend/internal/store"
)

// Ledger provides MariaDB-backed attendance storage.
type Ledger struct {
	pool *Pool
}

// NewLedger creates a new MariaDB attendance ledger.
func NewLedger(pool *Pool) *Ledger {
	return &Ledger{pool: pool}
}

// Get retrieves the attendance record for one identity on one day. Returns
// nil without error when no record exists.
func (l *Ledger) Get(ctx context.Context, identity, batchID, day string) (*store.AttendanceRecord, error) {
	row := l.pool.db.QueryRowContext(ctx, `
		SELECT id, identity, batch_id, day, status, check_in, check_out
		FROM attendance
		WHERE identity = ? AND batch_id = ? AND day = ?
	`, identity, batchID, day)

	rec, err := scanAttendance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Create inserts a new attendance record. The unique key on
// (identity, batch_id, day) rejects a second record for the same day.
func (l *Ledger) Create(ctx context.Context, record store.AttendanceRecord) error {
	var checkOut any
	if record.CheckOut != nil {
		checkOut = record.CheckOut.UTC()
	}

	_, err := l.pool.db.ExecContext(ctx, `
		INSERT INTO attendance (id, identity, batch_id, day, status, check_in, check_out)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, record.ID, record.Identity, record.BatchID, record.Day, record.Status, record.CheckIn.UTC(), checkOut)
	if err != nil {
		return fmt.Errorf("insert attendance record: %w", err)
	}
	return nil
}

// SetCheckOut closes an open record. Closing an already closed record is
// left alone so the first check-out time wins.
func (l *Ledger) SetCheckOut(ctx context.Context, id string, at time.Time) error {
	result, err := l.pool.db.ExecContext(ctx, `
		UPDATE attendance SET check_out = ? WHERE id = ? AND check_out IS NULL
	`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("update check-out: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check-out rows affected: %w", err)
	}
	if affected == 0 {
		// Either the record is unknown or already closed. Distinguish the
		// two so a missing record surfaces as an error.
		var exists bool
		err := l.pool.db.QueryRowContext(ctx, "SELECT 1 FROM attendance WHERE id = ?", id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("attendance record %s not found", id)
		}
		if err != nil {
			return fmt.Errorf("check attendance record: %w", err)
		}
	}
	return nil
}

// ListByDay retrieves all records for a batch on one day, ordered by
// check-in time.
func (l *Ledger) ListByDay(ctx context.Context, batchID, day string) ([]store.AttendanceRecord, error) {
	rows, err := l.pool.db.QueryContext(ctx, `
		SELECT id, identity, batch_id, day, status, check_in, check_out
		FROM attendance
		WHERE batch_id = ? AND day = ?
		ORDER BY check_in
	`, batchID, day)
	if err != nil {
		return nil, fmt.Errorf("query attendance by day: %w", err)
	}
	defer rows.Close()

	var records []store.AttendanceRecord
	for rows.Next() {
		rec, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance records: %w", err)
	}
	return records, nil
}

// scanAttendance scans one attendance row from a row or rows scanner.
func scanAttendance(scanner interface{ Scan(...any) error }) (*store.AttendanceRecord, error) {
	var rec store.AttendanceRecord
	var checkOut sql.NullTime

	err := scanner.Scan(&rec.ID, &rec.Identity, &rec.BatchID, &rec.Day, &rec.Status, &rec.CheckIn, &checkOut)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan attendance record: %w", err)
	}
	if checkOut.Valid {
		t := checkOut.Time
		rec.CheckOut = &t
	}
	return &rec, nil
}
