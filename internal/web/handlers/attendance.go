package handlers

import (
	"net/http"
	"time"

	"github.com/classtrack/faceattend/internal/store"
)

// AttendanceEntry is one daily attendance row in API responses
type AttendanceEntry struct {
	Identity string     `json:"identity"`
	Status   string     `json:"status"`
	CheckIn  time.Time  `json:"check_in"`
	CheckOut *time.Time `json:"check_out,omitempty"`
}

// AttendanceResponse lists a batch's attendance for one day
type AttendanceResponse struct {
	BatchID string            `json:"batch_id"`
	Day     string            `json:"day"`
	Entries []AttendanceEntry `json:"entries"`
}

// AttendanceHandler serves the daily attendance ledger
type AttendanceHandler struct {
	ledger  store.AttendanceLedger
	batchID string
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(ledger store.AttendanceLedger, batchID string) *AttendanceHandler {
	return &AttendanceHandler{ledger: ledger, batchID: batchID}
}

// List handles GET /api/v1/attendance. Query parameters: day (defaults to
// today) and batch (defaults to the configured batch).
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	day := r.URL.Query().Get("day")
	if day == "" {
		day = store.DayKey(time.Now())
	} else if _, err := time.Parse("2006-01-02", day); err != nil {
		respondError(w, http.StatusBadRequest, "day must be formatted as YYYY-MM-DD")
		return
	}

	batchID := r.URL.Query().Get("batch")
	if batchID == "" {
		batchID = h.batchID
	}

	records, err := h.ledger.ListByDay(r.Context(), batchID, day)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	entries := make([]AttendanceEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, AttendanceEntry{
			Identity: rec.Identity,
			Status:   rec.Status,
			CheckIn:  rec.CheckIn,
			CheckOut: rec.CheckOut,
		})
	}

	respondJSON(w, http.StatusOK, AttendanceResponse{
		BatchID: batchID,
		Day:     day,
		Entries: entries,
	})
}
