package handlers

import (
	"net/http"
	"time"

	"github.com/classtrack/faceattend/internal/store"
)

// IdentityEntry is one enrolled identity in API responses. Embeddings are
// deliberately not exposed.
type IdentityEntry struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	BatchID   string    `json:"batch_id"`
	Samples   int       `json:"samples"`
	CreatedAt time.Time `json:"created_at"`
}

// IdentitiesHandler serves the enrolled identity registry
type IdentitiesHandler struct {
	registry store.RegistryReader
}

// NewIdentitiesHandler creates a new identities handler
func NewIdentitiesHandler(registry store.RegistryReader) *IdentitiesHandler {
	return &IdentitiesHandler{registry: registry}
}

// List handles GET /api/v1/identities. Optional query parameter: batch.
func (h *IdentitiesHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.registry.List(r.Context(), r.URL.Query().Get("batch"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	entries := make([]IdentityEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, IdentityEntry{
			ID:        rec.ID.String(),
			Label:     rec.Label,
			BatchID:   rec.BatchID,
			Samples:   len(rec.Samples),
			CreatedAt: rec.CreatedAt,
		})
	}

	respondJSON(w, http.StatusOK, entries)
}
