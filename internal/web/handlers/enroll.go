package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/classtrack/faceattend/internal/enrollment"
	"github.com/classtrack/faceattend/internal/store"
)

// SampleRequest represents one captured enrollment sample
type SampleRequest struct {
	Embedding []float32 `json:"embedding"`
}

// CommitRequest finalizes an enrollment under a label
type CommitRequest struct {
	Label string `json:"label"`
}

// EnrollStatus reports enrollment progress
type EnrollStatus struct {
	Count    int `json:"count"`
	Required int `json:"required"`
}

// EnrollHandler drives the sample-by-sample enrollment flow
type EnrollHandler struct {
	enroller *enrollment.Enroller
}

// NewEnrollHandler creates a new enrollment handler
func NewEnrollHandler(e *enrollment.Enroller) *EnrollHandler {
	return &EnrollHandler{enroller: e}
}

// AddSample handles POST /api/v1/enroll/sample.
func (h *EnrollHandler) AddSample(w http.ResponseWriter, r *http.Request) {
	var req SampleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if len(req.Embedding) == 0 {
		respondError(w, http.StatusBadRequest, "embedding is required")
		return
	}

	if err := h.enroller.AddSample(r.Context(), req.Embedding); err != nil {
		switch {
		case errors.Is(err, enrollment.ErrDuplicateSample):
			respondError(w, http.StatusConflict, err.Error())
		case errors.Is(err, enrollment.ErrSamplesComplete):
			respondError(w, http.StatusConflict, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	respondJSON(w, http.StatusOK, EnrollStatus{
		Count:    h.enroller.Count(),
		Required: store.SamplesPerIdentity,
	})
}

// Commit handles POST /api/v1/enroll/commit.
func (h *EnrollHandler) Commit(w http.ResponseWriter, r *http.Request) {
	var req CommitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	if err := h.enroller.Commit(r.Context(), req.Label); err != nil {
		switch {
		case errors.Is(err, enrollment.ErrEmptyLabel),
			errors.Is(err, enrollment.ErrNotEnoughSamples):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, enrollment.ErrLabelTaken):
			respondError(w, http.StatusConflict, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"status": "enrolled"})
}

// Status handles GET /api/v1/enroll/status.
func (h *EnrollHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, EnrollStatus{
		Count:    h.enroller.Count(),
		Required: store.SamplesPerIdentity,
	})
}

// Reset handles POST /api/v1/enroll/reset.
func (h *EnrollHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.enroller.Reset()
	respondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
