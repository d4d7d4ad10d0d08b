package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/classtrack/faceattend/internal/matcher"
)

// MatchRequest represents a one-shot match request
type MatchRequest struct {
	Embedding []float32 `json:"embedding"`
}

// MatchHandler resolves embeddings against the registry
type MatchHandler struct {
	matcher *matcher.Matcher
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(m *matcher.Matcher) *MatchHandler {
	return &MatchHandler{matcher: m}
}

// Match handles POST /api/v1/match. A concurrent attempt returns 409 so the
// caller knows to retry rather than queue up.
func (h *MatchHandler) Match(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if len(req.Embedding) == 0 {
		respondError(w, http.StatusBadRequest, "embedding is required")
		return
	}

	outcome, err := h.matcher.Match(r.Context(), req.Embedding)
	if err != nil {
		if errors.Is(err, matcher.ErrInFlight) {
			respondError(w, http.StatusConflict, "a match attempt is already in flight")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, outcome)
}
