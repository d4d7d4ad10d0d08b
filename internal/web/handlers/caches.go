package handlers

import (
	"net/http"

	"github.com/classtrack/faceattend/internal/cache"
)

// CacheStatsResponse reports both cache tiers
type CacheStatsResponse struct {
	Identity  cache.Stats `json:"identity"`
	Candidate cache.Stats `json:"candidate"`
}

// CachesHandler exposes cache statistics and manual invalidation
type CachesHandler struct {
	identities *cache.IdentityCache
	candidates *cache.CandidateCache
}

// NewCachesHandler creates a new caches handler
func NewCachesHandler(identities *cache.IdentityCache, candidates *cache.CandidateCache) *CachesHandler {
	return &CachesHandler{identities: identities, candidates: candidates}
}

// Stats handles GET /api/v1/caches/stats.
func (h *CachesHandler) Stats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, CacheStatsResponse{
		Identity:  h.identities.Stats(),
		Candidate: h.candidates.Stats(),
	})
}

// Reset handles POST /api/v1/caches/reset. Useful after re-enrolling an
// identity, when cached verdicts may point at stale samples.
func (h *CachesHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.identities.Reset()
	h.candidates.Reset()
	respondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
