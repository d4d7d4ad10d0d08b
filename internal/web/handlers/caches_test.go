package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/classtrack/faceattend/internal/store/mock"
)

func TestCachesHandler_StatsAndReset(t *testing.T) {
	base := seededEmbedding(7)
	registry := &mock.MockRegistry{}
	if err := registry.Create(context.Background(), enrolledRecord("karel dvorak", "class-a", base)); err != nil {
		t.Fatalf("seed registry: %v", err)
	}

	m, _, identities, candidates := testEngine(registry)
	handler := NewCachesHandler(identities, candidates)

	// Two matches: the second one should be an identity-cache hit.
	for i := 0; i < 2; i++ {
		if _, err := m.Match(context.Background(), base); err != nil {
			t.Fatalf("match %d: %v", i, err)
		}
	}

	recorder := httptest.NewRecorder()
	handler.Stats(recorder, httptest.NewRequest("GET", "/api/v1/caches/stats", nil))
	assertStatusCode(t, recorder, http.StatusOK)

	var stats CacheStatsResponse
	parseJSONResponse(t, recorder, &stats)
	if stats.Identity.Size == 0 {
		t.Error("expected identity cache entries after matching")
	}
	if stats.Identity.Hits == 0 {
		t.Error("expected an identity cache hit on the second match")
	}
	if stats.Candidate.Size == 0 {
		t.Error("expected candidate cache entries after a registry match")
	}

	recorder = httptest.NewRecorder()
	handler.Reset(recorder, httptest.NewRequest("POST", "/api/v1/caches/reset", bytes.NewReader(nil)))
	assertStatusCode(t, recorder, http.StatusOK)

	recorder = httptest.NewRecorder()
	handler.Stats(recorder, httptest.NewRequest("GET", "/api/v1/caches/stats", nil))
	parseJSONResponse(t, recorder, &stats)
	if stats.Identity.Size != 0 || stats.Candidate.Size != 0 {
		t.Errorf("expected empty caches after reset, got %d/%d", stats.Identity.Size, stats.Candidate.Size)
	}
}
