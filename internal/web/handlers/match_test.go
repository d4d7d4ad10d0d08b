package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/classtrack/faceattend/internal/matcher"
	"github.com/classtrack/faceattend/internal/store/mock"
)

func postJSON(t *testing.T, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}
	return httptest.NewRequest("POST", "/api/v1/match", bytes.NewReader(data))
}

func TestMatchHandler_KnownFace(t *testing.T) {
	base := seededEmbedding(7)
	registry := &mock.MockRegistry{}
	if err := registry.Create(context.Background(), enrolledRecord("karel dvorak", "class-a", base)); err != nil {
		t.Fatalf("seed registry: %v", err)
	}

	m, _, _, _ := testEngine(registry)
	handler := NewMatchHandler(m)

	recorder := httptest.NewRecorder()
	handler.Match(recorder, postJSON(t, MatchRequest{Embedding: base}))

	assertStatusCode(t, recorder, http.StatusOK)
	assertContentType(t, recorder, "application/json")

	var outcome matcher.Outcome
	parseJSONResponse(t, recorder, &outcome)

	if !outcome.Matched {
		t.Fatal("expected a match")
	}
	if outcome.Label != "karel dvorak" {
		t.Errorf("expected karel dvorak, got %q", outcome.Label)
	}
	if outcome.Source != matcher.SourceRegistry {
		t.Errorf("expected registry source, got %q", outcome.Source)
	}
}

func TestMatchHandler_UnknownFace(t *testing.T) {
	m, _, _, _ := testEngine(&mock.MockRegistry{})
	handler := NewMatchHandler(m)

	recorder := httptest.NewRecorder()
	handler.Match(recorder, postJSON(t, MatchRequest{Embedding: seededEmbedding(1)}))

	assertStatusCode(t, recorder, http.StatusOK)

	var outcome matcher.Outcome
	parseJSONResponse(t, recorder, &outcome)
	if outcome.Matched {
		t.Error("expected no match against an empty registry")
	}
}

func TestMatchHandler_MissingEmbedding(t *testing.T) {
	m, _, _, _ := testEngine(&mock.MockRegistry{})
	handler := NewMatchHandler(m)

	recorder := httptest.NewRecorder()
	handler.Match(recorder, postJSON(t, MatchRequest{}))

	assertStatusCode(t, recorder, http.StatusBadRequest)
}

func TestMatchHandler_InvalidBody(t *testing.T) {
	m, _, _, _ := testEngine(&mock.MockRegistry{})
	handler := NewMatchHandler(m)

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/match", bytes.NewReader([]byte("not json")))
	handler.Match(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
}
