package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/classtrack/faceattend/internal/store"
	"github.com/classtrack/faceattend/internal/store/mock"
)

func enrollRequest(t *testing.T, path string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}
	return httptest.NewRequest("POST", path, bytes.NewReader(data))
}

func TestEnrollHandler_FullFlow(t *testing.T) {
	registry := &mock.MockRegistry{}
	_, e, _, _ := testEngine(registry)
	handler := NewEnrollHandler(e)

	for i := 0; i < store.SamplesPerIdentity; i++ {
		recorder := httptest.NewRecorder()
		handler.AddSample(recorder, enrollRequest(t, "/api/v1/enroll/sample", SampleRequest{Embedding: seededEmbedding(int64(i + 1))}))
		assertStatusCode(t, recorder, http.StatusOK)

		var status EnrollStatus
		parseJSONResponse(t, recorder, &status)
		if status.Count != i+1 {
			t.Errorf("expected count %d, got %d", i+1, status.Count)
		}
	}

	recorder := httptest.NewRecorder()
	handler.Commit(recorder, enrollRequest(t, "/api/v1/enroll/commit", CommitRequest{Label: "Karel Dvořák"}))
	assertStatusCode(t, recorder, http.StatusCreated)

	rec, err := registry.GetByLabel(context.Background(), "karel dvorak")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if rec == nil {
		t.Fatal("expected enrolled identity under normalized label")
	}
}

func TestEnrollHandler_DuplicateSampleConflict(t *testing.T) {
	base := seededEmbedding(7)
	registry := &mock.MockRegistry{}
	if err := registry.Create(context.Background(), enrolledRecord("alena novakova", "class-a", base)); err != nil {
		t.Fatalf("seed registry: %v", err)
	}

	_, e, _, _ := testEngine(registry)
	handler := NewEnrollHandler(e)

	recorder := httptest.NewRecorder()
	handler.AddSample(recorder, enrollRequest(t, "/api/v1/enroll/sample", SampleRequest{Embedding: base}))
	assertStatusCode(t, recorder, http.StatusConflict)
}

func TestEnrollHandler_CommitWithoutSamples(t *testing.T) {
	_, e, _, _ := testEngine(&mock.MockRegistry{})
	handler := NewEnrollHandler(e)

	recorder := httptest.NewRecorder()
	handler.Commit(recorder, enrollRequest(t, "/api/v1/enroll/commit", CommitRequest{Label: "karel"}))
	assertStatusCode(t, recorder, http.StatusBadRequest)
}

func TestEnrollHandler_StatusAndReset(t *testing.T) {
	_, e, _, _ := testEngine(&mock.MockRegistry{})
	handler := NewEnrollHandler(e)

	recorder := httptest.NewRecorder()
	handler.AddSample(recorder, enrollRequest(t, "/api/v1/enroll/sample", SampleRequest{Embedding: seededEmbedding(1)}))
	assertStatusCode(t, recorder, http.StatusOK)

	recorder = httptest.NewRecorder()
	handler.Status(recorder, httptest.NewRequest("GET", "/api/v1/enroll/status", nil))
	var status EnrollStatus
	parseJSONResponse(t, recorder, &status)
	if status.Count != 1 || status.Required != store.SamplesPerIdentity {
		t.Errorf("unexpected status %+v", status)
	}

	recorder = httptest.NewRecorder()
	handler.Reset(recorder, httptest.NewRequest("POST", "/api/v1/enroll/reset", nil))
	assertStatusCode(t, recorder, http.StatusOK)

	recorder = httptest.NewRecorder()
	handler.Status(recorder, httptest.NewRequest("GET", "/api/v1/enroll/status", nil))
	parseJSONResponse(t, recorder, &status)
	if status.Count != 0 {
		t.Errorf("expected count 0 after reset, got %d", status.Count)
	}
}
