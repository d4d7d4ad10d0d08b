package handlers

import (
	"encoding/json"
	"math/rand"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/classtrack/faceattend/internal/cache"
	"github.com/classtrack/faceattend/internal/enrollment"
	"github.com/classtrack/faceattend/internal/fingerprint"
	"github.com/classtrack/faceattend/internal/matcher"
	"github.com/classtrack/faceattend/internal/store"
	"github.com/classtrack/faceattend/internal/store/mock"
)

// seededEmbedding produces a deterministic embedding for a seed
func seededEmbedding(seed int64) []float32 {
	rng := rand.New(rand.NewSource(seed))
	emb := make([]float32, fingerprint.BitLength)
	for i := range emb {
		v := 0.1 + 0.9*rng.Float32()
		if rng.Intn(2) == 0 {
			v = -v
		}
		emb[i] = v
	}
	return emb
}

// enrolledRecord builds a registry record with the full sample set derived
// from one base embedding
func enrolledRecord(label, batchID string, base []float32) store.RegistryRecord {
	samples := make([]store.Sample, store.SamplesPerIdentity)
	for i := range samples {
		emb := make([]float32, len(base))
		copy(emb, base)
		samples[i] = store.Sample{
			Index:     i,
			Embedding: emb,
			Chunks:    fingerprint.Hash(emb).EnrollmentChunks(),
		}
	}
	return store.RegistryRecord{
		ID:        uuid.New(),
		Label:     label,
		BatchID:   batchID,
		Samples:   samples,
		CreatedAt: time.Now(),
	}
}

// testEngine wires a matcher and enroller over fresh caches and a mock registry
func testEngine(registry *mock.MockRegistry) (*matcher.Matcher, *enrollment.Enroller, *cache.IdentityCache, *cache.CandidateCache) {
	identities := cache.NewIdentityCache(64, 5*time.Minute, 0.4)
	candidates := cache.NewCandidateCache(256, 10*time.Minute)
	m := matcher.New(registry, identities, candidates, 0.4, "class-a", 25)
	e := enrollment.New(registry, 0.4, "class-a", 25)
	return m, e, identities, candidates
}

// parseJSONResponse parses the recorded body into target
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}
