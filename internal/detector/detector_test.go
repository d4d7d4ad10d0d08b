package detector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_DetectPicksHighestScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/detect" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"faces_count": 2,
			"faces": [
				{"dim": 3, "embedding": [0.1, 0.2, 0.3], "det_score": 0.61},
				{"dim": 3, "embedding": [0.4, 0.5, 0.6], "det_score": 0.93}
			]
		}`))
	}))
	defer srv.Close()

	det, err := NewClient(srv.URL).Detect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !det.Present {
		t.Fatal("expected a detection")
	}
	if det.Score != 0.93 {
		t.Errorf("expected highest-score face, got score %v", det.Score)
	}
	if len(det.Embedding) != 3 || det.Embedding[0] != 0.4 {
		t.Errorf("wrong embedding selected: %v", det.Embedding)
	}
}

func TestClient_DetectEmptyFrame(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"faces_count": 0, "faces": []}`))
	}))
	defer srv.Close()

	det, err := NewClient(srv.URL).Detect(context.Background())
	if err != nil {
		t.Fatalf("empty frame must not be an error: %v", err)
	}
	if det.Present {
		t.Error("expected no detection")
	}
}

func TestClient_DetectServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "camera offline", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Detect(context.Background())
	if err == nil {
		t.Fatal("expected error for 503 response")
	}
}

func TestClient_DetectMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Detect(context.Background())
	if err == nil {
		t.Fatal("expected error for malformed response")
	}
}
