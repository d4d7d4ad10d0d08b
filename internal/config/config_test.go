package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Tuning.Matching.Threshold != 0.4 {
		t.Errorf("default threshold %v, want 0.4", cfg.Tuning.Matching.Threshold)
	}
	if cfg.Tuning.Matching.CandidateLimit != 25 {
		t.Errorf("default candidate limit %d, want 25", cfg.Tuning.Matching.CandidateLimit)
	}
	if cfg.Detector.Dim != 128 {
		t.Errorf("default embedding dim %d, want 128", cfg.Detector.Dim)
	}
	if got := cfg.TickInterval(); got != 750*time.Millisecond {
		t.Errorf("default tick interval %v, want 750ms", got)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MATCH_THRESHOLD", "0.55")
	t.Setenv("CHECKOUT_CUTOFF", "14:30")
	t.Setenv("EMBEDDING_DIM", "512")
	t.Setenv("BATCH_ID", "batch-7")

	cfg := Load()

	if cfg.Tuning.Matching.Threshold != 0.55 {
		t.Errorf("threshold override %v, want 0.55", cfg.Tuning.Matching.Threshold)
	}
	h, m := cfg.CheckoutCutoff()
	if h != 14 || m != 30 {
		t.Errorf("cutoff override %02d:%02d, want 14:30", h, m)
	}
	if cfg.Detector.Dim != 512 {
		t.Errorf("dim override %d, want 512", cfg.Detector.Dim)
	}
	if cfg.Batch.ID != "batch-7" {
		t.Errorf("batch override %q, want batch-7", cfg.Batch.ID)
	}
}

func TestLoad_InvalidEnvFallsBack(t *testing.T) {
	t.Setenv("EMBEDDING_DIM", "not-a-number")
	t.Setenv("MATCH_THRESHOLD", "-1")

	cfg := Load()

	if cfg.Detector.Dim != 128 {
		t.Errorf("invalid dim should fall back to 128, got %d", cfg.Detector.Dim)
	}
	if cfg.Tuning.Matching.Threshold != 0.4 {
		t.Errorf("negative threshold should fall back to 0.4, got %v", cfg.Tuning.Matching.Threshold)
	}
}

func TestCheckoutCutoff_Defaults(t *testing.T) {
	cfg := Load()

	h, m := cfg.CheckoutCutoff()
	if h != 13 || m != 0 {
		t.Errorf("default cutoff %02d:%02d, want 13:00", h, m)
	}
}

func TestCheckoutCutoff_Malformed(t *testing.T) {
	cfg := &Config{}
	cfg.Tuning.Attendance.CheckoutCutoff = "25:99"

	h, m := cfg.CheckoutCutoff()
	if h != 13 || m != 0 {
		t.Errorf("malformed cutoff should fall back to 13:00, got %02d:%02d", h, m)
	}
}

func TestCacheBudget_TTL(t *testing.T) {
	cfg := Load()

	if got := cfg.Tuning.Caches.Identity.TTL(); got != 5*time.Minute {
		t.Errorf("identity TTL %v, want 5m", got)
	}
	if got := cfg.Tuning.Caches.Candidate.TTL(); got != 10*time.Minute {
		t.Errorf("candidate TTL %v, want 10m", got)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{}

	if err := cfg.Validate(false, false, false); err != nil {
		t.Errorf("no requirements should pass, got %v", err)
	}
	if err := cfg.Validate(true, false, false); err == nil {
		t.Error("missing registry URL should fail validation")
	}

	cfg.Registry.URL = "postgres://localhost/faceattend"
	cfg.Ledger.DSN = "user:pass@tcp(localhost:3306)/attendance"
	cfg.Detector.URL = "http://localhost:8100"
	if err := cfg.Validate(true, true, true); err != nil {
		t.Errorf("fully configured should pass, got %v", err)
	}
}
