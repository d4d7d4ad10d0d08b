package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"time"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Detector DetectorConfig
	Registry RegistryConfig
	Ledger   LedgerConfig
	Batch    BatchConfig
	Tuning   Tuning
}

type DetectorConfig struct {
	URL string // face detector service base URL (defaults to http://localhost:8100)
	Dim int    // embedding dimensionality (defaults to 128)
}

type RegistryConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type LedgerConfig struct {
	DSN string // MariaDB DSN for the attendance ledger
}

type BatchConfig struct {
	ID string // batch/group scope for matching and attendance (optional)
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	tuning := loadTuning()

	// Env overrides for the two knobs operators actually turn.
	tuning.Matching.Threshold = envFloat("MATCH_THRESHOLD", tuning.Matching.Threshold)
	tuning.Attendance.CheckoutCutoff = envString("CHECKOUT_CUTOFF", tuning.Attendance.CheckoutCutoff)

	return &Config{
		Detector: DetectorConfig{
			URL: os.Getenv("DETECTOR_URL"),
			Dim: envInt("EMBEDDING_DIM", 128),
		},
		Registry: RegistryConfig{
			URL:          os.Getenv("REGISTRY_DATABASE_URL"),
			MaxOpenConns: envInt("REGISTRY_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("REGISTRY_MAX_IDLE_CONNS", 5),
		},
		Ledger: LedgerConfig{
			DSN: os.Getenv("LEDGER_DATABASE_URL"),
		},
		Batch: BatchConfig{
			ID: os.Getenv("BATCH_ID"),
		},
		Tuning: tuning,
	}
}

// CheckoutCutoff parses the configured cutoff wall-clock time. Falls back to
// 13:00 on a malformed value rather than failing a running session.
func (c *Config) CheckoutCutoff() (hour, minute int) {
	t, err := time.Parse("15:04", c.Tuning.Attendance.CheckoutCutoff)
	if err != nil {
		return 13, 0
	}
	return t.Hour(), t.Minute()
}

// TickInterval returns the detection loop interval.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Tuning.Loop.TickIntervalMS) * time.Millisecond
}

// Validate checks that the pieces required for the given mode are present.
func (c *Config) Validate(needRegistry, needLedger, needDetector bool) error {
	if needRegistry && c.Registry.URL == "" {
		return fmt.Errorf("REGISTRY_DATABASE_URL is required")
	}
	if needLedger && c.Ledger.DSN == "" {
		return fmt.Errorf("LEDGER_DATABASE_URL is required")
	}
	if needDetector && c.Detector.URL == "" {
		return fmt.Errorf("DETECTOR_URL is required")
	}
	return nil
}
