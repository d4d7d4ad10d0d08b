package config

import (
	"time"

	"gopkg.in/yaml.v3"
)

// Tuning carries the engine's tuning knobs, loaded from the embedded
// defaults.yaml. Operators override individual values through env vars in
// Load; the file keeps the defaults reviewable in one place.
type Tuning struct {
	Matching struct {
		Threshold      float64 `yaml:"threshold"`
		CandidateLimit int     `yaml:"candidate_limit"`
	} `yaml:"matching"`

	Attendance struct {
		CheckoutCutoff string `yaml:"checkout_cutoff"`
	} `yaml:"attendance"`

	Caches struct {
		Identity  CacheBudget `yaml:"identity"`
		Candidate CacheBudget `yaml:"candidate"`
	} `yaml:"caches"`

	Loop struct {
		TickIntervalMS int `yaml:"tick_interval_ms"`
	} `yaml:"loop"`
}

// CacheBudget is the independent size/time budget of one cache.
type CacheBudget struct {
	MaxSize    int `yaml:"max_size"`
	TTLSeconds int `yaml:"ttl_seconds"`
}

// TTL returns the budget's time-to-live as a duration.
func (b CacheBudget) TTL() time.Duration {
	return time.Duration(b.TTLSeconds) * time.Second
}

func loadTuning() Tuning {
	var t Tuning
	if err := yaml.Unmarshal(defaultsYAML, &t); err != nil {
		// This is an embedded file so this error should never happen in practice.
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	return t
}
