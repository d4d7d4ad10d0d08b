package cmd

import (
	"context"
	"fmt"

	"github.com/classtrack/faceattend/internal/attendance"
	"github.com/classtrack/faceattend/internal/cache"
	"github.com/classtrack/faceattend/internal/config"
	"github.com/classtrack/faceattend/internal/matcher"
	"github.com/classtrack/faceattend/internal/store/mariadb"
	"github.com/classtrack/faceattend/internal/store/postgres"
)

// engine bundles the wired recognition components shared by the run and
// serve commands.
type engine struct {
	registry   *postgres.Registry
	identities *cache.IdentityCache
	candidates *cache.CandidateCache
	matcher    *matcher.Matcher

	registryPool *postgres.Pool
}

// buildEngine connects to the registry database, runs migrations, and wires
// the caches and matcher from the tuning config.
func buildEngine(ctx context.Context, cfg *config.Config) (*engine, error) {
	fmt.Printf("Connecting to registry database...\n")
	pool, err := postgres.NewPool(&cfg.Registry)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize registry: %w", err)
	}

	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	identities := cache.NewIdentityCache(
		cfg.Tuning.Caches.Identity.MaxSize,
		cfg.Tuning.Caches.Identity.TTL(),
		cfg.Tuning.Matching.Threshold,
	)
	candidates := cache.NewCandidateCache(
		cfg.Tuning.Caches.Candidate.MaxSize,
		cfg.Tuning.Caches.Candidate.TTL(),
	)

	registry := postgres.NewRegistry(pool)
	m := matcher.New(
		registry,
		identities,
		candidates,
		cfg.Tuning.Matching.Threshold,
		cfg.Batch.ID,
		cfg.Tuning.Matching.CandidateLimit,
	)

	return &engine{
		registry:     registry,
		identities:   identities,
		candidates:   candidates,
		matcher:      m,
		registryPool: pool,
	}, nil
}

// start launches the cache expiry sweepers.
func (e *engine) start() {
	e.identities.Start()
	e.candidates.Start()
}

// close stops the sweepers and releases the database pool.
func (e *engine) close() {
	e.identities.Stop()
	e.candidates.Stop()
	e.registryPool.Close()
}

// buildTracker connects to the ledger database and wires the attendance
// state machine.
func buildTracker(ctx context.Context, cfg *config.Config) (*attendance.Tracker, *mariadb.Ledger, *mariadb.Pool, error) {
	fmt.Printf("Connecting to ledger database...\n")
	pool, err := mariadb.NewPool(cfg.Ledger.DSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize ledger: %w", err)
	}

	if err := pool.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("failed to create ledger schema: %w", err)
	}

	ledger := mariadb.NewLedger(pool)
	hour, minute := cfg.CheckoutCutoff()
	tracker := attendance.New(ledger, hour, minute)
	return tracker, ledger, pool, nil
}
