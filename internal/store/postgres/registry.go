package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/classtrack/faceattend/internal/store"
)

// Registry provides PostgreSQL-backed identity storage.
type Registry struct {
	pool *Pool
}

// NewRegistry creates a new PostgreSQL identity registry.
func NewRegistry(pool *Pool) *Registry {
	return &Registry{pool: pool}
}

// FindByChunks retrieves identities whose stored chunks contain any of the
// query chunks as a substring. Stored chunks come from the wide enrollment
// chunking, query chunks from the narrow matching chunking, so containment
// rather than equality is the right comparison.
func (r *Registry) FindByChunks(ctx context.Context, chunks []string, batchID string, limit int) ([]store.RegistryRecord, error) {
	patterns := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if c == "" {
			continue
		}
		patterns = append(patterns, "%"+c+"%")
	}
	if len(patterns) == 0 {
		return nil, nil
	}

	// An empty batch disables scoping; a zero limit disables the cap.
	query := `
		SELECT DISTINCT i.id
		FROM identities i
		JOIN identity_chunks c ON c.identity_id = i.id
		WHERE ($1 = '' OR i.batch_id = $1) AND c.chunk LIKE ANY($2)
		LIMIT NULLIF($3, 0)
	`

	rows, err := r.pool.Query(ctx, query, batchID, pq.Array(patterns), limit)
	if err != nil {
		return nil, fmt.Errorf("query identities by chunks: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan identity id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identity ids: %w", err)
	}

	records := make([]store.RegistryRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := r.getByID(ctx, id)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, nil
}

// GetByLabel retrieves an identity by its normalized label. Returns nil
// without error when the label is not enrolled.
func (r *Registry) GetByLabel(ctx context.Context, label string) (*store.RegistryRecord, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, "SELECT id FROM identities WHERE label = $1", label).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query identity by label: %w", err)
	}
	return r.getByID(ctx, id)
}

// List retrieves all enrolled identities ordered by label. An empty batchID
// disables batch scoping.
func (r *Registry) List(ctx context.Context, batchID string) ([]store.RegistryRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM identities
		WHERE $1 = '' OR batch_id = $1
		ORDER BY label
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("query identities: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan identity id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identity ids: %w", err)
	}

	records := make([]store.RegistryRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := r.getByID(ctx, id)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, nil
}

// Create persists a new identity with all its samples and chunks in a
// single transaction.
func (r *Registry) Create(ctx context.Context, record store.RegistryRecord) error {
	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO identities (id, label, batch_id, created_at)
		VALUES ($1, $2, $3, $4)
	`, record.ID, record.Label, record.BatchID, record.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert identity: %w", err)
	}

	for _, sample := range record.Samples {
		vec := pgvector.NewVector(sample.Embedding)
		_, err = tx.ExecContext(ctx, `
			INSERT INTO identity_samples (identity_id, sample_index, embedding)
			VALUES ($1, $2, $3::vector)
		`, record.ID, sample.Index, vec)
		if err != nil {
			return fmt.Errorf("insert sample %d: %w", sample.Index, err)
		}

		for _, chunk := range sample.Chunks {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO identity_chunks (identity_id, sample_index, chunk)
				VALUES ($1, $2, $3)
			`, record.ID, sample.Index, chunk)
			if err != nil {
				return fmt.Errorf("insert chunk for sample %d: %w", sample.Index, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// getByID assembles one full record with its samples and chunks.
func (r *Registry) getByID(ctx context.Context, id uuid.UUID) (*store.RegistryRecord, error) {
	var rec store.RegistryRecord
	err := r.pool.QueryRow(ctx, `
		SELECT id, label, batch_id, created_at
		FROM identities
		WHERE id = $1
	`, id).Scan(&rec.ID, &rec.Label, &rec.BatchID, &rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("query identity %s: %w", id, err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT sample_index, embedding
		FROM identity_samples
		WHERE identity_id = $1
		ORDER BY sample_index
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sample store.Sample
		var vec pgvector.Vector
		if err := rows.Scan(&sample.Index, &vec); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		sample.Embedding = vec.Slice()
		rec.Samples = append(rec.Samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}

	chunkRows, err := r.pool.Query(ctx, `
		SELECT sample_index, chunk
		FROM identity_chunks
		WHERE identity_id = $1
		ORDER BY id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer chunkRows.Close()

	for chunkRows.Next() {
		var sampleIndex int
		var chunk string
		if err := chunkRows.Scan(&sampleIndex, &chunk); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		for i := range rec.Samples {
			if rec.Samples[i].Index == sampleIndex {
				rec.Samples[i].Chunks = append(rec.Samples[i].Chunks, chunk)
				break
			}
		}
	}
	if err := chunkRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}

	return &rec, nil
}
