package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	appErrors "concierge/errors"
	"concierge/web/types"

	"github.com/pgvector/pgvector-go"
)

// EnsureEmbeddingCollection lazily creates the chunk embedding table for the
// given vector dimensionality. Idempotent; if the table already exists with a
// different dimension this fails rather than silently downgrading.
func (s *PostgresStore) EnsureEmbeddingCollection(ctx context.Context, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("invalid embedding dimension %d", dim)
	}

	var existingDim int
	err := s.DB.QueryRowContext(ctx,
		`SELECT a.atttypmod FROM pg_attribute a
         JOIN pg_class c ON a.attrelid = c.oid
         WHERE c.relname = 'chunk_embeddings' AND a.attname = 'embedding'`).Scan(&existingDim)
	switch {
	case err == nil:
		if existingDim != dim {
			return fmt.Errorf("%w: collection has dimension %d, embedder produces %d",
				appErrors.ErrDimensionMismatch, existingDim, dim)
		}
		return nil
	case errors.Is(err, sql.ErrNoRows):
		// fall through to create
	default:
		return fmt.Errorf("inspect embedding collection: %w", err)
	}

	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunk_embeddings (
            chunk_id UUID PRIMARY KEY REFERENCES chunks(id) ON DELETE CASCADE,
            document_id UUID NOT NULL,
            chunk_index INT NOT NULL,
            text TEXT NOT NULL,
            embedding vector(%d) NOT NULL
        )`, dim),
		`CREATE INDEX IF NOT EXISTS idx_chunk_embeddings_cosine
            ON chunk_embeddings USING hnsw (embedding vector_cosine_ops)`,
	}
	for _, stmt := range stmts {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create embedding collection: %w", err)
		}
	}
	return nil
}

// UpsertEmbeddings stores one vector per chunk, replacing any existing row
// by chunk id.
func (s *PostgresStore) UpsertEmbeddings(ctx context.Context, chunks []types.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("got %d chunks but %d vectors", len(chunks), len(vectors))
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin embedding upsert: %w", err)
	}
	defer tx.Rollback()

	const query = `
        INSERT INTO chunk_embeddings (chunk_id, document_id, chunk_index, text, embedding)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (chunk_id)
        DO UPDATE SET document_id = EXCLUDED.document_id, chunk_index = EXCLUDED.chunk_index,
                      text = EXCLUDED.text, embedding = EXCLUDED.embedding
    `
	for i, ch := range chunks {
		if _, err := tx.ExecContext(ctx, query, ch.ID, ch.DocumentID, ch.Index, ch.Text, pgvector.NewVector(vectors[i])); err != nil {
			return fmt.Errorf("upsert embedding for chunk %s: %w", ch.ID, err)
		}
	}
	return tx.Commit()
}

// SearchEmbeddings returns the k nearest chunks by cosine similarity,
// descending. Vectors are unit-normalized on write and query, so the cosine
// distance operator gives exact cosine similarity as 1 - distance.
func (s *PostgresStore) SearchEmbeddings(ctx context.Context, vector []float32, k int) ([]types.RetrievalCandidate, error) {
	if k <= 0 {
		return nil, nil
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT chunk_id, document_id, chunk_index, text, 1 - (embedding <=> $1) AS score
         FROM chunk_embeddings
         ORDER BY embedding <=> $1
         LIMIT $2`, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	var candidates []types.RetrievalCandidate
	for rows.Next() {
		var cand types.RetrievalCandidate
		if err := rows.Scan(&cand.ChunkID, &cand.DocumentID, &cand.Index, &cand.Text, &cand.Score); err != nil {
			return nil, fmt.Errorf("scan vector hit: %w", err)
		}
		candidates = append(candidates, cand)
	}
	return candidates, rows.Err()
}
