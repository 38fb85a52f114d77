package database

import (
	"context"
	"fmt"
	"time"

	"concierge/web/types"

	"github.com/google/uuid"
)

// CreateDocumentWithChunks stores a document and its chunks in one
// transaction. Chunk IDs are assigned here and returned in chunk order.
func (s *PostgresStore) CreateDocumentWithChunks(ctx context.Context, title, filename, contentType string, chunkTexts []string) (types.Document, []types.Chunk, error) {
	doc := types.Document{
		ID:          uuid.New(),
		Title:       title,
		Filename:    filename,
		ContentType: contentType,
		CreatedAt:   time.Now(),
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return types.Document{}, nil, fmt.Errorf("begin ingest transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, title, filename, content_type, created_at) VALUES ($1, $2, $3, $4, $5)`,
		doc.ID, doc.Title, doc.Filename, doc.ContentType, doc.CreatedAt)
	if err != nil {
		return types.Document{}, nil, fmt.Errorf("insert document: %w", err)
	}

	chunks := make([]types.Chunk, 0, len(chunkTexts))
	for idx, text := range chunkTexts {
		ch := types.Chunk{
			ID:         uuid.New(),
			DocumentID: doc.ID,
			Index:      idx,
			Text:       text,
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO chunks (id, document_id, chunk_index, text) VALUES ($1, $2, $3, $4)`,
			ch.ID, ch.DocumentID, ch.Index, ch.Text)
		if err != nil {
			return types.Document{}, nil, fmt.Errorf("insert chunk %d: %w", idx, err)
		}
		chunks = append(chunks, ch)
	}

	if err := tx.Commit(); err != nil {
		return types.Document{}, nil, fmt.Errorf("commit ingest transaction: %w", err)
	}
	return doc, chunks, nil
}

// ReadAllChunks returns every chunk in the corpus in insertion order. Used
// to rebuild the lexical index from scratch.
func (s *PostgresStore) ReadAllChunks(ctx context.Context) ([]types.Chunk, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, document_id, chunk_index, text FROM chunks ORDER BY document_id, chunk_index`)
	if err != nil {
		return nil, fmt.Errorf("read chunks: %w", err)
	}
	defer rows.Close()

	var chunks []types.Chunk
	for rows.Next() {
		var ch types.Chunk
		if err := rows.Scan(&ch.ID, &ch.DocumentID, &ch.Index, &ch.Text); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunks = append(chunks, ch)
	}
	return chunks, rows.Err()
}

// FetchChunksByID resolves chunk identifiers to full chunk payloads.
// Lexical hits only carry identifiers, so fusion uses this to recover text.
func (s *PostgresStore) FetchChunksByID(ctx context.Context, ids []uuid.UUID) ([]types.Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, document_id, chunk_index, text FROM chunks WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch chunks by id: %w", err)
	}
	defer rows.Close()

	var chunks []types.Chunk
	for rows.Next() {
		var ch types.Chunk
		if err := rows.Scan(&ch.ID, &ch.DocumentID, &ch.Index, &ch.Text); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunks = append(chunks, ch)
	}
	return chunks, rows.Err()
}
