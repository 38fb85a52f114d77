package rag

import (
	"context"
	"fmt"

	"concierge/config"
	appErrors "concierge/errors"
	"concierge/web/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChunkStore is the relational persistence collaborator for chunk payloads.
type ChunkStore interface {
	ReadAllChunks(ctx context.Context) ([]types.Chunk, error)
	FetchChunksByID(ctx context.Context, ids []uuid.UUID) ([]types.Chunk, error)
}

// RAG is the hybrid retrieval-and-ranking pipeline: BM25 and vector search
// fan out per query, candidates are fused and reranked by the cross-encoder,
// and the top results are assembled into a bounded prompt context.
type RAG struct {
	cfg     *config.Config
	store   ChunkStore
	lexicon *BM25Index
	vectors *VectorIndex
	rerank  RerankFunc
	logger  *zap.Logger
}

func New(cfg *config.Config, store ChunkStore, vectors *VectorIndex, rerank RerankFunc, logger *zap.Logger) *RAG {
	return &RAG{
		cfg:     cfg,
		store:   store,
		lexicon: NewBM25Index(),
		vectors: vectors,
		rerank:  rerank,
		logger:  logger,
	}
}

// RebuildLexicon rebuilds the BM25 index over the whole chunk corpus. The
// replacement snapshot is published atomically, so concurrent searches keep
// working against the previous state until the swap.
func (r *RAG) RebuildLexicon(ctx context.Context) error {
	chunks, err := r.store.ReadAllChunks(ctx)
	if err != nil {
		return fmt.Errorf("read corpus for lexical rebuild: %w", err)
	}
	r.lexicon.Rebuild(chunks)
	r.logger.Info("Lexical index rebuilt", zap.Int("chunks", len(chunks)))
	return nil
}

// IndexChunks embeds and upserts freshly persisted chunks, then rebuilds the
// lexical index so both retrievers see the new corpus.
func (r *RAG) IndexChunks(ctx context.Context, chunks []types.Chunk) error {
	if err := r.vectors.Upsert(ctx, chunks); err != nil {
		return err
	}
	return r.RebuildLexicon(ctx)
}

// RetrieveAndRank runs both retrievers for the query, fuses the candidate
// sets, reranks with the cross-encoder, and returns the final top kFinal
// candidates by relevance, descending.
//
// Either retriever failing degrades to its hits being absent; both failing
// yields an empty result, never an error visible as a user-facing failure.
func (r *RAG) RetrieveAndRank(ctx context.Context, query string, kLexical, kVector, kFinal int) ([]types.RetrievalCandidate, error) {
	vectorHits, err := r.vectors.Search(ctx, query, kVector)
	if err != nil {
		r.logger.Warn("Vector search failed, continuing with lexical hits only", zap.Error(err))
		vectorHits = nil
	}

	lexicalHits := r.lexicon.Search(query, kLexical)

	fused, err := r.fuseCandidates(ctx, vectorHits, lexicalHits)
	if err != nil {
		return nil, err
	}
	if len(fused) == 0 {
		return nil, nil
	}

	reranked, err := r.rerankCandidates(ctx, query, fused)
	if err != nil {
		// Fused scores mix cosine and BM25 scales, so without the
		// cross-encoder there is no meaningful final ordering.
		return nil, fmt.Errorf("%w: rerank: %v", appErrors.ErrRetrievalUnavailable, err)
	}

	if len(reranked) > kFinal {
		reranked = reranked[:kFinal]
	}
	return reranked, nil
}
