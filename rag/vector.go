package rag

import (
	"context"
	"fmt"
	"sync"

	"concierge/web/types"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
)

// EmbedFunc turns texts into unit-normalized vectors via the external
// embedding model.
type EmbedFunc func(ctx context.Context, texts []string) ([][]float32, error)

// RerankFunc scores (query, document) pairs with the external cross-encoder,
// returning scores aligned to the input document order.
type RerankFunc func(ctx context.Context, query string, documents []string) ([]float64, error)

// VectorStore is the nearest-neighbor persistence collaborator.
type VectorStore interface {
	EnsureEmbeddingCollection(ctx context.Context, dim int) error
	UpsertEmbeddings(ctx context.Context, chunks []types.Chunk, vectors [][]float32) error
	SearchEmbeddings(ctx context.Context, vector []float32, k int) ([]types.RetrievalCandidate, error)
}

// VectorIndex wraps the embedding function and the nearest-neighbor store.
// Collection creation is lazy and idempotent, keyed on the dimensionality of
// the first vector seen.
type VectorIndex struct {
	store      VectorStore
	embed      EmbedFunc
	queryCache *lru.Cache // query text -> []float32
	logger     *zap.Logger

	mu         sync.Mutex
	ensuredDim int
}

func NewVectorIndex(store VectorStore, embed EmbedFunc, cacheSize int, logger *zap.Logger) (*VectorIndex, error) {
	if cacheSize <= 0 {
		cacheSize = 128
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create query embedding cache: %w", err)
	}
	return &VectorIndex{
		store:      store,
		embed:      embed,
		queryCache: cache,
		logger:     logger,
	}, nil
}

// Upsert embeds the chunks and replaces their stored vectors by chunk id.
func (v *VectorIndex) Upsert(ctx context.Context, chunks []types.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}

	vectors, err := v.embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) == 0 {
		return fmt.Errorf("embedder returned no vectors")
	}

	if err := v.ensureCollection(ctx, len(vectors[0])); err != nil {
		return err
	}
	return v.store.UpsertEmbeddings(ctx, chunks, vectors)
}

// Search embeds the query (served from the LRU cache when the same query
// repeats) and returns the top k chunks by cosine similarity, descending.
func (v *VectorIndex) Search(ctx context.Context, query string, k int) ([]types.RetrievalCandidate, error) {
	vector, err := v.queryVector(ctx, query)
	if err != nil {
		return nil, err
	}
	return v.store.SearchEmbeddings(ctx, vector, k)
}

func (v *VectorIndex) queryVector(ctx context.Context, query string) ([]float32, error) {
	if cached, ok := v.queryCache.Get(query); ok {
		return cached.([]float32), nil
	}

	vectors, err := v.embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for one query", len(vectors))
	}

	v.queryCache.Add(query, vectors[0])
	return vectors[0], nil
}

func (v *VectorIndex) ensureCollection(ctx context.Context, dim int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.ensuredDim != 0 {
		if v.ensuredDim != dim {
			return fmt.Errorf("embedder dimension changed from %d to %d", v.ensuredDim, dim)
		}
		return nil
	}

	if err := v.store.EnsureEmbeddingCollection(ctx, dim); err != nil {
		return err
	}
	v.logger.Info("Vector collection ready", zap.Int("dimension", dim))
	v.ensuredDim = dim
	return nil
}
