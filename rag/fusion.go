package rag

import (
	"context"
	"sort"

	"concierge/web/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// fuseCandidates merges the two hit lists keyed by chunk identity. Vector
// hits are inserted first; a lexical hit for a chunk already present keeps
// the max of the two scores. Max, not a weighted sum: cosine and BM25 scales
// are incommensurable, and max never penalizes a chunk strongly favored by
// only one retriever. Lexical-only hits carry just identifiers, so their
// payloads are looked up from the chunk store.
func (r *RAG) fuseCandidates(ctx context.Context, vectorHits []types.RetrievalCandidate, lexicalHits []LexicalHit) ([]types.RetrievalCandidate, error) {
	candidates := make(map[uuid.UUID]*types.RetrievalCandidate, len(vectorHits)+len(lexicalHits))
	for i := range vectorHits {
		hit := vectorHits[i]
		candidates[hit.ChunkID] = &hit
	}

	var missing []uuid.UUID
	missingScores := make(map[uuid.UUID]float64)
	for _, hit := range lexicalHits {
		if cand, ok := candidates[hit.ChunkID]; ok {
			if hit.Score > cand.Score {
				cand.Score = hit.Score
			}
			continue
		}
		missing = append(missing, hit.ChunkID)
		missingScores[hit.ChunkID] = hit.Score
	}

	if len(missing) > 0 {
		chunks, err := r.store.FetchChunksByID(ctx, missing)
		if err != nil {
			// Lexical payload lookup failing drops those hits; the
			// vector-side candidates still stand.
			r.logger.Warn("Failed to fetch lexical hit payloads", zap.Error(err))
			chunks = nil
		}
		for _, ch := range chunks {
			candidates[ch.ID] = &types.RetrievalCandidate{
				ChunkID:    ch.ID,
				DocumentID: ch.DocumentID,
				Index:      ch.Index,
				Text:       ch.Text,
				Score:      missingScores[ch.ID],
			}
		}
	}

	fused := make([]types.RetrievalCandidate, 0, len(candidates))
	for _, cand := range candidates {
		fused = append(fused, *cand)
	}
	return fused, nil
}

// rerankCandidates replaces every fused score with the cross-encoder's
// relevance for (query, text) and sorts descending. The sort is stable, so
// equal scores keep their fused-map iteration order; that order is not
// defined across runs and callers must not rely on a specific tie-break.
func (r *RAG) rerankCandidates(ctx context.Context, query string, fused []types.RetrievalCandidate) ([]types.RetrievalCandidate, error) {
	texts := make([]string, len(fused))
	for i, cand := range fused {
		texts[i] = cand.Text
	}

	scores, err := r.rerank(ctx, query, texts)
	if err != nil {
		return nil, err
	}

	for i := range fused {
		fused[i].Score = scores[i]
	}
	sort.SliceStable(fused, func(i, j int) bool { return fused[i].Score > fused[j].Score })
	return fused, nil
}
