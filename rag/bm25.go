package rag

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"sync/atomic"

	"concierge/web/types"

	"github.com/google/uuid"
)

const (
	bm25K1      = 1.5
	bm25B       = 0.75
	bm25Epsilon = 0.25
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

func tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

type posting struct {
	doc int
	tf  int
}

// bm25Snapshot is a fully-built, immutable index state. Rebuilds construct a
// fresh snapshot and publish it with a single atomic pointer swap, so readers
// never observe a partially rebuilt index.
type bm25Snapshot struct {
	chunkIDs  []uuid.UUID
	docLens   []int
	avgDocLen float64
	postings  map[string][]posting
	idf       map[string]float64
}

// LexicalHit is a keyword search result carrying only the chunk identifier;
// payloads are resolved during fusion.
type LexicalHit struct {
	ChunkID uuid.UUID
	Score   float64
}

// BM25Index is a rebuildable term-frequency index over the chunk corpus.
type BM25Index struct {
	snapshot atomic.Pointer[bm25Snapshot]
}

func NewBM25Index() *BM25Index {
	return &BM25Index{}
}

// Rebuild tokenizes the corpus and replaces the index state from scratch.
// Queries running concurrently see either the old or the new snapshot.
func (idx *BM25Index) Rebuild(corpus []types.Chunk) {
	snap := &bm25Snapshot{
		chunkIDs: make([]uuid.UUID, len(corpus)),
		docLens:  make([]int, len(corpus)),
		postings: make(map[string][]posting),
		idf:      make(map[string]float64),
	}

	totalLen := 0
	for i, chunk := range corpus {
		snap.chunkIDs[i] = chunk.ID
		tokens := tokenize(chunk.Text)
		snap.docLens[i] = len(tokens)
		totalLen += len(tokens)

		freqs := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			freqs[tok]++
		}
		for term, tf := range freqs {
			snap.postings[term] = append(snap.postings[term], posting{doc: i, tf: tf})
		}
	}

	if len(corpus) > 0 {
		snap.avgDocLen = float64(totalLen) / float64(len(corpus))
	}

	// Okapi idf with a floor: rare terms score ln((N-df+0.5)/(df+0.5));
	// terms in half the corpus or more come out zero or negative, so they
	// are clamped to epsilon times the average positive idf. When no term
	// has a positive idf (every term everywhere, single-document corpora)
	// the bare epsilon keeps matched terms scoring above zero.
	n := float64(len(corpus))
	var positiveSum float64
	var positiveCount int
	var clamped []string
	for term, plist := range snap.postings {
		df := float64(len(plist))
		idf := math.Log((n - df + 0.5) / (df + 0.5))
		snap.idf[term] = idf
		if idf > 0 {
			positiveSum += idf
			positiveCount++
		} else {
			clamped = append(clamped, term)
		}
	}
	floor := bm25Epsilon
	if positiveCount > 0 {
		floor = bm25Epsilon * (positiveSum / float64(positiveCount))
	}
	for _, term := range clamped {
		snap.idf[term] = floor
	}

	idx.snapshot.Store(snap)
}

// Search returns the top k chunks by BM25 score, descending, ties broken by
// original corpus order. Empty if the index is unbuilt or the query shares
// no terms with the corpus.
func (idx *BM25Index) Search(query string, k int) []LexicalHit {
	snap := idx.snapshot.Load()
	if snap == nil || len(snap.chunkIDs) == 0 || k <= 0 {
		return nil
	}

	scores := make([]float64, len(snap.chunkIDs))
	for _, term := range tokenize(query) {
		idf, ok := snap.idf[term]
		if !ok {
			continue
		}
		for _, p := range snap.postings[term] {
			tf := float64(p.tf)
			norm := 1 - bm25B + bm25B*float64(snap.docLens[p.doc])/snap.avgDocLen
			scores[p.doc] += idf * tf * (bm25K1 + 1) / (tf + bm25K1*norm)
		}
	}

	hits := make([]LexicalHit, 0, len(scores))
	for i, score := range scores {
		if score > 0 {
			hits = append(hits, LexicalHit{ChunkID: snap.chunkIDs[i], Score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}
