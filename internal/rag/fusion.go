package rag

import (
	"sort"
)

const (
	// RRFConstant is the constant used in the RRF formula: 1 / (k + rank).
	// The standard value of 60 balances weight between top-ranked documents
	// and lower-ranked ones.
	RRFConstant = 60

	// DefaultBM25Weight is the default weight for BM25 results in RRF fusion.
	// 0.4 means BM25 contributes 40% and vector search contributes 60%.
	DefaultBM25Weight = 0.4

	// DefaultVectorWeight is the default weight for vector search results.
	DefaultVectorWeight = 0.6
)

// HybridResult represents a fused result from BM25 and vector search.
type HybridResult struct {
	DocID      string
	Equipment  string
	Title      string
	Content    string  // From vector search
	BM25Score  float64 // Weighted BM25 score (0 if not found in BM25)
	VectorSim  float32 // Vector similarity (0 if not found in vector)
	RRFScore   float64 // Combined RRF score
	BM25Rank   int     // Rank in BM25 results (0 if not found)
	VectorRank int     // Rank in vector results (0 if not found)
}

// FuseRRF combines BM25 and vector search results using Reciprocal Rank
// Fusion:
//
//	score(d) = Σ (w_i / (k + rank_i))
//
// where k is RRFConstant, rank_i is the rank in each source, and w_i is the
// source weight. bm25Weight is clamped to [0,1]; the vector weight is its
// complement. Results are sorted by RRF score descending and limited to topN.
func FuseRRF(bm25Results []BM25Result, vectorResults []VectorResult, bm25Weight float64, topN int) []HybridResult {
	if bm25Weight < 0 {
		bm25Weight = 0
	}
	if bm25Weight > 1 {
		bm25Weight = 1
	}
	vectorWeight := 1.0 - bm25Weight

	resultMap := make(map[string]*HybridResult)

	for i, r := range bm25Results {
		rank := i + 1 // 1-indexed rank
		score := bm25Weight / float64(RRFConstant+rank)

		if existing, ok := resultMap[r.DocID]; ok {
			existing.BM25Score = r.Score
			existing.BM25Rank = rank
			existing.RRFScore += score
		} else {
			resultMap[r.DocID] = &HybridResult{
				DocID:     r.DocID,
				Equipment: r.Equipment,
				Title:     r.Title,
				BM25Score: r.Score,
				BM25Rank:  rank,
				RRFScore:  score,
			}
		}
	}

	for i, r := range vectorResults {
		rank := i + 1
		score := vectorWeight / float64(RRFConstant+rank)

		if existing, ok := resultMap[r.DocID]; ok {
			existing.VectorSim = r.Similarity
			existing.VectorRank = rank
			existing.Content = r.Content
			existing.RRFScore += score
			if existing.Title == "" {
				existing.Title = r.Title
			}
			if existing.Equipment == "" {
				existing.Equipment = r.Equipment
			}
		} else {
			resultMap[r.DocID] = &HybridResult{
				DocID:      r.DocID,
				Equipment:  r.Equipment,
				Title:      r.Title,
				Content:    r.Content,
				VectorSim:  r.Similarity,
				VectorRank: rank,
				RRFScore:   score,
			}
		}
	}

	results := make([]HybridResult, 0, len(resultMap))
	for _, r := range resultMap {
		results = append(results, *r)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].RRFScore != results[j].RRFScore {
			return results[i].RRFScore > results[j].RRFScore
		}
		return results[i].DocID < results[j].DocID
	})

	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	return results
}

// FuseRRFWithDefaults uses the default weights for BM25 (0.4) and vector (0.6).
func FuseRRFWithDefaults(bm25Results []BM25Result, vectorResults []VectorResult, topN int) []HybridResult {
	return FuseRRF(bm25Results, vectorResults, DefaultBM25Weight, topN)
}
