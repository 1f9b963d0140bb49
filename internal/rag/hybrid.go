package rag

import (
	"context"
	"sync"

	"github.com/mih97/qcnav-linebot-go/internal/logger"
	"github.com/mih97/qcnav-linebot-go/internal/navigate"
	"github.com/mih97/qcnav-linebot-go/internal/storage"
)

// HybridSearcher combines BM25 keyword search and vector semantic search
// using Reciprocal Rank Fusion. It implements navigate.Searcher.
type HybridSearcher struct {
	vectorDB  *VectorDB
	bm25Index *BM25Index
	logger    *logger.Logger

	mu   sync.RWMutex
	docs map[string]*storage.Document // DocID -> document
}

// NewHybridSearcher creates a new hybrid searcher.
// If vectorDB is nil, only BM25 search is used.
// If bm25Index is nil, only vector search is used.
func NewHybridSearcher(vectorDB *VectorDB, bm25Index *BM25Index, log *logger.Logger) *HybridSearcher {
	return &HybridSearcher{
		vectorDB:  vectorDB,
		bm25Index: bm25Index,
		logger:    log,
		docs:      make(map[string]*storage.Document),
	}
}

// Initialize builds both indexes from the document corpus.
func (h *HybridSearcher) Initialize(ctx context.Context, documents []*storage.Document) error {
	if h == nil {
		return nil
	}

	h.mu.Lock()
	h.docs = make(map[string]*storage.Document, len(documents))
	for _, doc := range documents {
		h.docs[doc.DocID] = doc
	}
	h.mu.Unlock()

	// BM25 first: synchronous, CPU-only
	if h.bm25Index != nil {
		if err := h.bm25Index.Initialize(documents); err != nil {
			return err
		}
	}

	// Vector DB may call the embedding API
	if h.vectorDB != nil {
		if err := h.vectorDB.Initialize(ctx, documents); err != nil {
			return err
		}
	}

	return nil
}

// Search performs hybrid search and returns documents ranked by fused score.
//
// The search process:
//  1. Run BM25 keyword search in parallel with vector search
//  2. Combine results using Reciprocal Rank Fusion
//  3. Return the top results with their indexed documents attached
//
// Fallback behavior:
//   - If both sources are disabled, returns empty results
//   - If only one is available, that source is used alone
func (h *HybridSearcher) Search(ctx context.Context, query, equipment string, limit int) ([]navigate.Hit, error) {
	if h == nil {
		return nil, nil
	}

	vectorEnabled := h.vectorDB != nil && h.vectorDB.IsEnabled()
	bm25Enabled := h.bm25Index != nil && h.bm25Index.IsEnabled()

	if !vectorEnabled && !bm25Enabled {
		return nil, nil
	}

	// Fetch more results than requested for better RRF fusion
	fetchN := limit * 3
	if fetchN < 30 {
		fetchN = 30
	}

	var (
		bm25Results   []BM25Result
		vectorResults []VectorResult
		bm25Err       error
		vectorErr     error
		wg            sync.WaitGroup
	)

	if bm25Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bm25Results, bm25Err = h.bm25Index.Search(query, equipment, fetchN)
		}()
	}

	if vectorEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vectorResults, vectorErr = h.vectorDB.Search(ctx, query, equipment, fetchN)
		}()
	}

	wg.Wait()

	// Log errors but continue with whichever source succeeded
	if bm25Err != nil {
		h.logger.WithError(bm25Err).Warn("BM25 search failed")
	}
	if vectorErr != nil {
		h.logger.WithError(vectorErr).Warn("Vector search failed")
	}
	if bm25Err != nil && vectorErr != nil {
		return nil, bm25Err
	}

	// Single-source fallbacks
	if !bm25Enabled || len(bm25Results) == 0 {
		return h.vectorHits(vectorResults, limit), nil
	}
	if !vectorEnabled || len(vectorResults) == 0 {
		return h.bm25Hits(bm25Results, limit), nil
	}

	hybridResults := FuseRRFWithDefaults(bm25Results, vectorResults, limit)

	h.logger.WithFields(map[string]any{
		"bm25_count":   len(bm25Results),
		"vector_count": len(vectorResults),
		"fused_count":  len(hybridResults),
		"equipment":    equipment,
	}).Debug("Hybrid search completed")

	hits := make([]navigate.Hit, 0, len(hybridResults))
	for _, hr := range hybridResults {
		doc := h.document(hr.DocID)
		if doc == nil {
			continue
		}
		hits = append(hits, navigate.Hit{Doc: doc, Score: hr.RRFScore})
	}
	return hits, nil
}

// bm25Hits converts BM25-only results using rank-based confidence, since
// raw BM25 scores are unbounded and query-dependent.
func (h *HybridSearcher) bm25Hits(results []BM25Result, limit int) []navigate.Hit {
	hits := make([]navigate.Hit, 0, min(len(results), limit))
	for _, r := range results {
		if len(hits) >= limit {
			break
		}
		doc := h.document(r.DocID)
		if doc == nil {
			continue
		}
		hits = append(hits, navigate.Hit{Doc: doc, Score: computeRankConfidence(r.Rank)})
	}
	return hits
}

func (h *HybridSearcher) vectorHits(results []VectorResult, limit int) []navigate.Hit {
	hits := make([]navigate.Hit, 0, min(len(results), limit))
	for _, r := range results {
		if len(hits) >= limit {
			break
		}
		doc := h.document(r.DocID)
		if doc == nil {
			continue
		}
		hits = append(hits, navigate.Hit{Doc: doc, Score: float64(r.Similarity)})
	}
	return hits
}

func (h *HybridSearcher) document(docID string) *storage.Document {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.docs[docID]
}

// IsEnabled returns true if at least one search method is available.
func (h *HybridSearcher) IsEnabled() bool {
	if h == nil {
		return false
	}
	vectorEnabled := h.vectorDB != nil && h.vectorDB.IsEnabled()
	bm25Enabled := h.bm25Index != nil && h.bm25Index.IsEnabled()
	return vectorEnabled || bm25Enabled
}

// VectorDB returns the underlying vector database.
func (h *HybridSearcher) VectorDB() *VectorDB {
	if h == nil {
		return nil
	}
	return h.vectorDB
}

// BM25Index returns the underlying BM25 index.
func (h *HybridSearcher) BM25Index() *BM25Index {
	if h == nil {
		return nil
	}
	return h.bm25Index
}
