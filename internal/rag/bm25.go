// Package rag provides hybrid retrieval over the QC document index.
// BM25 keyword search is fused with vector semantic search so that both
// error-code style queries ("DAD lamp error") and symptom descriptions
// ("피크가 깨져요") find the right troubleshooting documents.
package rag

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/crawlab-team/bm25"

	"github.com/mih97/qcnav-linebot-go/internal/logger"
	"github.com/mih97/qcnav-linebot-go/internal/storage"
)

// BM25Result represents a BM25 search result.
type BM25Result struct {
	DocID     string
	Equipment string
	Title     string
	Score     float64 // Weighted BM25 score (higher is better)
	Rank      int     // Rank position (1-indexed)
}

// BM25Index provides keyword-based search over document summaries
// using the Okapi BM25 ranking function.
type BM25Index struct {
	bm25Okapi    *bm25.BM25Okapi
	corpus       []string         // Chunk content, one entry per indexed chunk
	chunkToDocID map[int]string   // Chunk index -> canonical document ID
	docs         map[string]*storage.Document
	logger       *logger.Logger
	mu           sync.RWMutex
	initialized  bool
}

// NewBM25Index creates an empty BM25 index.
func NewBM25Index(log *logger.Logger) *BM25Index {
	return &BM25Index{
		chunkToDocID: make(map[int]string),
		docs:         make(map[string]*storage.Document),
		logger:       log,
	}
}

// Initialize builds the BM25 index from indexed documents.
// Each document contributes several chunks (title+symptom, fix summary,
// purpose, keywords) so symptom phrasing and procedure phrasing are
// scored independently.
func (idx *BM25Index) Initialize(documents []*storage.Document) error {
	if idx == nil {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.corpus = nil
	idx.chunkToDocID = make(map[int]string)
	idx.docs = make(map[string]*storage.Document)

	chunkIndex := 0
	var corpus []string
	for _, doc := range documents {
		idx.docs[doc.DocID] = doc
		for _, chunk := range documentChunks(doc) {
			if strings.TrimSpace(chunk) == "" {
				continue
			}
			corpus = append(corpus, chunk)
			idx.chunkToDocID[chunkIndex] = doc.DocID
			chunkIndex++
		}
	}

	if len(corpus) == 0 {
		idx.initialized = true
		return nil
	}
	idx.corpus = corpus

	// k1=1.5, b=0.75 are standard BM25 parameters
	bm25Okapi, err := bm25.NewBM25Okapi(corpus, tokenize, 1.5, 0.75, nil)
	if err != nil {
		return fmt.Errorf("failed to create BM25 index: %w", err)
	}
	idx.bm25Okapi = bm25Okapi
	idx.initialized = true

	idx.logger.WithFields(map[string]any{
		"documents": len(idx.docs),
		"chunks":    len(corpus),
	}).Info("BM25 index initialized")
	return nil
}

// documentChunks splits a document into independently scored chunks.
func documentChunks(doc *storage.Document) []string {
	chunks := []string{
		strings.TrimSpace(doc.Title + "\n" + doc.Symptom),
		doc.FixSummary,
		doc.Purpose,
	}
	if len(doc.Keywords) > 0 {
		chunks = append(chunks, strings.Join(doc.Keywords, " "))
	}
	return chunks
}

// Search performs BM25 keyword search.
// If equipment is non-empty, only documents of that equipment family are
// returned. Results are sorted by weighted score descending.
func (idx *BM25Index) Search(query, equipment string, topN int) ([]BM25Result, error) {
	if idx == nil || !idx.IsEnabled() {
		return nil, nil
	}
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	tokenizedQuery := tokenize(query)
	if len(tokenizedQuery) == 0 {
		return nil, nil
	}

	scores, err := idx.bm25Okapi.GetScores(tokenizedQuery)
	if err != nil {
		return nil, fmt.Errorf("BM25 scoring failed: %w", err)
	}

	// Deduplicate chunks by document, keeping the best-scoring chunk.
	// The curated document weight scales the raw BM25 score.
	best := make(map[string]float64)
	for chunkIndex, score := range scores {
		if score <= 0 {
			continue
		}
		docID := idx.chunkToDocID[chunkIndex]
		if docID == "" {
			continue
		}
		doc := idx.docs[docID]
		if doc == nil {
			continue
		}
		if equipment != "" && doc.Equipment != equipment {
			continue
		}
		weighted := score
		if doc.Weight > 0 {
			weighted *= doc.Weight
		}
		if existing, ok := best[docID]; !ok || weighted > existing {
			best[docID] = weighted
		}
	}

	results := make([]BM25Result, 0, len(best))
	for docID, score := range best {
		doc := idx.docs[docID]
		results = append(results, BM25Result{
			DocID:     docID,
			Equipment: doc.Equipment,
			Title:     doc.Title,
			Score:     score,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocID < results[j].DocID
	})

	for i := range results {
		results[i].Rank = i + 1
	}

	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	return results, nil
}

// computeRankConfidence calculates confidence score from BM25 rank.
// BM25 scores are unbounded and query-dependent, so rank is used as a proxy.
//
// Formula: 1 / (1 + 0.05 * rank)
//   - rank 1 → 0.95
//   - rank 5 → 0.80
//   - rank 10 → 0.67
func computeRankConfidence(rank int) float64 {
	if rank <= 0 {
		return 0
	}
	return 1.0 / (1.0 + 0.05*float64(rank))
}

// IsEnabled returns true if the index is initialized.
func (idx *BM25Index) IsEnabled() bool {
	if idx == nil {
		return false
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.initialized && idx.bm25Okapi != nil
}

// Count returns the number of indexed documents.
func (idx *BM25Index) Count() int {
	if idx == nil {
		return 0
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docs)
}

// tokenize splits text into BM25 tokens. Korean (and other CJK) runes are
// emitted as single characters plus bigrams, which works without a
// language-specific segmenter; Latin words and digits are accumulated whole.
func tokenize(text string) []string {
	text = strings.ToLower(text)

	var tokens []string
	var currentWord strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if isCJK(r) {
				// Flush any pending non-CJK word
				if currentWord.Len() > 0 {
					tokens = append(tokens, currentWord.String())
					currentWord.Reset()
				}
				tokens = append(tokens, string(r))
				if i+1 < len(runes) && isCJK(runes[i+1]) {
					tokens = append(tokens, string(r)+string(runes[i+1]))
				}
			} else {
				currentWord.WriteRune(r)
			}
		} else {
			if currentWord.Len() > 0 {
				tokens = append(tokens, currentWord.String())
				currentWord.Reset()
			}
		}
	}

	if currentWord.Len() > 0 {
		tokens = append(tokens, currentWord.String())
	}

	return tokens
}

// isCJK returns true if the rune needs character-level tokenization.
func isCJK(r rune) bool {
	return unicode.Is(unicode.Hangul, r) ||
		unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r)
}
