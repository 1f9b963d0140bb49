package rag

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/mih97/qcnav-linebot-go/internal/genai"
	"github.com/mih97/qcnav-linebot-go/internal/logger"
	"github.com/mih97/qcnav-linebot-go/internal/storage"
)

const (
	// DocumentCollectionName is the name of the document collection in chromem
	DocumentCollectionName = "documents"

	// DefaultSearchResults is the default number of results for semantic search
	DefaultSearchResults = 10

	// MaxSearchResults is the maximum number of results for semantic search
	MaxSearchResults = 100

	// MinSimilarityThreshold is the minimum cosine similarity score to
	// include a result. Queries are short symptom phrases compared against
	// chunked summaries, so 0.3 filters noise without dropping reasonable
	// matches.
	MinSimilarityThreshold float32 = 0.3
)

// VectorResult represents a semantic search result.
type VectorResult struct {
	DocID      string
	Equipment  string
	Title      string
	Content    string  // Matched chunk content
	Similarity float32 // Cosine similarity score (0-1)
}

// VectorDB wraps a chromem-go database for document semantic search.
type VectorDB struct {
	db            *chromem.DB
	collection    *chromem.Collection
	embeddingFunc chromem.EmbeddingFunc
	logger        *logger.Logger
	mu            sync.RWMutex
	initialized   bool
}

// NewVectorDB creates a vector database persisted under persistDir.
// Returns nil if apiKey is empty (semantic search disabled).
func NewVectorDB(persistDir, apiKey string, log *logger.Logger) (*VectorDB, error) {
	if apiKey == "" {
		log.Info("Gemini API key not configured, semantic search disabled")
		return nil, nil
	}

	embeddingFunc := genai.NewEmbeddingFunc(apiKey)

	chromemPath := filepath.Join(persistDir, "chromem", DocumentCollectionName)
	db, err := chromem.NewPersistentDB(chromemPath, false)
	if err != nil {
		return nil, fmt.Errorf("failed to create chromem database: %w", err)
	}

	return &VectorDB{
		db:            db,
		embeddingFunc: embeddingFunc,
		logger:        log,
	}, nil
}

// Initialize loads indexed documents into the vector store. Embeddings
// already persisted on disk are reused without re-embedding.
func (v *VectorDB) Initialize(ctx context.Context, documents []*storage.Document) error {
	if v == nil {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	collection, err := v.db.GetOrCreateCollection(DocumentCollectionName, nil, v.embeddingFunc)
	if err != nil {
		return fmt.Errorf("failed to get/create collection: %w", err)
	}
	v.collection = collection

	existingCount := collection.Count()
	if existingCount > 0 {
		v.logger.WithField("count", existingCount).Info("Loaded existing document embeddings from disk")
		v.initialized = true
		return nil
	}

	if len(documents) > 0 {
		if err := v.addDocumentsInternal(ctx, documents); err != nil {
			return fmt.Errorf("failed to add documents: %w", err)
		}
		v.logger.WithField("count", len(documents)).Info("Indexed documents for semantic search")
	}

	v.initialized = true
	return nil
}

// AddDocuments embeds and stores additional documents.
func (v *VectorDB) AddDocuments(ctx context.Context, documents []*storage.Document) error {
	if v == nil || v.collection == nil || len(documents) == 0 {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	return v.addDocumentsInternal(ctx, documents)
}

// addDocumentsInternal adds documents (assumes lock held).
// Each document stores one embedding of its merged search text; chunk IDs
// reuse the canonical document ID so re-adding is idempotent.
func (v *VectorDB) addDocumentsInternal(ctx context.Context, documents []*storage.Document) error {
	docs := make([]chromem.Document, 0, len(documents))
	for _, doc := range documents {
		content := strings.TrimSpace(doc.SearchText())
		if content == "" {
			continue
		}
		docs = append(docs, chromem.Document{
			ID:      doc.DocID,
			Content: content,
			Metadata: map[string]string{
				"doc_id":    doc.DocID,
				"equipment": doc.Equipment,
				"title":     doc.Title,
			},
		})
	}

	if len(docs) == 0 {
		return nil
	}

	if err := v.collection.AddDocuments(ctx, docs, 4); err != nil { // 4 concurrent embeddings
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

// Search performs semantic search for documents matching the query.
// If equipment is non-empty, results are restricted to that equipment
// family via metadata filtering. Results below MinSimilarityThreshold are
// discarded.
func (v *VectorDB) Search(ctx context.Context, query, equipment string, nResults int) ([]VectorResult, error) {
	if v == nil || v.collection == nil {
		return nil, nil
	}
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	if nResults <= 0 {
		nResults = DefaultSearchResults
	}
	if nResults > MaxSearchResults {
		nResults = MaxSearchResults
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	docCount := v.collection.Count()
	if docCount == 0 {
		return nil, nil
	}

	// chromem-go returns an error when nResults exceeds the document count
	queryLimit := nResults
	if queryLimit > docCount {
		queryLimit = docCount
	}

	var where map[string]string
	if equipment != "" {
		where = map[string]string{"equipment": equipment}
	}

	results, err := v.collection.Query(ctx, query, queryLimit, where, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	out := make([]VectorResult, 0, len(results))
	for _, result := range results {
		if result.Similarity < MinSimilarityThreshold {
			continue
		}
		out = append(out, VectorResult{
			DocID:      result.Metadata["doc_id"],
			Equipment:  result.Metadata["equipment"],
			Title:      result.Metadata["title"],
			Content:    result.Content,
			Similarity: result.Similarity,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})

	return out, nil
}

// IsEnabled returns true if the vector database is ready for queries.
func (v *VectorDB) IsEnabled() bool {
	if v == nil {
		return false
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.initialized && v.collection != nil
}

// Count returns the number of embedded documents.
func (v *VectorDB) Count() int {
	if v == nil || v.collection == nil {
		return 0
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.collection.Count()
}
