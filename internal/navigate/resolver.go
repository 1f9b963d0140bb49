package navigate

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/mih97/qcnav-linebot-go/internal/category"
	"github.com/mih97/qcnav-linebot-go/internal/config"
	"github.com/mih97/qcnav-linebot-go/internal/docref"
	domerrors "github.com/mih97/qcnav-linebot-go/internal/errors"
	"github.com/mih97/qcnav-linebot-go/internal/linktable"
	"github.com/mih97/qcnav-linebot-go/internal/metrics"
	"github.com/mih97/qcnav-linebot-go/internal/storage"
)

// Hit is one retrieval result.
type Hit struct {
	Doc   *storage.Document
	Score float64
}

// Searcher retrieves ranked documents for a symptom query.
type Searcher interface {
	Search(ctx context.Context, query, equipment string, limit int) ([]Hit, error)
}

// DocumentStore looks up indexed documents by canonical identifier.
// *storage.DB satisfies this.
type DocumentStore interface {
	GetDocumentByID(ctx context.Context, docID string) (*storage.Document, error)
}

// Navigator is the optional LLM collaborator that re-ranks retrieval
// candidates for a query. Implementations return ordered canonical document
// identifiers drawn from the candidate set.
type Navigator interface {
	Rank(ctx context.Context, query, language string, candidates []*storage.Document) ([]string, error)
}

// maxRecommendations caps how many documents one answer session captures.
const maxRecommendations = 9

// Resolver orchestrates the full answer pipeline: language detection,
// direct reference lookup, staged retrieval, optional LLM re-ranking,
// pagination capture, and reply assembly.
type Resolver struct {
	cfg        config.ResolverConfig
	searcher   Searcher
	docs       DocumentStore
	navigator  Navigator // nil disables LLM re-ranking
	table      *linktable.Table
	sessions   *SessionStore
	assembler  *Assembler
	normalizer *docref.Normalizer
	metrics    *metrics.Metrics
}

// NewResolver wires the resolver pipeline. navigator may be nil, in which
// case retrieval order is served as-is.
func NewResolver(
	cfg config.ResolverConfig,
	searcher Searcher,
	docs DocumentStore,
	navigator Navigator,
	table *linktable.Table,
	sessions *SessionStore,
	m *metrics.Metrics,
) *Resolver {
	return &Resolver{
		cfg:        cfg,
		searcher:   searcher,
		docs:       docs,
		navigator:  navigator,
		table:      table,
		sessions:   sessions,
		assembler:  NewAssembler(table, cfg.FolderURL),
		normalizer: docref.NewNormalizer(cfg.PadWidth),
		metrics:    m,
	}
}

// Assembler exposes the reply assembler, for callers that need to render
// session-independent messages.
func (r *Resolver) Assembler() *Assembler {
	return r.assembler
}

// Answer resolves a free-text symptom query into a first-page reply.
// The ranked list is captured in the chat's session so later "show more"
// requests page through the same results.
func (r *Resolver) Answer(ctx context.Context, chatID, query string) (*Reply, error) {
	start := time.Now()
	lang := docref.DetectLanguage(query)
	cls := category.Classify(query)

	recs, basis, err := r.collect(ctx, query, lang, cls)
	if err != nil {
		r.metrics.RecordResolver("answer", "error", time.Since(start))
		return r.assembler.RenderError(lang), err
	}

	if len(recs) == 0 {
		r.metrics.RecordResolver("answer", "empty", time.Since(start))
		slog.InfoContext(ctx, "no documents matched after all passes",
			"query_language", lang,
			"category", cls.Category.String())
		return r.assembler.RenderApology(lang), domerrors.ErrEmptyResultSet
	}

	session := &Session{
		Pagination: NewPagination(recs, r.cfg.PageSize),
		Query:      query,
		Language:   lang,
		Basis:      basis,
	}
	r.sessions.Put(chatID, session)

	reply := r.assembler.RenderPage(session, 0)
	r.metrics.RecordLinksResolved(reply.LinkCount)
	r.metrics.RecordResolver("answer", "ok", time.Since(start))
	return reply, nil
}

// More serves the next page of a previously captured result list.
// Returns ErrNotFound when no live session exists for the chat.
func (r *Resolver) More(ctx context.Context, chatID string, pageIndex int) (*Reply, error) {
	start := time.Now()
	session := r.sessions.Get(chatID)
	if session == nil {
		r.metrics.RecordResolver("more", "expired", time.Since(start))
		return nil, domerrors.ErrNotFound
	}

	if len(session.Pagination.Page(pageIndex)) == 0 {
		r.metrics.RecordResolver("more", "empty", time.Since(start))
		return nil, domerrors.ErrNotFound
	}

	reply := r.assembler.RenderPage(session, pageIndex)
	r.metrics.RecordLinksResolved(reply.LinkCount)
	r.metrics.RecordResolver("more", "ok", time.Since(start))
	return reply, nil
}

// collect gathers ranked recommendations for a query. Explicit document
// references in the query short-circuit retrieval; otherwise up to three
// staged search passes run before the result is declared empty.
func (r *Resolver) collect(ctx context.Context, query, lang string, cls category.Result) ([]Recommendation, string, error) {
	// Direct references always rank first
	direct := r.directRefs(ctx, query)

	hits, pass, err := r.search(ctx, query, cls)
	if err != nil {
		if len(direct) > 0 {
			// Retrieval failed but the user named documents explicitly;
			// serve what we can instead of surfacing the failure.
			slog.WarnContext(ctx, "retrieval failed, serving direct references only",
				"error", err)
			return direct, "", nil
		}
		return nil, "", err
	}

	recs := append(direct, r.toRecommendations(hits, direct)...)
	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	recs = r.Rerank(ctx, query, lang, recs)

	basis := ""
	if cls.Category != category.Unknown && pass > 0 {
		basis = Basis(lang, cls.Matched, cls.Category.String())
	}
	return recs, basis, nil
}

// search runs the staged retrieval passes in order and returns the first
// non-empty result set along with the 1-based pass number that produced it.
// All passes must run dry before an empty result is returned.
func (r *Resolver) search(ctx context.Context, query string, cls category.Result) ([]Hit, int, error) {
	passes := r.searchPasses(query, cls)

	var lastErr error
	for i, passQuery := range passes {
		if passQuery == "" {
			continue
		}
		hits, err := r.searcher.Search(ctx, passQuery, cls.Equipment, maxRecommendations)
		if err != nil {
			lastErr = err
			r.metrics.RecordSearchPass(passName(i), false)
			slog.WarnContext(ctx, "search pass failed",
				"pass", i+1,
				"error", err)
			continue
		}
		r.metrics.RecordSearchPass(passName(i), len(hits) > 0)
		if len(hits) > 0 {
			return hits, i + 1, nil
		}
	}

	if lastErr != nil {
		return nil, 0, lastErr
	}
	return nil, 0, nil
}

// searchPasses builds the staged pass queries: the raw symptom text, the
// category name, then the category's expansion vocabulary. The number of
// passes actually run is capped by configuration.
func (r *Resolver) searchPasses(query string, cls category.Result) []string {
	passes := []string{query}
	if cls.Category != category.Unknown {
		passes = append(passes, cls.Category.String())
		if exp := category.Expansions(cls.Category); len(exp) > 0 {
			passes = append(passes, strings.Join(exp, " "))
		}
	}
	if len(passes) > r.cfg.SearchPassCount {
		passes = passes[:r.cfg.SearchPassCount]
	}
	return passes
}

// directRefs looks up document references the user spelled out.
func (r *Resolver) directRefs(ctx context.Context, query string) []Recommendation {
	var recs []Recommendation
	for _, ref := range r.normalizer.ExtractRefs(query) {
		doc, err := r.docs.GetDocumentByID(ctx, ref.DocID())
		if err != nil {
			slog.WarnContext(ctx, "direct reference lookup failed",
				"doc_id", ref.DocID(),
				"error", err)
			continue
		}
		if doc == nil {
			continue
		}
		recs = append(recs, recommendationFromDoc(doc, 1.0))
	}
	return recs
}

// toRecommendations converts hits, dropping documents already present as
// direct references.
func (r *Resolver) toRecommendations(hits []Hit, direct []Recommendation) []Recommendation {
	seen := make(map[string]struct{}, len(direct))
	for _, rec := range direct {
		seen[rec.Ref.DocID()] = struct{}{}
	}

	var recs []Recommendation
	for _, hit := range hits {
		if _, dup := seen[hit.Doc.DocID]; dup {
			continue
		}
		seen[hit.Doc.DocID] = struct{}{}
		recs = append(recs, recommendationFromDoc(hit.Doc, hit.Score))
	}
	return recs
}

// Rerank applies the LLM navigator to the captured recommendations.
// Exposed separately so the caller controls the timeout budget; on any
// collaborator error the original order is returned unchanged.
func (r *Resolver) Rerank(ctx context.Context, query, lang string, recs []Recommendation) []Recommendation {
	if r.navigator == nil || len(recs) < 2 {
		return recs
	}

	docs := make([]*storage.Document, 0, len(recs))
	byID := make(map[string]Recommendation, len(recs))
	for _, rec := range recs {
		doc := &storage.Document{
			DocID:     rec.Ref.DocID(),
			Equipment: rec.Equipment,
			Number:    rec.Ref.Number,
			Title:     rec.Title,
		}
		docs = append(docs, doc)
		byID[doc.DocID] = rec
	}

	order, err := r.navigator.Rank(ctx, query, lang, docs)
	if err != nil {
		var collab *domerrors.CollaboratorError
		if errors.As(err, &collab) {
			slog.WarnContext(ctx, "navigator unavailable, keeping retrieval order",
				"provider", collab.Provider,
				"error", err)
		} else {
			slog.WarnContext(ctx, "navigator failed, keeping retrieval order",
				"error", err)
		}
		return recs
	}

	reranked := make([]Recommendation, 0, len(recs))
	used := make(map[string]struct{}, len(order))
	for _, docID := range order {
		rec, ok := byID[docID]
		if !ok {
			// Navigator may only choose from the candidate set
			continue
		}
		if _, dup := used[docID]; dup {
			continue
		}
		used[docID] = struct{}{}
		reranked = append(reranked, rec)
	}
	// Navigator output is a filter as well as an order, but never an
	// inventor: anything it dropped goes to the tail so pagination still
	// reaches every candidate.
	for _, rec := range recs {
		if _, ok := used[rec.Ref.DocID()]; !ok {
			reranked = append(reranked, rec)
		}
	}
	return reranked
}

func recommendationFromDoc(doc *storage.Document, score float64) Recommendation {
	return Recommendation{
		Ref:       docref.Ref{Equipment: doc.Equipment, Number: doc.Number},
		Title:     doc.Title,
		Equipment: doc.Equipment,
		Score:     score,
	}
}

func passName(i int) string {
	switch i {
	case 0:
		return "raw_query"
	case 1:
		return "category_name"
	default:
		return "expansions"
	}
}
