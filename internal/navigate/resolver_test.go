package navigate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mih97/qcnav-linebot-go/internal/config"
	"github.com/mih97/qcnav-linebot-go/internal/docref"
	domerrors "github.com/mih97/qcnav-linebot-go/internal/errors"
	"github.com/mih97/qcnav-linebot-go/internal/linktable"
	"github.com/mih97/qcnav-linebot-go/internal/storage"
)

type fakeSearcher struct {
	hits    map[string][]Hit // keyed by query
	byPass  [][]Hit          // served in call order when set
	calls   []string
	failAll error
}

func (f *fakeSearcher) Search(_ context.Context, query, _ string, _ int) ([]Hit, error) {
	f.calls = append(f.calls, query)
	if f.failAll != nil {
		return nil, f.failAll
	}
	if f.byPass != nil {
		i := len(f.calls) - 1
		if i < len(f.byPass) {
			return f.byPass[i], nil
		}
		return nil, nil
	}
	return f.hits[query], nil
}

type fakeDocStore struct {
	docs map[string]*storage.Document
}

func (f *fakeDocStore) GetDocumentByID(_ context.Context, docID string) (*storage.Document, error) {
	return f.docs[docID], nil
}

type fakeNavigator struct {
	order []string
	err   error
	calls int
}

func (f *fakeNavigator) Rank(_ context.Context, _, _ string, _ []*storage.Document) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.order, nil
}

func testResolverConfig() config.ResolverConfig {
	return config.ResolverConfig{
		PadWidth:        3,
		PageSize:        3,
		SearchPassCount: 3,
		SessionTTL:      time.Minute,
		FolderURL:       testFolderURL,
	}
}

func doc(id, equipment, number, title string) *storage.Document {
	return &storage.Document{DocID: id, Equipment: equipment, Number: number, Title: title}
}

func resolverTable(t *testing.T) *linktable.Table {
	t.Helper()
	csv := `equipment,sheet_no,language,link
HPLC,29,KR,https://docs.example.com/hplc/29/kr
HPLC,29,EN,https://docs.example.com/hplc/29/en
HPLC,7,KR,https://docs.example.com/hplc/7/kr
HPLC,12,KR,https://docs.example.com/hplc/12/kr
`
	table, err := linktable.Load(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	return table
}

func newTestResolver(t *testing.T, searcher Searcher, docs DocumentStore, nav Navigator) *Resolver {
	t.Helper()
	return NewResolver(
		testResolverConfig(),
		searcher,
		docs,
		nav,
		resolverTable(t),
		NewSessionStore(time.Minute, nil),
		nil,
	)
}

func TestAnswerEndToEnd(t *testing.T) {
	// Korean symptom query resolves to a ranked reply with a KR link and
	// Korean footer on the final page.
	searcher := &fakeSearcher{hits: map[string][]Hit{
		"HPLC 피크 갈라짐": {
			{Doc: doc("HPLC-029", "HPLC", "029", "Peak splitting and tailing"), Score: 2.1},
			{Doc: doc("HPLC-007", "HPLC", "007", "Baseline drift"), Score: 1.0},
		},
	}}
	r := newTestResolver(t, searcher, &fakeDocStore{}, nil)

	reply, err := r.Answer(context.Background(), "chat-1", "HPLC 피크 갈라짐")
	if err != nil {
		t.Fatalf("Answer() failed: %v", err)
	}

	if reply.Language != docref.LangKorean {
		t.Errorf("Language = %s, want KR", reply.Language)
	}
	if !strings.Contains(reply.Text, "1순위: HPLC-029 / Peak splitting and tailing / HPLC") {
		t.Errorf("Missing top rank line:\n%s", reply.Text)
	}
	if !strings.Contains(reply.Text, "HPLC-029 문서 바로가기: https://docs.example.com/hplc/29/kr") {
		t.Errorf("Missing Korean link:\n%s", reply.Text)
	}
	if strings.Count(reply.Text, "https://docs.example.com/hplc/29/kr") != 1 {
		t.Errorf("Link duplicated:\n%s", reply.Text)
	}
	if !strings.Contains(reply.Text, testFolderURL) {
		t.Errorf("Missing folder footer:\n%s", reply.Text)
	}
	if !strings.Contains(reply.Text, "Peak shape") {
		t.Errorf("Missing classification basis:\n%s", reply.Text)
	}
}

func TestAnswerStagedPasses(t *testing.T) {
	// First two passes dry, third (expansion terms) hits
	searcher := &fakeSearcher{byPass: [][]Hit{
		nil,
		nil,
		{{Doc: doc("HPLC-012", "HPLC", "012", "Peak fronting"), Score: 1.0}},
	}}
	r := newTestResolver(t, searcher, &fakeDocStore{}, nil)

	reply, err := r.Answer(context.Background(), "chat-1", "HPLC 피크 이상")
	if err != nil {
		t.Fatalf("Answer() failed: %v", err)
	}

	if len(searcher.calls) != 3 {
		t.Fatalf("Expected 3 search passes, got %d: %v", len(searcher.calls), searcher.calls)
	}
	if searcher.calls[1] != "Peak shape" {
		t.Errorf("Second pass should query the category name, got %q", searcher.calls[1])
	}
	if !strings.Contains(searcher.calls[2], "tailing") {
		t.Errorf("Third pass should query expansion terms, got %q", searcher.calls[2])
	}
	if !strings.Contains(reply.Text, "HPLC-012") {
		t.Errorf("Expected third-pass hit in reply:\n%s", reply.Text)
	}
}

func TestAnswerApologyAfterAllPasses(t *testing.T) {
	searcher := &fakeSearcher{}
	r := newTestResolver(t, searcher, &fakeDocStore{}, nil)

	reply, err := r.Answer(context.Background(), "chat-1", "HPLC 피크 문제")
	if !errors.Is(err, domerrors.ErrEmptyResultSet) {
		t.Fatalf("Expected ErrEmptyResultSet, got %v", err)
	}

	// All three passes must have run before apologizing
	if len(searcher.calls) != 3 {
		t.Errorf("Expected 3 passes before apology, got %d", len(searcher.calls))
	}
	lines := strings.Split(reply.Text, "\n")
	if len(lines) != 2 {
		t.Errorf("Apology must be exactly two lines:\n%s", reply.Text)
	}
}

func TestAnswerDirectReference(t *testing.T) {
	// Explicitly named documents rank first even when retrieval has hits
	docs := &fakeDocStore{docs: map[string]*storage.Document{
		"HPLC-029": doc("HPLC-029", "HPLC", "029", "Peak splitting"),
	}}
	searcher := &fakeSearcher{hits: map[string][]Hit{
		"hplc_29 문서 보여줘": {{Doc: doc("HPLC-007", "HPLC", "007", "Baseline drift"), Score: 3.0}},
	}}
	r := newTestResolver(t, searcher, docs, nil)

	reply, err := r.Answer(context.Background(), "chat-1", "hplc_29 문서 보여줘")
	if err != nil {
		t.Fatalf("Answer() failed: %v", err)
	}
	if !strings.Contains(reply.Text, "1순위: HPLC-029") {
		t.Errorf("Direct reference should rank first:\n%s", reply.Text)
	}
}

func TestAnswerRetrievalFailure(t *testing.T) {
	searcher := &fakeSearcher{failAll: errors.New("index offline")}
	r := newTestResolver(t, searcher, &fakeDocStore{}, nil)

	reply, err := r.Answer(context.Background(), "chat-1", "HPLC peak splitting")
	if err == nil {
		t.Fatal("Expected error when all passes fail")
	}
	// User still gets a presentable message
	if reply == nil || reply.Text == "" {
		t.Error("Expected fallback error reply")
	}
}

func TestMorePagesThroughCapturedList(t *testing.T) {
	hits := make([]Hit, 7)
	for i := range hits {
		num := []string{"001", "002", "003", "004", "005", "006", "008"}[i]
		hits[i] = Hit{Doc: doc("HPLC-"+num, "HPLC", num, "Doc "+num), Score: float64(7 - i)}
	}
	searcher := &fakeSearcher{hits: map[string][]Hit{"HPLC 피크": hits}}
	r := newTestResolver(t, searcher, &fakeDocStore{}, nil)

	ctx := context.Background()
	first, err := r.Answer(ctx, "chat-1", "HPLC 피크")
	if err != nil {
		t.Fatalf("Answer() failed: %v", err)
	}
	if !first.HasMore {
		t.Fatal("Expected more pages after first answer")
	}

	second, err := r.More(ctx, "chat-1", 1)
	if err != nil {
		t.Fatalf("More() failed: %v", err)
	}
	if !strings.Contains(second.Text, "4순위: HPLC-004") {
		t.Errorf("Second page should start at rank 4:\n%s", second.Text)
	}

	third, err := r.More(ctx, "chat-1", 2)
	if err != nil {
		t.Fatalf("More() failed: %v", err)
	}
	if !strings.Contains(third.Text, "7순위: HPLC-008") {
		t.Errorf("Third page should carry rank 7:\n%s", third.Text)
	}
	if third.HasMore {
		t.Error("Third page should be final")
	}

	// The captured list is reused: no new searches ran for paging
	if len(searcher.calls) != 1 {
		t.Errorf("Paging re-ran search: %d calls", len(searcher.calls))
	}
}

func TestMoreWithoutSession(t *testing.T) {
	r := newTestResolver(t, &fakeSearcher{}, &fakeDocStore{}, nil)

	_, err := r.More(context.Background(), "chat-unknown", 1)
	if !errors.Is(err, domerrors.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestNavigatorRerank(t *testing.T) {
	searcher := &fakeSearcher{hits: map[string][]Hit{
		"HPLC 피크": {
			{Doc: doc("HPLC-007", "HPLC", "007", "Baseline drift"), Score: 2.0},
			{Doc: doc("HPLC-029", "HPLC", "029", "Peak splitting"), Score: 1.0},
		},
	}}
	nav := &fakeNavigator{order: []string{"HPLC-029", "HPLC-999"}}
	r := newTestResolver(t, searcher, &fakeDocStore{}, nav)

	reply, err := r.Answer(context.Background(), "chat-1", "HPLC 피크")
	if err != nil {
		t.Fatalf("Answer() failed: %v", err)
	}
	if nav.calls != 1 {
		t.Errorf("Navigator called %d times, want 1", nav.calls)
	}
	if !strings.Contains(reply.Text, "1순위: HPLC-029") {
		t.Errorf("Navigator order not applied:\n%s", reply.Text)
	}
	// Dropped candidates go to the tail, never vanish
	if !strings.Contains(reply.Text, "2순위: HPLC-007") {
		t.Errorf("Unchosen candidate missing:\n%s", reply.Text)
	}
}

func TestNavigatorFailureDegrades(t *testing.T) {
	searcher := &fakeSearcher{hits: map[string][]Hit{
		"HPLC 피크": {
			{Doc: doc("HPLC-007", "HPLC", "007", "Baseline drift"), Score: 2.0},
			{Doc: doc("HPLC-029", "HPLC", "029", "Peak splitting"), Score: 1.0},
		},
	}}
	nav := &fakeNavigator{err: domerrors.NewCollaboratorError("gemini", errors.New("quota"))}
	r := newTestResolver(t, searcher, &fakeDocStore{}, nav)

	reply, err := r.Answer(context.Background(), "chat-1", "HPLC 피크")
	if err != nil {
		t.Fatalf("Answer() should survive navigator failure: %v", err)
	}
	if !strings.Contains(reply.Text, "1순위: HPLC-007") {
		t.Errorf("Retrieval order should be kept on navigator failure:\n%s", reply.Text)
	}
}
