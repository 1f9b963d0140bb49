package genai

import (
	"context"
	"errors"
	"testing"
	"time"

	domerrors "github.com/mih97/qcnav-linebot-go/internal/errors"
	"github.com/mih97/qcnav-linebot-go/internal/storage"
)

type fakeRanker struct {
	provider Provider
	ids      []string
	errs     []error // consumed per call; nil entry means success
	calls    int
}

func (f *fakeRanker) Rank(_ context.Context, _, _ string, _ []*storage.Document) ([]string, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.ids, nil
}

func (f *fakeRanker) IsEnabled() bool    { return true }
func (f *fakeRanker) Close() error       { return nil }
func (f *fakeRanker) Provider() Provider { return f.provider }

func fastRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

var rankCandidates = []*storage.Document{
	{DocID: "HPLC-029"},
	{DocID: "HPLC-007"},
}

func TestFallbackRankerPrimarySuccess(t *testing.T) {
	primary := &fakeRanker{provider: ProviderGemini, ids: []string{"HPLC-029"}}
	secondary := &fakeRanker{provider: ProviderGroq, ids: []string{"HPLC-007"}}
	f := NewFallbackRanker(fastRetryConfig(), nil, primary, secondary)

	ids, err := f.Rank(context.Background(), "피크 테일링", "KR", rankCandidates)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != "HPLC-029" {
		t.Errorf("ids = %v, want [HPLC-029]", ids)
	}
	if secondary.calls != 0 {
		t.Error("secondary should not be called when primary succeeds")
	}
}

func TestFallbackRankerRetriesTransient(t *testing.T) {
	primary := &fakeRanker{
		provider: ProviderGemini,
		ids:      []string{"HPLC-029"},
		errs:     []error{errors.New("503 service temporarily unavailable"), nil},
	}
	f := NewFallbackRanker(fastRetryConfig(), nil, primary)

	ids, err := f.Rank(context.Background(), "q", "KR", rankCandidates)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if primary.calls != 2 {
		t.Errorf("primary calls = %d, want 2", primary.calls)
	}
	if len(ids) != 1 {
		t.Errorf("ids = %v", ids)
	}
}

func TestFallbackRankerAdvancesChain(t *testing.T) {
	primary := &fakeRanker{
		provider: ProviderGemini,
		errs:     []error{errors.New("401 unauthorized")},
	}
	secondary := &fakeRanker{provider: ProviderGroq, ids: []string{"HPLC-007"}}
	f := NewFallbackRanker(fastRetryConfig(), nil, primary, secondary)

	ids, err := f.Rank(context.Background(), "q", "EN", rankCandidates)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if primary.calls != 1 {
		t.Errorf("permanent error should not be retried: calls = %d", primary.calls)
	}
	if len(ids) != 1 || ids[0] != "HPLC-007" {
		t.Errorf("ids = %v, want [HPLC-007]", ids)
	}
}

func TestFallbackRankerAllFail(t *testing.T) {
	primary := &fakeRanker{
		provider: ProviderGemini,
		errs:     []error{errors.New("400 bad request")},
	}
	secondary := &fakeRanker{
		provider: ProviderGroq,
		errs:     []error{errors.New("400 bad request")},
	}
	f := NewFallbackRanker(fastRetryConfig(), nil, primary, secondary)

	_, err := f.Rank(context.Background(), "q", "KR", rankCandidates)
	if err == nil {
		t.Fatal("expected error when all rankers fail")
	}
	var collab *domerrors.CollaboratorError
	if !errors.As(err, &collab) {
		t.Errorf("err = %T, want *CollaboratorError", err)
	}
}

func TestFallbackRankerCancelStopsChain(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	primary := &fakeRanker{provider: ProviderGemini}
	secondary := &fakeRanker{provider: ProviderGroq}
	f := NewFallbackRanker(fastRetryConfig(), nil, primary, secondary)

	_, err := f.Rank(ctx, "q", "KR", rankCandidates)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if secondary.calls != 0 {
		t.Error("cancelled context should not advance the chain")
	}
}

func TestFallbackRankerEmptyChain(t *testing.T) {
	f := NewFallbackRanker(fastRetryConfig(), nil)
	if f.IsEnabled() {
		t.Error("empty chain should be disabled")
	}
	if _, err := f.Rank(context.Background(), "q", "KR", rankCandidates); err == nil {
		t.Error("empty chain Rank should error")
	}

	var nilRanker *FallbackRanker
	if nilRanker.IsEnabled() {
		t.Error("nil ranker should be disabled")
	}
}
