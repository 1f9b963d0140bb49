package genai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func newTestEmbeddingClient(server *httptest.Server) *EmbeddingClient {
	c := NewEmbeddingClient("test-key")
	c.baseURL = server.URL
	return c
}

func TestEmbedSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, GeminiEmbeddingModel) {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"embedding":{"values":[0.1,0.2,0.3]}}`))
	}))
	defer server.Close()

	client := newTestEmbeddingClient(server)
	values, err := client.Embed(context.Background(), "피크 테일링")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(values) != 3 {
		t.Errorf("got %d values, want 3", len(values))
	}
}

func TestEmbedRetriesServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"embedding":{"values":[0.5]}}`))
	}))
	defer server.Close()

	client := newTestEmbeddingClient(server)
	values, err := client.Embed(context.Background(), "text")
	if err != nil {
		t.Fatalf("Embed failed after retry: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
	if len(values) != 1 {
		t.Errorf("got %d values, want 1", len(values))
	}
}

func TestEmbedAPIErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"bad input","status":"INVALID_ARGUMENT"}}`))
	}))
	defer server.Close()

	client := newTestEmbeddingClient(server)
	if _, err := client.Embed(context.Background(), "text"); err == nil {
		t.Fatal("expected API error")
	}
	if calls.Load() != 1 {
		t.Errorf("permanent API error retried: calls = %d", calls.Load())
	}
}

func TestEmbedInputValidation(t *testing.T) {
	client := NewEmbeddingClient("")
	if _, err := client.Embed(context.Background(), "text"); err == nil {
		t.Error("missing API key should error")
	}
	if client.IsConfigured() {
		t.Error("empty key should not be configured")
	}

	client = NewEmbeddingClient("key")
	if _, err := client.Embed(context.Background(), "   "); err == nil {
		t.Error("whitespace-only text should error")
	}
	if !client.IsConfigured() {
		t.Error("client with key should be configured")
	}
}
