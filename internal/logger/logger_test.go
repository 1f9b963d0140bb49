package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/mih97/qcnav-linebot-go/internal/ctxutil"
)

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	log.WithModule("navigate").WithField("doc_id", "HPLC-029").Info("resolved")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}

	if entry["message"] != "resolved" {
		t.Errorf("message = %v, want resolved", entry["message"])
	}
	if entry["module"] != "navigate" {
		t.Errorf("module = %v, want navigate", entry["module"])
	}
	if entry["doc_id"] != "HPLC-029" {
		t.Errorf("doc_id = %v, want HPLC-029", entry["doc_id"])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v, want info", entry["level"])
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Error("timestamp field missing")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("warn", &buf)

	log.Info("suppressed")
	if buf.Len() != 0 {
		t.Errorf("info record should be suppressed at warn level, got %q", buf.String())
	}

	log.Warn("kept")
	if buf.Len() == 0 {
		t.Error("warn record should be emitted")
	}
}

func TestWarnLevelRename(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("debug", &buf)

	log.Warn("caution")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry["level"] != "warning" {
		t.Errorf("level = %v, want warning", entry["level"])
	}
}

func TestContextHandlerInjectsTracingFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	ctx := ctxutil.WithChatID(context.Background(), "C123")
	ctx = ctxutil.WithUserID(ctx, "U456")
	ctx = ctxutil.WithRequestID(ctx, "req-1")

	log.InfoContext(ctx, "handled")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry["chat_id"] != "C123" {
		t.Errorf("chat_id = %v, want C123", entry["chat_id"])
	}
	if entry["user_id"] != "U456" {
		t.Errorf("user_id = %v, want U456", entry["user_id"])
	}
	if entry["request_id"] != "req-1" {
		t.Errorf("request_id = %v, want req-1", entry["request_id"])
	}
}

func TestTeeHandlerDuplicates(t *testing.T) {
	var local, remote bytes.Buffer
	tee := newTeeHandler(
		slog.NewJSONHandler(&local, nil),
		slog.NewJSONHandler(&remote, nil),
	)
	log := slog.New(tee)

	log.Info("both")

	if local.Len() == 0 || remote.Len() == 0 {
		t.Error("record should reach both sinks")
	}
}

func TestTeeHandlerRespectsSinkLevels(t *testing.T) {
	var local, remote bytes.Buffer
	tee := newTeeHandler(
		slog.NewJSONHandler(&local, nil),
		slog.NewJSONHandler(&remote, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)
	log := slog.New(tee)

	log.Info("local only")

	if local.Len() == 0 {
		t.Error("local sink should receive the info record")
	}
	if remote.Len() != 0 {
		t.Errorf("remote sink at warn level should skip info records, got %q", remote.String())
	}
}

func TestRemoteHandlerShutdownFlushes(t *testing.T) {
	var buf bytes.Buffer
	remote := NewRemoteHandler(slog.NewJSONHandler(&buf, nil))
	log := slog.New(remote)

	log.Info("queued")

	if err := remote.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("record should be flushed on shutdown")
	}
	if got := remote.Dropped(); got != 0 {
		t.Errorf("Dropped() = %d, want 0", got)
	}
}

func TestRemoteHandlerIgnoresRecordsAfterShutdown(t *testing.T) {
	var buf bytes.Buffer
	remote := NewRemoteHandler(slog.NewJSONHandler(&buf, nil))

	if err := remote.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error: %v", err)
	}
	slog.New(remote).Info("late")

	if buf.Len() != 0 {
		t.Errorf("records after shutdown should be discarded, got %q", buf.String())
	}
}
