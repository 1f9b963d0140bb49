package r2client

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/smithy-go"
)

func TestNewRequiresAllFields(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"empty", Config{}},
		{"missing bucket", Config{Endpoint: "https://x.r2.cloudflarestorage.com", AccessKeyID: "k", SecretKey: "s"}},
		{"missing secret", Config{Endpoint: "https://x.r2.cloudflarestorage.com", AccessKeyID: "k", BucketName: "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(context.Background(), tt.cfg); err == nil {
				t.Error("expected config validation error")
			}
		})
	}
}

func TestCompressDecompressRoundTrip(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "index.db")
	content := bytes.Repeat([]byte("qc document index payload "), 1000)
	if err := os.WriteFile(srcPath, content, 0o644); err != nil {
		t.Fatal(err)
	}

	compressedPath := filepath.Join(dir, "index.db.zst")
	if err := CompressFile(srcPath, compressedPath); err != nil {
		t.Fatalf("CompressFile: %v", err)
	}

	info, err := os.Stat(compressedPath)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() >= int64(len(content)) {
		t.Errorf("compressed size %d not smaller than source %d", info.Size(), len(content))
	}

	compressed, err := os.Open(compressedPath)
	if err != nil {
		t.Fatal(err)
	}
	defer compressed.Close()

	restoredPath := filepath.Join(dir, "restored.db")
	if err := DecompressStream(compressed, restoredPath); err != nil {
		t.Fatalf("DecompressStream: %v", err)
	}

	restored, err := os.ReadFile(restoredPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(restored, content) {
		t.Error("restored content differs from source")
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"NoSuchKey code", &smithy.GenericAPIError{Code: "NoSuchKey"}, true},
		{"NotFound code", &smithy.GenericAPIError{Code: "NotFound"}, true},
		{"other api error", &smithy.GenericAPIError{Code: "AccessDenied"}, false},
		{"plain error", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNotFound(tt.err); got != tt.want {
				t.Errorf("isNotFound() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsPreconditionFailed(t *testing.T) {
	if !isPreconditionFailed(&smithy.GenericAPIError{Code: "PreconditionFailed"}) {
		t.Error("PreconditionFailed code should match")
	}
	if isPreconditionFailed(errors.New("boom")) {
		t.Error("plain error should not match")
	}
}

func TestDistributedLockOwnerIdentity(t *testing.T) {
	a := NewDistributedLock(nil, "locks/indexer", time.Minute)
	b := NewDistributedLock(nil, "locks/indexer", time.Minute)

	if a.OwnerID() == "" {
		t.Error("owner ID must not be empty")
	}
	if a.OwnerID() == b.OwnerID() {
		t.Error("lock instances must have distinct owner identities")
	}
}
