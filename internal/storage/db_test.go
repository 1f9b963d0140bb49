package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestNewTestDB(t *testing.T) {
	db, err := NewTestDB()
	if err != nil {
		t.Fatalf("NewTestDB() failed: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping() failed: %v", err)
	}

	// Schema should be initialized
	count, err := db.CountDocuments(context.Background())
	if err != nil {
		t.Fatalf("CountDocuments() failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected empty documents table, got %d rows", count)
	}
}

func TestNewCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "nested", "index.db")

	db, err := New(dbPath, 0)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer func() { _ = db.Close() }()

	if db.Path() != dbPath {
		t.Errorf("Path() = %s, want %s", db.Path(), dbPath)
	}
}

func TestHotSwap(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	firstPath := filepath.Join(dir, "index-1.db")
	hs, err := NewHotSwapDB(firstPath, 0)
	if err != nil {
		t.Fatalf("NewHotSwapDB() failed: %v", err)
	}
	defer func() { _ = hs.Close() }()

	// Seed second database with a document
	secondPath := filepath.Join(dir, "index-2.db")
	second, err := New(secondPath, 0)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	doc := &Document{DocID: "HPLC-029", Equipment: "HPLC", Number: "029", Title: "Peak tailing"}
	if err := second.SaveDocument(ctx, doc); err != nil {
		t.Fatalf("SaveDocument() failed: %v", err)
	}
	_ = second.Close()

	if err := hs.Swap(ctx, secondPath); err != nil {
		t.Fatalf("Swap() failed: %v", err)
	}

	got, err := hs.DB().GetDocumentByID(ctx, "HPLC-029")
	if err != nil {
		t.Fatalf("GetDocumentByID() failed: %v", err)
	}
	if got == nil || got.Title != "Peak tailing" {
		t.Errorf("Expected swapped database to contain HPLC-029, got %+v", got)
	}
}
