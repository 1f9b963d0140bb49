package storage

import (
	"context"
	"testing"
)

func testDocuments() []*Document {
	return []*Document{
		{
			DocID:        "HPLC-029",
			Equipment:    "HPLC",
			Number:       "029",
			Title:        "Peak tailing on C18 columns",
			FixSummary:   "Replace guard column and flush with strong solvent",
			Symptom:      "Tailing peaks, poor resolution",
			Keywords:     []string{"peak", "tailing", "column"},
			InternalRank: 1,
			Weight:       1.2,
		},
		{
			DocID:        "HPLC-007",
			Equipment:    "HPLC",
			Number:       "007",
			Title:        "Baseline drift during gradient",
			Symptom:      "Rising baseline",
			InternalRank: 2,
			Weight:       1.0,
		},
		{
			DocID:        "GC-101",
			Equipment:    "GC",
			Number:       "101",
			Title:        "Split ratio instability",
			InternalRank: 1,
			Weight:       1.0,
		},
	}
}

func TestSaveAndGetDocument(t *testing.T) {
	db, err := NewTestDB()
	if err != nil {
		t.Fatalf("NewTestDB() failed: %v", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	docs := testDocuments()

	if err := db.SaveDocumentsBatch(ctx, docs); err != nil {
		t.Fatalf("SaveDocumentsBatch() failed: %v", err)
	}

	got, err := db.GetDocumentByID(ctx, "HPLC-029")
	if err != nil {
		t.Fatalf("GetDocumentByID() failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected document, got nil")
	}
	if got.Title != "Peak tailing on C18 columns" {
		t.Errorf("Unexpected title: %s", got.Title)
	}
	if len(got.Keywords) != 3 || got.Keywords[0] != "peak" {
		t.Errorf("Keywords round-trip failed: %v", got.Keywords)
	}
	if got.Weight != 1.2 {
		t.Errorf("Expected weight 1.2, got %v", got.Weight)
	}
	if got.CachedAt == 0 {
		t.Error("Expected cached_at to be set")
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	db, err := NewTestDB()
	if err != nil {
		t.Fatalf("NewTestDB() failed: %v", err)
	}
	defer func() { _ = db.Close() }()

	got, err := db.GetDocumentByID(context.Background(), "ICP-999")
	if err != nil {
		t.Fatalf("GetDocumentByID() failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for missing document, got %+v", got)
	}
}

func TestListDocumentsByEquipment(t *testing.T) {
	db, err := NewTestDB()
	if err != nil {
		t.Fatalf("NewTestDB() failed: %v", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	if err := db.SaveDocumentsBatch(ctx, testDocuments()); err != nil {
		t.Fatalf("SaveDocumentsBatch() failed: %v", err)
	}

	docs, err := db.ListDocumentsByEquipment(ctx, "HPLC")
	if err != nil {
		t.Fatalf("ListDocumentsByEquipment() failed: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("Expected 2 HPLC documents, got %d", len(docs))
	}
	// Ordered by internal rank
	if docs[0].DocID != "HPLC-029" || docs[1].DocID != "HPLC-007" {
		t.Errorf("Unexpected order: %s, %s", docs[0].DocID, docs[1].DocID)
	}
}

func TestSaveDocumentUpsert(t *testing.T) {
	db, err := NewTestDB()
	if err != nil {
		t.Fatalf("NewTestDB() failed: %v", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	doc := &Document{DocID: "UPLC-003", Equipment: "UPLC", Number: "003", Title: "old"}
	if err := db.SaveDocument(ctx, doc); err != nil {
		t.Fatalf("SaveDocument() failed: %v", err)
	}

	doc.Title = "new"
	if err := db.SaveDocument(ctx, doc); err != nil {
		t.Fatalf("SaveDocument() upsert failed: %v", err)
	}

	got, err := db.GetDocumentByID(ctx, "UPLC-003")
	if err != nil {
		t.Fatalf("GetDocumentByID() failed: %v", err)
	}
	if got.Title != "new" {
		t.Errorf("Expected upserted title 'new', got '%s'", got.Title)
	}

	count, err := db.CountDocuments(ctx)
	if err != nil {
		t.Fatalf("CountDocuments() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 document after upsert, got %d", count)
	}
}

func TestLinkRoundTrip(t *testing.T) {
	db, err := NewTestDB()
	if err != nil {
		t.Fatalf("NewTestDB() failed: %v", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	links := []*Link{
		{Equipment: "HPLC", Number: "029", Language: "KR", URL: "https://docs.example.com/hplc/029/kr"},
		{Equipment: "HPLC", Number: "029", Language: "EN", URL: "https://docs.example.com/hplc/029/en"},
		{Equipment: "GC", Number: "101", Language: "KR", URL: "https://docs.example.com/gc/101/kr"},
	}
	if err := db.SaveLinksBatch(ctx, links); err != nil {
		t.Fatalf("SaveLinksBatch() failed: %v", err)
	}

	link, err := db.GetLink(ctx, "HPLC", "029", "KR")
	if err != nil {
		t.Fatalf("GetLink() failed: %v", err)
	}
	if link == nil || link.URL != "https://docs.example.com/hplc/029/kr" {
		t.Errorf("Unexpected link: %+v", link)
	}
	if link.DocID() != "HPLC-029" {
		t.Errorf("DocID() = %s, want HPLC-029", link.DocID())
	}

	missing, err := db.GetLink(ctx, "HPLC", "029", "JP")
	if err != nil {
		t.Fatalf("GetLink() failed: %v", err)
	}
	if missing != nil {
		t.Errorf("Expected nil for unregistered language, got %+v", missing)
	}
}

func TestReplaceLinks(t *testing.T) {
	db, err := NewTestDB()
	if err != nil {
		t.Fatalf("NewTestDB() failed: %v", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	initial := []*Link{
		{Equipment: "HPLC", Number: "001", Language: "KR", URL: "https://old.example.com/1"},
		{Equipment: "HPLC", Number: "002", Language: "KR", URL: "https://old.example.com/2"},
	}
	if err := db.SaveLinksBatch(ctx, initial); err != nil {
		t.Fatalf("SaveLinksBatch() failed: %v", err)
	}

	replacement := []*Link{
		{Equipment: "ICP", Number: "010", Language: "EN", URL: "https://new.example.com/10"},
	}
	if err := db.ReplaceLinks(ctx, replacement); err != nil {
		t.Fatalf("ReplaceLinks() failed: %v", err)
	}

	count, err := db.CountLinks(ctx)
	if err != nil {
		t.Fatalf("CountLinks() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 link after replace, got %d", count)
	}

	old, err := db.GetLink(ctx, "HPLC", "001", "KR")
	if err != nil {
		t.Fatalf("GetLink() failed: %v", err)
	}
	if old != nil {
		t.Errorf("Expected old link to be removed, got %+v", old)
	}
}
