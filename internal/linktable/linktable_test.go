package linktable

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/mih97/qcnav-linebot-go/internal/storage"
)

func TestLoad(t *testing.T) {
	csv := `equipment,sheet_no,language,link
HPLC,29,KR,https://docs.example.com/hplc/29/kr
HPLC,29,EN,https://docs.example.com/hplc/29/en
GC,7,KR,https://docs.example.com/gc/7/kr
`
	table, err := Load(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if table.Len() != 3 {
		t.Fatalf("Expected 3 links, got %d", table.Len())
	}

	url, ok := table.Lookup("HPLC", "029", "KR")
	if !ok || url != "https://docs.example.com/hplc/29/kr" {
		t.Errorf("Lookup(HPLC, 029, KR) = %q, %v", url, ok)
	}

	// Numbers are zero-padded at load time, so short forms resolve too
	url, ok = table.Lookup("gc", "7", "kr")
	if !ok || url != "https://docs.example.com/gc/7/kr" {
		t.Errorf("Lookup(gc, 7, kr) = %q, %v", url, ok)
	}
}

func TestLoadSkipsUnregisteredLinks(t *testing.T) {
	csv := `equipment,sheet_no,language,link
HPLC,1,KR,nan
HPLC,2,KR,
HPLC,3,KR,NaN
HPLC,4,KR,https://docs.example.com/hplc/4/kr
`
	table, err := Load(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if table.Len() != 1 {
		t.Errorf("Expected 1 link (nan/empty skipped), got %d", table.Len())
	}
	if _, ok := table.Lookup("HPLC", "001", "KR"); ok {
		t.Error("Expected nan URL to be skipped")
	}
	if _, ok := table.Lookup("HPLC", "004", "KR"); !ok {
		t.Error("Expected valid row to survive")
	}
}

func TestLoadSkipsMalformedRows(t *testing.T) {
	csv := `equipment,sheet_no,language,link
HPLC,abc,KR,https://docs.example.com/bad
,5,KR,https://docs.example.com/bad2
HPLC,6,XX,https://docs.example.com/bad3
HPLC,7
HPLC,8,EN,https://docs.example.com/ok
`
	table, err := Load(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if table.Len() != 1 {
		t.Errorf("Expected only the valid row, got %d links", table.Len())
	}
	if _, ok := table.Lookup("HPLC", "008", "EN"); !ok {
		t.Error("Expected valid row to survive malformed neighbors")
	}
}

func TestLoadFloatSheetNumbers(t *testing.T) {
	// Spreadsheet exports render integer cells as floats
	csv := `equipment,sheet_no,language,link
HPLC,29.0,KR,https://docs.example.com/hplc/29/kr
UPLC,3.5,KR,https://docs.example.com/uplc/bad
`
	table, err := Load(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if _, ok := table.Lookup("HPLC", "029", "KR"); !ok {
		t.Error("Expected 29.0 to normalize to 029")
	}
	if table.Len() != 1 {
		t.Errorf("Expected non-integer sheet number to be rejected, got %d links", table.Len())
	}
}

func TestLoadFileAbsent(t *testing.T) {
	table, err := LoadFile(filepath.Join(t.TempDir(), "missing.csv"))
	if err != nil {
		t.Fatalf("LoadFile() on absent file should not error, got: %v", err)
	}
	if table.Len() != 0 {
		t.Errorf("Expected empty table for absent file, got %d links", table.Len())
	}

	// Lookup on empty table is safe
	if _, ok := table.Lookup("HPLC", "029", "KR"); ok {
		t.Error("Expected no hits on empty table")
	}
}

func TestFromLinks(t *testing.T) {
	links := []*storage.Link{
		{Equipment: "HPLC", Number: "29", Language: "KR", URL: "https://docs.example.com/hplc/29/kr"},
		{Equipment: "GC", Number: "101", Language: "EN", URL: "nan"},
	}

	table := FromLinks(links)
	if table.Len() != 1 {
		t.Fatalf("Expected 1 link, got %d", table.Len())
	}
	if _, ok := table.Lookup("HPLC", "029", "KR"); !ok {
		t.Error("Expected padded lookup to succeed")
	}
}

func TestLinksRoundTrip(t *testing.T) {
	csv := `equipment,sheet_no,language,link
HPLC,29,KR,https://docs.example.com/hplc/29/kr
`
	table, err := Load(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	rows := table.Links()
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}
	if rows[0].Equipment != "HPLC" || rows[0].Number != "029" || rows[0].Language != "KR" {
		t.Errorf("Unexpected row: %+v", rows[0])
	}

	rebuilt := FromLinks(rows)
	if _, ok := rebuilt.Lookup("HPLC", "029", "KR"); !ok {
		t.Error("Round-trip through storage rows lost the link")
	}
}

func TestWithPadWidth(t *testing.T) {
	csv := `equipment,sheet_no,language,link
HPLC,29,KR,https://docs.example.com/hplc/29/kr
`
	table, err := Load(strings.NewReader(csv), WithPadWidth(4))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if _, ok := table.Lookup("HPLC", "0029", "KR"); !ok {
		t.Error("Expected width-4 padding to apply")
	}
}
