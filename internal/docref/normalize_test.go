package docref

import (
	"reflect"
	"testing"
)

func TestCanonicalizeVariants(t *testing.T) {
	n := NewNormalizer(3)
	want := Ref{Equipment: "HPLC", Number: "029"}

	for _, text := range []string{"HPLC-29", "HPLC_29", "HPLC029", "HPLC 29", "hplc-029"} {
		refs := n.ExtractRefs(text)
		if len(refs) != 1 {
			t.Fatalf("ExtractRefs(%q) returned %d refs, want 1", text, len(refs))
		}
		if refs[0] != want {
			t.Errorf("ExtractRefs(%q) = %v, want %v", text, refs[0], want)
		}
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	n := NewNormalizer(3)

	first, ok := n.Canonicalize("hplc", "29")
	if !ok {
		t.Fatal("Canonicalize(hplc, 29) rejected")
	}
	second, ok := n.Canonicalize(first.Equipment, first.Number)
	if !ok {
		t.Fatal("Canonicalize of canonical form rejected")
	}
	if first != second {
		t.Errorf("Canonicalization not idempotent: %v != %v", first, second)
	}
}

func TestCanonicalizeZeroPadBoundary(t *testing.T) {
	n := NewNormalizer(3)

	tests := []struct {
		number string
		want   string
		ok     bool
	}{
		{"7", "007", true},
		{"70", "070", true},
		{"700", "700", true},
		{"0029", "029", true},
		{"1000", "", false}, // 4 significant digits: discarded, not truncated
		{"0", "", false},
		{"000", "", false},
		{"", "", false},
		{"7a", "", false},
	}

	for _, tt := range tests {
		ref, ok := n.Canonicalize("HPLC", tt.number)
		if ok != tt.ok {
			t.Errorf("Canonicalize(HPLC, %q) ok = %v, want %v", tt.number, ok, tt.ok)
			continue
		}
		if ok && ref.Number != tt.want {
			t.Errorf("Canonicalize(HPLC, %q) = %q, want %q", tt.number, ref.Number, tt.want)
		}
	}
}

func TestExtractMultiple(t *testing.T) {
	n := NewNormalizer(3)

	text := "피크 갈라짐은 HPLC-29 또는 hplc 7 문서를 참고하세요. GC_101도 관련 있습니다."
	refs := n.ExtractRefs(text)

	want := []Ref{
		{Equipment: "HPLC", Number: "029"},
		{Equipment: "HPLC", Number: "007"},
		{Equipment: "GC", Number: "101"},
	}
	if !reflect.DeepEqual(refs, want) {
		t.Errorf("ExtractRefs() = %v, want %v", refs, want)
	}
}

func TestExtractRefsDeduplicates(t *testing.T) {
	n := NewNormalizer(3)

	refs := n.ExtractRefs("HPLC-29 and again HPLC_029 and hplc 29")
	if len(refs) != 1 {
		t.Errorf("Expected duplicates collapsed to 1 ref, got %d: %v", len(refs), refs)
	}
}

func TestExtractRefsDiscardsInvalid(t *testing.T) {
	n := NewNormalizer(3)

	// Year-like numbers exceed 3 significant digits and are discarded
	refs := n.ExtractRefs("updated in 2024, see HPLC-29")
	want := []Ref{{Equipment: "HPLC", Number: "029"}}
	if !reflect.DeepEqual(refs, want) {
		t.Errorf("ExtractRefs() = %v, want %v", refs, want)
	}

	if got := n.ExtractRefs("no references here"); got != nil {
		t.Errorf("Expected nil for text without digits, got %v", got)
	}
}

func TestExtractOffsets(t *testing.T) {
	n := NewNormalizer(3)

	text := "see HPLC-29 here"
	matches := n.Extract(text)
	if len(matches) != 1 {
		t.Fatalf("Expected 1 match, got %d", len(matches))
	}
	m := matches[0]
	if m.Offset != 4 || m.Raw != "HPLC-29" {
		t.Errorf("Unexpected match: %+v", m)
	}
	if m.Equipment != "HPLC" || m.Number != "29" {
		t.Errorf("Unexpected capture groups: %+v", m)
	}
}

func TestParseDocID(t *testing.T) {
	n := NewNormalizer(3)

	ref, ok := n.ParseDocID("HPLC-029")
	if !ok || ref.DocID() != "HPLC-029" {
		t.Errorf("ParseDocID(HPLC-029) = %v, %v", ref, ok)
	}

	if _, ok := n.ParseDocID("no digits"); ok {
		t.Error("Expected ParseDocID to reject text without a number")
	}
}

func TestNewNormalizerDefaultWidth(t *testing.T) {
	n := NewNormalizer(0)
	ref, ok := n.Canonicalize("GC", "7")
	if !ok || ref.Number != "007" {
		t.Errorf("Expected default width 3, got %v", ref)
	}
}
