package main

import (
	"strings"
	"testing"

	"github.com/mih97/qcnav-linebot-go/internal/storage"
)

func TestFillSections(t *testing.T) {
	text := strings.Join([]string{
		"피크 테일링 해결",
		"",
		"증상: 피크 꼬리가 길게 늘어짐",
		"원인 불명 시 컬럼 오염 의심",
		"조치 - 컬럼 세척 후 재평형",
		"키워드: 테일링, 컬럼/세척",
	}, "\n")

	doc := &storage.Document{}
	fillSections(doc, text)

	if doc.Title != "피크 테일링 해결" {
		t.Errorf("Title = %q", doc.Title)
	}
	if !strings.Contains(doc.Symptom, "피크 꼬리가 길게 늘어짐") {
		t.Errorf("Symptom = %q", doc.Symptom)
	}
	if !strings.Contains(doc.Symptom, "컬럼 오염 의심") {
		t.Errorf("Symptom should absorb unlabeled continuation lines, got %q", doc.Symptom)
	}
	if doc.FixSummary != "컬럼 세척 후 재평형" {
		t.Errorf("FixSummary = %q", doc.FixSummary)
	}
	want := []string{"테일링", "컬럼", "세척"}
	if len(doc.Keywords) != len(want) {
		t.Fatalf("Keywords = %v, want %v", doc.Keywords, want)
	}
	for i, kw := range want {
		if doc.Keywords[i] != kw {
			t.Errorf("Keywords[%d] = %q, want %q", i, doc.Keywords[i], kw)
		}
	}
}

func TestMatchHeadingRejectsWordPrefix(t *testing.T) {
	if _, _, ok := matchHeading("Fixed ratio calibration"); ok {
		t.Error("'Fixed ratio' must not register as a fix heading")
	}
	field, rest, ok := matchHeading("Symptom: baseline drift")
	if !ok || field != "symptom" || rest != "baseline drift" {
		t.Errorf("got field=%q rest=%q ok=%v", field, rest, ok)
	}
}

func TestTitleFromFilename(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"HPLC-029_피크테일링해결.pdf", "피크테일링해결"},
		{"GC-003_baseline_drift.pdf", "baseline drift"},
		{"ICP-012.pdf", "ICP-012"},
	}
	for _, tt := range tests {
		if got := titleFromFilename(tt.base); got != tt.want {
			t.Errorf("titleFromFilename(%q) = %q, want %q", tt.base, got, tt.want)
		}
	}
}
