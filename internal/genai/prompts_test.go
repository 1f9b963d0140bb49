package genai

import (
	"strings"
	"testing"

	"github.com/mih97/qcnav-linebot-go/internal/storage"
)

func TestParseDocIDList(t *testing.T) {
	candidates := []*storage.Document{
		{DocID: "HPLC-029"},
		{DocID: "HPLC-007"},
		{DocID: "GC-003"},
	}

	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"ordered subset", "HPLC-007,HPLC-029", []string{"HPLC-007", "HPLC-029"}},
		{"whitespace and case", " hplc-029 , gc-003 ", []string{"HPLC-029", "GC-003"}},
		{"unknown ids dropped", "HPLC-029,UPLC-999", []string{"HPLC-029"}},
		{"duplicates dropped", "GC-003,GC-003,HPLC-029", []string{"GC-003", "HPLC-029"}},
		{"empty", "", nil},
		{"only commas", ",,,", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDocIDList(tt.raw, candidates)
			if len(got) != len(tt.want) {
				t.Fatalf("ParseDocIDList(%q) = %v, want %v", tt.raw, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("id[%d] = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBuildRankUserMessage(t *testing.T) {
	candidates := []*storage.Document{
		{DocID: "HPLC-029", Title: "피크 테일링 해결", Symptom: "피크 모양 이상", FixSummary: "컬럼 세척"},
		{DocID: "GC-003", Title: "GC tailing"},
	}

	msg := BuildRankUserMessage("피크가 깨져요", "KR", candidates)

	for _, want := range []string{"피크가 깨져요", "KR", "HPLC-029", "피크 테일링 해결", "피크 모양 이상", "컬럼 세척", "GC-003"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestBuildRankUserMessageFlattensCandidateFields(t *testing.T) {
	candidates := []*storage.Document{
		{
			DocID:      "HPLC-029",
			Title:      "피크 테일링\n해결",
			Symptom:    "피크  모양이\n  비대칭으로 나타남",
			FixSummary: "컬럼 세척 후\t재평형",
		},
	}

	msg := BuildRankUserMessage("피크 테일링", "KR", candidates)

	if !strings.Contains(msg, "피크 테일링 해결 | 증상: 피크 모양이 비대칭으로 나타남 | 조치: 컬럼 세척 후 재평형") {
		t.Errorf("extracted fields should collapse onto one line:\n%s", msg)
	}

	var candidateLines int
	for _, line := range strings.Split(msg, "\n") {
		if strings.HasPrefix(line, "- ") {
			candidateLines++
		}
	}
	if candidateLines != 1 {
		t.Errorf("candidate lines = %d, want 1:\n%s", candidateLines, msg)
	}
}
