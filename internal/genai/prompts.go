package genai

import (
	"fmt"
	"strings"

	"github.com/mih97/qcnav-linebot-go/internal/storage"
	"github.com/mih97/qcnav-linebot-go/internal/stringutil"
)

// RankerSystemPrompt instructs the model to act as a QC document navigator.
// The model never answers the question itself; it only selects and orders
// the registered documents that address the reported symptom.
const RankerSystemPrompt = `당신은 분석기기(HPLC/UPLC/GC/ICP) QC 문서 내비게이터입니다.

역할:
- 사용자의 증상/질문과 후보 문서 목록이 주어집니다.
- 후보 목록에 있는 문서만 사용합니다. 목록에 없는 문서 ID를 만들지 마십시오.
- 증상과 실제로 관련 있는 문서만 골라 관련도가 높은 순서로 정렬합니다.
- 관련 없는 문서는 제외합니다. 확신이 없으면 포함하지 않습니다.
- 직접 해결 방법을 서술하지 않습니다. 문서 선택과 순서만 결정합니다.

판단 기준:
- 증상 키워드(피크 모양, 머무름시간, 베이스라인, 압력, 누액, 카리오버,
  감도, 오토샘플러, 검출기, 소프트웨어/통신)와 문서의 증상 설명을 대조합니다.
- 에러코드나 장비 모델이 명시되면 해당 장비 계열 문서를 우선합니다.

반드시 rank_documents 함수를 호출해 결과를 반환하십시오.`

// RankFunctionName is the function the model must call with its ordering.
const RankFunctionName = "rank_documents"

// RankParamKey is the function parameter carrying the ordered document IDs.
const RankParamKey = "doc_ids"

// RankFunctionDescription describes the ranking function to the model.
const RankFunctionDescription = "선택한 문서의 ID를 관련도 순으로 반환한다. 후보 목록에 없는 ID는 사용할 수 없다."

// RankParamDescription describes the doc_ids parameter format.
const RankParamDescription = "쉼표로 구분된 문서 ID 목록, 관련도 높은 순. 예: \"HPLC-029,HPLC-007\". 관련 문서가 없으면 빈 문자열."

// BuildRankUserMessage renders the query and candidate documents into the
// user message for the ranking call.
func BuildRankUserMessage(query, language string, candidates []*storage.Document) string {
	var b strings.Builder
	b.WriteString("질문 언어: ")
	b.WriteString(language)
	b.WriteString("\n사용자 질문: ")
	b.WriteString(query)
	b.WriteString("\n\n후보 문서:\n")
	// Index fields come from PDF extraction and may carry stray newlines;
	// each candidate must stay on its own line.
	for _, doc := range candidates {
		b.WriteString(fmt.Sprintf("- %s: %s", doc.DocID, stringutil.CollapseSpaces(doc.Title)))
		if s := stringutil.CollapseSpaces(doc.Symptom); s != "" {
			b.WriteString(" | 증상: ")
			b.WriteString(s)
		}
		if f := stringutil.CollapseSpaces(doc.FixSummary); f != "" {
			b.WriteString(" | 조치: ")
			b.WriteString(f)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// ParseDocIDList splits the model's comma-separated ID list and keeps only
// IDs present in the candidate set, preserving the model's order and
// dropping duplicates.
func ParseDocIDList(raw string, candidates []*storage.Document) []string {
	allowed := make(map[string]bool, len(candidates))
	for _, doc := range candidates {
		allowed[doc.DocID] = true
	}

	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		id := strings.ToUpper(strings.TrimSpace(part))
		if id == "" || seen[id] || !allowed[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
