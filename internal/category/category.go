// Package category classifies symptom descriptions into troubleshooting
// categories. The keyword tables mirror the curated symptom vocabulary used
// when the document index was built, covering both Korean and English terms.
package category

import "strings"

// Category is a troubleshooting symptom category.
type Category string

// Known troubleshooting categories.
const (
	PeakShape       Category = "Peak shape"
	Reproducibility Category = "RT/Reproducibility"
	BaselineNoise   Category = "Baseline/Noise"
	PressureFlow    Category = "Pressure/Flow"
	Carryover       Category = "Carryover"
	Leak            Category = "Leak"
	Autosampler     Category = "Autosampler"
	Sensitivity     Category = "Sensitivity"
	Software        Category = "Software/Connectivity"
	Detector        Category = "Detector"
	Unknown         Category = ""
)

// Equipment families recognized in symptom text.
var equipmentCodes = []string{"HPLC", "UPLC", "GC", "ICP"}

// classifyOrder fixes the priority when a query matches several categories:
// the more specific symptom vocabularies are checked first.
var classifyOrder = []Category{
	PeakShape,
	Reproducibility,
	BaselineNoise,
	PressureFlow,
	Carryover,
	Leak,
	Autosampler,
	Sensitivity,
	Software,
	Detector,
}

// keywords maps each category to its trigger terms, lower-cased.
// Detector module names (UV, RID, ELSD) are deliberately absent: they name
// hardware, not symptoms, and must not drive classification on their own.
var keywords = map[Category][]string{
	PeakShape:       {"피크", "peak", "모양", "형태", "형상", "shape", "tailing", "fronting", "splitting", "broadening"},
	Reproducibility: {"rt", "shift", "밀림", "변화", "재현성", "반복성", "reproducibility"},
	BaselineNoise:   {"baseline", "베이스라인", "noise", "노이즈", "drift"},
	PressureFlow:    {"pressure", "압력", "flow", "유량", "fluctuation", "변동"},
	Carryover:       {"carryover", "캐리오버", "잔류"},
	Leak:            {"leak", "누설", "새는"},
	Autosampler:     {"autosampler", "오토샘플러", "샘플러"},
	Sensitivity:     {"sensitivity", "감도", "신호 약함"},
	Software:        {"software", "connectivity", "소프트웨어", "연결", "통신", "로그인"},
	Detector:        {"detector", "디텍터", "검출기"},
}

// expansions maps each category to its representative search expansion
// terms, used as the final retrieval pass before declaring no match.
var expansions = map[Category][]string{
	PeakShape:       {"tailing", "fronting", "splitting", "broadening", "peak"},
	Reproducibility: {"RT", "shift", "reproducibility"},
	BaselineNoise:   {"baseline", "noise", "drift"},
	PressureFlow:    {"pressure", "flow", "fluctuation"},
	Carryover:       {"carryover"},
	Leak:            {"leak"},
	Autosampler:     {"autosampler"},
	Sensitivity:     {"sensitivity"},
	Software:        {"connectivity", "software"},
	Detector:        {"detector"},
}

// Result carries the classification of one symptom query.
type Result struct {
	Category  Category
	Equipment string // Detected equipment code, empty when none mentioned
	Matched   string // The keyword that triggered the classification
}

// Classify picks the troubleshooting category and equipment family for a
// free-text symptom description. Matching is case-insensitive substring
// search, which handles Korean text without tokenization.
func Classify(query string) Result {
	lower := strings.ToLower(query)

	result := Result{Category: Unknown}
	for _, code := range equipmentCodes {
		if strings.Contains(lower, strings.ToLower(code)) {
			result.Equipment = code
			break
		}
	}

	for _, cat := range classifyOrder {
		for _, kw := range keywords[cat] {
			if strings.Contains(lower, kw) {
				result.Category = cat
				result.Matched = kw
				return result
			}
		}
	}
	return result
}

// Expansions returns the representative expansion terms for a category.
func Expansions(cat Category) []string {
	return expansions[cat]
}

// String returns the category name.
func (c Category) String() string {
	return string(c)
}
