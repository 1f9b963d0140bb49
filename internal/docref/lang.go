// Package docref extracts, normalizes, and resolves QC troubleshooting
// document references (e.g. "HPLC-029") found in free text.
package docref

// Language codes used for link lookup and label rendering.
const (
	LangKorean  = "KR"
	LangEnglish = "EN"
)

// DetectLanguage classifies text as Korean or English.
// Any code point in the Hangul syllable block (U+AC00..U+D7A3) marks the
// text as Korean. The classifier runs on the user's query, never on
// generated answer text, so the reply language follows the question.
func DetectLanguage(text string) string {
	for _, r := range text {
		if r >= 0xAC00 && r <= 0xD7A3 {
			return LangKorean
		}
	}
	return LangEnglish
}
