package storage

import "fmt"

// Document represents an indexed troubleshooting document summary.
// One row per registered QC document (e.g. HPLC-029).
type Document struct {
	DocID        string   `json:"doc_id"`    // Canonical identifier, e.g. "HPLC-029"
	Equipment    string   `json:"equipment"` // Equipment family, e.g. "HPLC", "UPLC", "GC", "ICP"
	Number       string   `json:"number"`    // Zero-padded document number, e.g. "029"
	Title        string   `json:"title,omitempty"`
	FixSummary   string   `json:"fix_summary,omitempty"` // One-line summary of the registered fix
	Symptom      string   `json:"symptom,omitempty"`     // Symptom description the fix addresses
	Purpose      string   `json:"purpose,omitempty"`     // What the procedure is for
	Keywords     []string `json:"keywords,omitempty"`    // Search keywords extracted at index time
	InternalRank int      `json:"internal_rank"`         // Curated priority within the equipment family
	Weight       float64  `json:"weight"`                // Retrieval score multiplier
	CachedAt     int64    `json:"cached_at"`
}

// SearchText returns the merged text used for lexical and semantic retrieval.
func (d *Document) SearchText() string {
	text := d.Title
	for _, part := range []string{d.Symptom, d.FixSummary, d.Purpose} {
		if part != "" {
			text += "\n" + part
		}
	}
	for _, kw := range d.Keywords {
		text += "\n" + kw
	}
	return text
}

// Link represents a registered hyperlink to a document in a given language.
type Link struct {
	Equipment string `json:"equipment"`
	Number    string `json:"number"`   // Zero-padded, matches Document.Number
	Language  string `json:"language"` // "KR" or "EN"
	URL       string `json:"url"`
	CachedAt  int64  `json:"cached_at"`
}

// DocID returns the canonical document identifier for this link.
func (l *Link) DocID() string {
	return fmt.Sprintf("%s-%s", l.Equipment, l.Number)
}
