package docref

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mih97/qcnav-linebot-go/internal/stringutil"
)

// DefaultPadWidth is the canonical zero-pad width for document numbers.
const DefaultPadWidth = 3

// refPattern matches candidate document references: an equipment code,
// an optional single separator, and a run of digits. Variants like
// "HPLC-29", "HPLC_29", "HPLC 29", and "HPLC029" all match.
var refPattern = regexp.MustCompile(`([A-Za-z]+)[-_ ]?([0-9]+)`)

// Ref is a canonical document reference.
type Ref struct {
	Equipment string // Upper-case equipment code, e.g. "HPLC"
	Number    string // Zero-padded number, e.g. "029"
}

// DocID returns the canonical identifier, e.g. "HPLC-029".
func (r Ref) DocID() string {
	return fmt.Sprintf("%s-%s", r.Equipment, r.Number)
}

// RawMatch is a candidate reference found in source text, before
// canonicalization.
type RawMatch struct {
	Equipment string // As matched, any casing
	Number    string // Digit run as matched, may carry leading zeros
	Raw       string // The full matched substring
	Offset    int    // Byte offset in the source text
}

// Normalizer canonicalizes document references.
type Normalizer struct {
	padWidth int
}

// NewNormalizer creates a normalizer with the given zero-pad width.
// Width 0 falls back to DefaultPadWidth.
func NewNormalizer(padWidth int) *Normalizer {
	if padWidth <= 0 {
		padWidth = DefaultPadWidth
	}
	return &Normalizer{padWidth: padWidth}
}

// Extract finds candidate document references in free text, in order of
// appearance. Matches are raw; feed them to Canonicalize to validate.
func (n *Normalizer) Extract(text string) []RawMatch {
	idx := refPattern.FindAllStringSubmatchIndex(text, -1)
	if idx == nil {
		return nil
	}

	matches := make([]RawMatch, 0, len(idx))
	for _, m := range idx {
		matches = append(matches, RawMatch{
			Equipment: text[m[2]:m[3]],
			Number:    text[m[4]:m[5]],
			Raw:       text[m[0]:m[1]],
			Offset:    m[0],
		})
	}
	return matches
}

// Canonicalize validates a raw equipment/number pair and produces the
// canonical reference: equipment upper-cased, number zero-padded.
// Already-canonical input round-trips unchanged. Returns false when the
// number has no digits or more significant digits than the pad width
// allows; such candidates are discarded, never truncated.
func (n *Normalizer) Canonicalize(equipment, number string) (Ref, bool) {
	equipment = strings.ToUpper(strings.TrimSpace(equipment))
	if equipment == "" {
		return Ref{}, false
	}

	number = strings.TrimSpace(number)
	if !stringutil.IsNumeric(number) {
		return Ref{}, false
	}

	significant := stringutil.TrimLeadingZeros(number)
	if significant == "" {
		// All zeros: no such document
		return Ref{}, false
	}
	if len(significant) > n.padWidth {
		return Ref{}, false
	}

	padded := strings.Repeat("0", n.padWidth-len(significant)) + significant
	return Ref{Equipment: equipment, Number: padded}, true
}

// ExtractRefs extracts and canonicalizes references from free text.
// Invalid candidates are silently discarded; duplicate references keep
// their first occurrence.
func (n *Normalizer) ExtractRefs(text string) []Ref {
	var refs []Ref
	seen := make(map[Ref]struct{})
	for _, m := range n.Extract(text) {
		ref, ok := n.Canonicalize(m.Equipment, m.Number)
		if !ok {
			continue
		}
		if _, dup := seen[ref]; dup {
			continue
		}
		seen[ref] = struct{}{}
		refs = append(refs, ref)
	}
	return refs
}

// ParseDocID splits a canonical or near-canonical document identifier.
func (n *Normalizer) ParseDocID(docID string) (Ref, bool) {
	m := refPattern.FindStringSubmatch(docID)
	if m == nil {
		return Ref{}, false
	}
	return n.Canonicalize(m[1], m[2])
}
