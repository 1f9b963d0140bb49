package main

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/mih97/qcnav-linebot-go/internal/docref"
	"github.com/mih97/qcnav-linebot-go/internal/storage"
)

// sectionLabels maps document section headings (Korean and English) onto
// index fields. Headings appear at line starts, optionally followed by a
// colon, e.g. "증상: 피크 테일링" or "Symptom - peak tailing".
var sectionLabels = map[string]string{
	"증상":       "symptom",
	"현상":       "symptom",
	"symptom":  "symptom",
	"조치":       "fix",
	"해결":       "fix",
	"fix":      "fix",
	"action":   "fix",
	"목적":       "purpose",
	"purpose":  "purpose",
	"키워드":      "keywords",
	"keywords": "keywords",
}

// parseDocument extracts an index summary from one troubleshooting PDF.
// The canonical document reference comes from the filename, which follows
// the registry convention "HPLC-029_<title>.pdf".
func parseDocument(normalizer *docref.Normalizer, path string) (*storage.Document, error) {
	base := filepath.Base(path)
	refs := normalizer.ExtractRefs(base)
	if len(refs) == 0 {
		return nil, fmt.Errorf("filename carries no document reference")
	}
	ref := refs[0]

	text, err := extractText(path)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}

	doc := &storage.Document{
		DocID:     ref.DocID(),
		Equipment: ref.Equipment,
		Number:    ref.Number,
		Weight:    1.0,
		CachedAt:  time.Now().Unix(),
	}
	fillSections(doc, text)

	if doc.Title == "" {
		doc.Title = titleFromFilename(base)
	}
	return doc, nil
}

// extractText pulls the plain text out of a PDF file.
func extractText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	body, err := r.GetPlainText()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(body); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// fillSections assigns labeled lines to index fields. The first unlabeled
// non-empty line becomes the title; a section heading switches the target
// field until the next heading.
func fillSections(doc *storage.Document, text string) {
	current := ""
	var sections = map[string][]string{}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if field, rest, ok := matchHeading(line); ok {
			current = field
			if rest != "" {
				sections[current] = append(sections[current], rest)
			}
			continue
		}

		if doc.Title == "" && current == "" {
			doc.Title = line
			continue
		}
		if current != "" {
			sections[current] = append(sections[current], line)
		}
	}

	doc.Symptom = strings.Join(sections["symptom"], " ")
	doc.FixSummary = strings.Join(sections["fix"], " ")
	doc.Purpose = strings.Join(sections["purpose"], " ")

	for _, line := range sections["keywords"] {
		for _, kw := range strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == '/' }) {
			kw = strings.TrimSpace(kw)
			if kw != "" {
				doc.Keywords = append(doc.Keywords, kw)
			}
		}
	}
}

// matchHeading reports whether a line opens a known section, returning the
// target field and any content that follows the heading on the same line.
func matchHeading(line string) (field, rest string, ok bool) {
	for label, f := range sectionLabels {
		if len(line) < len(label) {
			continue
		}
		if !strings.EqualFold(line[:len(label)], label) {
			continue
		}
		tail := line[len(label):]
		if tail != "" && isWordByte(tail[0]) {
			// "Fixed ratio ..." is not a "fix" heading
			continue
		}
		rest = strings.TrimSpace(strings.TrimLeft(tail, ":- \t"))
		return f, rest, true
	}
	return "", "", false
}

func isWordByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// titleFromFilename falls back to the filename remainder after the document
// reference, e.g. "HPLC-029_피크테일링해결.pdf" -> "피크테일링해결".
func titleFromFilename(base string) string {
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if i := strings.IndexAny(name, "_ "); i >= 0 {
		name = name[i+1:]
	}
	return strings.ReplaceAll(name, "_", " ")
}
