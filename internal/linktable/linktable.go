// Package linktable loads and serves the registry of pre-registered document
// hyperlinks. The source of truth is a CSV export with one row per
// (equipment, document number, language) combination; rows whose link cell is
// empty or a spreadsheet "nan" placeholder are skipped, and a missing source
// file yields an empty registry rather than an error so the bot can still
// answer without links.
package linktable

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	domerrors "github.com/mih97/qcnav-linebot-go/internal/errors"
	"github.com/mih97/qcnav-linebot-go/internal/storage"
)

// Languages recognized in the registry.
const (
	LangKorean  = "KR"
	LangEnglish = "EN"
)

// Key identifies one registered link.
type Key struct {
	Equipment string // Upper-case equipment family, e.g. "HPLC"
	Number    string // Zero-padded document number, e.g. "029"
	Language  string // LangKorean or LangEnglish
}

// Table is an immutable in-memory link registry.
type Table struct {
	links    map[Key]string
	padWidth int
}

// Option configures table loading.
type Option func(*Table)

// WithPadWidth overrides the zero-pad width applied to document numbers.
func WithPadWidth(width int) Option {
	return func(t *Table) { t.padWidth = width }
}

// New returns an empty table.
func New(opts ...Option) *Table {
	t := &Table{
		links:    make(map[Key]string),
		padWidth: 3,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// LoadFile reads the link registry from a CSV file.
// An absent file is not an error: the bot degrades to answering without
// hyperlinks, so a missing registry yields an empty table.
func LoadFile(path string, opts ...Option) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("link table source missing, starting with empty registry",
				"path", path)
			return New(opts...), nil
		}
		return nil, fmt.Errorf("open link table: %w", err)
	}
	defer func() { _ = f.Close() }()

	t, err := Load(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("load link table %s: %w", path, err)
	}
	return t, nil
}

// Load reads the link registry from CSV data.
// Expected columns: equipment, sheet_no, language, link. A header row is
// detected and skipped. Malformed rows are skipped with a warning; they never
// abort the load.
func Load(r io.Reader, opts ...Option) (*Table, error) {
	t := New(opts...)

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // validate per-row, don't abort the whole file
	reader.TrimLeadingSpace = true

	rowNum := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				slog.Warn("skipping malformed link table row",
					"row", rowNum,
					"error", err)
				continue
			}
			return nil, fmt.Errorf("read link table: %w", err)
		}

		if rowNum == 1 && isHeader(record) {
			continue
		}

		key, url, err := parseRow(record, rowNum, t.padWidth)
		if err != nil {
			var malformed *domerrors.MalformedRowError
			if errors.As(err, &malformed) {
				slog.Warn("skipping malformed link table row",
					"row", rowNum,
					"reason", malformed.Reason)
				continue
			}
			return nil, err
		}
		if url == "" {
			// Unregistered link cell, nothing to serve
			continue
		}

		t.links[key] = url
	}

	slog.Info("link table loaded", "entries", len(t.links))
	return t, nil
}

// FromLinks builds a table from stored link rows.
func FromLinks(links []*storage.Link, opts ...Option) *Table {
	t := New(opts...)
	for _, link := range links {
		url := cleanURL(link.URL)
		if url == "" {
			continue
		}
		key := Key{
			Equipment: strings.ToUpper(link.Equipment),
			Number:    padNumber(link.Number, t.padWidth),
			Language:  strings.ToUpper(link.Language),
		}
		t.links[key] = url
	}
	return t
}

// Lookup returns the registered URL for the given key.
func (t *Table) Lookup(equipment, number, language string) (string, bool) {
	key := Key{
		Equipment: strings.ToUpper(equipment),
		Number:    padNumber(number, t.padWidth),
		Language:  strings.ToUpper(language),
	}
	url, ok := t.links[key]
	return url, ok
}

// Len returns the number of registered links.
func (t *Table) Len() int {
	return len(t.links)
}

// Links converts the table to stored link rows for persistence.
func (t *Table) Links() []*storage.Link {
	links := make([]*storage.Link, 0, len(t.links))
	for key, url := range t.links {
		links = append(links, &storage.Link{
			Equipment: key.Equipment,
			Number:    key.Number,
			Language:  key.Language,
			URL:       url,
		})
	}
	return links
}

func isHeader(record []string) bool {
	if len(record) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(record[0]))
	return first == "equipment" || first == "eq" || first == "equip"
}

func parseRow(record []string, rowNum, padWidth int) (Key, string, error) {
	if len(record) < 4 {
		return Key{}, "", domerrors.NewMalformedRowError("link table", rowNum,
			fmt.Sprintf("expected 4 columns, got %d", len(record)))
	}

	equipment := strings.ToUpper(strings.TrimSpace(record[0]))
	if equipment == "" {
		return Key{}, "", domerrors.NewMalformedRowError("link table", rowNum, "empty equipment")
	}

	number, err := normalizeNumber(strings.TrimSpace(record[1]), padWidth)
	if err != nil {
		return Key{}, "", domerrors.NewMalformedRowError("link table", rowNum, err.Error())
	}

	language := strings.ToUpper(strings.TrimSpace(record[2]))
	if language != LangKorean && language != LangEnglish {
		return Key{}, "", domerrors.NewMalformedRowError("link table", rowNum,
			fmt.Sprintf("unknown language %q", record[2]))
	}

	return Key{Equipment: equipment, Number: number, Language: language}, cleanURL(record[3]), nil
}

// normalizeNumber canonicalizes a sheet number cell. Spreadsheet exports
// frequently render integers as floats ("29.0"), so a trailing ".0" fraction
// is dropped before padding.
func normalizeNumber(raw string, padWidth int) (string, error) {
	if raw == "" {
		return "", errors.New("empty sheet number")
	}

	if dot := strings.IndexByte(raw, '.'); dot >= 0 {
		frac := raw[dot+1:]
		if frac != "" && strings.Trim(frac, "0") != "" {
			return "", fmt.Errorf("non-integer sheet number %q", raw)
		}
		raw = raw[:dot]
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return "", fmt.Errorf("invalid sheet number %q", raw)
	}

	return padNumber(strconv.Itoa(n), padWidth), nil
}

func padNumber(number string, width int) string {
	number = strings.TrimSpace(number)
	trimmed := strings.TrimLeft(number, "0")
	if trimmed == "" {
		trimmed = "0"
	}
	if len(trimmed) >= width {
		return trimmed
	}
	return strings.Repeat("0", width-len(trimmed)) + trimmed
}

// cleanURL trims a link cell and rejects spreadsheet NaN placeholders.
func cleanURL(raw string) string {
	url := strings.TrimSpace(raw)
	if url == "" || strings.EqualFold(url, "nan") {
		return ""
	}
	return url
}
