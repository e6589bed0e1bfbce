package bref

import (
	"strconv"
	"strings"
)

const (
	DefaultBaseURL = "https://www.basketball-reference.com"
	ua             = "Mozilla/5.0 (compatible; BRefRosterBot/1.0; +https://example.com/bot)"
)

// ColumnType is the semantic type of a table column.
type ColumnType string

const (
	TypeString ColumnType = "string"
	TypeBool   ColumnType = "bool"
)

type Column struct {
	Name string
	Type ColumnType
}

// Schema is the ordered column list of a table, fixed when the table is built.
type Schema []Column

func (s Schema) Names() []string {
	out := make([]string, len(s))
	for i, c := range s {
		out[i] = c.Name
	}
	return out
}

// Derived roster columns appended after the document header columns.
const (
	ColURL      = "url"
	ColIsActive = "is_active"
	ColIsHOF    = "is_hof"
)

// PlayerRecord is one roster row. Stats holds every data cell after the name, in header order.
type PlayerRecord struct {
	Name     string
	Stats    []string
	URL      string
	IsActive bool
	IsHOF    bool
	Letter   string
}

// Values renders the record in schema order: name, stats..., url, is_active, is_hof.
func (r PlayerRecord) Values() []string {
	out := make([]string, 0, len(r.Stats)+4)
	out = append(out, r.Name)
	out = append(out, r.Stats...)
	out = append(out, r.URL, strconv.FormatBool(r.IsActive), strconv.FormatBool(r.IsHOF))
	return out
}

// PlayerTable is the flattened roster across letters.
type PlayerTable struct {
	Schema Schema
	Rows   []PlayerRecord
	// per-letter row counts, in fetch order
	Counts []LetterCount
	// letters skipped under SkipFailed
	Failed []string
}

type LetterCount struct {
	Letter string
	Rows   int
}

func (t *PlayerTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// rosterSchema builds the roster schema from the document header row.
func rosterSchema(headers []string) Schema {
	s := make(Schema, 0, len(headers)+3)
	for _, h := range headers {
		s = append(s, Column{Name: strings.ToLower(h), Type: TypeString})
	}
	return append(s,
		Column{Name: ColURL, Type: TypeString},
		Column{Name: ColIsActive, Type: TypeBool},
		Column{Name: ColIsHOF, Type: TypeBool},
	)
}

// PlayerIDFromURL returns the site id from a profile link
// (/players/a/abdulka01.html -> abdulka01), or "" if the link is not a player page.
func PlayerIDFromURL(href string) string {
	href = strings.TrimSpace(href)
	if !strings.Contains(href, "/players/") {
		return ""
	}
	parts := strings.Split(href, "/")
	last := parts[len(parts)-1]
	last = strings.TrimSuffix(last, ".html")
	return strings.TrimSuffix(last, ".htm")
}

// PlayerKey is PlayerIDFromURL with a sanitized-name fallback for rows without a link.
func PlayerKey(r PlayerRecord) string {
	if id := PlayerIDFromURL(r.URL); id != "" {
		return id
	}
	txt := strings.ToLower(strings.TrimSpace(r.Name))
	txt = strings.ReplaceAll(txt, " ", "")
	txt = strings.ReplaceAll(txt, ".", "")
	txt = strings.ReplaceAll(txt, "'", "")
	return txt
}
