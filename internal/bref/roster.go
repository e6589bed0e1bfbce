package bref

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FailurePolicy decides what a transport failure on one letter does to the whole run.
type FailurePolicy string

const (
	// FailFast aborts the run on the first failed letter and returns an empty table.
	FailFast FailurePolicy = "fail_fast"
	// SkipFailed records the failed letter and keeps going with the rest.
	SkipFailed FailurePolicy = "skip"
)

func ParseFailurePolicy(s string) (FailurePolicy, bool) {
	switch FailurePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case FailFast, "":
		return FailFast, true
	case SkipFailed, "skip_failed":
		return SkipFailed, true
	}
	return FailFast, false
}

// Alphabet is the default letter list, a..z.
func Alphabet() []string {
	out := make([]string, 0, 26)
	for c := 'a'; c <= 'z'; c++ {
		out = append(out, string(c))
	}
	return out
}

type RosterOptions struct {
	Letters []string // default Alphabet()
	Policy  FailurePolicy
}

// FetchAllPlayers scrapes the roster page of every letter and concatenates the rows in letter order.
//
// A roster page without any rows ends the run with an empty table and no error. A transport
// failure ends the run with an empty table and the *FetchError under FailFast; under SkipFailed
// the letter is listed in PlayerTable.Failed and the run continues.
func FetchAllPlayers(ctx context.Context, c *Client, opts RosterOptions) (*PlayerTable, error) {
	letters := opts.Letters
	if len(letters) == 0 {
		letters = Alphabet()
	}
	policy := opts.Policy
	if policy == "" {
		policy = FailFast
	}

	out := &PlayerTable{}
	for _, letter := range letters {
		rosterURL := c.RosterURL(letter)
		doc, err := c.FetchDocument(ctx, rosterURL)
		if err != nil {
			var fe *FetchError
			if errors.As(err, &fe) {
				fe.Letter = letter
			}
			slog.Error("request failed", "letter", letter, "url", rosterURL, "err", err)
			if policy == FailFast || ctx.Err() != nil {
				return &PlayerTable{}, err
			}
			out.Failed = append(out.Failed, letter)
			continue
		}

		if c.Debug {
			DumpTablesForDebug(doc, letter)
		}

		headers, rows, ok := ParseRosterPage(doc, letter)
		if !ok {
			slog.Warn("no data found", "letter", letter, "url", rosterURL)
			return &PlayerTable{}, nil
		}
		out.Schema = rosterSchema(headers)
		out.Rows = append(out.Rows, rows...)
		out.Counts = append(out.Counts, LetterCount{Letter: letter, Rows: len(rows)})
		slog.Info("rows scraped", "letter", letter, "rows", len(rows))
	}

	slog.Info("rows scraped in total", "rows", len(out.Rows), "failed_letters", out.Failed)
	return out, nil
}

// ParseRosterPage reads a roster listing. The first <tr> is the header row and is not a player.
// ok is false when the page has no rows at all.
func ParseRosterPage(doc *goquery.Document, letter string) (headers []string, rows []PlayerRecord, ok bool) {
	trs := doc.Find("tr")
	if trs.Length() == 0 {
		return nil, nil, false
	}
	headers = headerNames(trs.First())

	rows = make([]PlayerRecord, 0, trs.Length()-1)
	trs.Slice(1, trs.Length()).Each(func(i int, tr *goquery.Selection) {
		th := tr.Find("th").First()
		if th.Length() == 0 {
			slog.Debug("row without header cell", "letter", letter, "row", i+1)
			return
		}
		r := parsePlayerRow(th, tr)
		r.Letter = letter
		if len(headers) > 0 && len(r.Stats) != len(headers)-1 {
			slog.Debug("stat count differs from header", "letter", letter, "player", r.Name,
				"stats", len(r.Stats), "headers", len(headers))
		}
		rows = append(rows, r)
	})
	return headers, rows, true
}

func parsePlayerRow(th, tr *goquery.Selection) PlayerRecord {
	name := strings.TrimSpace(th.Text())
	hof := strings.HasSuffix(name, "*")
	if hof {
		name = strings.TrimSpace(strings.TrimRight(name, "*"))
	}

	stats := make([]string, 0, 8)
	tr.Find("td").Each(func(_ int, td *goquery.Selection) {
		stats = append(stats, strings.TrimSpace(td.Text()))
	})

	link := ""
	if a := th.Find("a"); a.Length() == 1 {
		link = a.AttrOr("href", "")
	}

	return PlayerRecord{
		Name:     name,
		Stats:    stats,
		URL:      link,
		IsActive: th.Find("strong, b").Length() > 0,
		IsHOF:    hof,
	}
}

// headerNames splits the header row text on line boundaries. When the markup keeps
// all header cells on one line, the cell texts are used instead.
func headerNames(tr *goquery.Selection) []string {
	var lines []string
	for _, l := range strings.Split(strings.TrimSpace(tr.Text()), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	cells := tr.Find("th, td")
	if cells.Length() > 1 && len(lines) != cells.Length() {
		lines = lines[:0]
		cells.Each(func(_ int, s *goquery.Selection) {
			lines = append(lines, strings.TrimSpace(s.Text()))
		})
	}
	return lines
}
