package bref

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ErrMissingCell means a body row has no cell for a header's data-stat key.
var ErrMissingCell = errors.New("missing cell for data-stat key")

// StatTable maps each header text to its column of cell values. Every column holds one
// value per body row; column order follows the header, row order follows the body.
type StatTable struct {
	Schema Schema
	cols   map[string][]string
	rows   int
}

func (t *StatTable) Keys() []string { return t.Schema.Names() }

func (t *StatTable) Len() int { return t.rows }

func (t *StatTable) Column(key string) ([]string, bool) {
	v, ok := t.cols[key]
	return v, ok
}

// Row returns row i in column order.
func (t *StatTable) Row(i int) []string {
	out := make([]string, 0, len(t.Schema))
	for _, c := range t.Schema {
		out = append(out, t.cols[c.Name][i])
	}
	return out
}

// WriteCSV writes a header line with the column keys, then one line per row.
func (t *StatTable) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Keys()); err != nil {
		return err
	}
	for i := 0; i < t.rows; i++ {
		if err := cw.Write(t.Row(i)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (t *StatTable) set(key string, vals []string) {
	if _, seen := t.cols[key]; !seen {
		t.Schema = append(t.Schema, Column{Name: key, Type: TypeString})
	}
	// a repeated header text keeps its first position and takes the later values
	t.cols[key] = vals
}

// containerLocator finds the div with the given id, or an empty selection.
type containerLocator func(root *goquery.Selection, id string) *goquery.Selection

// lookup order: the live DOM first, then markup hidden inside comments
var containerLocators = []containerLocator{
	findContainer,
	findContainerInComments,
}

func findContainer(root *goquery.Selection, id string) *goquery.Selection {
	return root.Find("div").FilterFunction(func(_ int, s *goquery.Selection) bool {
		v, ok := s.Attr("id")
		return ok && v == id
	}).First()
}

// findContainerInComments re-parses every comment mentioning id as its own document
// and searches it the same way.
func findContainerInComments(root *goquery.Selection, id string) *goquery.Selection {
	for _, text := range commentsContaining(root.Nodes, id) {
		sub, err := goquery.NewDocumentFromReader(strings.NewReader(text))
		if err != nil {
			continue
		}
		if div := findContainer(sub.Selection, id); div.Length() > 0 {
			return div
		}
	}
	return root.Slice(0, 0)
}

func commentsContaining(roots []*html.Node, needle string) []string {
	var out []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.CommentNode && strings.Contains(n.Data, needle) {
			out = append(out, n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, r := range roots {
		walk(r)
	}
	return out
}

// LocateContainer runs the lookup strategies in order and returns the first hit.
func LocateContainer(doc *goquery.Document, id string) *goquery.Selection {
	for _, locate := range containerLocators {
		if div := locate(doc.Selection, id); div.Length() > 0 {
			return div
		}
	}
	return doc.Selection.Slice(0, 0)
}

// ExtractTable pulls the table inside the div whose id is tableID. Header cells give the
// column keys by visible text; body cells are matched to them by data-stat, never by position.
// The first column is read from the body row's <th>, the others from <td>.
//
// A page without the div, or a div without thead, tbody or header cells, yields (nil, nil).
// A body row lacking a cell for some key yields an error wrapping ErrMissingCell.
func ExtractTable(doc *goquery.Document, tableID string) (*StatTable, error) {
	div := LocateContainer(doc, tableID)
	if div.Length() == 0 {
		slog.Warn("table not found", "id", tableID)
		return nil, nil
	}
	thead := div.Find("thead").First()
	tbody := div.Find("tbody").First()
	if thead.Length() == 0 || tbody.Length() == 0 {
		slog.Warn("table has no header or body", "id", tableID)
		return nil, nil
	}

	headers := thead.Find("th")
	if headers.Length() == 0 {
		slog.Warn("table has no header or body", "id", tableID)
		return nil, nil
	}
	rows := tbody.Find("tr")
	t := &StatTable{cols: make(map[string][]string, headers.Length()), rows: rows.Length()}

	var err error
	headers.EachWithBreak(func(i int, th *goquery.Selection) bool {
		key := strings.TrimSpace(th.Text())
		stat := th.AttrOr("data-stat", "")
		tag := "td"
		if i == 0 {
			tag = "th"
		}
		vals := make([]string, 0, rows.Length())
		rows.EachWithBreak(func(r int, tr *goquery.Selection) bool {
			cell := tr.Find(tag).FilterFunction(func(_ int, s *goquery.Selection) bool {
				v, ok := s.Attr("data-stat")
				return ok && v == stat
			}).First()
			if cell.Length() == 0 {
				err = fmt.Errorf("table %s row %d column %q (%s[data-stat=%q]): %w",
					tableID, r, key, tag, stat, ErrMissingCell)
				return false
			}
			vals = append(vals, strings.TrimSpace(cell.Text()))
			return true
		})
		if err != nil {
			return false
		}
		t.set(key, vals)
		return true
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}
