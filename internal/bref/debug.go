package bref

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DumpTablesForDebug lists every table with its id and first header row.
func DumpTablesForDebug(doc *goquery.Document, pageTag string) {
	doc.Find("table").Each(func(i int, t *goquery.Selection) {
		id, _ := t.Attr("id")
		var heads []string
		t.Find("thead tr").First().Find("th,td").Each(func(_ int, h *goquery.Selection) {
			if txt := strings.ToLower(strings.TrimSpace(h.Text())); txt != "" {
				heads = append(heads, txt)
			}
		})
		slog.Debug("table", "index", i, "id", id, "class", t.AttrOr("class", ""),
			"headers", strings.Join(heads, "|"), "page", pageTag)
	})
	// commented-out tables are invisible to Find; report the ids they carry
	for _, c := range commentsContaining(doc.Selection.Nodes, "<table") {
		if i := strings.Index(c, `id="`); i >= 0 {
			rest := c[i+4:]
			if j := strings.IndexByte(rest, '"'); j >= 0 {
				slog.Debug("commented table", "first_id", rest[:j], "page", pageTag)
			}
		}
	}
}
