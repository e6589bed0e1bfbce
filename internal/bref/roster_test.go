package bref

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"
)

const rosterA = `<html><body>
<table id="players">
<thead>
<tr>
<th data-stat="player">Player</th>
<th data-stat="years">Yrs</th>
</tr>
</thead>
<tbody>
<tr>
<th data-stat="player"><strong><a href="/players/a/abdulka01.html">Kareem Abdul-Jabbar</a></strong>*</th>
<td data-stat="years">20</td>
</tr>
<tr>
<th data-stat="player"><a href="/players/a/doejo01.html">John</a> <a href="/teams/BOS/">Doe</a></th>
<td data-stat="years">3</td>
</tr>
</tbody>
</table>
</body></html>`

func rosterServer(t *testing.T, pages map[string]string, status map[string]int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if code, ok := status[r.URL.Path]; ok {
			w.WriteHeader(code)
			return
		}
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testClient(baseURL string) *Client {
	c := NewClient()
	c.BaseURL = baseURL
	c.Delay = NoDelay{}
	c.RetryBase = time.Millisecond
	c.RetryMax = 5 * time.Millisecond
	return c
}

func TestFetchAllPlayers_SingleLetter(t *testing.T) {
	srv := rosterServer(t, map[string]string{"/players/a/": rosterA}, nil)

	tbl, err := FetchAllPlayers(context.Background(), testClient(srv.URL), RosterOptions{Letters: []string{"a"}})
	if err != nil {
		t.Fatalf("FetchAllPlayers error: %v", err)
	}
	if tbl.Len() != 2 {
		t.Fatalf("rows = %d, want 2", tbl.Len())
	}
	if got, want := tbl.Schema.Names(), []string{"player", "yrs", "url", "is_active", "is_hof"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("columns = %v, want %v", got, want)
	}
	if tbl.Schema[3].Type != TypeBool || tbl.Schema[4].Type != TypeBool {
		t.Errorf("flag columns should be bool: %+v", tbl.Schema)
	}

	kareem, john := tbl.Rows[0], tbl.Rows[1]
	if kareem.Name != "Kareem Abdul-Jabbar" || !kareem.IsActive || !kareem.IsHOF || kareem.URL != "/players/a/abdulka01.html" {
		t.Errorf("unexpected first row: %+v", kareem)
	}
	if john.Name != "John Doe" || john.IsActive || john.IsHOF || john.URL != "" {
		t.Errorf("unexpected second row: %+v", john)
	}
	for _, r := range tbl.Rows {
		if len(r.Stats) != 1 {
			t.Errorf("%s: stats = %v, want 1 value", r.Name, r.Stats)
		}
	}
	if got := kareem.Values(); !reflect.DeepEqual(got, []string{"Kareem Abdul-Jabbar", "20", "/players/a/abdulka01.html", "true", "true"}) {
		t.Errorf("Values = %v", got)
	}
	if !reflect.DeepEqual(tbl.Counts, []LetterCount{{Letter: "a", Rows: 2}}) {
		t.Errorf("Counts = %+v", tbl.Counts)
	}
}

func TestParsePlayerRow_Flags(t *testing.T) {
	tests := []struct {
		name       string
		cell       string
		wantName   string
		wantURL    string
		wantActive bool
		wantHOF    bool
	}{
		{"hof stripped", `<th>Bill Russell*</th>`, "Bill Russell", "", false, true},
		{"plain", `<th>Joe Smith</th>`, "Joe Smith", "", false, false},
		{"bold active", `<th><b><a href="/players/j/jamesle01.html">LeBron James</a></b></th>`, "LeBron James", "/players/j/jamesle01.html", true, false},
		{"two links", `<th><a href="/a">A</a><a href="/b">B</a></th>`, "AB", "", false, false},
		{"star inside name is kept", `<th>A*B</th>`, "A*B", "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustDoc(t, `<table><tbody><tr>`+tt.cell+`<td>1</td></tr></tbody></table>`)
			tr := doc.Find("tr").First()
			r := parsePlayerRow(tr.Find("th").First(), tr)
			if r.Name != tt.wantName || r.URL != tt.wantURL || r.IsActive != tt.wantActive || r.IsHOF != tt.wantHOF {
				t.Errorf("got %+v", r)
			}
		})
	}
}

func TestHeaderNames_SingleLineMarkup(t *testing.T) {
	doc := mustDoc(t, `<table><thead><tr><th>Player</th><th>From</th><th>To</th></tr></thead></table>`)
	got := headerNames(doc.Find("tr").First())
	if want := []string{"Player", "From", "To"}; !reflect.DeepEqual(got, want) {
		t.Errorf("headerNames = %v, want %v", got, want)
	}
}

func TestFetchAllPlayers_NoRowsReturnsEmpty(t *testing.T) {
	srv := rosterServer(t, map[string]string{
		"/players/a/": rosterA,
		"/players/b/": `<html><body><p>nothing</p></body></html>`,
	}, nil)

	tbl, err := FetchAllPlayers(context.Background(), testClient(srv.URL), RosterOptions{Letters: []string{"a", "b"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tbl.Len() != 0 {
		t.Fatalf("expected empty table, got %d rows", tbl.Len())
	}
}

func TestFetchAllPlayers_FailFast(t *testing.T) {
	srv := rosterServer(t,
		map[string]string{"/players/a/": rosterA, "/players/c/": rosterA},
		map[string]int{"/players/b/": http.StatusInternalServerError},
	)

	tbl, err := FetchAllPlayers(context.Background(), testClient(srv.URL), RosterOptions{Letters: []string{"a", "b", "c"}})
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if fe.Letter != "b" || fe.StatusCode != http.StatusInternalServerError {
		t.Errorf("FetchError = %+v", fe)
	}
	if tbl == nil || tbl.Len() != 0 {
		t.Fatalf("expected empty table on abort, got %+v", tbl)
	}
}

func TestFetchAllPlayers_SkipFailed(t *testing.T) {
	srv := rosterServer(t,
		map[string]string{"/players/a/": rosterA, "/players/c/": strings.ReplaceAll(rosterA, "abdulka01", "cousibo01")},
		map[string]int{"/players/b/": http.StatusServiceUnavailable},
	)
	c := testClient(srv.URL)
	c.MaxAttempts = 2

	tbl, err := FetchAllPlayers(context.Background(), c, RosterOptions{Letters: []string{"a", "b", "c"}, Policy: SkipFailed})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tbl.Len() != 4 {
		t.Fatalf("rows = %d, want 4", tbl.Len())
	}
	if !reflect.DeepEqual(tbl.Failed, []string{"b"}) {
		t.Errorf("Failed = %v, want [b]", tbl.Failed)
	}
	if tbl.Rows[2].Letter != "c" || tbl.Rows[2].URL != "/players/a/cousibo01.html" {
		t.Errorf("letter order not preserved: %+v", tbl.Rows[2])
	}
}

func TestPlayerKey(t *testing.T) {
	if got := PlayerKey(PlayerRecord{URL: "/players/a/abdulka01.html"}); got != "abdulka01" {
		t.Errorf("PlayerKey(url) = %q", got)
	}
	if got := PlayerKey(PlayerRecord{Name: "Shaquille O'Neal"}); got != "shaquilleoneal" {
		t.Errorf("PlayerKey(name) = %q", got)
	}
	if got := PlayerIDFromURL("/teams/BOS/"); got != "" {
		t.Errorf("PlayerIDFromURL(team) = %q", got)
	}
}

func TestParseFailurePolicy(t *testing.T) {
	for in, want := range map[string]FailurePolicy{"": FailFast, "fail_fast": FailFast, "SKIP": SkipFailed} {
		got, ok := ParseFailurePolicy(in)
		if !ok || got != want {
			t.Errorf("ParseFailurePolicy(%q) = %q,%v", in, got, ok)
		}
	}
	if _, ok := ParseFailurePolicy("retry-forever"); ok {
		t.Error("unknown policy should not parse")
	}
}
