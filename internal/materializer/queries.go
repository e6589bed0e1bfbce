package materializer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tyler180/bball-reference-scrapers/internal/bref"
)

const (
	RawTable = "all_players_raw"
	ViewName = "all_players"
)

var reIdent = regexp.MustCompile(`[^a-z0-9_]+`)

// Ident turns a roster header ("Birth Date", "Ht") into an Athena column name.
func Ident(name string) string {
	s := reIdent.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "col"
	}
	if s[0] >= '0' && s[0] <= '9' {
		s = "c_" + s
	}
	return s
}

func columnIdents(schema bref.Schema) []string {
	out := make([]string, 0, len(schema))
	seen := map[string]int{}
	for _, c := range schema {
		id := Ident(c.Name)
		if n := seen[id]; n > 0 {
			seen[id] = n + 1
			id = fmt.Sprintf("%s_%d", id, n+1)
		} else {
			seen[id] = 1
		}
		out = append(out, id)
	}
	return out
}

func BuildDrop(db string) string {
	return fmt.Sprintf(`DROP TABLE IF EXISTS %s.%s`, db, RawTable)
}

// BuildCreateExternal maps the uploaded roster CSVs. OpenCSVSerde only reads strings,
// so every column is declared string here and typed in the view.
func BuildCreateExternal(db, location string, schema bref.Schema) string {
	cols := columnIdents(schema)
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = fmt.Sprintf("  `%s` string", c)
	}
	if !strings.HasSuffix(location, "/") {
		location += "/"
	}
	return fmt.Sprintf(`
CREATE EXTERNAL TABLE IF NOT EXISTS %s.%s (
%s
)
PARTITIONED BY (dt string)
ROW FORMAT SERDE 'org.apache.hadoop.hive.serde2.OpenCSVSerde'
WITH SERDEPROPERTIES ('separatorChar' = ',', 'quoteChar' = '"')
LOCATION '%s'
TBLPROPERTIES ('skip.header.line.count' = '1')
`, db, RawTable, strings.Join(defs, ",\n"), location)
}

// BuildRepair loads the dt=... partitions written by the uploader.
func BuildRepair(db string) string {
	return fmt.Sprintf(`MSCK REPAIR TABLE %s.%s`, db, RawTable)
}

// BuildView casts the bool columns and keeps only the latest dt.
func BuildView(db string, schema bref.Schema) string {
	cols := columnIdents(schema)
	sel := make([]string, len(cols))
	for i, c := range cols {
		if schema[i].Type == bref.TypeBool {
			sel[i] = fmt.Sprintf("  CAST(LOWER(`%s`) = 'true' AS boolean) AS `%s`", c, c)
			continue
		}
		sel[i] = fmt.Sprintf("  `%s`", c)
	}
	return fmt.Sprintf(`
CREATE OR REPLACE VIEW %s.%s AS
SELECT
%s,
  dt
FROM %s.%s
WHERE dt = (SELECT MAX(dt) FROM %s.%s)
`, db, ViewName, strings.Join(sel, ",\n"), db, RawTable, db, RawTable)
}

func BuildFlagCounts(db string) string {
	return fmt.Sprintf(`
SELECT
  COUNT_IF(%s) AS active,
  COUNT_IF(%s) AS hof
FROM %s.%s
`, bref.ColIsActive, bref.ColIsHOF, db, ViewName)
}
