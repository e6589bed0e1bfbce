package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tyler180/bball-reference-scrapers/internal/bref"
)

// DefaultCSVPath is where the roster dump goes when no path is configured.
const DefaultCSVPath = "data/all_players.csv"

// EncodePlayersCSV writes the schema names as the header line, then one line per player.
// Booleans are written as true/false. There is no index column.
func EncodePlayersCSV(w io.Writer, t *bref.PlayerTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Schema.Names()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range t.Rows {
		if err := cw.Write(r.Values()); err != nil {
			return fmt.Errorf("write row %q: %w", r.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePlayersCSV creates (or truncates) path and its parent directory.
func WritePlayersCSV(path string, t *bref.PlayerTable) error {
	if path == "" {
		path = DefaultCSVPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := EncodePlayersCSV(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
