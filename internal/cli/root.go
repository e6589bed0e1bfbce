package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"

	"github.com/tyler180/bball-reference-scrapers/internal/app/players"
	"github.com/tyler180/bball-reference-scrapers/internal/bref"
	"github.com/tyler180/bball-reference-scrapers/internal/config"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "bref",
		Short: "Scrape player rosters and stat tables from basketball-reference",
		Long: `A CLI tool to scrape basketball-reference.
"players" walks the a..z roster listings into one flat table.
"table" pulls a single stat table (commented-out ones included) from a player page.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// a bad FAILURE_POLICY is reported by the subcommand
			cfg, _ := config.FromEnv()
			setupLogging(cmd.ErrOrStderr(), verbose || cfg.Debug)
		},
	}
	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")

	cmd.AddCommand(newPlayersCmd(), newTableCmd())
	return cmd
}

func setupLogging(w io.Writer, debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func newPlayersCmd() *cobra.Command {
	var (
		save    bool
		letters string
		policy  string
		output  string
	)
	cmd := &cobra.Command{
		Use:   "players",
		Short: "Fetch every player from the a..z roster pages",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("letters") {
				cfg.Letters = config.ParseLetters(letters)
			}
			if cmd.Flags().Changed("policy") {
				p, ok := bref.ParseFailurePolicy(policy)
				if !ok {
					return fmt.Errorf("invalid policy: %s (must be 'fail_fast' or 'skip')", policy)
				}
				cfg.Policy = p
			}
			if cmd.Flags().Changed("output") {
				cfg.OutputPath = output
			}

			svc := players.New(cfg, players.Sinks{})
			t, err := svc.FetchAllPlayers(cmd.Context(), save)
			if err != nil {
				return fmt.Errorf("fetching players: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d players\n", t.Len())
			if len(t.Failed) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "failed letters: %s\n", strings.Join(t.Failed, ","))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&save, "save", true, "Write the table to the output path")
	cmd.Flags().StringVar(&letters, "letters", "", "Letters to fetch, e.g. 'abc' (default all)")
	cmd.Flags().StringVar(&policy, "policy", "", "On a failed letter: fail_fast or skip")
	cmd.Flags().StringVar(&output, "output", "", "CSV output path (default $OUTPUT_PATH or data/all_players.csv)")
	return cmd
}

func newTableCmd() *cobra.Command {
	var (
		id   string
		url  string
		file string
	)
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Extract one stat table from a player page as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (url == "") == (file == "") {
				return errors.New("exactly one of --url or --file is required")
			}
			doc, err := loadDocument(cmd.Context(), url, file)
			if err != nil {
				return err
			}
			t, err := bref.ExtractTable(doc, id)
			if err != nil {
				return fmt.Errorf("extracting %s: %w", id, err)
			}
			if t == nil {
				return nil
			}
			return t.WriteCSV(cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Table container id, e.g. all_per_game (required)")
	cmd.Flags().StringVar(&url, "url", "", "Player page path or URL, e.g. /players/j/jamesle01.html")
	cmd.Flags().StringVar(&file, "file", "", "Read the page from a local HTML file")
	cmd.MarkFlagRequired("id")
	return cmd
}

func loadDocument(ctx context.Context, url, file string) (*goquery.Document, error) {
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", file, err)
		}
		defer f.Close()
		doc, err := goquery.NewDocumentFromReader(f)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", file, err)
		}
		return doc, nil
	}
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	return cfg.Client().FetchPlayerPage(ctx, url)
}
