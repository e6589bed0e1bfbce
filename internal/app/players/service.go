// Package players wires the roster scrape to its sinks: the CSV dump, DynamoDB, S3 and
// the Athena table over the S3 prefix.
package players

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tyler180/bball-reference-scrapers/internal/ath"
	"github.com/tyler180/bball-reference-scrapers/internal/bref"
	"github.com/tyler180/bball-reference-scrapers/internal/config"
	"github.com/tyler180/bball-reference-scrapers/internal/materializer"
	"github.com/tyler180/bball-reference-scrapers/internal/store"
)

// Sinks are optional; a nil sink is skipped.
type Sinks struct {
	DDB    store.DynamoDBAPI
	S3     store.S3API
	Athena ath.API
}

type Service struct {
	Cfg    config.Config
	Client *bref.Client
	Sinks  Sinks
	Now    func() time.Time

	// AthenaPoll overrides the runner's status poll interval.
	AthenaPoll time.Duration
}

func New(cfg config.Config, sinks Sinks) *Service {
	return &Service{Cfg: cfg, Client: cfg.Client(), Sinks: sinks, Now: time.Now}
}

// FetchAllPlayers scrapes every roster letter and, when persist is set and the run
// succeeded, writes the table to Cfg.OutputPath.
func (s *Service) FetchAllPlayers(ctx context.Context, persist bool) (*bref.PlayerTable, error) {
	t, err := bref.FetchAllPlayers(ctx, s.Client, s.Cfg.RosterOptions())
	if err != nil {
		return t, err
	}
	if !persist {
		return t, nil
	}
	if t.Len() == 0 {
		slog.Warn("nothing to save", "path", s.Cfg.OutputPath)
		return t, nil
	}
	if err := store.WritePlayersCSV(s.Cfg.OutputPath, t); err != nil {
		return t, err
	}
	slog.Info("saved output", "path", s.Cfg.OutputPath, "rows", t.Len())
	return t, nil
}

// Ingest runs the scrape and fans the table out to the configured sinks.
func (s *Service) Ingest(ctx context.Context, persist bool) (Result, error) {
	res := Result{RunID: uuid.NewString()}
	t, err := s.FetchAllPlayers(ctx, persist)
	if err != nil {
		return res, fmt.Errorf("fetch players: %w", err)
	}
	res.Rows = t.Len()
	res.Failed = t.Failed
	if persist && t.Len() > 0 {
		res.CSVPath = s.Cfg.OutputPath
	}
	if t.Len() == 0 {
		return res, nil
	}

	if s.Sinks.DDB != nil {
		n, err := store.PutPlayerRows(ctx, s.Sinks.DDB, s.Cfg.PlayersTable, res.RunID, t)
		if err != nil {
			return res, fmt.Errorf("write players: %w", err)
		}
		res.DDBWritten = n
		slog.Info("wrote players", "table", s.Cfg.PlayersTable, "items", n, "run_id", res.RunID)
	}

	if s.Sinks.S3 != nil && s.Cfg.S3Bucket != "" {
		key := store.CSVKey(s.Cfg.S3Prefix, s.Now())
		if err := store.UploadPlayersCSV(ctx, s.Sinks.S3, s.Cfg.S3Bucket, key, t); err != nil {
			return res, err
		}
		res.S3Key = key
		slog.Info("uploaded players csv", "bucket", s.Cfg.S3Bucket, "key", key)
	}
	return res, nil
}

// RegisterAthena (re)creates the external table over S3_PREFIX and the typed view,
// then reports row, active and hall-of-fame counts. The schema comes from a fetch of
// the first configured letter, since the table columns follow the roster header.
func (s *Service) RegisterAthena(ctx context.Context) (string, error) {
	if s.Sinks.Athena == nil {
		return "", errors.New("athena client not configured")
	}
	if s.Cfg.S3Bucket == "" {
		return "", errors.New("S3_BUCKET is required to register the athena table")
	}

	opts := s.Cfg.RosterOptions()
	letters := opts.Letters
	if len(letters) == 0 {
		letters = bref.Alphabet()
	}
	opts.Letters = letters[:1]
	opts.Policy = bref.FailFast
	t, err := bref.FetchAllPlayers(ctx, s.Client, opts)
	if err != nil {
		return "", fmt.Errorf("fetch header: %w", err)
	}
	if len(t.Schema) == 0 {
		return "", errors.New("no roster header found")
	}

	r := &ath.Runner{
		Client:    s.Sinks.Athena,
		Workgroup: s.Cfg.AthenaWorkgroup,
		Database:  s.Cfg.AthenaDB,
		OutputS3:  s.Cfg.AthenaOutputS3,
		Poll:      s.AthenaPoll,
	}
	db := s.Cfg.AthenaDB
	location := fmt.Sprintf("s3://%s/%s", s.Cfg.S3Bucket, s.Cfg.S3Prefix)
	for _, q := range []string{
		materializer.BuildDrop(db),
		materializer.BuildCreateExternal(db, location, t.Schema),
		materializer.BuildRepair(db),
		materializer.BuildView(db, t.Schema),
	} {
		if _, err := r.ExecAndWait(ctx, q); err != nil {
			return "", err
		}
	}

	n, err := r.CountRows(ctx, db+"."+materializer.ViewName)
	if err != nil {
		return "", fmt.Errorf("count rows: %w", err)
	}
	flags, err := r.QueryInts(ctx, materializer.BuildFlagCounts(db))
	if err != nil {
		return "", fmt.Errorf("flag counts: %w", err)
	}
	if len(flags) < 2 {
		return "", errors.New("flag counts: unexpected result shape")
	}
	slog.Info("athena table registered", "db", db, "view", materializer.ViewName, "rows", n, "active", flags[0], "hof", flags[1])
	return fmt.Sprintf("rows=%d active=%d hof=%d", n, flags[0], flags[1]), nil
}
