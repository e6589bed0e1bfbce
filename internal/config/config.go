// Package config reads scraper and sink settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tyler180/bball-reference-scrapers/internal/bref"
)

func envStr(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(k))) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return def
	}
}

func envInt(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

type Config struct {
	BaseURL     string
	DelayMin    time.Duration
	DelayMax    time.Duration
	HTTPTimeout time.Duration
	MaxAttempts int
	RetryBase   time.Duration
	RetryMax    time.Duration
	Policy      bref.FailurePolicy
	Letters     []string

	OutputPath string

	PlayersTable string
	S3Bucket     string
	S3Prefix     string

	AthenaDB        string
	AthenaWorkgroup string
	AthenaOutputS3  string

	Debug bool
}

// FromEnv builds a Config. Defaults: 2-5s jitter, 60s timeout, one attempt per page,
// fail-fast on transport errors, data/all_players.csv.
func FromEnv() (Config, error) {
	policy, ok := bref.ParseFailurePolicy(os.Getenv("FAILURE_POLICY"))
	if !ok {
		return Config{}, fmt.Errorf("unknown FAILURE_POLICY %q (want fail_fast or skip)", os.Getenv("FAILURE_POLICY"))
	}
	// retries only make sense when a failed letter can be skipped
	defAttempts := 1
	if policy == bref.SkipFailed {
		defAttempts = 3
	}

	c := Config{
		BaseURL:     envStr("BREF_BASE_URL", bref.DefaultBaseURL),
		DelayMin:    time.Duration(envInt("BREF_DELAY_MIN_MS", 2000)) * time.Millisecond,
		DelayMax:    time.Duration(envInt("BREF_DELAY_MAX_MS", 5000)) * time.Millisecond,
		HTTPTimeout: time.Duration(envInt("HTTP_TIMEOUT_SEC", 60)) * time.Second,
		MaxAttempts: envInt("HTTP_MAX_ATTEMPTS", defAttempts),
		RetryBase:   time.Duration(envInt("HTTP_RETRY_BASE_MS", 400)) * time.Millisecond,
		RetryMax:    time.Duration(envInt("HTTP_RETRY_MAX_MS", 6000)) * time.Millisecond,
		Policy:      policy,
		Letters:     ParseLetters(os.Getenv("LETTERS")),

		OutputPath: envStr("OUTPUT_PATH", "data/all_players.csv"),

		PlayersTable: envStr("PLAYERS_TABLE_NAME", "bref_players"),
		S3Bucket:     envStr("S3_BUCKET", ""),
		S3Prefix:     envStr("S3_PREFIX", "bref/all_players"),

		AthenaDB:        envStr("ATHENA_DB", "bref"),
		AthenaWorkgroup: envStr("ATHENA_WORKGROUP", "primary"),
		AthenaOutputS3:  envStr("ATHENA_OUTPUT_S3", ""),

		Debug: envBool("DEBUG", false),
	}
	if c.DelayMax < c.DelayMin {
		c.DelayMax = c.DelayMin
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	return c, nil
}

// ParseLetters reads "a,b,c" or "abc"; empty means every letter.
func ParseLetters(s string) []string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil
	}
	seen := map[rune]struct{}{}
	var out []string
	for _, r := range s {
		if r < 'a' || r > 'z' {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, string(r))
	}
	return out
}

// Client builds a bref.Client from the scrape settings.
func (c Config) Client() *bref.Client {
	cl := bref.NewClient()
	cl.BaseURL = c.BaseURL
	cl.HTTP.Timeout = c.HTTPTimeout
	cl.Delay = bref.JitterDelay{Min: c.DelayMin, Max: c.DelayMax}
	cl.MaxAttempts = c.MaxAttempts
	cl.RetryBase = c.RetryBase
	cl.RetryMax = c.RetryMax
	cl.Debug = c.Debug
	return cl
}

func (c Config) RosterOptions() bref.RosterOptions {
	return bref.RosterOptions{Letters: c.Letters, Policy: c.Policy}
}
