package config

import (
	"reflect"
	"testing"
	"time"

	"github.com/tyler180/bball-reference-scrapers/internal/bref"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"FAILURE_POLICY", "BREF_DELAY_MIN_MS", "BREF_DELAY_MAX_MS", "HTTP_TIMEOUT_SEC", "HTTP_MAX_ATTEMPTS", "OUTPUT_PATH", "LETTERS"} {
		t.Setenv(k, "")
	}
	c, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if c.DelayMin != 2*time.Second || c.DelayMax != 5*time.Second {
		t.Errorf("delay = %v..%v", c.DelayMin, c.DelayMax)
	}
	if c.HTTPTimeout != 60*time.Second || c.MaxAttempts != 1 || c.Policy != bref.FailFast {
		t.Errorf("unexpected defaults: %+v", c)
	}
	if c.OutputPath != "data/all_players.csv" {
		t.Errorf("OutputPath = %q", c.OutputPath)
	}
	if c.Letters != nil {
		t.Errorf("Letters = %v, want nil (all)", c.Letters)
	}
}

func TestFromEnv_SkipPolicyRetries(t *testing.T) {
	t.Setenv("FAILURE_POLICY", "skip")
	t.Setenv("HTTP_MAX_ATTEMPTS", "")
	c, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if c.Policy != bref.SkipFailed || c.MaxAttempts != 3 {
		t.Errorf("policy=%q attempts=%d", c.Policy, c.MaxAttempts)
	}
}

func TestFromEnv_BadPolicy(t *testing.T) {
	t.Setenv("FAILURE_POLICY", "sometimes")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}

func TestParseLetters(t *testing.T) {
	tests := map[string][]string{
		"":      nil,
		"a,b,c": {"a", "b", "c"},
		"XyZ":   {"x", "y", "z"},
		"aa1b":  {"a", "b"},
	}
	for in, want := range tests {
		if got := ParseLetters(in); !reflect.DeepEqual(got, want) {
			t.Errorf("ParseLetters(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFromEnv_DebugReachesClient(t *testing.T) {
	t.Setenv("FAILURE_POLICY", "")
	t.Setenv("DEBUG", "1")
	c, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if !c.Debug || !c.Client().Debug {
		t.Errorf("Debug = %v, client Debug = %v", c.Debug, c.Client().Debug)
	}

	t.Setenv("DEBUG", "")
	if c, _ := FromEnv(); c.Debug || c.Client().Debug {
		t.Error("debug should default to off")
	}
}
