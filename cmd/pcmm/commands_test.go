package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestParseAge(t *testing.T) {
	if d, err := parseAge(""); err != nil || d != 0 {
		t.Fatalf("empty: got=%s err=%v", d, err)
	}
	if d, err := parseAge("10m"); err != nil || d != 10*time.Minute {
		t.Fatalf("10m: got=%s err=%v", d, err)
	}
	for _, bad := range []string{"soon", "-1m"} {
		if _, err := parseAge(bad); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
}

func TestCommandTree(t *testing.T) {
	want := []string{"serve", "migrate", "progress", "aggregate", "tag create", "tag delete", "tag list", "tag repair"}
	for _, path := range want {
		cmd, rest, err := rootCmd.Find(strings.Fields(path))
		if err != nil || len(rest) != 0 || cmd == rootCmd {
			t.Fatalf("command %q not registered (err=%v rest=%v)", path, err, rest)
		}
	}
}

func TestTagCommandsAgainstSQLite(t *testing.T) {
	t.Setenv("PCMM_CONFIG_FILE", "")
	t.Setenv("PCMM_DB_DRIVER", "sqlite")
	t.Setenv("PCMM_DB_PATH", filepath.Join(t.TempDir(), "pcmm.db"))
	t.Setenv("PCMM_CACHE_DRIVER", "memory")
	t.Setenv("LOG_MODE", "test")

	if _, err := execute(t, "migrate"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	out, err := execute(t, "tag", "create", "baseline", "--user", "alice", "-d", "first")
	if err != nil {
		t.Fatalf("tag create: %v", err)
	}
	if !strings.Contains(out, `"name": "baseline"`) || !strings.Contains(out, `"user_creation": "alice"`) {
		t.Fatalf("unexpected create output: %s", out)
	}

	out, err = execute(t, "tag", "list")
	if err != nil {
		t.Fatalf("tag list: %v", err)
	}
	if !strings.Contains(out, "baseline") {
		t.Fatalf("tag list missing tag: %s", out)
	}

	if _, err := execute(t, "tag", "delete", "not-a-uuid"); err == nil {
		t.Fatalf("expected error for malformed tag id")
	}
	if _, err := execute(t, "progress", "not-a-uuid"); err == nil {
		t.Fatalf("expected error for malformed model id")
	}
}
