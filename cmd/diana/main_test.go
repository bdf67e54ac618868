package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"diana/internal/ledger"
	"diana/internal/testsupport"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()

	base := t.TempDir()
	path := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q

[source]
url = "http://127.0.0.1:1"
`, filepath.Join(base, "data"), filepath.Join(base, "logs"))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCLIConfigInitAndShow(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, _, err := runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Wrote sample configuration") {
		t.Fatalf("unexpected init output: %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected sample config on disk: %v", err)
	}

	if _, _, err := runCLI(t, "", "config", "init", "--path", target); err == nil {
		t.Fatal("expected error without --overwrite")
	}

	configPath := writeTestConfig(t)
	out, _, err = runCLI(t, configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "source.url") || !strings.Contains(out, "http://127.0.0.1:1") {
		t.Fatalf("unexpected show output: %q", out)
	}
}

func TestCLICollectRequiresWorklist(t *testing.T) {
	configPath := writeTestConfig(t)
	if _, _, err := runCLI(t, configPath, "collect"); err == nil {
		t.Fatal("expected error without a worklist")
	}
}

func TestCLICollectRetryFailedEmptyLedger(t *testing.T) {
	configPath := writeTestConfig(t)
	out, _, err := runCLI(t, configPath, "collect", "--retry-failed")
	if err != nil {
		t.Fatalf("collect --retry-failed: %v", err)
	}
	if !strings.Contains(out, "No failed items to retry") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestCLIRetriesListAndClear(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := fmt.Sprintf("[paths]\ndata_dir = %q\nlog_dir = %q\n", cfg.Paths.DataDir, cfg.Paths.LogDir)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	seed, err := ledger.Open(cfg)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	if err := seed.Append(context.Background(), "ACC001", "resolve", "no metadata found"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := seed.Close(); err != nil {
		t.Fatalf("close ledger: %v", err)
	}

	out, _, err := runCLI(t, configPath, "retries")
	if err != nil {
		t.Fatalf("retries: %v", err)
	}
	if !strings.Contains(out, "ACC001") || !strings.Contains(out, "resolve") {
		t.Fatalf("unexpected retries output: %q", out)
	}

	out, _, err = runCLI(t, configPath, "retries", "clear")
	if err != nil {
		t.Fatalf("retries clear: %v", err)
	}
	if !strings.Contains(out, "Cleared 1 retry items") {
		t.Fatalf("unexpected clear output: %q", out)
	}

	out, _, err = runCLI(t, configPath, "retries")
	if err != nil {
		t.Fatalf("retries after clear: %v", err)
	}
	if !strings.Contains(out, "Retry ledger is empty") {
		t.Fatalf("expected empty ledger message, got %q", out)
	}
}

func TestCLIWorklistListsCollectedKeys(t *testing.T) {
	configPath := writeTestConfig(t)

	// Resolve the data dir the same way the command will.
	base := filepath.Dir(configPath)
	shard := filepath.Join(base, "data", "images", "ab", "cd")
	if err := os.MkdirAll(shard, 0o755); err != nil {
		t.Fatalf("create shard: %v", err)
	}
	if err := os.WriteFile(filepath.Join(shard, "abcd1234.dcm"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write payload: %v", err)
	}

	out, _, err := runCLI(t, configPath, "worklist")
	if err != nil {
		t.Fatalf("worklist: %v", err)
	}
	if !strings.Contains(out, filepath.Join("ab", "cd", "abcd1234.dcm")) {
		t.Fatalf("unexpected worklist output: %q", out)
	}

	target := filepath.Join(base, "worklist.txt")
	out, _, err = runCLI(t, configPath, "worklist", "--out", target)
	if err != nil {
		t.Fatalf("worklist --out: %v", err)
	}
	if !strings.Contains(out, "Wrote 1 entries") {
		t.Fatalf("unexpected worklist --out output: %q", out)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read worklist file: %v", err)
	}
	if !strings.Contains(string(data), "abcd1234.dcm") {
		t.Fatalf("unexpected worklist file contents: %q", data)
	}
}
