package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"parcel/internal/testsupport"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	outputDir  string
}

func setupCLITestEnv(t *testing.T, archiveURL string) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "config.toml"),
		outputDir:  filepath.Join(base, "datasets"),
	}
	writeTestConfig(t, env.configPath, base, archiveURL)
	return env
}

func writeTestConfig(t *testing.T, path, base, archiveURL string) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
cache_dir = %q
output_dir = %q
log_dir = %q

[fetch]
url = %q
timeout_seconds = 30

[logging]
level = "error"
`,
		filepath.Join(base, "cache"),
		filepath.Join(base, "datasets"),
		filepath.Join(base, "logs"),
		archiveURL,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func serveZip(t *testing.T, payload []byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	t.Cleanup(server.Close)
	return server
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCLIBuildAndRunsCommands(t *testing.T) {
	payload := testsupport.Archive(t, "UCMerced_LandUse/Images", map[string][]string{
		"beach":  {"beach00.tif", "beach01.tif"},
		"forest": {"forest00.tif"},
	})
	server := serveZip(t, payload)
	env := setupCLITestEnv(t, server.URL+"/UCMerced_LandUse.zip")

	out, _, err := runCLI(t, env.configPath, "build")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(out, "Build completed: uc_merced 2.0.0") {
		t.Fatalf("unexpected build output: %q", out)
	}
	if !strings.Contains(out, "Records: 3") {
		t.Fatalf("build output missing record count: %q", out)
	}

	shard := filepath.Join(env.outputDir, "uc_merced", "2.0.0", "uc_merced-train-00000-of-00001.parquet")
	if _, err := os.Stat(shard); err != nil {
		t.Fatalf("expected shard at %s: %v", shard, err)
	}

	out, _, err = runCLI(t, env.configPath, "runs")
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if !strings.Contains(out, "uc_merced") || !strings.Contains(out, "Completed") {
		t.Fatalf("runs listing missing build: %q", out)
	}

	out, _, err = runCLI(t, env.configPath, "runs", "list", "--status", "failed")
	if err != nil {
		t.Fatalf("runs list --status failed: %v", err)
	}
	if !strings.Contains(out, "No runs recorded") {
		t.Fatalf("expected empty filtered listing, got %q", out)
	}

	out, _, err = runCLI(t, env.configPath, "runs", "clear")
	if err != nil {
		t.Fatalf("runs clear: %v", err)
	}
	if !strings.Contains(out, "Cleared 1 runs") {
		t.Fatalf("unexpected clear output: %q", out)
	}

	out, _, err = runCLI(t, env.configPath, "runs")
	if err != nil {
		t.Fatalf("runs after clear: %v", err)
	}
	if !strings.Contains(out, "No runs recorded") {
		t.Fatalf("expected empty ledger, got %q", out)
	}
}

func TestCLIBuildRejectsUnsupportedVersion(t *testing.T) {
	env := setupCLITestEnv(t, "http://127.0.0.1:1/unused.zip")

	_, _, err := runCLI(t, env.configPath, "build", "--version", "9.9.9")
	if err == nil || !strings.Contains(err.Error(), "unsupported dataset version") {
		t.Fatalf("expected unsupported version error, got %v", err)
	}
}

func TestCLIRunsListRejectsUnknownStatus(t *testing.T) {
	env := setupCLITestEnv(t, "")

	_, _, err := runCLI(t, env.configPath, "runs", "list", "--status", "ripped")
	if err == nil || !strings.Contains(err.Error(), "unknown run status") {
		t.Fatalf("expected unknown status error, got %v", err)
	}
}

func TestCLILabelsCommand(t *testing.T) {
	env := setupCLITestEnv(t, "")

	out, _, err := runCLI(t, env.configPath, "labels")
	if err != nil {
		t.Fatalf("labels: %v", err)
	}
	for _, want := range []string{"agricultural", "tenniscourt", "Tenniscourt", "20"} {
		if !strings.Contains(out, want) {
			t.Fatalf("labels output missing %q: %q", want, out)
		}
	}
}

func TestCLIInfoCommand(t *testing.T) {
	env := setupCLITestEnv(t, "")

	out, _, err := runCLI(t, env.configPath, "info")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	for _, want := range []string{
		"Dataset: uc_merced",
		"Version: 2.0.0 (keyed records)",
		"0.0.1",
		"Labels: 21",
		"Supervised keys: image -> label",
		"weegee.vision.ucmerced.edu",
		"Yang, Yi",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("info output missing %q: %q", want, out)
		}
	}
}

func TestCLIConfigInitCommand(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	out, _, err := runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Wrote sample configuration") {
		t.Fatalf("unexpected init output: %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config at %s: %v", target, err)
	}

	_, _, err = runCLI(t, "", "config", "init", "--path", target)
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected existing-file error, got %v", err)
	}

	if _, _, err := runCLI(t, "", "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestCLIConfigShowCommand(t *testing.T) {
	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
cache_dir = %q
output_dir = %q
log_dir = %q

[s3]
endpoint = "minio.internal:9000"
access_key_id = "parcel"
secret_access_key = "topsecret"
`,
		filepath.Join(base, "cache"),
		filepath.Join(base, "datasets"),
		filepath.Join(base, "logs"),
	)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, _, err := runCLI(t, configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "# source: "+configPath) {
		t.Fatalf("show output missing source, got %q", out)
	}
	if !strings.Contains(out, filepath.Join(base, "cache")) {
		t.Fatalf("show output missing cache dir: %q", out)
	}
	if strings.Contains(out, "topsecret") {
		t.Fatalf("secret leaked into show output: %q", out)
	}
	if !strings.Contains(out, "[redacted]") {
		t.Fatalf("expected redaction marker, got %q", out)
	}
}
