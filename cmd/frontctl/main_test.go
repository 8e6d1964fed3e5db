package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/mattjoyce/frontctl/internal/api"
	"github.com/mattjoyce/frontctl/internal/command"
	"github.com/mattjoyce/frontctl/internal/commands"
	"github.com/mattjoyce/frontctl/internal/config"
	"github.com/mattjoyce/frontctl/internal/dispatch"
	"github.com/mattjoyce/frontctl/internal/events"
	"github.com/mattjoyce/frontctl/internal/journal"
	"github.com/mattjoyce/frontctl/internal/log"
	"github.com/mattjoyce/frontctl/internal/params"
	"github.com/mattjoyce/frontctl/internal/queue"
	"github.com/mattjoyce/frontctl/internal/storage"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard, "error", "json")
	os.Exit(m.Run())
}

func captureOutputWithExitCode(t *testing.T, run func() int) (int, string, string) {
	t.Helper()

	oldStdout := os.Stdout
	oldStderr := os.Stderr

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe stdout failed: %v", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe stderr failed: %v", err)
	}

	os.Stdout = stdoutW
	os.Stderr = stderrW

	code := run()

	_ = stdoutW.Close()
	_ = stderrW.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	stdoutBytes, _ := io.ReadAll(stdoutR)
	stderrBytes, _ := io.ReadAll(stderrR)

	_ = stdoutR.Close()
	_ = stderrR.Close()

	return code, string(stdoutBytes), string(stderrBytes)
}

func setVersionMetadataForTest(t *testing.T, v, commit, built string) {
	t.Helper()

	origVersion := version
	origCommit := gitCommit
	origBuildDate := buildDate

	version = v
	gitCommit = commit
	buildDate = built

	t.Cleanup(func() {
		version = origVersion
		gitCommit = origCommit
		buildDate = origBuildDate
	})
}

// writeTestConfig writes a config with both databases under dir.
func writeTestConfig(t *testing.T, dir, extra string) string {
	t.Helper()
	configPath := filepath.Join(dir, "config.yaml")
	configYAML := `
service:
  name: test
  log_level: info
state:
  path: ` + filepath.Join(dir, "state.db") + `
journal:
  enabled: true
  path: ` + filepath.Join(dir, "journal.db") + `
` + extra
	if err := os.WriteFile(configPath, []byte(configYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	return configPath
}

func TestRunCLIRootVersionFlag(t *testing.T) {
	setVersionMetadataForTest(t, "1.2.3", "abc1234567890", "2026-02-12T11:30:00Z")

	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runCLI([]string{"--version"})
	})
	if code != 0 {
		t.Fatalf("runCLI() code = %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "frontctl 1.2.3") {
		t.Fatalf("stdout missing semantic version: %s", stdout)
	}
	if !strings.Contains(stdout, "commit: abc123456789") {
		t.Fatalf("stdout missing short commit: %s", stdout)
	}
	if !strings.Contains(stdout, "built_at: 2026-02-12T11:30:00Z") {
		t.Fatalf("stdout missing build time: %s", stdout)
	}
}

func TestRunVersionJSONOutputIncludesMetadata(t *testing.T) {
	setVersionMetadataForTest(t, "2.0.0-rc.1", "aabbccddeeff001122334455", "2026-02-12T11:30:00-05:00")

	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runVersion([]string{"--json"})
	})
	if code != 0 {
		t.Fatalf("runVersion() code = %d, stderr: %s", code, stderr)
	}

	var out versionInfo
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatalf("failed to parse version JSON: %v\noutput=%s", err, stdout)
	}
	if out.Version != "2.0.0-rc.1" {
		t.Fatalf("version = %q, want %q", out.Version, "2.0.0-rc.1")
	}
	if out.Commit != "aabbccddeeff" {
		t.Fatalf("commit = %q, want %q", out.Commit, "aabbccddeeff")
	}
	if out.BuildTime != "2026-02-12T16:30:00Z" {
		t.Fatalf("build_time = %q, want %q", out.BuildTime, "2026-02-12T16:30:00Z")
	}
}

func TestRunCLIUnknownCommand(t *testing.T) {
	code, _, stderr := captureOutputWithExitCode(t, func() int {
		return runCLI([]string{"frobnicate"})
	})
	if code != 1 {
		t.Fatalf("runCLI() code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "Unknown command: frobnicate") {
		t.Fatalf("stderr missing unknown command: %s", stderr)
	}
}

func TestPrintUsageUsesActionTerminology(t *testing.T) {
	_, stdout, _ := captureOutputWithExitCode(t, func() int {
		printUsage()
		return 0
	})
	if !strings.Contains(stdout, "frontctl <noun> <action> [flags]") {
		t.Fatalf("usage missing action terminology: %s", stdout)
	}
	if strings.Contains(stdout, "<noun> <verb>") {
		t.Fatalf("usage should not reference verb terminology: %s", stdout)
	}
}

func TestNounActionHelp(t *testing.T) {
	tests := []struct {
		name string
		run  func() int
		want string
	}{
		{"system start", func() int { return runSystemNoun([]string{"start", "--help"}) }, "Usage: frontctl system start"},
		{"system status", func() int { return runSystemNoun([]string{"status", "-h"}) }, "Usage: frontctl system status"},
		{"system monitor", func() int { return runSystemNoun([]string{"monitor", "--help"}) }, "Usage: frontctl system monitor"},
		{"config check", func() int { return runConfigNoun([]string{"check", "--help"}) }, "Usage: frontctl config check"},
		{"config lock", func() int { return runConfigNoun([]string{"lock", "--help"}) }, "Usage: frontctl config lock"},
		{"command submit", func() int { return runCommandNoun([]string{"submit", "--help"}) }, "Usage: frontctl command submit"},
		{"journal inspect", func() int { return runJournalNoun([]string{"inspect", "--help"}) }, "Usage: frontctl journal inspect"},
		{"config noun", func() int { return runConfigNoun([]string{"--help"}) }, "Usage: frontctl config <action>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := captureOutputWithExitCode(t, tt.run)
			if code != 0 {
				t.Fatalf("code = %d, stderr: %s", code, stderr)
			}
			if !strings.Contains(stdout, tt.want) {
				t.Fatalf("stdout missing %q: %s", tt.want, stdout)
			}
		})
	}
}

func TestRunConfigLockVerboseDryRun(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeTestConfig(t, tmpDir, "")

	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runConfigLock([]string{"--config", configPath, "-v", "--dry-run"})
	})
	if code != 0 {
		t.Fatalf("runConfigLock() code = %d, stderr: %s", code, stderr)
	}

	hashPattern := regexp.MustCompile(`HASH config\.yaml: [a-f0-9]{64}`)
	if !hashPattern.MatchString(stdout) {
		t.Fatalf("stdout missing valid hash output: %s", stdout)
	}
	if !strings.Contains(stdout, "DRY-RUN .checksums:") || !strings.Contains(stdout, "Dry run completed") {
		t.Fatalf("stdout missing dry-run lines: %s", stdout)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, ".checksums")); !os.IsNotExist(err) {
		t.Fatal(".checksums should not be written in dry-run mode")
	}
}

func TestRunConfigLockWritesChecksumsAndDetectsTampering(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeTestConfig(t, tmpDir, "")

	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runConfigLock([]string{"--config", configPath, "--verbose"})
	})
	if code != 0 {
		t.Fatalf("runConfigLock() code = %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "WROTE .checksums:") || !strings.Contains(stdout, "Successfully locked configuration") {
		t.Fatalf("stdout missing lock summary: %s", stdout)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, ".checksums")); err != nil {
		t.Fatalf("expected .checksums to be written: %v", err)
	}

	f, err := os.OpenFile(configPath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = f.WriteString("\n# edited\n")
	_ = f.Close()

	code, _, stderr = captureOutputWithExitCode(t, func() int {
		return runConfigCheck([]string{"--config", configPath})
	})
	if code == 0 || !strings.Contains(stderr, "config verification failed") {
		t.Fatalf("expected tampered config to fail, code=%d stderr=%s", code, stderr)
	}

	// Re-locking authorises the edit.
	code, _, stderr = captureOutputWithExitCode(t, func() int {
		return runConfigLock([]string{"--config", configPath})
	})
	if code != 0 {
		t.Fatalf("re-lock failed: %s", stderr)
	}
	code, _, stderr = captureOutputWithExitCode(t, func() int {
		return runConfigCheck([]string{"--config", configPath})
	})
	if code != 0 {
		t.Fatalf("config check after re-lock failed: %s", stderr)
	}
}

func TestRunConfigCheck(t *testing.T) {
	tmpDir := t.TempDir()

	valid := writeTestConfig(t, tmpDir, `
schedules:
  - name: heartbeat
    command: ping
    every: 5m
  - name: snapshot
    command: state.get
    every: 1h
    params:
      namespace: edge
`)
	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runConfigCheck([]string{"--config", valid})
	})
	if code != 0 {
		t.Fatalf("runConfigCheck() code = %d, stdout: %s stderr: %s", code, stdout, stderr)
	}
	if !strings.Contains(stdout, "Configuration valid.") {
		t.Fatalf("unexpected output: %s", stdout)
	}

	otherDir := t.TempDir()
	invalid := writeTestConfig(t, otherDir, `
schedules:
  - command: reindex
    every: 5m
`)
	code, stdout, _ = captureOutputWithExitCode(t, func() int {
		return runConfigCheck([]string{"--config", invalid, "--json"})
	})
	if code != 1 {
		t.Fatalf("runConfigCheck() code = %d, want 1; stdout: %s", code, stdout)
	}
	var result struct {
		Valid  bool `json:"valid"`
		Errors []struct {
			Category string `json:"category"`
		} `json:"errors"`
	}
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("parse JSON: %v\n%s", err, stdout)
	}
	if result.Valid || len(result.Errors) == 0 || result.Errors[0].Category != "schedule" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestRunConfigCheckStrictWarnings(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeTestConfig(t, tmpDir, `
api:
  enabled: true
`)
	code, stdout, _ := captureOutputWithExitCode(t, func() int {
		return runConfigCheck([]string{"--config", configPath, "--strict"})
	})
	if code != 2 {
		t.Fatalf("runConfigCheck(--strict) code = %d, want 2; stdout: %s", code, stdout)
	}
	if !strings.Contains(stdout, "WARN  [api]") {
		t.Fatalf("expected api warning: %s", stdout)
	}
}

func TestRunConfigShowRedactsSecrets(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeTestConfig(t, tmpDir, `
api:
  enabled: true
  api_key: super-secret
webhooks:
  endpoints:
    - path: /hooks/ping
      command: ping
      secret: hook-secret
`)
	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runConfigShow([]string{"--config", configPath})
	})
	if code != 0 {
		t.Fatalf("runConfigShow() code = %d, stderr: %s", code, stderr)
	}
	if strings.Contains(stdout, "super-secret") || strings.Contains(stdout, "hook-secret") {
		t.Fatalf("secret leaked: %s", stdout)
	}
	if !strings.Contains(stdout, "queue_capacity: 1000") {
		t.Fatalf("expected defaults in output: %s", stdout)
	}
}

func TestWebhookConfig(t *testing.T) {
	_, enabled, err := webhookConfig(config.WebhooksConfig{})
	if err != nil || enabled {
		t.Fatalf("no endpoints: enabled=%v err=%v", enabled, err)
	}

	cfg, enabled, err := webhookConfig(config.WebhooksConfig{
		Listen:    "127.0.0.1:0",
		Endpoints: []config.WebhookEndpoint{{Path: "/hooks/ping", Command: "ping", Secret: "s"}},
	})
	if err != nil || !enabled {
		t.Fatalf("valid endpoint: enabled=%v err=%v", enabled, err)
	}
	if len(cfg.Endpoints) != 1 || cfg.Endpoints[0].SignatureHeader != config.DefaultSignatureHeader {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	// A section that bypassed the loader must still fail here, before the
	// dispatcher or scheduler exist.
	for name, ep := range map[string]config.WebhookEndpoint{
		"missing secret": {Path: "/hooks/ping", Command: "ping"},
		"bad body size":  {Path: "/hooks/ping", Command: "ping", Secret: "s", MaxBodySize: "lots"},
	} {
		_, enabled, err := webhookConfig(config.WebhooksConfig{Listen: "127.0.0.1:0", Endpoints: []config.WebhookEndpoint{ep}})
		if err == nil || enabled {
			t.Fatalf("%s: enabled=%v err=%v", name, enabled, err)
		}
	}
}

func TestRunSystemStatusJSONHealthy(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeTestConfig(t, tmpDir, "")

	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runSystemStatus([]string{"--config", configPath, "--json"})
	})
	if code != 0 {
		t.Fatalf("runSystemStatus() code = %d, stderr: %s stdout: %s", code, stderr, stdout)
	}

	var report statusReport
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("failed to parse JSON status output: %v\noutput=%s", err, stdout)
	}
	if !report.Healthy {
		t.Fatalf("expected healthy=true, got false; output=%s", stdout)
	}
	if len(report.Checks) != 4 {
		t.Fatalf("expected 4 checks, got %d", len(report.Checks))
	}
}

func TestRunSystemStatusConfigLoadFailure(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml"), 0o644); err != nil {
		t.Fatal(err)
	}

	code, stdout, _ := captureOutputWithExitCode(t, func() int {
		return runSystemStatus([]string{"--config", configPath})
	})
	if code == 0 {
		t.Fatalf("runSystemStatus() should fail for invalid config; stdout=%s", stdout)
	}
	if !strings.Contains(stdout, "config_load: FAIL") {
		t.Fatalf("expected config_load failure in output; stdout=%s", stdout)
	}
	if !strings.Contains(stdout, "state_db: FAIL") || !strings.Contains(stdout, "pid_lock: FAIL") {
		t.Fatalf("expected dependent checks to fail when config load fails; stdout=%s", stdout)
	}
}

func TestRunSystemStatusDetectsActivePIDLock(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeTestConfig(t, tmpDir, "")

	cfg, err := loadConfigForTool(configPath)
	if err != nil {
		t.Fatalf("loadConfigForTool: %v", err)
	}
	lockPath := getPIDLockPath(cfg)
	if lockPath != filepath.Join(tmpDir, "state.pid") {
		t.Fatalf("lock path = %q", lockPath)
	}
	if err := os.WriteFile(lockPath, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runSystemStatus([]string{"--config", configPath, "--json"})
	})
	if code == 0 {
		t.Fatalf("runSystemStatus() should fail when active pid lock exists; stderr=%s stdout=%s", stderr, stdout)
	}

	var report statusReport
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("failed to parse JSON status output: %v\noutput=%s", err, stdout)
	}
	found := false
	for _, c := range report.Checks {
		if c.Name == "pid_lock" {
			found = true
			if c.OK || c.ActivePID != os.Getpid() {
				t.Fatalf("unexpected pid_lock check: %+v", c)
			}
		}
	}
	if !found {
		t.Fatalf("expected pid_lock check in output; output=%s", stdout)
	}
}

func TestParseParamValue(t *testing.T) {
	tests := []struct {
		raw  string
		want any
	}{
		{"hello", "hello"},
		{"hello world", "hello world"},
		{"42", json.Number("42")},
		{"1.5", json.Number("1.5")},
		{"true", true},
		{`"quoted"`, "quoted"},
		{"123abc", "123abc"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := parseParamValue(tt.raw); got != tt.want {
			t.Errorf("parseParamValue(%q) = %#v, want %#v", tt.raw, got, tt.want)
		}
	}

	obj, ok := parseParamValue(`{"a":1}`).(map[string]any)
	if !ok || obj["a"] != json.Number("1") {
		t.Errorf("object param not decoded: %#v", obj)
	}
}

func TestParamFlags(t *testing.T) {
	p := paramFlags{}
	if err := p.Set("ms=50"); err != nil {
		t.Fatal(err)
	}
	if err := p.Set("note=a=b"); err != nil {
		t.Fatal(err)
	}
	if err := p.Set("=x"); err == nil {
		t.Fatal("expected error for empty key")
	}
	if err := p.Set("novalue"); err == nil {
		t.Fatal("expected error without '='")
	}
	if p["ms"] != json.Number("50") || p["note"] != "a=b" {
		t.Fatalf("unexpected params: %#v", p)
	}
	if p.String() != "ms,note" {
		t.Fatalf("String() = %q", p.String())
	}
}

func TestSplitPositional(t *testing.T) {
	takes := map[string]bool{"config": true, "param": true}

	name, rest := splitPositional([]string{"--config", "c.yaml", "abc", "--json"}, takes)
	if name != "abc" || strings.Join(rest, " ") != "--config c.yaml --json" {
		t.Fatalf("got name=%q rest=%v", name, rest)
	}

	name, rest = splitPositional([]string{"echo", "--param=x=1", "--wait"}, takes)
	if name != "echo" || strings.Join(rest, " ") != "--param=x=1 --wait" {
		t.Fatalf("got name=%q rest=%v", name, rest)
	}

	name, _ = splitPositional([]string{"--json"}, takes)
	if name != "" {
		t.Fatalf("expected no positional, got %q", name)
	}
}

// startTestService runs a dispatcher behind the HTTP API.
func startTestService(t *testing.T) *httptest.Server {
	t.Helper()

	reg := command.NewRegistry()
	if err := commands.RegisterBuiltins(reg, nil); err != nil {
		t.Fatal(err)
	}
	hub := events.NewHub(64)
	disp := dispatch.New(queue.New(16), reg, hub, dispatch.Config{})
	go func() { _ = disp.Start(context.Background()) }()
	t.Cleanup(disp.Stop)

	deadline := time.Now().Add(2 * time.Second)
	for disp.Stats().Lifecycle != dispatch.Running.String() {
		if time.Now().After(deadline) {
			t.Fatal("dispatcher did not start")
		}
		time.Sleep(5 * time.Millisecond)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := api.New(api.Config{WaitTimeout: 2 * time.Second}, disp, reg, hub, nil, logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestRunCommandListAndSubmit(t *testing.T) {
	t.Setenv("FRONTCTL_API_KEY", "")
	ts := startTestService(t)

	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runCommandList([]string{"--api-url", ts.URL})
	})
	if code != 0 {
		t.Fatalf("runCommandList() code = %d, stderr: %s", code, stderr)
	}
	for _, name := range []string{"echo", "fail", "ping", "sleep"} {
		if !strings.Contains(stdout, name) {
			t.Fatalf("command list missing %q: %s", name, stdout)
		}
	}

	code, stdout, stderr = captureOutputWithExitCode(t, func() int {
		return runCommandSubmit([]string{"echo", "--param", "message=hi", "--param", "n=3", "--wait", "--api-url", ts.URL})
	})
	if code != 0 {
		t.Fatalf("runCommandSubmit(--wait) code = %d, stderr: %s", code, stderr)
	}
	var resp struct {
		Status  string         `json:"status"`
		Payload map[string]any `json:"payload"`
	}
	if err := json.Unmarshal([]byte(stdout), &resp); err != nil {
		t.Fatalf("parse response: %v\n%s", err, stdout)
	}
	if resp.Status != "succeeded" || resp.Payload["message"] != "hi" || resp.Payload["n"] != float64(3) {
		t.Fatalf("unexpected response: %+v", resp)
	}

	code, stdout, _ = captureOutputWithExitCode(t, func() int {
		return runCommandSubmit([]string{"fail", "--params", `{"subkind":"missing_key"}`, "--wait", "--api-url", ts.URL})
	})
	if code != 1 {
		t.Fatalf("failed command should exit 1, got %d: %s", code, stdout)
	}
	if !strings.Contains(stdout, "missing_key") {
		t.Fatalf("expected failure subkind in output: %s", stdout)
	}

	code, stdout, stderr = captureOutputWithExitCode(t, func() int {
		return runCommandSubmit([]string{"ping", "--api-url", ts.URL})
	})
	if code != 0 || !strings.Contains(stdout, `"status": "queued"`) {
		t.Fatalf("queued submit: code=%d stdout=%s stderr=%s", code, stdout, stderr)
	}

	code, _, stderr = captureOutputWithExitCode(t, func() int {
		return runCommandSubmit([]string{"reindex", "--api-url", ts.URL})
	})
	if code != 1 || !strings.Contains(stderr, "(404)") {
		t.Fatalf("unknown command: code=%d stderr=%s", code, stderr)
	}
}

func TestRunJournalListAndInspect(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeTestConfig(t, tmpDir, "")

	ctx := context.Background()
	db, err := storage.OpenSQLite(ctx, filepath.Join(tmpDir, "journal.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	j := journal.New(db)
	req := command.NewRequest("echo", params.FromMap(map[string]any{"message": "hello"}))
	if err := j.RecordStart(ctx, req); err != nil {
		t.Fatal(err)
	}
	if err := j.RecordEnd(ctx, command.Succeeded(req, params.FromMap(map[string]any{"message": "hello"}))); err != nil {
		t.Fatal(err)
	}
	_ = db.Close()

	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runJournalList([]string{"--config", configPath})
	})
	if code != 0 {
		t.Fatalf("runJournalList() code = %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, req.ID) || !strings.Contains(stdout, "succeeded") {
		t.Fatalf("journal list missing entry: %s", stdout)
	}

	code, stdout, stderr = captureOutputWithExitCode(t, func() int {
		return runJournalInspect([]string{req.ID, "--config", configPath})
	})
	if code != 0 {
		t.Fatalf("runJournalInspect() code = %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "Command     : echo") {
		t.Fatalf("inspect output missing command: %s", stdout)
	}

	code, _, stderr = captureOutputWithExitCode(t, func() int {
		return runJournalInspect([]string{"missing-id", "--config", configPath})
	})
	if code != 1 || !strings.Contains(stderr, "not found") {
		t.Fatalf("missing id: code=%d stderr=%s", code, stderr)
	}
}
