package inspect

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mattjoyce/frontctl/internal/command"
	"github.com/mattjoyce/frontctl/internal/journal"
	"github.com/mattjoyce/frontctl/internal/params"
	"github.com/mattjoyce/frontctl/internal/storage"
)

func openJournal(t *testing.T) *journal.Journal {
	t.Helper()
	db, err := storage.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return journal.New(db)
}

func TestBuildReportRendersSucceededRequest(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	j := openJournal(t)

	req := command.NewRequest("echo", params.FromMap(map[string]any{"message": "hello"}))
	if err := j.RecordStart(ctx, req); err != nil {
		t.Fatalf("RecordStart: %v", err)
	}
	resp := command.Succeeded(req, params.FromMap(map[string]any{"message": "hello"}))
	resp.Duration = 12 * time.Millisecond
	if err := j.RecordEnd(ctx, resp); err != nil {
		t.Fatalf("RecordEnd: %v", err)
	}

	out, err := BuildReport(ctx, j, req.ID)
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	for _, want := range []string{
		"Request ID  : " + req.ID,
		"Command     : echo",
		"Status      : succeeded",
		"Duration    : 12ms",
		"params:",
		"payload:",
		`"message": "hello"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "failure:") {
		t.Errorf("succeeded report should not render a failure block:\n%s", out)
	}
}

func TestBuildReportRendersFailureAndRunning(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	j := openJournal(t)

	failed := command.NewRequest("fail", params.FromMap(map[string]any{"subkind": "missing_key"}))
	if err := j.RecordStart(ctx, failed); err != nil {
		t.Fatalf("RecordStart: %v", err)
	}
	resp := command.Failed(failed, command.Failure{
		Kind:    command.KindDomain,
		Subkind: command.SubkindMissingKey,
		Message: "key not found",
	})
	if err := j.RecordEnd(ctx, resp); err != nil {
		t.Fatalf("RecordEnd: %v", err)
	}

	out, err := BuildReport(ctx, j, failed.ID)
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}
	for _, want := range []string{"Status      : failed", "kind    : domain_error", "subkind : missing_key", "message : key not found"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}

	running := command.NewRequest("sleep", params.Bag{})
	if err := j.RecordStart(ctx, running); err != nil {
		t.Fatalf("RecordStart: %v", err)
	}
	out, err = BuildReport(ctx, j, running.ID)
	if err != nil {
		t.Fatalf("BuildReport(running): %v", err)
	}
	if !strings.Contains(out, "Completed   : <running>") {
		t.Errorf("running report missing placeholder:\n%s", out)
	}
}

func TestBuildJSONReport(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	j := openJournal(t)

	req := command.NewRequest("ping", params.Bag{})
	if err := j.RecordStart(ctx, req); err != nil {
		t.Fatalf("RecordStart: %v", err)
	}
	if err := j.RecordEnd(ctx, command.Succeeded(req, params.FromMap(map[string]any{"pong": true}))); err != nil {
		t.Fatalf("RecordEnd: %v", err)
	}

	out, err := BuildJSONReport(ctx, j, req.ID)
	if err != nil {
		t.Fatalf("BuildJSONReport: %v", err)
	}

	var got Report
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}
	if got.RequestID != req.ID || got.Command != "ping" || got.Status != "succeeded" {
		t.Fatalf("unexpected report: %+v", got)
	}
	if got.Failure != nil {
		t.Fatalf("expected no failure, got %+v", got.Failure)
	}
	if got.CompletedAt == nil {
		t.Fatal("expected completed_at")
	}
}

func TestBuildReportErrors(t *testing.T) {
	t.Parallel()

	j := openJournal(t)
	if _, err := BuildReport(context.Background(), j, "  "); err == nil {
		t.Fatal("expected error for empty request id")
	}
	_, err := BuildReport(context.Background(), j, "does-not-exist")
	if !errors.Is(err, journal.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
