// Package inspect renders journal entries for the command line.
package inspect

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mattjoyce/frontctl/internal/journal"
)

// Reader looks up journal entries. *journal.Journal satisfies it.
type Reader interface {
	Get(ctx context.Context, requestID string) (*journal.Entry, error)
}

// Report is the structured JSON representation of one request.
type Report struct {
	RequestID   string          `json:"request_id"`
	Command     string          `json:"command"`
	Status      string          `json:"status"`
	Params      json.RawMessage `json:"params"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Failure     *Failure        `json:"failure,omitempty"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	DurationMS  *int64          `json:"duration_ms,omitempty"`
}

// Failure mirrors the failure columns of a failed entry.
type Failure struct {
	Kind    string `json:"kind"`
	Subkind string `json:"subkind,omitempty"`
	Message string `json:"message,omitempty"`
}

// BuildReport renders a terminal-friendly report for a request.
func BuildReport(ctx context.Context, r Reader, requestID string) (string, error) {
	report, err := gatherReportData(ctx, r, requestID)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	fmt.Fprintf(&out, "Request Report\n")
	fmt.Fprintf(&out, "Request ID  : %s\n", report.RequestID)
	fmt.Fprintf(&out, "Command     : %s\n", report.Command)
	fmt.Fprintf(&out, "Status      : %s\n", report.Status)
	fmt.Fprintf(&out, "Started     : %s\n", report.StartedAt.Format(time.RFC3339Nano))
	if report.CompletedAt != nil {
		fmt.Fprintf(&out, "Completed   : %s\n", report.CompletedAt.Format(time.RFC3339Nano))
	} else {
		fmt.Fprintf(&out, "Completed   : <running>\n")
	}
	if report.DurationMS != nil {
		fmt.Fprintf(&out, "Duration    : %dms\n", *report.DurationMS)
	}
	fmt.Fprintf(&out, "\n")

	writeBlock(&out, "params", report.Params)
	if report.Failure != nil {
		fmt.Fprintf(&out, "failure:\n")
		fmt.Fprintf(&out, "  kind    : %s\n", report.Failure.Kind)
		fmt.Fprintf(&out, "  subkind : %s\n", renderUnset(report.Failure.Subkind, "<none>"))
		fmt.Fprintf(&out, "  message : %s\n", renderUnset(report.Failure.Message, "<none>"))
	} else if len(report.Payload) > 0 {
		writeBlock(&out, "payload", report.Payload)
	}

	return strings.TrimRight(out.String(), "\n") + "\n", nil
}

// BuildJSONReport returns the machine-readable report.
func BuildJSONReport(ctx context.Context, r Reader, requestID string) (string, error) {
	report, err := gatherReportData(ctx, r, requestID)
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal json report: %w", err)
	}
	return string(data), nil
}

func gatherReportData(ctx context.Context, r Reader, requestID string) (*Report, error) {
	if strings.TrimSpace(requestID) == "" {
		return nil, fmt.Errorf("request_id is required")
	}

	e, err := r.Get(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("lookup %q: %w", requestID, err)
	}

	report := &Report{
		RequestID:   e.RequestID,
		Command:     e.Command,
		Status:      string(e.Status),
		Params:      e.Params,
		Payload:     e.Payload,
		StartedAt:   e.StartedAt,
		CompletedAt: e.CompletedAt,
		DurationMS:  e.DurationMS,
	}
	if e.FailureKind != "" {
		report.Failure = &Failure{Kind: e.FailureKind, Subkind: e.Subkind, Message: e.Message}
	}
	return report, nil
}

func writeBlock(out *strings.Builder, label string, raw json.RawMessage) {
	fmt.Fprintf(out, "%s:\n", label)
	for _, line := range strings.Split(strings.TrimSpace(prettyJSON(raw)), "\n") {
		fmt.Fprintf(out, "  %s\n", line)
	}
}

func prettyJSON(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(out)
}

func renderUnset(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
