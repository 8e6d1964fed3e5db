// Package journal records every command bracket in SQLite so finished
// requests can be looked up after the fact.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mattjoyce/frontctl/internal/command"
	"github.com/mattjoyce/frontctl/internal/dispatch"
	"github.com/mattjoyce/frontctl/internal/log"
)

// Status of a journal entry.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

const (
	writeTimeout = 5 * time.Second
	defaultLimit = 50
)

var ErrNotFound = errors.New("journal entry not found")

// Entry is one recorded request.
type Entry struct {
	RequestID   string          `json:"request_id"`
	Command     string          `json:"command"`
	Params      json.RawMessage `json:"params"`
	Status      Status          `json:"status"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	FailureKind string          `json:"failure_kind,omitempty"`
	Subkind     string          `json:"subkind,omitempty"`
	Message     string          `json:"message,omitempty"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	DurationMS  *int64          `json:"duration_ms,omitempty"`
}

// Journal is a dispatch.Sink backed by the command_log table.
type Journal struct {
	db     *sql.DB
	logger *slog.Logger
}

func New(db *sql.DB) *Journal {
	return &Journal{db: db, logger: log.WithComponent("journal")}
}

// Publish records started and ended notifications. Write failures are
// logged; they never reach the dispatcher.
func (j *Journal) Publish(name string, payload any) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	var err error
	switch name {
	case dispatch.NotifyStarted:
		if req, ok := payload.(command.Request); ok {
			err = j.RecordStart(ctx, req)
		}
	case dispatch.NotifyEnded:
		if resp, ok := payload.(command.Response); ok {
			err = j.RecordEnd(ctx, resp)
		}
	}
	if err != nil {
		j.logger.Error("journal write failed", "notification", name, "error", err)
	}
}

// RecordStart inserts a running entry for req.
func (j *Journal) RecordStart(ctx context.Context, req command.Request) error {
	params, err := json.Marshal(req.Params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}
	_, err = j.db.ExecContext(ctx, `
INSERT INTO command_log(request_id, command, params, status, started_at)
VALUES(?, ?, ?, ?, ?)
ON CONFLICT(request_id) DO NOTHING;
`, req.ID, req.Name, string(params), StatusRunning, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert command_log: %w", err)
	}
	return nil
}

// RecordEnd marks the entry for resp terminal.
func (j *Journal) RecordEnd(ctx context.Context, resp command.Response) error {
	status := StatusFailed
	var payload, kind, subkind, message any
	if resp.OK {
		status = StatusSucceeded
		b, err := json.Marshal(resp.Payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		payload = string(b)
	} else if resp.Failure != nil {
		kind = resp.Failure.Kind.String()
		if resp.Failure.Subkind != command.SubkindNone {
			subkind = resp.Failure.Subkind.String()
		}
		message = resp.Failure.Message
	}

	res, err := j.db.ExecContext(ctx, `
UPDATE command_log
SET status = ?, payload = ?, failure_kind = ?, subkind = ?, message = ?, completed_at = ?, duration_ms = ?
WHERE request_id = ?;
`, status, payload, kind, subkind, message,
		time.Now().UTC().Format(time.RFC3339Nano), resp.Duration.Milliseconds(), resp.RequestID)
	if err != nil {
		return fmt.Errorf("update command_log: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update command_log %q: %w", resp.RequestID, ErrNotFound)
	}
	return nil
}

const selectEntry = `
SELECT request_id, command, params, status, payload, failure_kind, subkind, message,
       started_at, completed_at, duration_ms
FROM command_log`

// Get returns the entry for a request ID.
func (j *Journal) Get(ctx context.Context, requestID string) (*Entry, error) {
	row := j.db.QueryRowContext(ctx, selectEntry+` WHERE request_id = ?;`, requestID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get journal entry: %w", err)
	}
	return e, nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := j.db.QueryContext(ctx, selectEntry+` ORDER BY rowid DESC LIMIT ?;`, limit)
	if err != nil {
		return nil, fmt.Errorf("list journal: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*Entry, error) {
	var (
		e            Entry
		params       string
		status       string
		payload      sql.NullString
		kind         sql.NullString
		subkind      sql.NullString
		message      sql.NullString
		startedAtS   string
		completedAtS sql.NullString
		durationMS   sql.NullInt64
	)
	if err := s.Scan(&e.RequestID, &e.Command, &params, &status, &payload, &kind, &subkind, &message,
		&startedAtS, &completedAtS, &durationMS); err != nil {
		return nil, err
	}

	e.Status = Status(status)
	e.Params = json.RawMessage(params)
	if payload.Valid {
		e.Payload = json.RawMessage(payload.String)
	}
	e.FailureKind = kind.String
	e.Subkind = subkind.String
	e.Message = message.String
	if t, err := time.Parse(time.RFC3339Nano, startedAtS); err == nil {
		e.StartedAt = t
	}
	if completedAtS.Valid {
		if t, err := time.Parse(time.RFC3339Nano, completedAtS.String); err == nil {
			e.CompletedAt = &t
		}
	}
	if durationMS.Valid {
		e.DurationMS = &durationMS.Int64
	}
	return &e, nil
}
