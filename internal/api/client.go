package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mattjoyce/frontctl/internal/events"
	"github.com/mattjoyce/frontctl/internal/protocol"
)

// Client talks to a running frontctl API.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

// NewClient returns a Client for baseURL, e.g. http://127.0.0.1:8080.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{},
	}
}

// StatusError is a non-2xx API response.
type StatusError struct {
	Code      int
	Message   string
	RequestID string
}

func (e *StatusError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("api: %d %s (request %s)", e.Code, e.Message, e.RequestID)
	}
	return fmt.Sprintf("api: %d %s", e.Code, e.Message)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeStatusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

func decodeStatusError(resp *http.Response) error {
	var body ErrorResponse
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &body); err != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(data))
		if body.Error == "" {
			body.Error = http.StatusText(resp.StatusCode)
		}
	}
	return &StatusError{Code: resp.StatusCode, Message: body.Error, RequestID: body.RequestID}
}

// Health returns the /healthz document. A stopped dispatcher is reported
// as a StatusError with code 503.
func (c *Client) Health(ctx context.Context) (*HealthzResponse, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return nil, err
	}
	var h HealthzResponse
	if err := c.do(req, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Commands lists the server's registered commands.
func (c *Client) Commands(ctx context.Context) ([]CommandSummary, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/commands", nil)
	if err != nil {
		return nil, err
	}
	var out CommandListResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out.Commands, nil
}

// Submit queues a command and returns without waiting for it to run.
func (c *Client) Submit(ctx context.Context, sub *protocol.SubmitRequest) (*protocol.SubmitAccepted, error) {
	req, err := c.submitRequest(ctx, sub, false)
	if err != nil {
		return nil, err
	}
	var out protocol.SubmitAccepted
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitAndWait queues a command and blocks until its response arrives or
// the server's wait timeout passes.
func (c *Client) SubmitAndWait(ctx context.Context, sub *protocol.SubmitRequest) (*protocol.ResponseEnvelope, error) {
	req, err := c.submitRequest(ctx, sub, true)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeStatusError(resp)
	}
	return protocol.DecodeResponse(resp.Body)
}

func (c *Client) submitRequest(ctx context.Context, sub *protocol.SubmitRequest, wait bool) (*http.Request, error) {
	var buf bytes.Buffer
	if err := protocol.EncodeSubmit(&buf, sub); err != nil {
		return nil, err
	}
	path := "/commands/" + url.PathEscape(sub.Name)
	if wait {
		path += "?wait=true"
	}
	return c.newRequest(ctx, http.MethodPost, path, &buf)
}

// StreamEvents reads the /events SSE stream, calling fn for each event,
// until ctx is done, the stream ends, or fn returns an error. lastID resumes
// after a previously seen event.
func (c *Client) StreamEvents(ctx context.Context, lastID int64, fn func(events.Event) error) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/events", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	if lastID > 0 {
		req.Header.Set("Last-Event-ID", strconv.FormatInt(lastID, 10))
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeStatusError(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)

	var current events.Event
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == "":
			if len(current.Data) > 0 {
				current.At = time.Now()
				if err := fn(current); err != nil {
					return err
				}
			}
			current = events.Event{}
		case strings.HasPrefix(line, ":"):
			// keep-alive
		case strings.HasPrefix(line, "id: "):
			if id, err := strconv.ParseInt(line[4:], 10, 64); err == nil {
				current.ID = id
			}
		case strings.HasPrefix(line, "event: "):
			current.Type = line[7:]
		case strings.HasPrefix(line, "data: "):
			current.Data = []byte(line[6:])
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return err
	}
	return ctx.Err()
}
