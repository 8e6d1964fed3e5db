package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mattjoyce/frontctl/internal/api"
	"github.com/mattjoyce/frontctl/internal/inspect"
	"github.com/mattjoyce/frontctl/internal/journal"
	"github.com/mattjoyce/frontctl/internal/protocol"
	"github.com/mattjoyce/frontctl/internal/storage"
)

const clientTimeout = 2 * time.Minute

// paramFlags collects repeated --param KEY=VALUE flags.
type paramFlags map[string]any

func (p paramFlags) String() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

func (p paramFlags) Set(v string) error {
	key, raw, ok := strings.Cut(v, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return fmt.Errorf("expected KEY=VALUE, got %q", v)
	}
	p[key] = parseParamValue(raw)
	return nil
}

// parseParamValue decodes raw as JSON when it is a complete JSON value and
// keeps it as a string otherwise. Numbers stay json.Number so integers are
// not widened to float.
func parseParamValue(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || !json.Valid([]byte(trimmed)) {
		return raw
	}
	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return raw
	}
	return v
}

func addClientFlags(fs *flag.FlagSet) (apiURL, apiKey *string) {
	apiURL = fs.String("api-url", envOr("FRONTCTL_API_URL", defaultAPIURL), "Service API URL")
	apiKey = fs.String("api-key", os.Getenv("FRONTCTL_API_KEY"), "API bearer token")
	return apiURL, apiKey
}

func runCommandList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	apiURL, apiKey := addClientFlags(fs)
	jsonOut := fs.Bool("json", false, "Output in JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), clientTimeout)
	defer cancel()

	cmds, err := api.NewClient(*apiURL, *apiKey).Commands(ctx)
	if err != nil {
		printClientError(err)
		return 1
	}

	if *jsonOut {
		data, _ := json.MarshalIndent(api.CommandListResponse{Commands: cmds}, "", "  ")
		fmt.Println(string(data))
		return 0
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTIMEOUT\tDESCRIPTION")
	for _, c := range cmds {
		timeout := "-"
		if c.TimeoutMS > 0 {
			timeout = (time.Duration(c.TimeoutMS) * time.Millisecond).String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Name, timeout, c.Description)
	}
	_ = tw.Flush()
	return 0
}

func runCommandSubmit(args []string) int {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	apiURL, apiKey := addClientFlags(fs)
	params := paramFlags{}
	fs.Var(params, "param", "Command parameter KEY=VALUE (repeatable)")
	paramsJSON := fs.String("params", "", "Command parameters as a JSON object")
	wait := fs.Bool("wait", false, "Wait for the command response")

	name, rest := splitPositional(args, map[string]bool{
		"api-url": true, "api-key": true, "param": true, "params": true,
	})
	if err := fs.Parse(rest); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if name == "" {
		fmt.Fprintln(os.Stderr, "Usage: frontctl command submit <name> [--param KEY=VALUE]... [--params JSON] [--wait]")
		return 1
	}

	merged := map[string]any{}
	if *paramsJSON != "" {
		dec := json.NewDecoder(strings.NewReader(*paramsJSON))
		dec.UseNumber()
		if err := dec.Decode(&merged); err != nil {
			fmt.Fprintf(os.Stderr, "--params must be a JSON object: %v\n", err)
			return 1
		}
	}
	for k, v := range params {
		merged[k] = v
	}

	sub := &protocol.SubmitRequest{Name: name, Params: merged}
	client := api.NewClient(*apiURL, *apiKey)

	ctx, cancel := context.WithTimeout(context.Background(), clientTimeout)
	defer cancel()

	if !*wait {
		accepted, err := client.Submit(ctx, sub)
		if err != nil {
			printClientError(err)
			return 1
		}
		data, _ := json.MarshalIndent(accepted, "", "  ")
		fmt.Println(string(data))
		return 0
	}

	resp, err := client.SubmitAndWait(ctx, sub)
	if err != nil {
		printClientError(err)
		return 1
	}
	data, _ := json.MarshalIndent(resp, "", "  ")
	fmt.Println(string(data))
	if resp.Failure != nil {
		return 1
	}
	return 0
}

func printClientError(err error) {
	var se *api.StatusError
	if errors.As(err, &se) {
		fmt.Fprintf(os.Stderr, "Request failed (%d): %s\n", se.Code, se.Message)
		return
	}
	fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
}

func runJournalList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration")
	limit := fs.Int("limit", 20, "Maximum number of entries")
	jsonOut := fs.Bool("json", false, "Output in JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	j, closeDB, code := openJournalForTool(*configPath)
	if j == nil {
		return code
	}
	defer closeDB()

	entries, err := j.Recent(context.Background(), *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read journal: %v\n", err)
		return 1
	}

	if *jsonOut {
		if entries == nil {
			entries = []journal.Entry{}
		}
		data, _ := json.MarshalIndent(entries, "", "  ")
		fmt.Println(string(data))
		return 0
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REQUEST ID\tCOMMAND\tSTATUS\tSTARTED\tDURATION\tFAILURE")
	for _, e := range entries {
		duration := "-"
		if e.DurationMS != nil {
			duration = fmt.Sprintf("%dms", *e.DurationMS)
		}
		failure := e.FailureKind
		if e.Subkind != "" {
			failure += "/" + e.Subkind
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.RequestID, e.Command, e.Status, e.StartedAt.Format(time.RFC3339), duration, failure)
	}
	_ = tw.Flush()
	return 0
}

func runJournalInspect(args []string) int {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration")
	jsonOut := fs.Bool("json", false, "Output report in JSON")

	requestID, rest := splitPositional(args, map[string]bool{"config": true})
	if err := fs.Parse(rest); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if requestID == "" {
		fmt.Fprintln(os.Stderr, "Usage: frontctl journal inspect <request_id> [--config PATH] [--json]")
		return 1
	}

	j, closeDB, code := openJournalForTool(*configPath)
	if j == nil {
		return code
	}
	defer closeDB()

	var (
		report string
		err    error
	)
	if *jsonOut {
		report, err = inspect.BuildJSONReport(context.Background(), j, requestID)
	} else {
		report, err = inspect.BuildReport(context.Background(), j, requestID)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Inspect failed: %v\n", err)
		return 1
	}

	fmt.Print(report)
	if !strings.HasSuffix(report, "\n") {
		fmt.Println()
	}
	return 0
}

// openJournalForTool opens the configured journal database. On failure it
// prints the reason and returns a nil journal with the exit code.
func openJournalForTool(configPath string) (*journal.Journal, func(), int) {
	cfg, err := loadConfigForTool(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, nil, 1
	}
	if !cfg.Journal.Enabled {
		fmt.Fprintln(os.Stderr, "The journal is disabled in this configuration.")
		return nil, nil, 1
	}

	db, err := storage.OpenSQLite(context.Background(), cfg.Journal.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open journal: %v\n", err)
		return nil, nil, 1
	}
	return journal.New(db), func() { _ = db.Close() }, 0
}
