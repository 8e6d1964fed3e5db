package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mattjoyce/frontctl/internal/api"
	"github.com/mattjoyce/frontctl/internal/bridge/natsbridge"
	"github.com/mattjoyce/frontctl/internal/command"
	"github.com/mattjoyce/frontctl/internal/commands"
	"github.com/mattjoyce/frontctl/internal/config"
	"github.com/mattjoyce/frontctl/internal/dispatch"
	"github.com/mattjoyce/frontctl/internal/doctor"
	"github.com/mattjoyce/frontctl/internal/events"
	"github.com/mattjoyce/frontctl/internal/journal"
	"github.com/mattjoyce/frontctl/internal/lock"
	"github.com/mattjoyce/frontctl/internal/log"
	"github.com/mattjoyce/frontctl/internal/queue"
	"github.com/mattjoyce/frontctl/internal/scheduler"
	"github.com/mattjoyce/frontctl/internal/state"
	"github.com/mattjoyce/frontctl/internal/storage"
	"github.com/mattjoyce/frontctl/internal/telemetry"
	"github.com/mattjoyce/frontctl/internal/tui"
	"github.com/mattjoyce/frontctl/internal/webhook"
)

const shutdownTimeout = 5 * time.Second

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	if *configPath == "" {
		discovered, err := config.DiscoverConfigPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to discover config: %v\n", err)
			return 1
		}
		*configPath = discovered
		fmt.Fprintf(os.Stderr, "Using discovered config: %s\n", *configPath)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.Service.LogLevel, cfg.Service.LogFormat)
	logger := log.WithComponent("main")
	logger.Info("frontctl starting", "version", version, "config", cfg.SourcePath)

	pidLockPath := getPIDLockPath(cfg)
	pidLock, err := lock.AcquirePIDLock(pidLockPath)
	if err != nil {
		logger.Error("failed to acquire PID lock (another instance may be running)", "path", pidLockPath, "error", err)
		return 1
	}
	defer pidLock.Release()
	logger.Info("acquired PID lock", "path", pidLockPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Service.Name, cfg.Telemetry)
	if err != nil {
		logger.Error("failed to initialise tracing", "endpoint", cfg.Telemetry.Endpoint, "error", err)
		return 1
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer flushCancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("trace flush failed", "error", err)
		}
	}()

	db, err := storage.OpenSQLite(ctx, cfg.State.Path)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.State.Path, "error", err)
		return 1
	}
	defer db.Close()
	logger.Info("database opened", "path", cfg.State.Path)

	st := state.NewStore(db)

	var jr *journal.Journal
	if cfg.Journal.Enabled {
		jdb := db
		if !samePath(cfg.Journal.Path, cfg.State.Path) {
			jdb, err = storage.OpenSQLite(ctx, cfg.Journal.Path)
			if err != nil {
				logger.Error("failed to open journal", "path", cfg.Journal.Path, "error", err)
				return 1
			}
			defer jdb.Close()
		}
		jr = journal.New(jdb)
		logger.Info("journal enabled", "path", cfg.Journal.Path)
	}

	registry := command.NewRegistry()
	if err := commands.RegisterBuiltins(registry, st); err != nil {
		logger.Error("failed to register commands", "error", err)
		return 1
	}
	logger.Info("commands registered", "count", registry.Len(), "names", registry.Names())

	result := doctor.New(cfg, registry).Validate()
	for _, w := range result.Warnings {
		logger.Warn("config warning", "field", w.Field, "message", w.Message)
	}
	if !result.Valid {
		for _, e := range result.Errors {
			logger.Error("config error", "field", e.Field, "message", e.Message)
		}
		return 1
	}

	// Resolved before anything starts so a bad section leaves nothing to unwind.
	hookCfg, hooksEnabled, err := webhookConfig(cfg.Webhooks)
	if err != nil {
		logger.Error("invalid webhook config", "error", err)
		return 1
	}

	hub := events.NewHub(256)
	sink := events.Fanout{hub}
	if jr != nil {
		sink = append(sink, jr)
	}
	if cfg.NATS.Enabled {
		bridge, closeNATS, err := natsbridge.Connect(cfg.NATS, cfg.Service.Name)
		if err != nil {
			logger.Error("failed to connect to NATS", "url", cfg.NATS.URL, "error", err)
			return 1
		}
		defer closeNATS()
		sink = append(sink, bridge)
		logger.Info("NATS bridge enabled", "url", cfg.NATS.URL, "prefix", cfg.NATS.SubjectPrefix)
	}

	q := queue.New(cfg.Dispatcher.QueueCapacity)
	disp := dispatch.New(q, registry, sink, dispatch.Config{
		CommandTimeout: cfg.Dispatcher.CommandTimeout,
		Timeouts:       cfg.Dispatcher.Timeouts,
	})
	sched := scheduler.New(cfg, disp, hub, log.Get())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 3)
	dispDone := make(chan struct{})

	go func() {
		defer close(dispDone)
		if err := disp.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("dispatcher: %w", err)
		}
	}()

	if err := sched.Start(ctx); err != nil {
		logger.Error("scheduler failed to start", "error", err)
		disp.Stop()
		<-dispDone
		return 1
	}

	apiDone := make(chan struct{})
	if cfg.API.Enabled {
		var journalReader api.JournalReader
		if jr != nil {
			journalReader = jr
		}
		apiServer := api.New(api.Config{
			Listen:      cfg.API.Listen,
			APIKey:      cfg.API.APIKey,
			WaitTimeout: cfg.API.WaitTimeout,
		}, disp, registry, hub, journalReader, log.Get())
		go func() {
			defer close(apiDone)
			if err := apiServer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("api: %w", err)
			}
		}()
		logger.Info("API server enabled", "listen", cfg.API.Listen)
	} else {
		close(apiDone)
	}

	hookDone := make(chan struct{})
	hookCtx, stopHooks := context.WithCancel(ctx)
	defer stopHooks()
	if hooksEnabled {
		hooks := webhook.New(hookCfg, disp, hub, log.Get())
		go func() {
			defer close(hookDone)
			if err := hooks.Start(hookCtx); err != nil {
				errCh <- fmt.Errorf("webhooks: %w", err)
			}
		}()
		logger.Info("webhook server enabled", "listen", hookCfg.Listen, "endpoints", len(hookCfg.Endpoints))
	} else {
		close(hookDone)
	}

	logger.Info("frontctl running (press Ctrl+C to stop)")

	exitCode := 0
	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		logger.Error("component failed", "error", err)
		exitCode = 1
	}

	// Producers first, then let the command in flight finish.
	sched.Stop()
	stopHooks()
	<-hookDone
	disp.Stop()
	<-dispDone
	cancel()
	<-apiDone

	stats := disp.Stats()
	logger.Info("frontctl stopped",
		"accepted", stats.Accepted,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"dropped", stats.Dropped,
	)
	return exitCode
}

// webhookConfig resolves the webhook section. enabled is false when no
// endpoints are configured.
func webhookConfig(wc config.WebhooksConfig) (cfg webhook.Config, enabled bool, err error) {
	if len(wc.Endpoints) == 0 {
		return webhook.Config{}, false, nil
	}
	cfg, err = webhook.FromConfig(wc)
	if err != nil {
		return webhook.Config{}, false, err
	}
	return cfg, true, nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return absA == absB
}

func runMonitor(args []string) int {
	fs := flag.NewFlagSet("monitor", flag.ContinueOnError)
	apiURL := fs.String("api-url", envOr("FRONTCTL_API_URL", defaultAPIURL), "Service API URL")
	apiKey := fs.String("api-key", os.Getenv("FRONTCTL_API_KEY"), "API bearer token")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	// The TUI owns the terminal.
	log.SetOutput(io.Discard, "error", "text")

	m := tui.NewMonitor(*apiURL, *apiKey)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		return 1
	}
	return 0
}

type statusCheck struct {
	Name      string `json:"name"`
	OK        bool   `json:"ok"`
	Detail    string `json:"detail,omitempty"`
	ActivePID int    `json:"active_pid,omitempty"`
}

type statusReport struct {
	Healthy bool          `json:"healthy"`
	Config  string        `json:"config,omitempty"`
	Checks  []statusCheck `json:"checks"`
}

func runSystemStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	jsonOut := fs.Bool("json", false, "Output in JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	report := buildStatusReport(*configPath)

	if *jsonOut {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "JSON format error: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
	} else {
		for _, c := range report.Checks {
			status := "OK"
			if !c.OK {
				status = "FAIL"
			}
			if c.Detail != "" {
				fmt.Printf("%s: %s (%s)\n", c.Name, status, c.Detail)
			} else {
				fmt.Printf("%s: %s\n", c.Name, status)
			}
		}
	}

	if !report.Healthy {
		return 1
	}
	return 0
}

func buildStatusReport(configPath string) statusReport {
	report := statusReport{Healthy: true}
	add := func(c statusCheck) {
		report.Checks = append(report.Checks, c)
		if !c.OK {
			report.Healthy = false
		}
	}

	cfg, err := loadConfigForTool(configPath)
	if err != nil {
		add(statusCheck{Name: "config_load", Detail: err.Error()})
		add(statusCheck{Name: "state_db", Detail: "skipped: config not loaded"})
		add(statusCheck{Name: "journal_db", Detail: "skipped: config not loaded"})
		add(statusCheck{Name: "pid_lock", Detail: "skipped: config not loaded"})
		return report
	}
	report.Config = cfg.SourcePath
	add(statusCheck{Name: "config_load", OK: true})

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	add(checkDatabase(ctx, "state_db", cfg.State.Path))
	if cfg.Journal.Enabled {
		add(checkDatabase(ctx, "journal_db", cfg.Journal.Path))
	} else {
		add(statusCheck{Name: "journal_db", OK: true, Detail: "disabled"})
	}

	lockPath := getPIDLockPath(cfg)
	pid, active, err := lock.ActivePID(lockPath)
	switch {
	case err != nil:
		add(statusCheck{Name: "pid_lock", Detail: err.Error()})
	case active:
		add(statusCheck{Name: "pid_lock", Detail: "held by running process " + lockPath, ActivePID: pid})
	default:
		add(statusCheck{Name: "pid_lock", OK: true, Detail: "free"})
	}
	return report
}

func checkDatabase(ctx context.Context, name, path string) statusCheck {
	db, err := storage.OpenSQLite(ctx, path)
	if err != nil {
		return statusCheck{Name: name, Detail: err.Error()}
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return statusCheck{Name: name, Detail: err.Error()}
	}
	return statusCheck{Name: name, OK: true, Detail: path}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
