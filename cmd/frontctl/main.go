package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/mattjoyce/frontctl/internal/config"
)

var (
	version   = "0.1.0-dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

const defaultAPIURL = "http://127.0.0.1:8080"

func main() {
	os.Exit(runCLI(os.Args[1:]))
}

func runCLI(cliArgs []string) int {
	if len(cliArgs) < 1 {
		printUsage()
		return 1
	}

	cmd := cliArgs[0]
	args := cliArgs[1:]

	if cmd == "--version" {
		return runVersion(args)
	}

	switch cmd {
	// --- NOUNS ---
	case "system":
		return runSystemNoun(args)
	case "config":
		return runConfigNoun(args)
	case "command":
		return runCommandNoun(args)
	case "journal":
		return runJournalNoun(args)

	// --- ROOT ALIASES ---
	case "start":
		return runStart(args)
	case "monitor":
		return runMonitor(args)
	case "version":
		return runVersion(args)
	case "help", "--help", "-h":
		printUsage()
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		return 1
	}
}

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

func runVersion(args []string) int {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "Output version metadata as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "Usage: frontctl version [--json]")
		return 1
	}

	info := currentVersionInfo()

	if *jsonOut {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render version JSON: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	fmt.Printf("frontctl %s\n", info.Version)
	fmt.Printf("commit: %s\n", info.Commit)
	fmt.Printf("built_at: %s\n", info.BuildTime)
	return 0
}

func currentVersionInfo() versionInfo {
	info := versionInfo{
		Version:   strings.TrimSpace(version),
		Commit:    "unknown",
		BuildTime: "unknown",
	}

	if info.Version == "" {
		info.Version = "0.0.0-dev"
	}

	resolvedCommit := strings.TrimSpace(gitCommit)
	if resolvedCommit == "" || resolvedCommit == "unknown" {
		resolvedCommit = strings.TrimSpace(readBuildSetting("vcs.revision"))
	}
	if resolvedCommit != "" {
		info.Commit = shortenCommit(resolvedCommit)
	}

	resolvedBuildTime := strings.TrimSpace(buildDate)
	if resolvedBuildTime == "" || resolvedBuildTime == "unknown" {
		resolvedBuildTime = strings.TrimSpace(readBuildSetting("vcs.time"))
	}
	if normalizedBuildTime, ok := normalizeBuildTimeUTC(resolvedBuildTime); ok {
		info.BuildTime = normalizedBuildTime
	}

	return info
}

func shortenCommit(commit string) string {
	if len(commit) <= 12 {
		return commit
	}
	return commit[:12]
}

func normalizeBuildTimeUTC(raw string) (string, bool) {
	if raw == "" || raw == "unknown" {
		return "", false
	}

	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return "", false
	}

	return t.UTC().Format(time.RFC3339), true
}

func readBuildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}

func printUsage() {
	fmt.Print(`frontctl - Event-bracketed command dispatcher

Usage:
  frontctl <noun> <action> [flags]

Core Resources (Nouns):
  system    Dispatcher lifecycle and health
  config    Configuration validation and integrity
  command   Registered commands and submission
  journal   Recorded command outcomes

System Commands:
  system start      Start the dispatcher service in foreground
  system status     Check config, databases, and PID lock
  system monitor    Real-time command monitor TUI

Config Commands:
  config check      Validate configuration against registered commands
  config lock       Record the config file hash in .checksums
  config show       Print the resolved configuration

Command Commands:
  command list              Show commands registered on a running service
  command submit <name>     Submit a command over the API

Journal Commands:
  journal list              Show recent requests from the local journal
  journal inspect <id>      Show one request from the local journal

General:
  --version         Show version information
  version           Show version information
  help              Show this help message

Use 'frontctl <noun> help' for resource-specific flags.
`)
}

// --- NOUN DISPATCHERS ---

func runSystemNoun(args []string) int {
	if len(args) < 1 {
		printSystemNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printSystemNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "start":
		if hasHelpFlag(actionArgs) {
			printSystemStartHelp()
			return 0
		}
		return runStart(actionArgs)
	case "status":
		if hasHelpFlag(actionArgs) {
			printSystemStatusHelp()
			return 0
		}
		return runSystemStatus(actionArgs)
	case "monitor":
		if hasHelpFlag(actionArgs) {
			printSystemMonitorHelp()
			return 0
		}
		return runMonitor(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown system action: %s\n", action)
		return 1
	}
}

func runConfigNoun(args []string) int {
	if len(args) < 1 {
		printConfigNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printConfigNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "lock":
		if hasHelpFlag(actionArgs) {
			printConfigLockHelp()
			return 0
		}
		return runConfigLock(actionArgs)
	case "check":
		if hasHelpFlag(actionArgs) {
			printConfigCheckHelp()
			return 0
		}
		return runConfigCheck(actionArgs)
	case "show":
		if hasHelpFlag(actionArgs) {
			printConfigShowHelp()
			return 0
		}
		return runConfigShow(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown config action: %s\n", action)
		return 1
	}
}

func runCommandNoun(args []string) int {
	if len(args) < 1 {
		printCommandNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printCommandNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "list":
		if hasHelpFlag(actionArgs) {
			printCommandListHelp()
			return 0
		}
		return runCommandList(actionArgs)
	case "submit":
		if hasHelpFlag(actionArgs) {
			printCommandSubmitHelp()
			return 0
		}
		return runCommandSubmit(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command action: %s\n", action)
		return 1
	}
}

func runJournalNoun(args []string) int {
	if len(args) < 1 {
		printJournalNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printJournalNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "list":
		if hasHelpFlag(actionArgs) {
			printJournalListHelp()
			return 0
		}
		return runJournalList(actionArgs)
	case "inspect":
		if hasHelpFlag(actionArgs) {
			printJournalInspectHelp()
			return 0
		}
		return runJournalInspect(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown journal action: %s\n", action)
		return 1
	}
}

func isHelpToken(token string) bool {
	return token == "help" || token == "--help" || token == "-h"
}

func hasHelpFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			return true
		}
	}
	return false
}

func printSystemNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: frontctl system <action>")
	fmt.Fprintln(w, "Actions: start, status, monitor")
}

func printConfigNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: frontctl config <action> [flags]")
	fmt.Fprintln(w, "Actions: check, lock, show")
}

func printCommandNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: frontctl command <action> [flags]")
	fmt.Fprintln(w, "Actions: list, submit")
}

func printJournalNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: frontctl journal <action> [flags]")
	fmt.Fprintln(w, "Actions: list, inspect")
}

func printSystemStartHelp() {
	fmt.Println("Usage: frontctl system start [--config PATH]")
	fmt.Println("Start the dispatcher service in the foreground.")
}

func printSystemStatusHelp() {
	fmt.Println("Usage: frontctl system status [--config PATH] [--json]")
	fmt.Println("Check config, database readiness, and PID lock state.")
	fmt.Println("")
	fmt.Println("Exit codes:")
	fmt.Println("  0  All required checks passed")
	fmt.Println("  1  One or more checks failed")
}

func printSystemMonitorHelp() {
	fmt.Println("Usage: frontctl system monitor [--api-url URL] [--api-key KEY]")
	fmt.Println("Launch the real-time command monitor.")
}

func printConfigLockHelp() {
	fmt.Println("Usage: frontctl config lock [--config PATH] [-v|--verbose] [--dry-run]")
	fmt.Println("Record the current config file hash in .checksums next to it.")
}

func printConfigCheckHelp() {
	fmt.Println("Usage: frontctl config check [--config PATH] [--format human|json] [--strict] [--json]")
	fmt.Println("Validate configuration against the built-in command registry.")
}

func printConfigShowHelp() {
	fmt.Println("Usage: frontctl config show [--config PATH] [--json]")
	fmt.Println("Print the configuration after defaults and environment overrides.")
}

func printCommandListHelp() {
	fmt.Println("Usage: frontctl command list [--api-url URL] [--api-key KEY] [--json]")
	fmt.Println("List commands registered on a running service.")
}

func printCommandSubmitHelp() {
	fmt.Println("Usage: frontctl command submit <name> [--param KEY=VALUE]... [--params JSON] [--wait] [--api-url URL] [--api-key KEY]")
	fmt.Println("Submit a command. VALUE is parsed as JSON when it can be, otherwise used as a string.")
	fmt.Println("With --wait, block until the response arrives and exit 1 if the command failed.")
}

func printJournalListHelp() {
	fmt.Println("Usage: frontctl journal list [--config PATH] [--limit N] [--json]")
	fmt.Println("Show recent requests from the local journal database.")
}

func printJournalInspectHelp() {
	fmt.Println("Usage: frontctl journal inspect <request_id> [--config PATH] [--json]")
	fmt.Println("Show params, outcome, and timing for one request.")
}

// loadConfigForTool discovers the config when configPath is empty.
func loadConfigForTool(configPath string) (*config.Config, error) {
	if configPath == "" {
		discovered, err := config.DiscoverConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to discover config: %w", err)
		}
		configPath = discovered
	}
	return config.Load(configPath)
}

// getPIDLockPath places the PID file next to the state database.
func getPIDLockPath(cfg *config.Config) string {
	dbPath := cfg.State.Path
	dbDir := filepath.Dir(dbPath)
	dbBase := filepath.Base(dbPath)
	ext := filepath.Ext(dbBase)
	nameWithoutExt := dbBase[:len(dbBase)-len(ext)]
	return filepath.Join(dbDir, nameWithoutExt+".pid")
}

// splitPositional pulls the first non-flag argument out of args so flags
// may follow it, e.g. 'frontctl journal inspect <id> --json'. takesValue
// names flags whose next argument is their value.
func splitPositional(args []string, takesValue map[string]bool) (string, []string) {
	var positional string
	rest := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if strings.HasPrefix(arg, "-") {
			rest = append(rest, arg)
			name := strings.TrimLeft(arg, "-")
			if takesValue[name] && !strings.Contains(name, "=") && i+1 < len(args) {
				rest = append(rest, args[i+1])
				i++
			}
			continue
		}
		if positional == "" {
			positional = arg
			continue
		}
		rest = append(rest, arg)
	}
	return positional, rest
}
