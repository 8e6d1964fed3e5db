// Package tui is the live terminal monitor for a running frontctl.
package tui

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/frontctl/internal/api"
	"github.com/mattjoyce/frontctl/internal/dispatch"
	"github.com/mattjoyce/frontctl/internal/events"
)

const (
	maxRows   = 200
	maxEvents = 50
)

// --- Styles ---

var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD"))

	statusOK      = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	statusRunning = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00"))
	statusFailed  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	statusQueued  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Padding(0, 1)
)

// --- Types ---

// CommandRow is one bracketed command as seen on the event stream.
type CommandRow struct {
	RequestID string
	Name      string
	Status    string // queued | running | succeeded | failed
	Failure   string
	StartTime time.Time
	Duration  time.Duration
}

type Model struct {
	client *api.Client

	width  int
	height int

	rows        map[string]*CommandRow
	order       []string // newest first
	eventLog    []events.Event
	hubEvents   chan events.Event
	lastEventID int64
	dropped     int

	health    api.HealthzResponse
	connected bool
	lastError string

	table    table.Model
	viewport viewport.Model
}

// NewMonitor returns a monitor for the API at apiURL.
func NewMonitor(apiURL, apiKey string) *Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ST", Width: 2},
			{Title: "Command", Width: 20},
			{Title: "Request", Width: 10},
			{Title: "Duration", Width: 10},
			{Title: "Failure", Width: 30},
		}),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return &Model{
		client:    api.NewClient(apiURL, apiKey),
		rows:      make(map[string]*CommandRow),
		hubEvents: make(chan events.Event, 100),
		table:     t,
		viewport:  viewport.New(80, 10),
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		subscribeToEvents(m.client, 0, m.hubEvents),
		receiveNextEvent(m.hubEvents),
		fetchHealth(m.client),
		tea.EnterAltScreen,
	)
}

// --- Update ---

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(m.width - 6)
		m.viewport.Width = m.width - 6
		m.viewport.Height = m.height / 3

	case eventMsg:
		m.handleEvent(events.Event(msg))
		m.updateTable()
		m.connected = true
		return m, receiveNextEvent(m.hubEvents)

	case healthMsg:
		m.health = api.HealthzResponse(msg)
		m.connected = true
		m.lastError = ""
		return m, scheduleHealth(m.client)

	case sseDisconnectedMsg:
		m.connected = false
		m.lastError = "event stream disconnected, reconnecting..."
		return m, tea.Tick(reconnectDelay, func(time.Time) tea.Msg { return reconnectMsg{} })

	case reconnectMsg:
		return m, subscribeToEvents(m.client, m.lastEventID, m.hubEvents)

	case errMsg:
		m.lastError = msg.Error()
		return m, scheduleHealth(m.client)
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

type requestData struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type responseData struct {
	RequestID string `json:"request_id"`
	Name      string `json:"name"`
	OK        bool   `json:"ok"`
	Failure   *struct {
		Kind    string `json:"kind"`
		Subkind string `json:"subkind"`
		Message string `json:"message"`
	} `json:"failure"`
	Duration time.Duration `json:"duration_ns"`
}

type scheduledData struct {
	RequestID string `json:"request_id"`
	Command   string `json:"command"`
}

func (m *Model) handleEvent(e events.Event) {
	if e.ID > m.lastEventID {
		m.lastEventID = e.ID
	}
	m.eventLog = append([]events.Event{e}, m.eventLog...)
	if len(m.eventLog) > maxEvents {
		m.eventLog = m.eventLog[:maxEvents]
	}

	switch e.Type {
	case "scheduler.scheduled":
		var d scheduledData
		if json.Unmarshal(e.Data, &d) != nil || d.RequestID == "" {
			return
		}
		row := m.row(d.RequestID)
		row.Name = d.Command
		if row.Status == "" {
			row.Status = "queued"
		}

	case dispatch.NotifyStarted:
		var d requestData
		if json.Unmarshal(e.Data, &d) != nil || d.ID == "" {
			return
		}
		row := m.row(d.ID)
		row.Name = d.Name
		row.Status = "running"
		row.StartTime = e.At

	case dispatch.NotifyEnded:
		var d responseData
		if json.Unmarshal(e.Data, &d) != nil || d.RequestID == "" {
			return
		}
		row := m.row(d.RequestID)
		row.Name = d.Name
		row.Duration = d.Duration
		if d.OK {
			row.Status = "succeeded"
			return
		}
		row.Status = "failed"
		if d.Failure != nil {
			row.Failure = d.Failure.Kind
			if d.Failure.Subkind != "" {
				row.Failure += "/" + d.Failure.Subkind
			}
		}

	case dispatch.NotifyError:
		m.dropped++
	}
}

// row returns the row for id, creating it at the top when new.
func (m *Model) row(id string) *CommandRow {
	if r, ok := m.rows[id]; ok {
		return r
	}
	r := &CommandRow{RequestID: id}
	m.rows[id] = r
	m.order = append([]string{id}, m.order...)
	if len(m.order) > maxRows {
		for _, old := range m.order[maxRows:] {
			delete(m.rows, old)
		}
		m.order = m.order[:maxRows]
	}
	return r
}

func (m *Model) updateTable() {
	rows := make([]table.Row, 0, len(m.order))
	for _, id := range m.order {
		rows = append(rows, rowFor(m.rows[id]))
	}
	m.table.SetRows(rows)
}

func rowFor(r *CommandRow) table.Row {
	statusSym := "○"
	switch r.Status {
	case "queued":
		statusSym = statusQueued.Render("○")
	case "running":
		statusSym = statusRunning.Render("◉")
	case "succeeded":
		statusSym = statusOK.Render("●")
	case "failed":
		statusSym = statusFailed.Render("∅")
	}

	duration := "-"
	switch {
	case r.Duration > 0:
		duration = r.Duration.Round(time.Millisecond).String()
	case r.Status == "running" && !r.StartTime.IsZero():
		duration = time.Since(r.StartTime).Round(time.Millisecond).String()
	}

	return table.Row{statusSym, r.Name, shortID(r.RequestID), duration, r.Failure}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// --- View ---

func (m *Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	header := m.renderHeader()
	commandsView := borderStyle.Width(m.width - 4).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Commands"),
			m.table.View(),
		),
	)

	m.viewport.SetContent(m.renderEvents())
	eventsView := borderStyle.Width(m.width - 4).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Event Stream"),
			m.viewport.View(),
		),
	)

	parts := []string{header, commandsView, eventsView}
	if m.lastError != "" {
		parts = append(parts, statusFailed.Render(" ⚠ "+m.lastError))
	}
	parts = append(parts, lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render(" [q] Quit • [↑/↓] Scroll"))

	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m *Model) renderHeader() string {
	status := statusOK.Render("RUNNING")
	switch {
	case !m.connected:
		status = statusQueued.Render("CONNECTING")
	case m.health.Status != "ok" && m.health.Status != "":
		status = statusFailed.Render(strings.ToUpper(m.health.Status))
	}

	d := m.health.Dispatcher
	uptime := time.Duration(m.health.UptimeSeconds) * time.Second
	phase := d.Phase
	if d.InFlight != "" {
		phase += " " + d.InFlight
	}

	items := []string{
		fmt.Sprintf("Status: %s", status),
		fmt.Sprintf("Uptime: %s", uptime),
		fmt.Sprintf("Queue: %d/%d", d.QueueDepth, d.QueueCapacity),
		fmt.Sprintf("Phase: %s", phase),
		fmt.Sprintf("OK/Fail/Drop: %d/%d/%d", d.Succeeded, d.Failed, d.Dropped),
	}

	w := (m.width - 4) / len(items)
	cols := make([]string, len(items))
	for i, it := range items {
		cols[i] = lipgloss.NewStyle().Width(w).Render(it)
	}
	return borderStyle.Width(m.width - 4).Render(lipgloss.JoinHorizontal(lipgloss.Top, cols...))
}

func (m *Model) renderEvents() string {
	var lines []string
	for _, e := range m.eventLog {
		ts := e.At.Format("15:04:05")
		lines = append(lines, fmt.Sprintf("%s | %-18s | %s", ts, e.Type, string(e.Data)))
	}
	if len(lines) == 0 {
		return "  No events yet..."
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(lines, "\n"))
}
