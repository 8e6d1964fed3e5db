package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mattjoyce/frontctl/internal/api"
	"github.com/mattjoyce/frontctl/internal/events"
)

const (
	healthInterval = 5 * time.Second
	reconnectDelay = 3 * time.Second
)

type eventMsg events.Event

type healthMsg api.HealthzResponse

type tickMsg time.Time

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

type sseDisconnectedMsg struct{ err error }

type reconnectMsg struct{}

// subscribeToEvents streams /events into ch, resuming after lastID, and
// reports sseDisconnectedMsg when the stream ends.
func subscribeToEvents(client *api.Client, lastID int64, ch chan<- events.Event) tea.Cmd {
	return func() tea.Msg {
		err := client.StreamEvents(context.Background(), lastID, func(ev events.Event) error {
			ch <- ev
			return nil
		})
		return sseDisconnectedMsg{err: err}
	}
}

// receiveNextEvent waits for the next event from the channel.
func receiveNextEvent(ch <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		return eventMsg(<-ch)
	}
}

func fetchHealth(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		h, err := client.Health(ctx)
		if err != nil {
			return errMsg{err}
		}
		return healthMsg(*h)
	}
}

func scheduleHealth(client *api.Client) tea.Cmd {
	return tea.Tick(healthInterval, func(time.Time) tea.Msg {
		return fetchHealth(client)()
	})
}
